package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nexus-bakery-api/models"

	"github.com/gin-gonic/gin"
)

var testSecret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(testSecret), RoleRequired(models.RoleBaker, models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c), "name": GetUserName(c)})
	})
	return r
}

func request(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	r := newRouter()

	if rec := request(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", rec.Code)
	}
	if rec := request(r, "not-a-jwt"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", rec.Code)
	}

	other, _ := GenerateToken(&models.User{ID: "u1", Role: models.RoleBaker}, []byte("other"), time.Hour)
	if rec := request(r, other); rec.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature: status %d", rec.Code)
	}

	expired, _ := GenerateToken(&models.User{ID: "u1", Role: models.RoleBaker}, testSecret, -time.Minute)
	if rec := request(r, expired); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status %d", rec.Code)
	}

	token, err := GenerateToken(&models.User{ID: "u1", Name: "Artisan_X", Role: models.RoleBaker}, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rec := request(r, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status %d body %s", rec.Code, rec.Body)
	}
	if body := rec.Body.String(); body != `{"id":"u1","name":"Artisan_X","role":"baker"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRoleRequired(t *testing.T) {
	r := newRouter()
	token, _ := GenerateToken(&models.User{ID: "u2", Role: models.RoleClient}, testSecret, time.Hour)
	if rec := request(r, token); rec.Code != http.StatusForbidden {
		t.Fatalf("client on baker route: status %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/x", nil))
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}
}
