package routes

import (
	"net/http"

	"nexus-bakery-api/handlers"
	"nexus-bakery-api/metrics"
	"nexus-bakery-api/middleware"
	"nexus-bakery-api/models"
	"nexus-bakery-api/sensory"
	"nexus-bakery-api/service"

	"github.com/gin-gonic/gin"
)

// Deps is everything the routes need
type Deps struct {
	Orders   *service.OrderService
	Catalog  *service.CatalogService
	Waste    *service.WasteService
	Reports  *service.ReportService
	Accounts *service.AccountService
	Studio   *sensory.Studio
	Metrics  *metrics.Metrics
	Tokens   handlers.TokenConfig
}

func SetupRoutes(r *gin.Engine, d Deps) {
	r.Use(d.Metrics.Middleware(), middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Nexus Atelier Bakery API",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	authRequired := middleware.AuthRequired(d.Tokens.Secret)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", handlers.Register(d.Accounts, d.Tokens))
		public.POST("/auth/login", handlers.Login(d.Accounts, d.Tokens))
		public.POST("/auth/demo", handlers.DemoLogin(d.Accounts, d.Tokens))

		public.GET("/products", handlers.ListProducts(d.Catalog))
		public.GET("/products/:id", handlers.GetProduct(d.Catalog))
		public.GET("/products/:id/sensory", handlers.GetSensoryDescription(d.Catalog, d.Studio))

		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/profile", handlers.GetProfile(d.Accounts))
		auth.POST("/designs/quote", handlers.QuoteDesign(d.Studio))
		auth.POST("/designs/chat", handlers.DesignChat(d.Studio))
	}

	// ── Client routes ──────────────────────────────────────────────
	client := r.Group("/api/client")
	client.Use(authRequired, middleware.RoleRequired(models.RoleClient))
	{
		client.POST("/orders", handlers.PlaceOrder(d.Orders))
		client.GET("/orders", handlers.GetMyOrders(d.Orders))
		client.GET("/orders/:id", handlers.GetOrderDetail(d.Orders))
	}

	// ── Kitchen routes ─────────────────────────────────────────────
	kitchen := r.Group("/api/kitchen")
	kitchen.Use(authRequired, middleware.RoleRequired(models.RoleBaker, models.RoleAdmin))
	{
		kitchen.GET("/queue", handlers.KitchenQueue(d.Reports))
		kitchen.PUT("/orders/:id/step", handlers.AdvanceProductionStep(d.Orders))
		kitchen.GET("/recipes", handlers.ListRecipes(d.Catalog))
	}

	// ── Logistics routes ───────────────────────────────────────────
	logistics := r.Group("/api/logistics")
	logistics.Use(authRequired, middleware.RoleRequired(models.RoleDriver, models.RoleAdmin))
	{
		logistics.GET("/deliveries", handlers.GetDeliveries(d.Reports))
		logistics.PUT("/orders/:id/pickup", handlers.PickupOrder(d.Orders))
		logistics.PUT("/orders/:id/deliver", handlers.DeliverOrder(d.Orders))
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", handlers.AdminGetAllOrders(d.Orders))
		admin.PUT("/orders/:id/status", handlers.AdminUpdateOrderStatus(d.Orders))
		admin.PUT("/orders/:id/force-status", handlers.AdminForceOrderStatus(d.Orders))
		admin.GET("/dashboard", handlers.AdminDashboard(d.Reports))

		admin.POST("/products", handlers.CreateProduct(d.Catalog))
		admin.PUT("/products/:id", handlers.UpdateProduct(d.Catalog))
		admin.PATCH("/products/:id/stock", handlers.AdjustStock(d.Catalog))

		admin.GET("/inventory", handlers.GetInventory(d.Catalog))
		admin.GET("/inventory/alerts", handlers.GetInventoryAlerts(d.Catalog))
		admin.PUT("/raw-materials/:id", handlers.SaveRawMaterial(d.Catalog))
		admin.PUT("/recipes/:productId", handlers.SaveRecipe(d.Catalog))

		admin.GET("/waste", handlers.AdminListWaste(d.Waste))
		admin.POST("/waste", handlers.AdminLogWaste(d.Waste))
	}
}
