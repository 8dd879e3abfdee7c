package handlers

import (
	"net/http"

	"nexus-bakery-api/models"
	"nexus-bakery-api/sensory"
	"nexus-bakery-api/service"
	"nexus-bakery-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListProducts returns the storefront catalog, optionally filtered by category
func ListProducts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.ListProducts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if category := c.Query("category"); category != "" {
			filtered := products[:0]
			for _, p := range products {
				if string(p.Category) == category {
					filtered = append(filtered, p)
				}
			}
			products = filtered
		}
		c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
	}
}

// GetProduct returns a single product
func GetProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": p})
	}
}

// GetSensoryDescription returns generated tasting notes for a product
func GetSensoryDescription(catalog *service.CatalogService, studio *sensory.Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"product_id":  p.ID,
			"description": studio.Describe(c.Request.Context(), p),
		})
	}
}

// QuoteDesign renders and prices a custom cake design
func QuoteDesign(studio *sensory.Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sensory.DesignRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"design": studio.Quote(c.Request.Context(), req)})
	}
}

// DesignChat forwards one message to the cake studio concierge
func DesignChat(studio *sensory.Studio) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Message string `json:"message" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, studio.Chat(c.Request.Context(), req.Message))
	}
}

// GetStateMachineInfo returns both state machines for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": gin.H{
			"sequence":       statemachine.Status.Sequence(),
			"transitions":    statemachine.Status.GetAllTransitions(),
			"terminal_state": models.StatusDelivered,
		},
		"production": gin.H{
			"sequence":       statemachine.Production.Sequence(),
			"transitions":    statemachine.Production.GetAllTransitions(),
			"terminal_state": models.StepCompleted,
		},
		"reconciliation": []gin.H{
			{"step": models.StepMixing, "raises_status_to": models.StatusProduction, "consumes_materials": true},
			{"step": models.StepCompleted, "raises_status_to": models.StatusReady},
		},
		"description": "Bakery order lifecycle: customer status track and kitchen production track",
	})
}
