package handlers

import (
	"net/http"

	"nexus-bakery-api/service"

	"github.com/gin-gonic/gin"
)

type AdjustStockRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// CreateProduct adds a product to the catalog
func CreateProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		p, err := catalog.CreateProduct(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": p})
	}
}

// UpdateProduct edits an existing product
func UpdateProduct(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProductInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		p, err := catalog.UpdateProduct(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": p})
	}
}

// AdjustStock applies a signed stock delta to a product
func AdjustStock(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdjustStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		p, err := catalog.AdjustStock(c.Request.Context(), c.Param("id"), *req.Delta)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"product": p, "stock": p.Stock})
	}
}

// GetInventory returns raw materials with the ones below minimum flagged
func GetInventory(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		materials, err := catalog.ListMaterials(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"count":     len(materials),
			"materials": materials,
			"alerts":    service.ListBelowMinimum(materials),
		})
	}
}

// GetInventoryAlerts returns only the raw materials that need restocking
func GetInventoryAlerts(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		alerts, err := catalog.LowStockAlerts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(alerts), "alerts": alerts})
	}
}

// SaveRawMaterial updates (or creates) a raw material
func SaveRawMaterial(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.MaterialInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		m, err := catalog.SaveMaterial(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"material": m, "below_minimum": m.BelowMinimum()})
	}
}

// SaveRecipe replaces the recipe of a product
func SaveRecipe(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.RecipeInput
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		rec, err := catalog.SaveRecipe(c.Request.Context(), c.Param("productId"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"recipe": rec})
	}
}
