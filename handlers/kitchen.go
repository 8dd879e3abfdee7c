package handlers

import (
	"net/http"

	"nexus-bakery-api/models"
	"nexus-bakery-api/service"
	"nexus-bakery-api/statemachine"

	"github.com/gin-gonic/gin"
)

type AdvanceStepRequest struct {
	// Step is the target step; empty means "the next one"
	Step models.ProductionStep `json:"step"`
}

// KitchenQueue returns every order still in production with its recipes
func KitchenQueue(reports *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := reports.KitchenBoard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		summary := map[string]int{}
		for _, t := range tickets {
			summary[string(t.Order.ProductionStep)]++
		}
		c.JSON(http.StatusOK, gin.H{
			"step_summary": summary,
			"count":        len(tickets),
			"tickets":      tickets,
		})
	}
}

// AdvanceProductionStep moves an order through the kitchen
func AdvanceProductionStep(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdvanceStepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		ctx := c.Request.Context()
		id := c.Param("id")

		if req.Step == "" {
			current, err := orders.Get(ctx, id)
			if err != nil {
				respondError(c, err)
				return
			}
			next, ok := statemachine.Production.Next(current.ProductionStep, current.Fulfillment)
			if !ok {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Production already completed"})
				return
			}
			req.Step = next
		}

		order, err := orders.AdvanceProductionStep(ctx, id, req.Step, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		next := statemachine.Production.ValidTransitionsFrom(order.ProductionStep, order.Fulfillment)
		c.JSON(http.StatusOK, gin.H{
			"message":         "Production step updated",
			"order":           order,
			"production_step": order.ProductionStep,
			"status":          order.Status,
			"next_steps":      next,
		})
	}
}

// ListRecipes returns the recipe book
func ListRecipes(catalog *service.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		recipes, err := catalog.ListRecipes(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(recipes), "recipes": recipes})
	}
}
