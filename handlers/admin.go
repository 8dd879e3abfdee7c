package handlers

import (
	"net/http"

	"nexus-bakery-api/models"
	"nexus-bakery-api/service"
	"nexus-bakery-api/statemachine"
	"nexus-bakery-api/store"

	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type ForceOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason" binding:"required"`
}

type LogWasteRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// AdminGetAllOrders returns all orders with a per-status summary
func AdminGetAllOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.OrderFilter{
			CustomerID:  c.Query("customer_id"),
			Status:      models.OrderStatus(c.Query("status")),
			Fulfillment: models.FulfillmentType(c.Query("fulfillment")),
		}
		list, err := orders.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}

		summary := map[string]int{}
		for _, o := range list {
			summary[string(o.Status)]++
		}
		c.JSON(http.StatusOK, gin.H{
			"order_summary": summary,
			"count":         len(list),
			"orders":        list,
		})
	}
}

// AdminUpdateOrderStatus advances the status track through the state machine
func AdminUpdateOrderStatus(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		order, err := orders.AdvanceOrderStatus(c.Request.Context(), c.Param("id"), req.Status, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":           "Order status updated",
			"order":             order,
			"valid_next_states": statemachine.Status.ValidTransitionsFrom(order.Status, order.Fulfillment),
		})
	}
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func AdminForceOrderStatus(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForceOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		order, err := orders.ForceOrderStatus(c.Request.Context(), c.Param("id"), req.Status, req.Reason, actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    "Order status force-updated by admin",
			"order_id":   order.ID,
			"new_status": order.Status,
			"order":      order,
		})
	}
}

// AdminDashboard returns revenue, cost, waste and inventory alerts
func AdminDashboard(reports *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := reports.Dashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dashboard": d})
	}
}

// AdminListWaste returns the waste ledger with its accumulated cost
func AdminListWaste(waste *service.WasteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		logs, err := waste.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		var total float64
		for _, w := range logs {
			total += w.CostLoss
		}
		c.JSON(http.StatusOK, gin.H{"count": len(logs), "total_cost_loss": total, "waste": logs})
	}
}

// AdminLogWaste records discarded product
func AdminLogWaste(waste *service.WasteService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LogWasteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		entry, err := waste.LogWaste(c.Request.Context(), req.ProductID, req.Quantity, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Waste recorded", "waste": entry})
	}
}
