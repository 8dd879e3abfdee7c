package handlers

import (
	"net/http"

	"nexus-bakery-api/models"
	"nexus-bakery-api/service"

	"github.com/gin-gonic/gin"
)

// GetDeliveries lists delivery orders not yet delivered
func GetDeliveries(reports *service.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := reports.LogisticsBoard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		available := 0
		for _, o := range orders {
			if o.Status == models.StatusReady && o.DriverID == nil {
				available++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":     len(orders),
			"available": available,
			"orders":    orders,
		})
	}
}

// PickupOrder assigns the order to the driver and moves it READY → DELIVERING
func PickupOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.PickupOrder(c.Request.Context(), c.Param("id"), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":    "Order picked up. Head to delivery address!",
			"order":      order,
			"new_status": order.Status,
		})
	}
}

// DeliverOrder marks the order as delivered
func DeliverOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.CompleteDelivery(c.Request.Context(), c.Param("id"), actor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":       "Order delivered successfully!",
			"order":         order,
			"new_status":    order.Status,
			"points_earned": order.PointsEarned,
		})
	}
}
