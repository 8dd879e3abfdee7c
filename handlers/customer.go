package handlers

import (
	"net/http"
	"strings"
	"time"

	"nexus-bakery-api/middleware"
	"nexus-bakery-api/models"
	"nexus-bakery-api/service"
	"nexus-bakery-api/store"

	"github.com/gin-gonic/gin"
)

type PlaceOrderRequest struct {
	CustomerName    string                 `json:"customer_name"`
	Fulfillment     models.FulfillmentType `json:"fulfillment" binding:"required"`
	PaymentMethod   string                 `json:"payment_method"`
	DeliveryAddress string                 `json:"delivery_address"`
	Items           []service.CartLine     `json:"items"`
}

// PlaceOrder creates a new order (client only)
func PlaceOrder(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		name := req.CustomerName
		if strings.TrimSpace(name) == "" {
			name = middleware.GetUserName(c)
		}

		order, err := orders.CreateOrder(c.Request.Context(), service.PlaceOrder{
			CustomerID:      middleware.GetUserID(c),
			CustomerName:    name,
			Items:           req.Items,
			Fulfillment:     req.Fulfillment,
			PaymentMethod:   req.PaymentMethod,
			DeliveryAddress: req.DeliveryAddress,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Order placed successfully",
			"order":      order,
			"amount_due": order.AmountDue,
		})
	}
}

// GetMyOrders returns all orders for the logged-in client
func GetMyOrders(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := orders.List(c.Request.Context(), store.OrderFilter{CustomerID: middleware.GetUserID(c)})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
	}
}

// GetOrderDetail returns a single order's full detail with history
func GetOrderDetail(orders *service.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if order.CustomerID != middleware.GetUserID(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to you"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":           order,
			"minutes_elapsed": int(time.Since(order.CreatedAt).Minutes()),
		})
	}
}
