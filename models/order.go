package models

import "time"

// OrderStatus is the customer-facing track of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusProduction OrderStatus = "PRODUCTION"
	StatusReady      OrderStatus = "READY"
	StatusDelivering OrderStatus = "DELIVERING"
	StatusDelivered  OrderStatus = "DELIVERED"
)

// ProductionStep is the kitchen-facing track of an order
type ProductionStep string

const (
	StepQueue      ProductionStep = "QUEUE"
	StepMixing     ProductionStep = "MIXING"
	StepBaking     ProductionStep = "BAKING"
	StepDecorating ProductionStep = "DECORATING"
	StepPackaging  ProductionStep = "PACKAGING"
	StepCompleted  ProductionStep = "COMPLETED"
)

// FulfillmentType says how the order leaves the atelier
type FulfillmentType string

const (
	FulfillmentDelivery FulfillmentType = "delivery"
	FulfillmentPickup   FulfillmentType = "pickup"
)

// HistoryTrack tells which of the two state machines a history row belongs to
type HistoryTrack string

const (
	TrackStatus     HistoryTrack = "status"
	TrackProduction HistoryTrack = "production"
)

// CakeDesign is the custom design attached to a cart line from the cake studio
type CakeDesign struct {
	ID            string  `json:"id"`
	ImageURL      string  `json:"image_url"`
	Prompt        string  `json:"prompt"`
	Flavor        string  `json:"flavor"`
	Servings      int     `json:"servings"`
	Theme         string  `json:"theme"`
	Notes         string  `json:"notes"`
	Style         string  `json:"style"`
	PriceEstimate float64 `json:"price_estimate"`
	AIConfidence  float64 `json:"ai_confidence"`
}

type Order struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	CustomerID      string          `json:"customer_id" gorm:"index;not null"`
	CustomerName    string          `json:"customer_name"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Total           float64         `json:"total"`
	DeliveryFee     float64         `json:"delivery_fee"`
	AmountDue       float64         `json:"amount_due"` // fixed under the fee policy in force at checkout
	Status          OrderStatus     `json:"status" gorm:"index;not null;default:'PENDING'"`
	ProductionStep  ProductionStep  `json:"production_step" gorm:"not null;default:'QUEUE'"`
	Fulfillment     FulfillmentType `json:"fulfillment" gorm:"not null"`
	PaymentMethod   string          `json:"payment_method"`
	DeliveryAddress string          `json:"delivery_address"`
	DriverID        *string         `json:"driver_id"`
	PointsEarned    int             `json:"points_earned"`
	PointsUsed      int             `json:"points_used"`
	History         []OrderHistory  `json:"history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	OrderID      string      `json:"order_id" gorm:"index;not null"`
	ProductID    string      `json:"product_id" gorm:"not null"`
	Name         string      `json:"name"`                                // snapshot name
	Category     Category    `json:"category"`                            // snapshot category
	Price        float64     `json:"price" gorm:"not null"`               // snapshot price at time of order
	Cost         float64     `json:"cost"`                                // snapshot production cost
	Quantity     int         `json:"quantity" gorm:"not null"`
	CustomDesign *CakeDesign `json:"custom_design,omitempty" gorm:"serializer:json"`
}

// OrderHistory tracks every change on either track
type OrderHistory struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	OrderID   string       `json:"order_id" gorm:"index;not null"`
	Track     HistoryTrack `json:"track" gorm:"not null"`
	From      string       `json:"from"`
	To        string       `json:"to" gorm:"not null"`
	ChangedBy string       `json:"changed_by"` // user ID who triggered the transition
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}

// MaterialConsumption marks an order whose raw materials were already deducted
type MaterialConsumption struct {
	OrderID    string    `json:"order_id" gorm:"primaryKey"`
	ConsumedAt time.Time `json:"consumed_at"`
}

// PointsCredit marks an order whose loyalty points were already paid out
type PointsCredit struct {
	OrderID    string    `json:"order_id" gorm:"primaryKey"`
	CreditedAt time.Time `json:"credited_at"`
}
