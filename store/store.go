// Package store defines the persistence boundary of the bakery service. Workflow code
// only talks to these interfaces; gormstore and memory provide the backends.
package store

import (
	"context"
	"errors"
	"time"

	"nexus-bakery-api/models"
)

var (
	// ErrNotFound is returned when a lookup by identifier matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a record with the same key already exists.
	ErrConflict = errors.New("record already exists")
)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	CustomerID  string
	DriverID    string
	Status      models.OrderStatus
	NotStatus   models.OrderStatus
	NotStep     models.ProductionStep
	Fulfillment models.FulfillmentType
}

// Store groups the per-entity repositories and the unit of work.
type Store interface {
	Products() ProductRepository
	RawMaterials() RawMaterialRepository
	Recipes() RecipeRepository
	Orders() OrderRepository
	Waste() WasteRepository
	Users() UserRepository

	// Transaction runs fn against a transactional Store. Nothing fn wrote is kept
	// when it returns an error. Nested calls join the outer transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	Save(ctx context.Context, p *models.Product) error
}

type RawMaterialRepository interface {
	List(ctx context.Context) ([]models.RawMaterial, error)
	Get(ctx context.Context, id string) (models.RawMaterial, error)
	Save(ctx context.Context, m *models.RawMaterial) error
}

type RecipeRepository interface {
	List(ctx context.Context) ([]models.Recipe, error)
	GetByProduct(ctx context.Context, productID string) (models.Recipe, error)
	Save(ctx context.Context, r *models.Recipe) error
}

type OrderRepository interface {
	// List returns orders with their items, newest first.
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// Get returns one order with items and history.
	Get(ctx context.Context, id string) (models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	// Update persists the mutable fields: status, production step, driver and
	// UpdatedAt as set by the caller.
	Update(ctx context.Context, o *models.Order) error
	AppendHistory(ctx context.Context, h *models.OrderHistory) error
	// MarkConsumed records that the order's raw materials were deducted. It
	// reports false when the order had already been marked.
	MarkConsumed(ctx context.Context, orderID string, at time.Time) (bool, error)
	// MarkCredited records that the order's loyalty points were paid out. It
	// reports false when the order had already been marked.
	MarkCredited(ctx context.Context, orderID string, at time.Time) (bool, error)
}

type WasteRepository interface {
	List(ctx context.Context) ([]models.WasteLog, error)
	Create(ctx context.Context, w *models.WasteLog) error
}

type UserRepository interface {
	Get(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
}
