// Package service holds the bakery workflow: the order lifecycle with its production
// track, the catalog and raw material inventory, waste logging and the reporting views
// built on top of them. All persistence goes through store.Store.
package service

import (
	"log/slog"
	"strings"
	"time"

	"nexus-bakery-api/metrics"
	"nexus-bakery-api/models"

	"github.com/google/uuid"
)

// DefaultDeliveryFee is charged on delivery orders when Options leaves it unset
const DefaultDeliveryFee = 1500

// Options configures the policies shared by the services
type Options struct {
	// DeliveryFee is the surcharge for delivery orders. Nil means DefaultDeliveryFee,
	// zero means free delivery.
	DeliveryFee *float64
	// FeeInTotal folds the delivery fee into Order.Total instead of keeping it apart
	FeeInTotal bool
	// AllowBackorder lets stock go negative instead of clamping at zero
	AllowBackorder bool
	// StrictWaste rejects waste for unknown products instead of logging it at zero cost
	StrictWaste bool
	// StrictReferences rejects production when a recipe or raw material is missing
	StrictReferences bool

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DeliveryFee == nil {
		fee := float64(DefaultDeliveryFee)
		o.DeliveryFee = &fee
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Actor is whoever triggers a change. An empty Role means the system itself.
type Actor struct {
	ID   string
	Role models.UserRole
}

// System is the actor recorded for automatic changes
var System = Actor{ID: "system"}

func shortID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:8])
}

func newOrderID() string { return shortID("NEX") }
func newWasteID() string { return shortID("WST") }
