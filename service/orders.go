package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/models"
	"nexus-bakery-api/statemachine"
	"nexus-bakery-api/store"

	"github.com/shopspring/decimal"
)

// pointsRate is the share of the cart total credited as loyalty points
var pointsRate = decimal.RequireFromString("0.05")

// CartLine is one product in the cart, optionally with a custom cake design
type CartLine struct {
	ProductID    string             `json:"product_id"`
	Quantity     int                `json:"quantity"`
	CustomDesign *models.CakeDesign `json:"custom_design,omitempty"`
}

// PlaceOrder is everything CreateOrder needs
type PlaceOrder struct {
	CustomerID      string
	CustomerName    string
	Items           []CartLine
	Fulfillment     models.FulfillmentType
	PaymentMethod   string
	DeliveryAddress string
}

type OrderService struct {
	store store.Store
	opts  Options
	log   *slog.Logger
	locks *keyedMutex
}

func NewOrderService(s store.Store, opts Options) *OrderService {
	opts = opts.withDefaults()
	return &OrderService{
		store: s,
		opts:  opts,
		log:   logging.Component(opts.Logger, "orders"),
		locks: newKeyedMutex(),
	}
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *OrderService) List(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	orders, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, classify("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		return models.Order{}, classify("get order", lookup(err, "order", id))
	}
	return order, nil
}

// ── Creation ─────────────────────────────────────────────────────────────────

// CreateOrder validates the cart, snapshots product data and persists the order with
// its first history row in one transaction. Stock is not touched. The returned order is
// read back inside that transaction, so an error always means nothing was stored.
func (s *OrderService) CreateOrder(ctx context.Context, req PlaceOrder) (models.Order, error) {
	if err := validatePlaceOrder(req); err != nil {
		return models.Order{}, err
	}

	now := s.opts.Now()
	order := models.Order{
		ID:              newOrderID(),
		CustomerID:      req.CustomerID,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Status:          models.StatusPending,
		ProductionStep:  models.StepQueue,
		Fulfillment:     req.Fulfillment,
		PaymentMethod:   req.PaymentMethod,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.PaymentMethod == "" {
		order.PaymentMethod = "nexus_wallet"
	}

	err := s.store.Transaction(ctx, func(tx store.Store) error {
		total := decimal.Zero
		for _, line := range req.Items {
			p, err := tx.Products().Get(ctx, line.ProductID)
			if err != nil {
				return lookup(err, "product", line.ProductID)
			}
			total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
			order.Items = append(order.Items, models.OrderItem{
				OrderID:      order.ID,
				ProductID:    p.ID,
				Name:         p.Name,
				Category:     p.Category,
				Price:        p.Price,
				Cost:         p.Cost,
				Quantity:     line.Quantity,
				CustomDesign: line.CustomDesign,
			})
		}

		order.PointsEarned = int(total.Mul(pointsRate).Floor().IntPart())
		due := total
		if order.Fulfillment == models.FulfillmentDelivery {
			order.DeliveryFee = *s.opts.DeliveryFee
			fee := decimal.NewFromFloat(order.DeliveryFee)
			due = due.Add(fee)
			if s.opts.FeeInTotal {
				total = total.Add(fee)
			}
		}
		order.Total = total.InexactFloat64()
		order.AmountDue = due.InexactFloat64()

		if err := tx.Orders().Create(ctx, &order); err != nil {
			return err
		}
		if err := tx.Orders().AppendHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Track:     models.TrackStatus,
			To:        string(models.StatusPending),
			ChangedBy: req.CustomerID,
			Note:      "Order placed by customer",
			CreatedAt: now,
		}); err != nil {
			return err
		}
		stored, err := tx.Orders().Get(ctx, order.ID)
		if err != nil {
			return err
		}
		order = stored
		return nil
	})
	if err != nil {
		return models.Order{}, classify("create order", err)
	}

	s.opts.Metrics.OrderPlaced()
	s.log.Info("order placed", "order_id", order.ID, "customer_id", order.CustomerID,
		"items", len(order.Items), "total", order.Total, "fulfillment", order.Fulfillment)
	return order, nil
}

func validatePlaceOrder(req PlaceOrder) error {
	if len(req.Items) == 0 {
		return invalid("cart is empty")
	}
	for _, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return invalid("cart line without product id")
		}
		if line.Quantity <= 0 {
			return invalid("quantity for %s must be greater than zero", line.ProductID)
		}
	}
	switch req.Fulfillment {
	case models.FulfillmentDelivery, models.FulfillmentPickup:
	default:
		return invalid("unknown fulfillment type %q, must be delivery or pickup", req.Fulfillment)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return invalid("customer name is required")
	}
	return nil
}

// ── Status track ─────────────────────────────────────────────────────────────

// AdvanceOrderStatus moves the order one step forward on the status track. Re-applying
// the current status is a no-op.
func (s *OrderService) AdvanceOrderStatus(ctx context.Context, id string, to models.OrderStatus, actor Actor) (models.Order, error) {
	return s.advanceStatus(ctx, id, to, actor, nil)
}

// PickupOrder assigns a ready delivery order to the driver and marks it DELIVERING
func (s *OrderService) PickupOrder(ctx context.Context, id string, driver Actor) (models.Order, error) {
	return s.advanceStatus(ctx, id, models.StatusDelivering, driver, func(o *models.Order) error {
		if o.Fulfillment != models.FulfillmentDelivery {
			return invalid("order %s is collected at the counter, not delivered", o.ID)
		}
		if o.DriverID != nil && *o.DriverID != driver.ID {
			return fmt.Errorf("order %s has already been picked up by another driver: %w", o.ID, ErrConflict)
		}
		driverID := driver.ID
		o.DriverID = &driverID
		return nil
	})
}

// CompleteDelivery marks a delivering order as DELIVERED; only its driver (or an admin) may
func (s *OrderService) CompleteDelivery(ctx context.Context, id string, actor Actor) (models.Order, error) {
	return s.advanceStatus(ctx, id, models.StatusDelivered, actor, func(o *models.Order) error {
		if actor.Role == models.RoleDriver && (o.DriverID == nil || *o.DriverID != actor.ID) {
			return fmt.Errorf("order %s is not assigned to you: %w", o.ID, ErrForbidden)
		}
		return nil
	})
}

func (s *OrderService) advanceStatus(ctx context.Context, id string, to models.OrderStatus, actor Actor, guard func(*models.Order) error) (models.Order, error) {
	if !statemachine.Status.Known(to) {
		return models.Order{}, invalid("unknown order status %q", to)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		from    models.OrderStatus
		result  models.Order
		applied bool
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return lookup(err, "order", id)
		}
		result = order
		if guard != nil {
			if err := guard(&order); err != nil {
				return err
			}
		}
		if order.Status == to {
			return nil
		}
		if err := statemachine.Status.CanTransition(order.Status, to, order.Fulfillment); err != nil {
			return &ValidationError{Msg: err.Error(), Err: err}
		}
		if actor.Role != "" && !statemachine.Status.Permits(order.Status, to, actor.Role) {
			return fmt.Errorf("role %s cannot move order from %s to %s: %w", actor.Role, order.Status, to, ErrForbidden)
		}
		if to == models.StatusReady && order.ProductionStep != models.StepCompleted {
			return invalid("order %s cannot be READY while production is at %s", order.ID, order.ProductionStep)
		}

		now := s.opts.Now()
		from = order.Status
		order.Status = to
		order.UpdatedAt = now
		if err := tx.Orders().Update(ctx, &order); err != nil {
			return err
		}
		if err := tx.Orders().AppendHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Track:     models.TrackStatus,
			From:      string(from),
			To:        string(to),
			ChangedBy: actor.ID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if to == models.StatusDelivered {
			if err := s.creditPoints(ctx, tx, order, now); err != nil {
				return err
			}
		}
		applied = true
		result, err = tx.Orders().Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Order{}, classify("advance order status", err)
	}

	if applied {
		s.opts.Metrics.Transition(string(models.TrackStatus), string(to))
		s.log.Info("order status changed", "order_id", id, "from", from, "to", to, "actor", actor.ID)
	}
	return result, nil
}

// creditPoints pays the order's points to its customer. The credit mark is written in
// the same transaction, so an order delivered a second time pays nothing.
func (s *OrderService) creditPoints(ctx context.Context, tx store.Store, order models.Order, at time.Time) error {
	if order.PointsEarned <= 0 {
		return nil
	}
	first, err := tx.Orders().MarkCredited(ctx, order.ID, at)
	if err != nil {
		return err
	}
	if !first {
		s.log.Warn("points already credited for order, skipping", "order_id", order.ID)
		return nil
	}
	user, err := tx.Users().Get(ctx, order.CustomerID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("customer account missing, points not credited",
			"order_id", order.ID, "customer_id", order.CustomerID, "points", order.PointsEarned)
		return nil
	}
	if err != nil {
		return err
	}
	user.NexusPoints += order.PointsEarned
	return tx.Users().Save(ctx, &user)
}

// ForceOrderStatus bypasses the state machine (admin emergency override). Stock and
// points are never touched.
func (s *OrderService) ForceOrderStatus(ctx context.Context, id string, to models.OrderStatus, reason string, actor Actor) (models.Order, error) {
	if !statemachine.Status.Known(to) {
		return models.Order{}, invalid("unknown order status %q", to)
	}
	if strings.TrimSpace(reason) == "" {
		return models.Order{}, invalid("a reason is required to force a status")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		from   models.OrderStatus
		result models.Order
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return lookup(err, "order", id)
		}
		now := s.opts.Now()
		from = order.Status
		order.Status = to
		order.UpdatedAt = now
		if err := tx.Orders().Update(ctx, &order); err != nil {
			return err
		}
		if err := tx.Orders().AppendHistory(ctx, &models.OrderHistory{
			OrderID:   order.ID,
			Track:     models.TrackStatus,
			From:      string(from),
			To:        string(to),
			ChangedBy: actor.ID,
			Note:      "[ADMIN OVERRIDE] " + reason,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result, err = tx.Orders().Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Order{}, classify("force order status", err)
	}

	s.log.Warn("order status forced", "order_id", id, "from", from, "to", to, "actor", actor.ID, "reason", reason)
	return result, nil
}

// ── Production track ─────────────────────────────────────────────────────────

// AdvanceProductionStep moves the order one step forward in the kitchen. Entering
// MIXING deducts the recipe materials exactly once; MIXING and COMPLETED also raise
// the status track so the two never disagree.
func (s *OrderService) AdvanceProductionStep(ctx context.Context, id string, to models.ProductionStep, actor Actor) (models.Order, error) {
	if !statemachine.Production.Known(to) {
		return models.Order{}, invalid("unknown production step %q", to)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var (
		from     models.ProductionStep
		raised   models.OrderStatus
		consumed []consumption
		result   models.Order
		applied  bool
	)
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return lookup(err, "order", id)
		}
		result = order
		if order.ProductionStep == to {
			return nil
		}
		if err := statemachine.Production.CanTransition(order.ProductionStep, to, order.Fulfillment); err != nil {
			return &ValidationError{Msg: err.Error(), Err: err}
		}
		if actor.Role != "" && !statemachine.Production.Permits(order.ProductionStep, to, actor.Role) {
			return fmt.Errorf("role %s cannot move production from %s to %s: %w", actor.Role, order.ProductionStep, to, ErrForbidden)
		}

		now := s.opts.Now()
		from = order.ProductionStep
		order.ProductionStep = to
		history := []models.OrderHistory{{
			OrderID:   order.ID,
			Track:     models.TrackProduction,
			From:      string(from),
			To:        string(to),
			ChangedBy: actor.ID,
			CreatedAt: now,
		}}

		if to == models.StepMixing {
			consumed, err = s.consume(ctx, tx, order)
			if err != nil {
				return err
			}
		}

		if floor, ok := statusFloor[to]; ok && !statemachine.Status.AtLeast(order.Status, floor) {
			history = append(history, models.OrderHistory{
				OrderID:   order.ID,
				Track:     models.TrackStatus,
				From:      string(order.Status),
				To:        string(floor),
				ChangedBy: actor.ID,
				Note:      "raised by production step " + string(to),
				CreatedAt: now,
			})
			order.Status = floor
			raised = floor
		}

		order.UpdatedAt = now
		if err := tx.Orders().Update(ctx, &order); err != nil {
			return err
		}
		for i := range history {
			if err := tx.Orders().AppendHistory(ctx, &history[i]); err != nil {
				return err
			}
		}
		applied = true
		result, err = tx.Orders().Get(ctx, id)
		return err
	})
	if err != nil {
		return models.Order{}, classify("advance production step", err)
	}

	if applied {
		s.opts.Metrics.Transition(string(models.TrackProduction), string(to))
		if raised != "" {
			s.opts.Metrics.Transition(string(models.TrackStatus), string(raised))
		}
		for _, c := range consumed {
			s.opts.Metrics.MaterialConsumed(c.MaterialID, c.Amount)
		}
		s.log.Info("production step changed", "order_id", id, "from", from, "to", to,
			"actor", actor.ID, "status_raised_to", raised, "materials_consumed", len(consumed))
	}
	return result, nil
}

// statusFloor is the minimum status an order must hold once it enters a step
var statusFloor = map[models.ProductionStep]models.OrderStatus{
	models.StepMixing:    models.StatusProduction,
	models.StepCompleted: models.StatusReady,
}

type consumption struct {
	MaterialID string
	Amount     float64
}

// consume deducts amount × quantity of every recipe ingredient. The consumption mark
// is written in the same transaction, so a second call for the order deducts nothing.
func (s *OrderService) consume(ctx context.Context, tx store.Store, order models.Order) ([]consumption, error) {
	first, err := tx.Orders().MarkConsumed(ctx, order.ID, s.opts.Now())
	if err != nil {
		return nil, err
	}
	if !first {
		s.log.Warn("materials already consumed for order, skipping", "order_id", order.ID)
		return nil, nil
	}

	var ids []string
	needs := map[string]decimal.Decimal{}
	for _, item := range order.Items {
		recipe, err := tx.Recipes().GetByProduct(ctx, item.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			if s.opts.StrictReferences {
				return nil, invalid("no recipe for product %s in order %s", item.ProductID, order.ID)
			}
			s.log.Warn("no recipe for product, nothing consumed", "order_id", order.ID, "product_id", item.ProductID)
			continue
		}
		if err != nil {
			return nil, err
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		for _, ing := range recipe.Ingredients {
			if _, seen := needs[ing.MaterialID]; !seen {
				ids = append(ids, ing.MaterialID)
			}
			needs[ing.MaterialID] = needs[ing.MaterialID].Add(decimal.NewFromFloat(ing.Amount).Mul(qty))
		}
	}

	var out []consumption
	for _, materialID := range ids {
		m, err := tx.RawMaterials().Get(ctx, materialID)
		if errors.Is(err, store.ErrNotFound) {
			if s.opts.StrictReferences {
				return nil, invalid("raw material %s referenced by a recipe does not exist", materialID)
			}
			s.log.Warn("recipe references unknown raw material, skipped", "order_id", order.ID, "material_id", materialID)
			continue
		}
		if err != nil {
			return nil, err
		}

		need := needs[materialID]
		stock := decimal.NewFromFloat(m.Stock).Sub(need)
		if stock.IsNegative() && !s.opts.AllowBackorder {
			s.log.Warn("raw material stock would go negative, clamped at zero",
				"order_id", order.ID, "material_id", materialID, "stock", m.Stock, "needed", need.String())
			stock = decimal.Zero
		}
		m.Stock = stock.InexactFloat64()
		m.UpdatedAt = s.opts.Now()
		if err := tx.RawMaterials().Save(ctx, &m); err != nil {
			return nil, err
		}
		out = append(out, consumption{MaterialID: materialID, Amount: need.InexactFloat64()})
	}
	return out, nil
}
