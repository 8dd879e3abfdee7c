// Package storetest holds the behavioural contract every store.Store backend must meet.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"nexus-bakery-api/models"
	"nexus-bakery-api/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ProductRoundTrip", func(t *testing.T) { testProductRoundTrip(t, newStore(t)) })
	t.Run("MissingRecordsReportNotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
	t.Run("RecipeLookupByProduct", func(t *testing.T) { testRecipeByProduct(t, newStore(t)) })
	t.Run("OrderCreateAndGet", func(t *testing.T) { testOrderCreateGet(t, newStore(t)) })
	t.Run("OrderListFilters", func(t *testing.T) { testOrderListFilters(t, newStore(t)) })
	t.Run("OrderUpdate", func(t *testing.T) { testOrderUpdate(t, newStore(t)) })
	t.Run("MarkConsumedOnce", func(t *testing.T) { testMarkConsumed(t, newStore(t)) })
	t.Run("MarkCreditedOnce", func(t *testing.T) { testMarkCredited(t, newStore(t)) })
	t.Run("CreditRollsBackWithTransaction", func(t *testing.T) { testCreditRollback(t, newStore(t)) })
	t.Run("TransactionRollback", func(t *testing.T) { testTransactionRollback(t, newStore(t)) })
	t.Run("UserEmailConflict", func(t *testing.T) { testUserConflict(t, newStore(t)) })
	t.Run("WasteList", func(t *testing.T) { testWasteList(t, newStore(t)) })
}

func testProductRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := &models.Product{
		ID: "a1", Name: "CLOUD Sourdough", Price: 4500, Cost: 1500, Stock: 50,
		Category: models.CategoryArtesanal,
		Profile:  &models.MolecularProfile{Sweetness: 1, Texture: "Crisp", ScentNotes: []string{"Cereal"}},
	}
	if err := s.Products().Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Products().Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Price != 4500 || got.Stock != 50 || got.Profile == nil || got.Profile.ScentNotes[0] != "Cereal" {
		t.Fatalf("unexpected product: %+v", got)
	}

	got.Stock = 45
	if err := s.Products().Save(ctx, &got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := s.Products().Get(ctx, "a1")
	if again.Stock != 45 {
		t.Fatalf("expected stock 45, got %d", again.Stock)
	}

	list, err := s.Products().List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one product, got %d (%v)", len(list), err)
	}
}

func testNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	if _, err := s.Products().Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("product: expected ErrNotFound, got %v", err)
	}
	if _, err := s.RawMaterials().Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("material: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Recipes().GetByProduct(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("recipe: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Orders().Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("order: expected ErrNotFound, got %v", err)
	}
	if err := s.Orders().Update(ctx, &models.Order{ID: "nope", Status: models.StatusConfirmed}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("order update: expected ErrNotFound, got %v", err)
	}
	if _, err := s.Users().GetByEmail(ctx, "ghost@nexus.atelier"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("user: expected ErrNotFound, got %v", err)
	}
}

func testRecipeByProduct(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec := &models.Recipe{
		ID: "rec1", ProductID: "a1",
		Ingredients: []models.RecipeIngredient{{MaterialID: "raw1", Amount: 0.5}, {MaterialID: "raw3", Amount: 100}},
		Procedure:   []string{"Autólisis", "Amasado"},
	}
	if err := s.Recipes().Save(ctx, rec); err != nil {
		t.Fatalf("save recipe: %v", err)
	}
	got, err := s.Recipes().GetByProduct(ctx, "a1")
	if err != nil {
		t.Fatalf("get recipe: %v", err)
	}
	if got.ID != "rec1" || len(got.Ingredients) != 2 || got.Ingredients[0].Amount != 0.5 || len(got.Procedure) != 2 {
		t.Fatalf("unexpected recipe: %+v", got)
	}
}

func newOrder(id, customer string, created time.Time, f models.FulfillmentType) *models.Order {
	return &models.Order{
		ID: id, CustomerID: customer, CustomerName: "Client_Node",
		Total: 9000, Status: models.StatusPending, ProductionStep: models.StepQueue,
		Fulfillment: f, CreatedAt: created, PointsEarned: 450,
		Items: []models.OrderItem{{ProductID: "a1", Name: "CLOUD Sourdough", Price: 4500, Cost: 1500, Quantity: 2}},
		History: []models.OrderHistory{{Track: models.TrackStatus, To: string(models.StatusPending), ChangedBy: customer}},
	}
}

func testOrderCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	o := newOrder("NEX-1", "u1", time.Now().UTC(), models.FulfillmentDelivery)
	o.Items[0].CustomDesign = &models.CakeDesign{ID: "d1", Servings: 12, PriceEstimate: 54000}
	if err := s.Orders().Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Orders().Get(ctx, "NEX-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 || got.Items[0].OrderID != "NEX-1" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}
	if got.Items[0].CustomDesign == nil || got.Items[0].CustomDesign.Servings != 12 {
		t.Fatalf("custom design not persisted: %+v", got.Items[0])
	}
	if len(got.History) != 1 || got.History[0].To != string(models.StatusPending) {
		t.Fatalf("unexpected history: %+v", got.History)
	}

	if err := s.Orders().AppendHistory(ctx, &models.OrderHistory{OrderID: "NEX-1", Track: models.TrackStatus, From: "PENDING", To: "CONFIRMED"}); err != nil {
		t.Fatalf("append history: %v", err)
	}
	got, _ = s.Orders().Get(ctx, "NEX-1")
	if len(got.History) != 2 || got.History[1].To != "CONFIRMED" {
		t.Fatalf("history not appended in order: %+v", got.History)
	}
}

func testOrderListFilters(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for _, o := range []*models.Order{
		newOrder("NEX-1", "u1", base, models.FulfillmentDelivery),
		newOrder("NEX-2", "u2", base.Add(time.Minute), models.FulfillmentPickup),
		newOrder("NEX-3", "u1", base.Add(2*time.Minute), models.FulfillmentDelivery),
	} {
		if err := s.Orders().Create(ctx, o); err != nil {
			t.Fatalf("create %s: %v", o.ID, err)
		}
	}

	all, err := s.Orders().List(ctx, store.OrderFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d (%v)", len(all), err)
	}
	if all[0].ID != "NEX-3" || all[2].ID != "NEX-1" {
		t.Fatalf("expected newest first, got %s..%s", all[0].ID, all[2].ID)
	}
	if len(all[0].Items) != 1 {
		t.Fatal("list should include items")
	}

	mine, _ := s.Orders().List(ctx, store.OrderFilter{CustomerID: "u1"})
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders for u1, got %d", len(mine))
	}
	deliveries, _ := s.Orders().List(ctx, store.OrderFilter{Fulfillment: models.FulfillmentDelivery, NotStatus: models.StatusDelivered})
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 open deliveries, got %d", len(deliveries))
	}
	queue, _ := s.Orders().List(ctx, store.OrderFilter{NotStep: models.StepCompleted})
	if len(queue) != 3 {
		t.Fatalf("expected 3 orders in the kitchen queue, got %d", len(queue))
	}
}

func testOrderUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.Orders().Create(ctx, newOrder("NEX-1", "u1", time.Now().UTC(), models.FulfillmentDelivery)); err != nil {
		t.Fatalf("create: %v", err)
	}
	driver := "drv-1"
	stamped := time.Date(2030, 5, 17, 9, 30, 0, 0, time.UTC)
	upd := &models.Order{ID: "NEX-1", Status: models.StatusDelivering, ProductionStep: models.StepCompleted, DriverID: &driver, UpdatedAt: stamped}
	if err := s.Orders().Update(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Orders().Get(ctx, "NEX-1")
	if got.Status != models.StatusDelivering || got.ProductionStep != models.StepCompleted {
		t.Fatalf("status fields not updated: %s/%s", got.Status, got.ProductionStep)
	}
	if got.DriverID == nil || *got.DriverID != "drv-1" {
		t.Fatalf("driver not stored: %v", got.DriverID)
	}
	if got.Total != 9000 || len(got.Items) != 1 {
		t.Fatal("update must not touch other fields")
	}
	if !got.UpdatedAt.Equal(stamped) {
		t.Fatalf("updated_at = %v, want the caller's %v", got.UpdatedAt, stamped)
	}
	byDriver, _ := s.Orders().List(ctx, store.OrderFilter{DriverID: "drv-1"})
	if len(byDriver) != 1 {
		t.Fatalf("expected 1 order for driver, got %d", len(byDriver))
	}
}

func testMarkConsumed(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.Orders().MarkConsumed(ctx, "NEX-1", time.Now().UTC())
	if err != nil || !first {
		t.Fatalf("expected first mark to succeed, got %v (%v)", first, err)
	}
	again, err := s.Orders().MarkConsumed(ctx, "NEX-1", time.Now().UTC())
	if err != nil || again {
		t.Fatalf("expected second mark to report false, got %v (%v)", again, err)
	}
}

func testMarkCredited(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := s.Orders().MarkCredited(ctx, "NEX-1", time.Now().UTC())
	if err != nil || !first {
		t.Fatalf("expected first mark to succeed, got %v (%v)", first, err)
	}
	again, err := s.Orders().MarkCredited(ctx, "NEX-1", time.Now().UTC())
	if err != nil || again {
		t.Fatalf("expected second mark to report false, got %v (%v)", again, err)
	}
	other, err := s.Orders().MarkCredited(ctx, "NEX-2", time.Now().UTC())
	if err != nil || !other {
		t.Fatalf("marks are per order, got %v (%v)", other, err)
	}
}

func testCreditRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Orders().MarkCredited(ctx, "NEX-1", time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	first, err := s.Orders().MarkCredited(ctx, "NEX-1", time.Now().UTC())
	if err != nil || !first {
		t.Fatalf("rolled back mark must not stick, got %v (%v)", first, err)
	}
}

func testTransactionRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.RawMaterials().Save(ctx, &models.RawMaterial{ID: "raw1", Name: "Harina", Stock: 250, MinStock: 50}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		m, err := tx.RawMaterials().Get(ctx, "raw1")
		if err != nil {
			return err
		}
		m.Stock = 1
		if err := tx.RawMaterials().Save(ctx, &m); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, newOrder("NEX-9", "u1", time.Now().UTC(), models.FulfillmentPickup)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	m, _ := s.RawMaterials().Get(ctx, "raw1")
	if m.Stock != 250 {
		t.Fatalf("rollback failed, stock=%v", m.Stock)
	}
	if _, err := s.Orders().Get(ctx, "NEX-9"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("order should not exist after rollback, got %v", err)
	}

	err = s.Transaction(ctx, func(tx store.Store) error {
		m, _ := tx.RawMaterials().Get(ctx, "raw1")
		m.Stock = 248.5
		return tx.RawMaterials().Save(ctx, &m)
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	m, _ = s.RawMaterials().Get(ctx, "raw1")
	if m.Stock != 248.5 {
		t.Fatalf("expected committed stock 248.5, got %v", m.Stock)
	}
}

func testUserConflict(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &models.User{ID: "u1", Name: "Artisan_X", Email: "baker@nexus.atelier", Role: models.RoleBaker, NexusPoints: 1500}
	if err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &models.User{ID: "u2", Name: "Other", Email: "baker@nexus.atelier", Role: models.RoleClient}
	if err := s.Users().Create(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	got, err := s.Users().GetByEmail(ctx, "baker@nexus.atelier")
	if err != nil || got.ID != "u1" || got.Tier != models.TierSyndicate {
		t.Fatalf("unexpected user %+v (%v)", got, err)
	}
}

func testWasteList(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"WST-1", "WST-2"} {
		w := &models.WasteLog{ID: id, ProductID: "a1", Quantity: 5, Reason: "burnt", CostLoss: 7500, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.Waste().Create(ctx, w); err != nil {
			t.Fatalf("create waste: %v", err)
		}
	}
	logs, err := s.Waste().List(ctx)
	if err != nil || len(logs) != 2 {
		t.Fatalf("expected 2 waste logs, got %d (%v)", len(logs), err)
	}
	if logs[0].ID != "WST-2" {
		t.Fatalf("expected newest first, got %s", logs[0].ID)
	}
}
