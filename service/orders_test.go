package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nexus-bakery-api/models"
	"nexus-bakery-api/statemachine"
	"nexus-bakery-api/store"
)

func TestCreateOrderSeparateFee(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.place(t, models.FulfillmentDelivery,
		CartLine{ProductID: "a1", Quantity: 2},
		CartLine{ProductID: "m1", Quantity: 1},
	)

	if !strings.HasPrefix(order.ID, "NEX-") || len(order.ID) != len("NEX-")+8 {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Total != 33000 || order.DeliveryFee != 1500 {
		t.Fatalf("total=%v fee=%v, want 33000 and 1500", order.Total, order.DeliveryFee)
	}
	if order.AmountDue != 34500 {
		t.Fatalf("amount due = %v, want 34500", order.AmountDue)
	}
	if order.PointsEarned != 1650 || order.PointsUsed != 0 {
		t.Fatalf("points earned=%d used=%d", order.PointsEarned, order.PointsUsed)
	}
	if order.Status != models.StatusPending || order.ProductionStep != models.StepQueue {
		t.Fatalf("unexpected initial state %s/%s", order.Status, order.ProductionStep)
	}
	if len(order.Items) != 2 || order.Items[0].Price != 4500 || order.Items[0].Cost != 1500 {
		t.Fatalf("items not snapshotted: %+v", order.Items)
	}
	if len(order.History) != 1 || order.History[0].To != string(models.StatusPending) {
		t.Fatalf("expected initial history row, got %+v", order.History)
	}
	if f.product(t, "a1").Stock != 50 || f.material(t, "raw1").Stock != 250 {
		t.Fatal("placing an order must not touch stock")
	}
}

func TestCreateOrderFeeIncludedInTotal(t *testing.T) {
	f := newFixture(t, Options{FeeInTotal: true})
	order := f.place(t, models.FulfillmentDelivery,
		CartLine{ProductID: "a1", Quantity: 2},
		CartLine{ProductID: "m1", Quantity: 1},
	)
	if order.Total != 34500 || order.DeliveryFee != 1500 {
		t.Fatalf("total=%v fee=%v, want 34500 and 1500", order.Total, order.DeliveryFee)
	}
	if order.AmountDue != 34500 {
		t.Fatalf("amount due = %v", order.AmountDue)
	}
	// points are earned on the goods, not the fee
	if order.PointsEarned != 1650 {
		t.Fatalf("points earned = %d, want 1650", order.PointsEarned)
	}
}

func TestCreateOrderPickupHasNoFee(t *testing.T) {
	f := newFixture(t, Options{FeeInTotal: true})
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})
	if order.Total != 4500 || order.DeliveryFee != 0 {
		t.Fatalf("total=%v fee=%v", order.Total, order.DeliveryFee)
	}
}

func TestZeroDeliveryFeeMeansFreeDelivery(t *testing.T) {
	free := 0.0
	f := newFixture(t, Options{DeliveryFee: &free})
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 2})
	if order.DeliveryFee != 0 || order.Total != 9000 || order.AmountDue != 9000 {
		t.Fatalf("fee=%v total=%v due=%v, want a free delivery", order.DeliveryFee, order.Total, order.AmountDue)
	}
}

func TestAmountDueKeepsCheckoutFeePolicy(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	separate := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 2})

	// the same store served by a process running the other policy
	included := fixtureOn(f.store, Options{FeeInTotal: true})
	got, err := included.orders.Get(ctx, separate.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Total != 9000 || got.AmountDue != 10500 {
		t.Fatalf("old order: total=%v due=%v, want 9000 and 10500", got.Total, got.AmountDue)
	}

	newer := included.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 2})
	if newer.Total != 10500 || newer.AmountDue != 10500 {
		t.Fatalf("new order: total=%v due=%v, want 10500 and 10500", newer.Total, newer.AmountDue)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	valid := PlaceOrder{
		CustomerID:   "cust-1",
		CustomerName: "Client_Node",
		Items:        []CartLine{{ProductID: "a1", Quantity: 1}},
		Fulfillment:  models.FulfillmentPickup,
	}

	tests := []struct {
		name   string
		mutate func(*PlaceOrder)
	}{
		{"empty cart", func(p *PlaceOrder) { p.Items = nil }},
		{"zero quantity", func(p *PlaceOrder) { p.Items = []CartLine{{ProductID: "a1", Quantity: 0}} }},
		{"negative quantity", func(p *PlaceOrder) { p.Items = []CartLine{{ProductID: "a1", Quantity: -2}} }},
		{"unknown fulfillment", func(p *PlaceOrder) { p.Fulfillment = "drone" }},
		{"blank customer name", func(p *PlaceOrder) { p.CustomerName = "   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := f.orders.CreateOrder(ctx, req)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	req := valid
	req.Items = []CartLine{{ProductID: "a1", Quantity: 1}, {ProductID: "ghost", Quantity: 1}}
	if _, err := f.orders.CreateOrder(ctx, req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
	orders, _ := f.orders.List(ctx, store.OrderFilter{})
	if len(orders) != 0 {
		t.Fatalf("rejected orders must not be stored, found %d", len(orders))
	}
}

func TestMixingConsumesRecipeOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 3})

	order, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker)
	if err != nil {
		t.Fatalf("mixing: %v", err)
	}
	if got := f.material(t, "raw1").Stock; got != 248.5 {
		t.Fatalf("raw1 stock = %v, want 248.5", got)
	}
	if got := f.material(t, "raw3").Stock; got != 4700 {
		t.Fatalf("raw3 stock = %v, want 4700", got)
	}
	if order.Status != models.StatusProduction {
		t.Fatalf("status = %s, want PRODUCTION after mixing", order.Status)
	}
	historyLen := len(order.History)

	again, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker)
	if err != nil {
		t.Fatalf("re-applying MIXING should be a no-op, got %v", err)
	}
	if got := f.material(t, "raw1").Stock; got != 248.5 {
		t.Fatalf("raw1 deducted twice: %v", got)
	}
	if len(again.History) != historyLen {
		t.Fatalf("no-op must not append history (%d → %d)", historyLen, len(again.History))
	}
}

func TestConcurrentMixingDeductsOnce(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 3})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orders.AdvanceProductionStep(context.Background(), order.ID, models.StepMixing, baker); err != nil {
				t.Errorf("mixing: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.material(t, "raw1").Stock; got != 248.5 {
		t.Fatalf("raw1 stock = %v, want 248.5", got)
	}
}

func TestProductionRejectsSkipsAndBackwardSteps(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})

	_, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepBaking, baker)
	var te *statemachine.TransitionError
	if !IsValidation(err) || !errors.As(err, &te) {
		t.Fatalf("expected validation wrapping a transition error, got %v", err)
	}
	if len(te.Valid) != 1 || te.Valid[0] != string(models.StepMixing) {
		t.Fatalf("valid targets = %v", te.Valid)
	}

	f.stepTo(t, order.ID, models.StepBaking)
	if _, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker); !IsValidation(err) {
		t.Fatalf("backward step should be rejected, got %v", err)
	}
	if _, err := f.orders.AdvanceProductionStep(ctx, order.ID, "FROSTING", baker); !IsValidation(err) {
		t.Fatalf("unknown step should be rejected, got %v", err)
	}
	if got := f.material(t, "raw1").Stock; got != 249.5 {
		t.Fatalf("raw1 stock = %v, want 249.5", got)
	}
}

func TestCompletedRaisesStatusToReady(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 1})

	order = f.stepTo(t, order.ID, models.StepCompleted)
	if order.Status != models.StatusReady {
		t.Fatalf("status = %s, want READY", order.Status)
	}

	var raises int
	for _, h := range order.History {
		if h.Track == models.TrackStatus && strings.HasPrefix(h.Note, "raised by production step") {
			raises++
		}
	}
	if raises != 2 {
		t.Fatalf("expected two recorded raises (PRODUCTION, READY), got %d", raises)
	}
}

func TestReadyRequiresCompletedProduction(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})

	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusConfirmed, admin); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.stepTo(t, order.ID, models.StepBaking)

	_, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusReady, admin)
	if !IsValidation(err) {
		t.Fatalf("READY before COMPLETED must be rejected, got %v", err)
	}
}

func TestStatusRejectsSkipsAndBackward(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 1})

	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusProduction, admin); !IsValidation(err) {
		t.Fatalf("skip should be rejected, got %v", err)
	}
	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusConfirmed, admin); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusPending, admin); !IsValidation(err) {
		t.Fatalf("backward should be rejected, got %v", err)
	}
	if _, err := f.orders.AdvanceOrderStatus(ctx, "NEX-MISSING", models.StatusConfirmed, admin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, "LOST", admin); !IsValidation(err) {
		t.Fatalf("unknown status should be rejected, got %v", err)
	}
}

func TestRoleMustBeAllowedForTransition(t *testing.T) {
	f := newFixture(t, Options{})
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 1})

	_, err := f.orders.AdvanceOrderStatus(context.Background(), order.ID, models.StatusConfirmed, driver)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("driver confirming should be forbidden, got %v", err)
	}
}

func TestDeliveryFlowCreditsPointsOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if err := f.store.Users().Create(ctx, &models.User{ID: "cust-1", Name: "Client_Node", Email: "c@nexus.atelier", Role: models.RoleClient, NexusPoints: 100}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "m1", Quantity: 1})

	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusConfirmed, admin); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	f.stepTo(t, order.ID, models.StepCompleted)

	order, err := f.orders.PickupOrder(ctx, order.ID, driver)
	if err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if order.Status != models.StatusDelivering || order.DriverID == nil || *order.DriverID != driver.ID {
		t.Fatalf("pickup did not assign driver: %+v", order)
	}

	other := Actor{ID: "driver-2", Role: models.RoleDriver}
	if _, err := f.orders.CompleteDelivery(ctx, order.ID, other); !errors.Is(err, ErrForbidden) {
		t.Fatalf("another driver must not complete the delivery, got %v", err)
	}

	for i := 0; i < 2; i++ {
		order, err = f.orders.CompleteDelivery(ctx, order.ID, driver)
		if err != nil {
			t.Fatalf("deliver #%d: %v", i+1, err)
		}
	}
	if order.Status != models.StatusDelivered {
		t.Fatalf("status = %s", order.Status)
	}

	user, _ := f.store.Users().Get(ctx, "cust-1")
	if want := 100 + 1200; user.NexusPoints != want {
		t.Fatalf("points = %d, want %d", user.NexusPoints, want)
	}
}

func TestRedeliveryAfterForceDoesNotCreditAgain(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if err := f.store.Users().Create(ctx, &models.User{ID: "cust-1", Name: "Client_Node", Email: "c@nexus.atelier", Role: models.RoleClient}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "m1", Quantity: 1})
	f.stepTo(t, order.ID, models.StepCompleted)
	if _, err := f.orders.PickupOrder(ctx, order.ID, driver); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if _, err := f.orders.CompleteDelivery(ctx, order.ID, driver); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if _, err := f.orders.ForceOrderStatus(ctx, order.ID, models.StatusDelivering, "customer not home", admin); err != nil {
		t.Fatalf("force back: %v", err)
	}
	redelivered, err := f.orders.CompleteDelivery(ctx, order.ID, driver)
	if err != nil {
		t.Fatalf("deliver again: %v", err)
	}
	if redelivered.Status != models.StatusDelivered {
		t.Fatalf("status = %s", redelivered.Status)
	}

	user, _ := f.store.Users().Get(ctx, "cust-1")
	if user.NexusPoints != 1200 {
		t.Fatalf("points = %d, want 1200 credited once", user.NexusPoints)
	}
}

func TestPickupOrdersSkipDelivering(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})
	f.stepTo(t, order.ID, models.StepCompleted)

	if _, err := f.orders.PickupOrder(ctx, order.ID, driver); !IsValidation(err) {
		t.Fatalf("drivers cannot pick up counter orders, got %v", err)
	}
	if _, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusDelivering, admin); !IsValidation(err) {
		t.Fatalf("DELIVERING is delivery-only, got %v", err)
	}
	order, err := f.orders.AdvanceOrderStatus(ctx, order.ID, models.StatusDelivered, admin)
	if err != nil || order.Status != models.StatusDelivered {
		t.Fatalf("READY → DELIVERED for pickup: %v (%s)", err, order.Status)
	}
}

func TestSecondDriverCannotPickUp(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 1})
	f.stepTo(t, order.ID, models.StepCompleted)

	if _, err := f.orders.PickupOrder(ctx, order.ID, driver); err != nil {
		t.Fatalf("pickup: %v", err)
	}
	if _, err := f.orders.PickupOrder(ctx, order.ID, driver); err != nil {
		t.Fatalf("same driver again should be a no-op, got %v", err)
	}
	_, err := f.orders.PickupOrder(ctx, order.ID, Actor{ID: "driver-2", Role: models.RoleDriver})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second driver should get a conflict, got %v", err)
	}
}

func TestNegativeMaterialStockPolicy(t *testing.T) {
	for _, tt := range []struct {
		name      string
		backorder bool
		want      float64
	}{
		{"clamp", false, 0},
		{"backorder", true, -50},
	} {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{AllowBackorder: tt.backorder})
			ctx := context.Background()
			yeast := f.material(t, "raw3")
			yeast.Stock = 50
			if err := f.store.RawMaterials().Save(ctx, &yeast); err != nil {
				t.Fatal(err)
			}

			order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})
			if _, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker); err != nil {
				t.Fatalf("mixing: %v", err)
			}
			if got := f.material(t, "raw3").Stock; got != tt.want {
				t.Fatalf("raw3 stock = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingRecipeSoftAndStrict(t *testing.T) {
	ctx := context.Background()

	soft := newFixture(t, Options{})
	order := soft.place(t, models.FulfillmentPickup, CartLine{ProductID: "m1", Quantity: 1}, CartLine{ProductID: "a1", Quantity: 1})
	if _, err := soft.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker); err != nil {
		t.Fatalf("missing recipe should be skipped, got %v", err)
	}
	if got := soft.material(t, "raw1").Stock; got != 249.5 {
		t.Fatalf("a1 recipe still applies: raw1 = %v", got)
	}

	strict := newFixture(t, Options{StrictReferences: true})
	order = strict.place(t, models.FulfillmentPickup, CartLine{ProductID: "m1", Quantity: 1}, CartLine{ProductID: "a1", Quantity: 1})
	if _, err := strict.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker); !IsValidation(err) {
		t.Fatalf("strict mode should reject, got %v", err)
	}
	got, _ := strict.orders.Get(ctx, order.ID)
	if got.ProductionStep != models.StepQueue || strict.material(t, "raw1").Stock != 250 {
		t.Fatal("rejected step must leave order and stock untouched")
	}
}

func TestTransportFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 3})

	broken := fixtureOn(brokenStore{f.store}, Options{})
	_, err := broken.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, errBoom) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Op != "advance production step" {
		t.Fatalf("unexpected error shape %#v", err)
	}

	got, _ := f.orders.Get(ctx, order.ID)
	if got.ProductionStep != models.StepQueue || got.Status != models.StatusPending {
		t.Fatalf("order changed despite failure: %s/%s", got.Status, got.ProductionStep)
	}
	if f.material(t, "raw1").Stock != 250 {
		t.Fatal("materials deducted despite failure")
	}

	// the consumption mark rolled back too, so a retry on a healthy store deducts once
	if _, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if f.material(t, "raw1").Stock != 248.5 {
		t.Fatalf("raw1 = %v after retry", f.material(t, "raw1").Stock)
	}

	_, err = broken.orders.CreateOrder(ctx, PlaceOrder{
		CustomerID: "cust-1", CustomerName: "n", Fulfillment: models.FulfillmentPickup,
		Items: []CartLine{{ProductID: "a1", Quantity: 1}},
	})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport failure on create, got %v", err)
	}
	orders, _ := f.orders.List(ctx, store.OrderFilter{})
	if len(orders) != 1 {
		t.Fatalf("failed create left %d orders", len(orders))
	}
}

func TestFailedReadBackStoresNothing(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := fixtureOn(newReadBackStore(f.store), Options{}).orders.CreateOrder(ctx, PlaceOrder{
		CustomerID:   "cust-1",
		CustomerName: "Client_Node",
		Items:        []CartLine{{ProductID: "a1", Quantity: 1}},
		Fulfillment:  models.FulfillmentPickup,
	})
	if !errors.Is(err, ErrTransport) || !errors.Is(err, errReadBack) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if stored, _ := f.store.Orders().List(ctx, store.OrderFilter{}); len(stored) != 0 {
		t.Fatalf("a failed create left %d orders behind", len(stored))
	}

	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 3})

	_, err = fixtureOn(newReadBackStore(f.store), Options{}).orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	_, err = fixtureOn(newReadBackStore(f.store), Options{}).orders.AdvanceOrderStatus(ctx, order.ID, models.StatusConfirmed, admin)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	_, err = fixtureOn(newReadBackStore(f.store), Options{}).orders.ForceOrderStatus(ctx, order.ID, models.StatusReady, "manual fix", admin)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}

	got, _ := f.orders.Get(ctx, order.ID)
	if got.Status != models.StatusPending || got.ProductionStep != models.StepQueue || len(got.History) != 1 {
		t.Fatalf("order changed despite failures: %s/%s with %d history rows", got.Status, got.ProductionStep, len(got.History))
	}
	if f.material(t, "raw1").Stock != 250 {
		t.Fatal("materials deducted despite failure")
	}
}

func TestTransitionsUseInjectedClock(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, Options{Now: func() time.Time { return clock }})
	ctx := context.Background()

	order := f.place(t, models.FulfillmentPickup, CartLine{ProductID: "a1", Quantity: 1})
	if !order.CreatedAt.Equal(clock) || !order.UpdatedAt.Equal(clock) {
		t.Fatalf("created=%v updated=%v, want %v", order.CreatedAt, order.UpdatedAt, clock)
	}

	clock = clock.Add(90 * time.Minute)
	order, err := f.orders.AdvanceProductionStep(ctx, order.ID, models.StepMixing, baker)
	if err != nil {
		t.Fatal(err)
	}
	if !order.UpdatedAt.Equal(clock) {
		t.Fatalf("updated_at = %v, want %v", order.UpdatedAt, clock)
	}

	clock = clock.Add(time.Hour)
	order, err = f.orders.ForceOrderStatus(ctx, order.ID, models.StatusReady, "shelf pickup", admin)
	if err != nil {
		t.Fatal(err)
	}
	if !order.UpdatedAt.Equal(clock) || !order.CreatedAt.Equal(clock.Add(-150*time.Minute)) {
		t.Fatalf("created=%v updated=%v", order.CreatedAt, order.UpdatedAt)
	}
}

func TestForceOrderStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	order := f.place(t, models.FulfillmentDelivery, CartLine{ProductID: "a1", Quantity: 1})

	if _, err := f.orders.ForceOrderStatus(ctx, order.ID, models.StatusReady, "", admin); !IsValidation(err) {
		t.Fatalf("a reason is required, got %v", err)
	}
	order, err := f.orders.ForceOrderStatus(ctx, order.ID, models.StatusReady, "oven failure, shipped from backup", admin)
	if err != nil {
		t.Fatalf("force: %v", err)
	}
	if order.Status != models.StatusReady || order.ProductionStep != models.StepQueue {
		t.Fatalf("unexpected state %s/%s", order.Status, order.ProductionStep)
	}
	last := order.History[len(order.History)-1]
	if !strings.HasPrefix(last.Note, "[ADMIN OVERRIDE]") {
		t.Fatalf("override not recorded: %+v", last)
	}
	if f.material(t, "raw1").Stock != 250 {
		t.Fatal("override must not touch stock")
	}
}
