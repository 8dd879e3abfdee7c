package service

import (
	"context"
	"errors"
	"testing"

	"nexus-bakery-api/models"
	"nexus-bakery-api/store"
	"nexus-bakery-api/store/memory"
)

var (
	admin  = Actor{ID: "admin-1", Role: models.RoleAdmin}
	baker  = Actor{ID: "baker-1", Role: models.RoleBaker}
	driver = Actor{ID: "driver-1", Role: models.RoleDriver}
)

type fixture struct {
	store   store.Store
	orders  *OrderService
	catalog *CatalogService
	waste   *WasteService
	reports *ReportService
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	st := memory.New()
	if _, err := Seed(context.Background(), st, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return fixtureOn(st, opts)
}

func fixtureOn(st store.Store, opts Options) *fixture {
	catalog := NewCatalogService(st, opts)
	return &fixture{
		store:   st,
		orders:  NewOrderService(st, opts),
		catalog: catalog,
		waste:   NewWasteService(st, catalog, opts),
		reports: NewReportService(st, opts),
	}
}

func (f *fixture) place(t *testing.T, fulfillment models.FulfillmentType, lines ...CartLine) models.Order {
	t.Helper()
	order, err := f.orders.CreateOrder(context.Background(), PlaceOrder{
		CustomerID:   "cust-1",
		CustomerName: "Client_Node",
		Items:        lines,
		Fulfillment:  fulfillment,
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) material(t *testing.T, id string) models.RawMaterial {
	t.Helper()
	m, err := f.store.RawMaterials().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get material %s: %v", id, err)
	}
	return m
}

func (f *fixture) product(t *testing.T, id string) models.Product {
	t.Helper()
	p, err := f.store.Products().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return p
}

// stepTo walks the production track up to target
func (f *fixture) stepTo(t *testing.T, orderID string, target models.ProductionStep) models.Order {
	t.Helper()
	var order models.Order
	for _, step := range []models.ProductionStep{
		models.StepMixing, models.StepBaking, models.StepDecorating, models.StepPackaging, models.StepCompleted,
	} {
		var err error
		order, err = f.orders.AdvanceProductionStep(context.Background(), orderID, step, baker)
		if err != nil {
			t.Fatalf("advance to %s: %v", step, err)
		}
		if step == target {
			break
		}
	}
	return order
}

var errBoom = errors.New("connection reset by peer")

// brokenStore fails order writes and waste inserts, everything else passes through
type brokenStore struct{ store.Store }

func (b brokenStore) Orders() store.OrderRepository { return brokenOrders{b.Store.Orders()} }
func (b brokenStore) Waste() store.WasteRepository  { return brokenWaste{b.Store.Waste()} }

func (b brokenStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return b.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(brokenStore{tx})
	})
}

type brokenOrders struct{ store.OrderRepository }

func (brokenOrders) Create(context.Context, *models.Order) error { return errBoom }
func (brokenOrders) Update(context.Context, *models.Order) error { return errBoom }

type brokenWaste struct{ store.WasteRepository }

func (brokenWaste) Create(context.Context, *models.WasteLog) error { return errBoom }

var errReadBack = errors.New("read replica timeout")

// readBackStore fails every order read once an order has been written through it
type readBackStore struct {
	store.Store
	wrote *bool
}

func newReadBackStore(s store.Store) readBackStore {
	return readBackStore{Store: s, wrote: new(bool)}
}

func (r readBackStore) Orders() store.OrderRepository {
	return readBackOrders{OrderRepository: r.Store.Orders(), wrote: r.wrote}
}

func (r readBackStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return r.Store.Transaction(ctx, func(tx store.Store) error {
		return fn(readBackStore{Store: tx, wrote: r.wrote})
	})
}

type readBackOrders struct {
	store.OrderRepository
	wrote *bool
}

func (r readBackOrders) Create(ctx context.Context, o *models.Order) error {
	*r.wrote = true
	return r.OrderRepository.Create(ctx, o)
}

func (r readBackOrders) Update(ctx context.Context, o *models.Order) error {
	*r.wrote = true
	return r.OrderRepository.Update(ctx, o)
}

func (r readBackOrders) Get(ctx context.Context, id string) (models.Order, error) {
	if *r.wrote {
		return models.Order{}, errReadBack
	}
	return r.OrderRepository.Get(ctx, id)
}
