// Package memory provides an in-memory implementation of store.Store used for
// demos, tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"nexus-bakery-api/models"
	"nexus-bakery-api/store"
)

var _ store.Store = (*Store)(nil)

// Stored values are private copies and are always replaced, never mutated in
// place, so a transaction only needs fresh maps.
type memoryState struct {
	products     map[string]models.Product
	materials    map[string]models.RawMaterial
	recipes      map[string]models.Recipe
	orders       map[string]models.Order
	consumptions map[string]time.Time
	credits      map[string]time.Time
	waste        map[string]models.WasteLog
	users        map[string]models.User
	nextItemID   uint
	nextEventID  uint
}

func newMemoryState() *memoryState {
	return &memoryState{
		products:     make(map[string]models.Product),
		materials:    make(map[string]models.RawMaterial),
		recipes:      make(map[string]models.Recipe),
		orders:       make(map[string]models.Order),
		consumptions: make(map[string]time.Time),
		credits:      make(map[string]time.Time),
		waste:        make(map[string]models.WasteLog),
		users:        make(map[string]models.User),
	}
}

func (s *memoryState) clone() *memoryState {
	return &memoryState{
		products:     copyMap(s.products),
		materials:    copyMap(s.materials),
		recipes:      copyMap(s.recipes),
		orders:       copyMap(s.orders),
		consumptions: copyMap(s.consumptions),
		credits:      copyMap(s.credits),
		waste:        copyMap(s.waste),
		users:        copyMap(s.users),
		nextItemID:   s.nextItemID,
		nextEventID:  s.nextEventID,
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store keeps every collection in process memory behind a single RWMutex.
type Store struct {
	mu    *sync.RWMutex
	state *memoryState
	tx    bool
	nowFn func() time.Time
}

// New returns an empty store
func New() *Store {
	return &Store{
		mu:    &sync.RWMutex{},
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) read(fn func(*memoryState) error) error {
	if !s.tx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.state)
}

func (s *Store) write(fn func(*memoryState) error) error {
	if !s.tx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

// Transaction runs fn on a cloned state and swaps it in only when fn succeeds.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&Store{mu: s.mu, state: working, tx: true, nowFn: s.nowFn}); err != nil {
		return err
	}
	*s.state = *working
	return nil
}

func (s *Store) Products() store.ProductRepository         { return productRepo{s} }
func (s *Store) RawMaterials() store.RawMaterialRepository { return materialRepo{s} }
func (s *Store) Recipes() store.RecipeRepository           { return recipeRepo{s} }
func (s *Store) Orders() store.OrderRepository             { return orderRepo{s} }
func (s *Store) Waste() store.WasteRepository              { return wasteRepo{s} }
func (s *Store) Users() store.UserRepository               { return userRepo{s} }

// ── Products ─────────────────────────────────────────────────────────────────

type productRepo struct{ s *Store }

func (r productRepo) List(_ context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.s.read(func(st *memoryState) error {
		out = sortedValues(st.products, cloneProduct, func(a, b models.Product) bool { return a.ID < b.ID })
		return nil
	})
	return out, err
}

func (r productRepo) Get(_ context.Context, id string) (models.Product, error) {
	var out models.Product
	err := r.s.read(func(st *memoryState) error {
		p, ok := st.products[id]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneProduct(p)
		return nil
	})
	return out, err
}

func (r productRepo) Save(_ context.Context, p *models.Product) error {
	return r.s.write(func(st *memoryState) error {
		now := r.s.nowFn()
		if existing, ok := st.products[p.ID]; ok {
			p.CreatedAt = existing.CreatedAt
		} else if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		st.products[p.ID] = cloneProduct(*p)
		return nil
	})
}

// ── Raw materials ────────────────────────────────────────────────────────────

type materialRepo struct{ s *Store }

func (r materialRepo) List(_ context.Context) ([]models.RawMaterial, error) {
	var out []models.RawMaterial
	err := r.s.read(func(st *memoryState) error {
		out = sortedValues(st.materials, identity[models.RawMaterial], func(a, b models.RawMaterial) bool { return a.ID < b.ID })
		return nil
	})
	return out, err
}

func (r materialRepo) Get(_ context.Context, id string) (models.RawMaterial, error) {
	var out models.RawMaterial
	err := r.s.read(func(st *memoryState) error {
		m, ok := st.materials[id]
		if !ok {
			return store.ErrNotFound
		}
		out = m
		return nil
	})
	return out, err
}

func (r materialRepo) Save(_ context.Context, m *models.RawMaterial) error {
	return r.s.write(func(st *memoryState) error {
		m.UpdatedAt = r.s.nowFn()
		st.materials[m.ID] = *m
		return nil
	})
}

// ── Recipes ──────────────────────────────────────────────────────────────────

type recipeRepo struct{ s *Store }

func (r recipeRepo) List(_ context.Context) ([]models.Recipe, error) {
	var out []models.Recipe
	err := r.s.read(func(st *memoryState) error {
		out = sortedValues(st.recipes, cloneRecipe, func(a, b models.Recipe) bool { return a.ID < b.ID })
		return nil
	})
	return out, err
}

func (r recipeRepo) GetByProduct(_ context.Context, productID string) (models.Recipe, error) {
	var out models.Recipe
	err := r.s.read(func(st *memoryState) error {
		for _, rec := range st.recipes {
			if rec.ProductID == productID {
				out = cloneRecipe(rec)
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r recipeRepo) Save(_ context.Context, rec *models.Recipe) error {
	return r.s.write(func(st *memoryState) error {
		for id, other := range st.recipes {
			if other.ProductID == rec.ProductID && id != rec.ID {
				return store.ErrConflict
			}
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = r.s.nowFn()
		}
		st.recipes[rec.ID] = cloneRecipe(*rec)
		return nil
	})
}

// ── Orders ───────────────────────────────────────────────────────────────────

type orderRepo struct{ s *Store }

func (r orderRepo) List(_ context.Context, f store.OrderFilter) ([]models.Order, error) {
	var out []models.Order
	err := r.s.read(func(st *memoryState) error {
		for _, o := range st.orders {
			if !matches(o, f) {
				continue
			}
			c := cloneOrder(o)
			c.History = nil
			out = append(out, c)
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].ID > out[j].ID
		})
		return nil
	})
	return out, err
}

func matches(o models.Order, f store.OrderFilter) bool {
	switch {
	case f.CustomerID != "" && o.CustomerID != f.CustomerID:
		return false
	case f.DriverID != "" && (o.DriverID == nil || *o.DriverID != f.DriverID):
		return false
	case f.Status != "" && o.Status != f.Status:
		return false
	case f.NotStatus != "" && o.Status == f.NotStatus:
		return false
	case f.NotStep != "" && o.ProductionStep == f.NotStep:
		return false
	case f.Fulfillment != "" && o.Fulfillment != f.Fulfillment:
		return false
	}
	return true
}

func (r orderRepo) Get(_ context.Context, id string) (models.Order, error) {
	var out models.Order
	err := r.s.read(func(st *memoryState) error {
		o, ok := st.orders[id]
		if !ok {
			return store.ErrNotFound
		}
		out = cloneOrder(o)
		return nil
	})
	return out, err
}

func (r orderRepo) Create(_ context.Context, o *models.Order) error {
	return r.s.write(func(st *memoryState) error {
		if _, exists := st.orders[o.ID]; exists {
			return store.ErrConflict
		}
		now := r.s.nowFn()
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		if o.UpdatedAt.IsZero() {
			o.UpdatedAt = now
		}
		for i := range o.Items {
			st.nextItemID++
			o.Items[i].ID = st.nextItemID
			o.Items[i].OrderID = o.ID
		}
		for i := range o.History {
			st.nextEventID++
			o.History[i].ID = st.nextEventID
			o.History[i].OrderID = o.ID
			if o.History[i].CreatedAt.IsZero() {
				o.History[i].CreatedAt = now
			}
		}
		st.orders[o.ID] = cloneOrder(*o)
		return nil
	})
}

func (r orderRepo) Update(_ context.Context, o *models.Order) error {
	return r.s.write(func(st *memoryState) error {
		existing, ok := st.orders[o.ID]
		if !ok {
			return store.ErrNotFound
		}
		updated := cloneOrder(existing)
		updated.Status = o.Status
		updated.ProductionStep = o.ProductionStep
		updated.DriverID = cloneString(o.DriverID)
		updated.UpdatedAt = o.UpdatedAt
		if updated.UpdatedAt.IsZero() {
			updated.UpdatedAt = r.s.nowFn()
		}
		st.orders[o.ID] = updated
		return nil
	})
}

func (r orderRepo) AppendHistory(_ context.Context, h *models.OrderHistory) error {
	return r.s.write(func(st *memoryState) error {
		existing, ok := st.orders[h.OrderID]
		if !ok {
			return store.ErrNotFound
		}
		st.nextEventID++
		h.ID = st.nextEventID
		if h.CreatedAt.IsZero() {
			h.CreatedAt = r.s.nowFn()
		}
		updated := cloneOrder(existing)
		updated.History = append(updated.History, *h)
		st.orders[h.OrderID] = updated
		return nil
	})
}

func (r orderRepo) MarkConsumed(_ context.Context, orderID string, at time.Time) (bool, error) {
	first := false
	err := r.s.write(func(st *memoryState) error {
		if _, done := st.consumptions[orderID]; done {
			return nil
		}
		st.consumptions[orderID] = at
		first = true
		return nil
	})
	return first, err
}

func (r orderRepo) MarkCredited(_ context.Context, orderID string, at time.Time) (bool, error) {
	first := false
	err := r.s.write(func(st *memoryState) error {
		if _, done := st.credits[orderID]; done {
			return nil
		}
		st.credits[orderID] = at
		first = true
		return nil
	})
	return first, err
}

// ── Waste ────────────────────────────────────────────────────────────────────

type wasteRepo struct{ s *Store }

func (r wasteRepo) List(_ context.Context) ([]models.WasteLog, error) {
	var out []models.WasteLog
	err := r.s.read(func(st *memoryState) error {
		out = sortedValues(st.waste, identity[models.WasteLog], func(a, b models.WasteLog) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
		return nil
	})
	return out, err
}

func (r wasteRepo) Create(_ context.Context, w *models.WasteLog) error {
	return r.s.write(func(st *memoryState) error {
		if _, exists := st.waste[w.ID]; exists {
			return store.ErrConflict
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = r.s.nowFn()
		}
		st.waste[w.ID] = *w
		return nil
	})
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r userRepo) Get(_ context.Context, id string) (models.User, error) {
	var out models.User
	err := r.s.read(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = u
		return nil
	})
	out.Tier = models.TierFor(out.NexusPoints)
	return out, err
}

func (r userRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	var out models.User
	err := r.s.read(func(st *memoryState) error {
		for _, u := range st.users {
			if u.Email == email {
				out = u
				return nil
			}
		}
		return store.ErrNotFound
	})
	out.Tier = models.TierFor(out.NexusPoints)
	return out, err
}

func (r userRepo) Create(_ context.Context, u *models.User) error {
	return r.s.write(func(st *memoryState) error {
		for _, other := range st.users {
			if other.Email == u.Email || other.ID == u.ID {
				return store.ErrConflict
			}
		}
		now := r.s.nowFn()
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (r userRepo) Save(_ context.Context, u *models.User) error {
	return r.s.write(func(st *memoryState) error {
		u.UpdatedAt = r.s.nowFn()
		st.users[u.ID] = *u
		return nil
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func identity[T any](v T) T { return v }

func sortedValues[T any](m map[string]T, clone func(T) T, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, clone(v))
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneProduct(p models.Product) models.Product {
	if p.Profile != nil {
		profile := *p.Profile
		profile.ScentNotes = append([]string(nil), p.Profile.ScentNotes...)
		profile.Allergens = append([]string(nil), p.Profile.Allergens...)
		profile.Ingredients = append([]string(nil), p.Profile.Ingredients...)
		p.Profile = &profile
	}
	return p
}

func cloneRecipe(r models.Recipe) models.Recipe {
	r.Ingredients = append([]models.RecipeIngredient(nil), r.Ingredients...)
	r.Procedure = append([]string(nil), r.Procedure...)
	return r
}

func cloneOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if item.CustomDesign != nil {
			design := *item.CustomDesign
			item.CustomDesign = &design
		}
		items[i] = item
	}
	o.Items = items
	o.History = append([]models.OrderHistory(nil), o.History...)
	o.DriverID = cloneString(o.DriverID)
	return o
}
