// Package gormstore implements store.Store on top of gorm.
package gormstore

import (
	"context"
	"errors"
	"time"

	"nexus-bakery-api/models"
	"nexus-bakery-api/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ store.Store = (*Store)(nil)

// Models lists every table the store needs, in migration order
var Models = []any{
	&models.User{},
	&models.Product{},
	&models.RawMaterial{},
	&models.Recipe{},
	&models.Order{},
	&models.OrderItem{},
	&models.OrderHistory{},
	&models.MaterialConsumption{},
	&models.PointsCredit{},
	&models.WasteLog{},
}

type Store struct {
	db *gorm.DB
	tx bool
}

// New wraps an opened database handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates all tables
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(Models...)
}

func (s *Store) Products() store.ProductRepository         { return productRepo{s.db} }
func (s *Store) RawMaterials() store.RawMaterialRepository { return materialRepo{s.db} }
func (s *Store) Recipes() store.RecipeRepository           { return recipeRepo{s.db} }
func (s *Store) Orders() store.OrderRepository             { return orderRepo{s.db} }
func (s *Store) Waste() store.WasteRepository              { return wasteRepo{s.db} }
func (s *Store) Users() store.UserRepository               { return userRepo{s.db} }

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	if s.tx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, tx: true})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

// ── Products ─────────────────────────────────────────────────────────────────

type productRepo struct{ db *gorm.DB }

func (r productRepo) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (r productRepo) Get(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, notFound(err)
}

func (r productRepo) Save(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// ── Raw materials ────────────────────────────────────────────────────────────

type materialRepo struct{ db *gorm.DB }

func (r materialRepo) List(ctx context.Context) ([]models.RawMaterial, error) {
	var materials []models.RawMaterial
	err := r.db.WithContext(ctx).Order("id").Find(&materials).Error
	return materials, err
}

func (r materialRepo) Get(ctx context.Context, id string) (models.RawMaterial, error) {
	var m models.RawMaterial
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return m, notFound(err)
}

func (r materialRepo) Save(ctx context.Context, m *models.RawMaterial) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// ── Recipes ──────────────────────────────────────────────────────────────────

type recipeRepo struct{ db *gorm.DB }

func (r recipeRepo) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.db.WithContext(ctx).Order("id").Find(&recipes).Error
	return recipes, err
}

func (r recipeRepo) GetByProduct(ctx context.Context, productID string) (models.Recipe, error) {
	var rec models.Recipe
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error
	return rec, notFound(err)
}

func (r recipeRepo) Save(ctx context.Context, rec *models.Recipe) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// ── Orders ───────────────────────────────────────────────────────────────────

type orderRepo struct{ db *gorm.DB }

func (r orderRepo) List(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if f.CustomerID != "" {
		query = query.Where("customer_id = ?", f.CustomerID)
	}
	if f.DriverID != "" {
		query = query.Where("driver_id = ?", f.DriverID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.NotStatus != "" {
		query = query.Where("status <> ?", f.NotStatus)
	}
	if f.NotStep != "" {
		query = query.Where("production_step <> ?", f.NotStep)
	}
	if f.Fulfillment != "" {
		query = query.Where("fulfillment = ?", f.Fulfillment)
	}

	var orders []models.Order
	err := query.Order("created_at desc").Order("id desc").Find(&orders).Error
	return orders, err
}

func (r orderRepo) Get(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&o, "id = ?", id).Error
	return o, notFound(err)
}

func (r orderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r orderRepo) Update(ctx context.Context, o *models.Order) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", o.ID).Updates(map[string]any{
		"status":          o.Status,
		"production_step": o.ProductionStep,
		"driver_id":       o.DriverID,
		"updated_at":      stamp(o.UpdatedAt),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r orderRepo) AppendHistory(ctx context.Context, h *models.OrderHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r orderRepo) MarkConsumed(ctx context.Context, orderID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.MaterialConsumption{OrderID: orderID, ConsumedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r orderRepo) MarkCredited(ctx context.Context, orderID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PointsCredit{OrderID: orderID, CreditedAt: at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// stamp falls back to the wall clock when the caller left t unset
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// ── Waste ────────────────────────────────────────────────────────────────────

type wasteRepo struct{ db *gorm.DB }

func (r wasteRepo) List(ctx context.Context) ([]models.WasteLog, error) {
	var logs []models.WasteLog
	err := r.db.WithContext(ctx).Order("created_at desc").Find(&logs).Error
	return logs, err
}

func (r wasteRepo) Create(ctx context.Context, w *models.WasteLog) error {
	return r.db.WithContext(ctx).Create(w).Error
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRepo struct{ db *gorm.DB }

func (r userRepo) Get(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	u.Tier = models.TierFor(u.NexusPoints)
	return u, notFound(err)
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	u.Tier = models.TierFor(u.NexusPoints)
	return u, notFound(err)
}

func (r userRepo) Create(ctx context.Context, u *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return store.ErrConflict
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r userRepo) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
