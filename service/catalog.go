package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/models"
	"nexus-bakery-api/store"
)

// ProductInput is the admin form for creating or editing a product
type ProductInput struct {
	Name        string                   `json:"name" binding:"required"`
	Tagline     string                   `json:"tagline"`
	Description string                   `json:"description"`
	Price       float64                  `json:"price"`
	Cost        float64                  `json:"cost"`
	Stock       int                      `json:"stock"`
	Category    models.Category          `json:"category"`
	Image       string                   `json:"image"`
	Profile     *models.MolecularProfile `json:"profile"`
}

// MaterialInput edits (or creates) a raw material
type MaterialInput struct {
	Name        string              `json:"name" binding:"required"`
	Unit        models.MaterialUnit `json:"unit" binding:"required"`
	Stock       float64             `json:"stock"`
	MinStock    float64             `json:"min_stock"`
	CostPerUnit float64             `json:"cost_per_unit"`
}

// RecipeInput replaces the recipe of a product wholesale
type RecipeInput struct {
	Ingredients []models.RecipeIngredient `json:"ingredients" binding:"required,min=1"`
	Procedure   []string                  `json:"procedure"`
}

type CatalogService struct {
	store store.Store
	opts  Options
	log   *slog.Logger
}

func NewCatalogService(s store.Store, opts Options) *CatalogService {
	opts = opts.withDefaults()
	return &CatalogService{store: s, opts: opts, log: logging.Component(opts.Logger, "catalog")}
}

// ── Products ─────────────────────────────────────────────────────────────────

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products().List(ctx)
	return products, classify("list products", err)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (models.Product, error) {
	p, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return models.Product{}, classify("get product", lookup(err, "product", id))
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := validateProduct(in); err != nil {
		return models.Product{}, err
	}
	p := models.Product{ID: shortID("PRD")}
	applyProduct(&p, in)
	if err := s.store.Products().Save(ctx, &p); err != nil {
		return models.Product{}, classify("create product", err)
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	if err := validateProduct(in); err != nil {
		return models.Product{}, err
	}
	var p models.Product
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		p, err = tx.Products().Get(ctx, id)
		if err != nil {
			return lookup(err, "product", id)
		}
		applyProduct(&p, in)
		return tx.Products().Save(ctx, &p)
	})
	if err != nil {
		return models.Product{}, classify("update product", err)
	}
	return p, nil
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("product name is required")
	}
	if in.Price < 0 || in.Cost < 0 {
		return invalid("price and cost must not be negative")
	}
	if in.Stock < 0 {
		return invalid("stock must not be negative")
	}
	switch in.Category {
	case "", models.CategoryCuradurias, models.CategoryMolecular, models.CategoryArtesanal,
		models.CategoryPostPostre, models.CategoryHibridos:
		return nil
	}
	return invalid("unknown category %q", in.Category)
}

func applyProduct(p *models.Product, in ProductInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Tagline = in.Tagline
	p.Description = in.Description
	p.Price = in.Price
	p.Cost = in.Cost
	p.Stock = in.Stock
	p.Category = in.Category
	p.Image = in.Image
	p.Profile = in.Profile
}

// AdjustStock applies a signed delta to a product's stock. Under the default policy
// stock is floored at zero and the anomaly logged; with AllowBackorder it may go negative.
func (s *CatalogService) AdjustStock(ctx context.Context, productID string, delta int) (models.Product, error) {
	var p models.Product
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		p, err = s.adjustStock(ctx, tx, productID, delta)
		return err
	})
	if err != nil {
		return models.Product{}, classify("adjust stock", err)
	}
	return p, nil
}

func (s *CatalogService) adjustStock(ctx context.Context, tx store.Store, productID string, delta int) (models.Product, error) {
	p, err := tx.Products().Get(ctx, productID)
	if err != nil {
		return models.Product{}, lookup(err, "product", productID)
	}
	stock := p.Stock + delta
	if stock < 0 && !s.opts.AllowBackorder {
		s.log.Warn("product stock would go negative, clamped at zero",
			"product_id", productID, "stock", p.Stock, "delta", delta)
		stock = 0
	}
	p.Stock = stock
	if err := tx.Products().Save(ctx, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// ── Raw materials ────────────────────────────────────────────────────────────

func (s *CatalogService) ListMaterials(ctx context.Context) ([]models.RawMaterial, error) {
	materials, err := s.store.RawMaterials().List(ctx)
	return materials, classify("list raw materials", err)
}

// ListBelowMinimum keeps the materials whose stock is under their minimum, in input order
func ListBelowMinimum(materials []models.RawMaterial) []models.RawMaterial {
	out := []models.RawMaterial{}
	for _, m := range materials {
		if m.BelowMinimum() {
			out = append(out, m)
		}
	}
	return out
}

// LowStockAlerts loads the inventory and returns the materials that need restocking
func (s *CatalogService) LowStockAlerts(ctx context.Context) ([]models.RawMaterial, error) {
	materials, err := s.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	alerts := ListBelowMinimum(materials)
	s.opts.Metrics.LowStock(len(alerts))
	return alerts, nil
}

// SaveMaterial updates a raw material, creating it when id is unknown
func (s *CatalogService) SaveMaterial(ctx context.Context, id string, in MaterialInput) (models.RawMaterial, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(in.Name) == "" {
		return models.RawMaterial{}, invalid("raw material id and name are required")
	}
	switch in.Unit {
	case models.UnitKilogram, models.UnitGram, models.UnitLiter, models.UnitPieces:
	default:
		return models.RawMaterial{}, invalid("unknown unit %q", in.Unit)
	}
	if in.Stock < 0 || in.MinStock < 0 || in.CostPerUnit < 0 {
		return models.RawMaterial{}, invalid("stock, minimum and cost must not be negative")
	}

	m := models.RawMaterial{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Unit:        in.Unit,
		Stock:       in.Stock,
		MinStock:    in.MinStock,
		CostPerUnit: in.CostPerUnit,
		UpdatedAt:   s.opts.Now(),
	}
	if err := s.store.RawMaterials().Save(ctx, &m); err != nil {
		return models.RawMaterial{}, classify("save raw material", err)
	}
	if m.BelowMinimum() {
		s.log.Warn("raw material below minimum", "material_id", m.ID, "stock", m.Stock, "min_stock", m.MinStock)
	}
	return m, nil
}

// ── Recipes ──────────────────────────────────────────────────────────────────

func (s *CatalogService) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := s.store.Recipes().List(ctx)
	return recipes, classify("list recipes", err)
}

// SaveRecipe replaces the recipe of a product. Product and materials must exist.
func (s *CatalogService) SaveRecipe(ctx context.Context, productID string, in RecipeInput) (models.Recipe, error) {
	if len(in.Ingredients) == 0 {
		return models.Recipe{}, invalid("a recipe needs at least one ingredient")
	}
	for _, ing := range in.Ingredients {
		if ing.Amount <= 0 {
			return models.Recipe{}, invalid("amount for %s must be greater than zero", ing.MaterialID)
		}
	}

	var rec models.Recipe
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Products().Get(ctx, productID); err != nil {
			return lookup(err, "product", productID)
		}
		for _, ing := range in.Ingredients {
			if _, err := tx.RawMaterials().Get(ctx, ing.MaterialID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return invalid("unknown raw material %s", ing.MaterialID)
				}
				return err
			}
		}

		existing, err := tx.Recipes().GetByProduct(ctx, productID)
		switch {
		case err == nil:
			rec = existing
		case errors.Is(err, store.ErrNotFound):
			rec = models.Recipe{ID: shortID("REC"), ProductID: productID, CreatedAt: s.opts.Now()}
		default:
			return err
		}
		rec.Ingredients = append([]models.RecipeIngredient(nil), in.Ingredients...)
		rec.Procedure = append([]string(nil), in.Procedure...)
		return tx.Recipes().Save(ctx, &rec)
	})
	if err != nil {
		return models.Recipe{}, classify("save recipe", err)
	}
	s.log.Info("recipe saved", "recipe_id", rec.ID, "product_id", productID, "ingredients", len(rec.Ingredients))
	return rec, nil
}
