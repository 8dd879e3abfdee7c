package models

import "time"

// Category groups products on the storefront
type Category string

const (
	CategoryCuradurias Category = "Curadurías"
	CategoryMolecular  Category = "Molecular"
	CategoryArtesanal  Category = "Artesanal"
	CategoryPostPostre Category = "Post-Postre"
	CategoryHibridos   Category = "Híbridos"
)

// MolecularProfile is the sensory sheet shown on the product detail view
type MolecularProfile struct {
	Sweetness   int      `json:"sweetness"`
	Texture     string   `json:"texture"`
	Complexity  int      `json:"complexity"`
	ScentNotes  []string `json:"scent_notes"`
	Allergens   []string `json:"allergens"`
	Ingredients []string `json:"ingredients"`
}

type Product struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	Name        string            `json:"name" gorm:"not null"`
	Tagline     string            `json:"tagline"`
	Description string            `json:"description"`
	Price       float64           `json:"price" gorm:"not null"`
	Cost        float64           `json:"cost"`
	Stock       int               `json:"stock"`
	Category    Category          `json:"category"`
	Image       string            `json:"image"`
	Profile     *MolecularProfile `json:"profile,omitempty" gorm:"serializer:json"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// MaterialUnit is the unit a raw material is stocked in
type MaterialUnit string

const (
	UnitKilogram MaterialUnit = "kg"
	UnitGram     MaterialUnit = "g"
	UnitLiter    MaterialUnit = "l"
	UnitPieces   MaterialUnit = "units"
)

type RawMaterial struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"not null"`
	Unit        MaterialUnit `json:"unit"`
	Stock       float64      `json:"stock"`
	MinStock    float64      `json:"min_stock"`
	CostPerUnit float64      `json:"cost_per_unit"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// BelowMinimum reports whether the material needs restocking
func (m RawMaterial) BelowMinimum() bool {
	return m.Stock < m.MinStock
}

// RecipeIngredient is the amount of one material needed for a single unit of product
type RecipeIngredient struct {
	MaterialID string  `json:"material_id"`
	Amount     float64 `json:"amount"`
}

type Recipe struct {
	ID          string             `json:"id" gorm:"primaryKey"`
	ProductID   string             `json:"product_id" gorm:"uniqueIndex;not null"`
	Ingredients []RecipeIngredient `json:"ingredients" gorm:"serializer:json"`
	Procedure   []string           `json:"procedure" gorm:"serializer:json"`
	CreatedAt   time.Time          `json:"created_at"`
}

// WasteLog records discarded product and what it cost the atelier
type WasteLog struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	ProductID string    `json:"product_id" gorm:"index;not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Reason    string    `json:"reason"`
	CostLoss  float64   `json:"cost_loss"`
	CreatedAt time.Time `json:"created_at"`
}
