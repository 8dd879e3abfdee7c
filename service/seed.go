package service

import (
	"context"
	"log/slog"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/models"
	"nexus-bakery-api/store"
)

// SeedProducts is the demo catalog
func SeedProducts() []models.Product {
	return []models.Product{
		{
			ID:          "m1",
			Name:        "SYNTH-DARK 01",
			Tagline:     "Materia Oscura & Cacao",
			Description: "Biscocho infusionado con café de altura y núcleo de ganache criogénico.",
			Price:       24000,
			Cost:        12000,
			Stock:       12,
			Category:    models.CategoryMolecular,
			Image:       "https://images.unsplash.com/photo-1578985545062-69928b1d9587?w=800&q=80",
			Profile: &models.MolecularProfile{
				Sweetness: 4, Texture: "Velvet", Complexity: 9,
				ScentNotes:  []string{"Humo", "Roble", "Cacao"},
				Allergens:   []string{"Gluten", "Lácteos"},
				Ingredients: []string{"Harina de Fuerza", "Cacao 70%", "Café Arábica", "Mantequilla de Pasto"},
			},
		},
		{
			ID:          "a1",
			Name:        "CLOUD Sourdough",
			Tagline:     "Fermentación Atmosférica",
			Description: "72 horas de reposo controlado. Estructura alveolar perfecta.",
			Price:       4500,
			Cost:        1500,
			Stock:       50,
			Category:    models.CategoryArtesanal,
			Image:       "https://images.unsplash.com/photo-1585478259715-876a2371ee58?w=800&q=80",
			Profile: &models.MolecularProfile{
				Sweetness: 1, Texture: "Crisp", Complexity: 7,
				ScentNotes:  []string{"Cereal", "Levadura", "Nuez"},
				Allergens:   []string{"Gluten"},
				Ingredients: []string{"Harina Ecológica", "Agua Filtrada", "Sal Marina", "Masa Madre Centenaria"},
			},
		},
	}
}

// SeedMaterials is the demo raw material inventory
func SeedMaterials() []models.RawMaterial {
	return []models.RawMaterial{
		{ID: "raw1", Name: "Harina Orgánica T65", Unit: models.UnitKilogram, Stock: 250, MinStock: 50, CostPerUnit: 1200},
		{ID: "raw2", Name: "Mantequilla AOP", Unit: models.UnitKilogram, Stock: 45, MinStock: 10, CostPerUnit: 8500},
		{ID: "raw3", Name: "Levadura Salvaje", Unit: models.UnitGram, Stock: 5000, MinStock: 1000, CostPerUnit: 5},
	}
}

// SeedRecipes is the demo recipe book
func SeedRecipes() []models.Recipe {
	return []models.Recipe{
		{
			ID:        "rec1",
			ProductID: "a1",
			Ingredients: []models.RecipeIngredient{
				{MaterialID: "raw1", Amount: 0.5},
				{MaterialID: "raw3", Amount: 100},
			},
			Procedure: []string{"Autólisis", "Amasado", "Fermentación en Frío"},
		},
	}
}

// Seed loads the demo catalog when the store has no products yet. It reports whether
// anything was written.
func Seed(ctx context.Context, s store.Store, log *slog.Logger) (bool, error) {
	log = logging.Component(log, "seed")

	existing, err := s.Products().List(ctx)
	if err != nil {
		return false, classify("seed", err)
	}
	if len(existing) > 0 {
		log.Debug("catalog already present, skipping seed", "products", len(existing))
		return false, nil
	}

	err = s.Transaction(ctx, func(tx store.Store) error {
		for _, p := range SeedProducts() {
			if err := tx.Products().Save(ctx, &p); err != nil {
				return err
			}
		}
		for _, m := range SeedMaterials() {
			if err := tx.RawMaterials().Save(ctx, &m); err != nil {
				return err
			}
		}
		for _, r := range SeedRecipes() {
			if err := tx.Recipes().Save(ctx, &r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, classify("seed", err)
	}
	log.Info("demo catalog seeded", "products", len(SeedProducts()), "materials", len(SeedMaterials()))
	return true, nil
}
