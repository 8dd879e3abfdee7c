package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"nexus-bakery-api/logging"
	"nexus-bakery-api/models"
	"nexus-bakery-api/store"

	"github.com/shopspring/decimal"
)

type WasteService struct {
	store   store.Store
	catalog *CatalogService
	opts    Options
	log     *slog.Logger
}

func NewWasteService(s store.Store, catalog *CatalogService, opts Options) *WasteService {
	opts = opts.withDefaults()
	return &WasteService{store: s, catalog: catalog, opts: opts, log: logging.Component(opts.Logger, "waste")}
}

func (s *WasteService) List(ctx context.Context) ([]models.WasteLog, error) {
	logs, err := s.store.Waste().List(ctx)
	return logs, classify("list waste", err)
}

// LogWaste records discarded product at cost and takes it out of stock, atomically.
// An unknown product is logged at zero cost unless StrictWaste is set.
func (s *WasteService) LogWaste(ctx context.Context, productID string, quantity int, reason string) (models.WasteLog, error) {
	if quantity <= 0 {
		return models.WasteLog{}, invalid("waste quantity must be greater than zero")
	}
	if strings.TrimSpace(reason) == "" {
		return models.WasteLog{}, invalid("waste reason is required")
	}

	entry := models.WasteLog{
		ID:        newWasteID(),
		ProductID: productID,
		Quantity:  quantity,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: s.opts.Now(),
	}
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		p, err := tx.Products().Get(ctx, productID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if s.opts.StrictWaste {
				return notFound("product", productID)
			}
			s.log.Warn("waste logged for unknown product, no cost and no stock change",
				"product_id", productID, "quantity", quantity)
			return tx.Waste().Create(ctx, &entry)
		case err != nil:
			return err
		}

		entry.CostLoss = decimal.NewFromFloat(p.Cost).Mul(decimal.NewFromInt(int64(quantity))).InexactFloat64()
		if err := tx.Waste().Create(ctx, &entry); err != nil {
			return err
		}
		_, err = s.catalog.adjustStock(ctx, tx, productID, -quantity)
		return err
	})
	if err != nil {
		return models.WasteLog{}, classify("log waste", err)
	}

	s.opts.Metrics.WasteLogged(entry.CostLoss)
	s.log.Info("waste logged", "waste_id", entry.ID, "product_id", productID,
		"quantity", quantity, "cost_loss", entry.CostLoss, "reason", entry.Reason)
	return entry, nil
}
