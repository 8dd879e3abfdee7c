package service

import (
	"context"
	"slices"

	"nexus-bakery-api/models"
	"nexus-bakery-api/statemachine"
	"nexus-bakery-api/store"

	"github.com/shopspring/decimal"
)

// Dashboard is the admin overview of the atelier's economics
type Dashboard struct {
	Revenue        float64                    `json:"revenue"`
	ProductionCost float64                    `json:"production_cost"`
	WasteCost      float64                    `json:"waste_cost"`
	NetProfit      float64                    `json:"net_profit"`
	OrderCount     int                        `json:"order_count"`
	OrdersByStatus map[models.OrderStatus]int `json:"orders_by_status"`
	RawAlerts      []models.RawMaterial       `json:"raw_alerts"`
}

// KitchenTicket is one order on the kitchen board with what it needs
type KitchenTicket struct {
	Order    models.Order          `json:"order"`
	NextStep models.ProductionStep `json:"next_step,omitempty"`
	Lines    []KitchenLine         `json:"lines"`
}

type KitchenLine struct {
	ProductID string             `json:"product_id"`
	Name      string             `json:"name"`
	Quantity  int                `json:"quantity"`
	HasRecipe bool               `json:"has_recipe"`
	Procedure []string           `json:"procedure,omitempty"`
	Materials []MaterialNeed     `json:"materials,omitempty"`
	Design    *models.CakeDesign `json:"custom_design,omitempty"`
}

// MaterialNeed is how much of a raw material a line consumes against what is on hand
type MaterialNeed struct {
	MaterialID string              `json:"material_id"`
	Name       string              `json:"name"`
	Unit       models.MaterialUnit `json:"unit"`
	Needed     float64             `json:"needed"`
	Available  float64             `json:"available"`
	Short      bool                `json:"short"`
}

type ReportService struct {
	store store.Store
	opts  Options
}

func NewReportService(s store.Store, opts Options) *ReportService {
	return &ReportService{store: s, opts: opts.withDefaults()}
}

// Dashboard sums revenue, production cost and waste over every order and waste entry
func (s *ReportService) Dashboard(ctx context.Context) (Dashboard, error) {
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{})
	if err != nil {
		return Dashboard{}, classify("dashboard orders", err)
	}
	waste, err := s.store.Waste().List(ctx)
	if err != nil {
		return Dashboard{}, classify("dashboard waste", err)
	}
	materials, err := s.store.RawMaterials().List(ctx)
	if err != nil {
		return Dashboard{}, classify("dashboard materials", err)
	}

	revenue, cost, wasted := decimal.Zero, decimal.Zero, decimal.Zero
	byStatus := make(map[models.OrderStatus]int, len(statemachine.Status.Sequence()))
	for _, st := range statemachine.Status.Sequence() {
		byStatus[st] = 0
	}
	for _, o := range orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		for _, item := range o.Items {
			cost = cost.Add(decimal.NewFromFloat(item.Cost).Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		byStatus[o.Status]++
	}
	for _, w := range waste {
		wasted = wasted.Add(decimal.NewFromFloat(w.CostLoss))
	}

	alerts := ListBelowMinimum(materials)
	s.opts.Metrics.LowStock(len(alerts))
	return Dashboard{
		Revenue:        revenue.InexactFloat64(),
		ProductionCost: cost.InexactFloat64(),
		WasteCost:      wasted.InexactFloat64(),
		NetProfit:      revenue.Sub(cost).Sub(wasted).InexactFloat64(),
		OrderCount:     len(orders),
		OrdersByStatus: byStatus,
		RawAlerts:      alerts,
	}, nil
}

// KitchenBoard lists every order still in production, oldest first, with recipes and
// material requirements per line
func (s *ReportService) KitchenBoard(ctx context.Context) ([]KitchenTicket, error) {
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{NotStep: models.StepCompleted})
	if err != nil {
		return nil, classify("kitchen orders", err)
	}
	recipes, err := s.store.Recipes().List(ctx)
	if err != nil {
		return nil, classify("kitchen recipes", err)
	}
	materials, err := s.store.RawMaterials().List(ctx)
	if err != nil {
		return nil, classify("kitchen materials", err)
	}

	byProduct := make(map[string]models.Recipe, len(recipes))
	for _, r := range recipes {
		byProduct[r.ProductID] = r
	}
	byID := make(map[string]models.RawMaterial, len(materials))
	for _, m := range materials {
		byID[m.ID] = m
	}

	slices.Reverse(orders)
	tickets := make([]KitchenTicket, 0, len(orders))
	for _, o := range orders {
		ticket := KitchenTicket{Order: o}
		if next, ok := statemachine.Production.Next(o.ProductionStep, o.Fulfillment); ok {
			ticket.NextStep = next
		}
		for _, item := range o.Items {
			line := KitchenLine{ProductID: item.ProductID, Name: item.Name, Quantity: item.Quantity, Design: item.CustomDesign}
			if rec, ok := byProduct[item.ProductID]; ok {
				line.HasRecipe = true
				line.Procedure = rec.Procedure
				qty := decimal.NewFromInt(int64(item.Quantity))
				for _, ing := range rec.Ingredients {
					need := MaterialNeed{
						MaterialID: ing.MaterialID,
						Needed:     decimal.NewFromFloat(ing.Amount).Mul(qty).InexactFloat64(),
					}
					if m, ok := byID[ing.MaterialID]; ok {
						need.Name, need.Unit, need.Available = m.Name, m.Unit, m.Stock
					}
					need.Short = need.Needed > need.Available
					line.Materials = append(line.Materials, need)
				}
			}
			ticket.Lines = append(ticket.Lines, line)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// LogisticsBoard lists delivery orders that have not been delivered yet
func (s *ReportService) LogisticsBoard(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders().List(ctx, store.OrderFilter{
		Fulfillment: models.FulfillmentDelivery,
		NotStatus:   models.StatusDelivered,
	})
	return orders, classify("logistics orders", err)
}
