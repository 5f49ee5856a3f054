package service

import (
	"time"

	"go-fuelstation-pos/internal/model"
	"go-fuelstation-pos/internal/reconcile"

	"github.com/shopspring/decimal"
)

// SalesSummary aggregates live sales, skipping voided rows.
type SalesSummary struct {
	ByMethod map[model.PaymentMethod]decimal.Decimal `json:"by_method"`
	Liters   decimal.Decimal                         `json:"liters"`
	Total    decimal.Decimal                         `json:"total"`
	Count    int                                     `json:"count"`
	LastSale *time.Time                              `json:"last_sale,omitempty"`
}

func summarizeSales(transactions []model.Transaction) SalesSummary {
	summary := SalesSummary{
		ByMethod: make(map[model.PaymentMethod]decimal.Decimal, len(model.PaymentMethods)),
		Liters:   decimal.Zero,
		Total:    decimal.Zero,
	}
	for _, m := range model.PaymentMethods {
		summary.ByMethod[m] = decimal.Zero
	}
	for i := range transactions {
		t := &transactions[i]
		if t.IsVoided {
			continue
		}
		summary.ByMethod[t.PaymentMethod] = summary.ByMethod[t.PaymentMethod].Add(t.Amount)
		summary.Liters = summary.Liters.Add(t.Liters)
		summary.Total = summary.Total.Add(t.Amount)
		summary.Count++
		if summary.LastSale == nil || t.SoldAt.After(*summary.LastSale) {
			soldAt := t.SoldAt
			summary.LastSale = &soldAt
		}
	}
	return summary
}

// Prefill maps recorded sales onto the four received buckets staff confirm at close.
// Box-truck sales are billed to an account, so they count as credit.
func (s SalesSummary) Prefill() reconcile.Received {
	return reconcile.Received{
		Cash:     s.ByMethod[model.PayCash],
		Credit:   s.ByMethod[model.PayCredit].Add(s.ByMethod[model.PayBoxTruck]),
		Card:     s.ByMethod[model.PayCard],
		Transfer: s.ByMethod[model.PayTransfer],
	}
}
