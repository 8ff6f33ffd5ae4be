package models

import (
	"context"
	"sort"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FloatBalanceLine struct {
	FloatBalance
	ProviderName string `json:"provider_name"`
}

type BalanceTotals struct {
	TotalCash        decimal.Decimal `json:"total_cash"`
	TotalMobileFloat decimal.Decimal `json:"total_mobile_float"`
	TotalBankFloat   decimal.Decimal `json:"total_bank_float"`
	TotalFloat       decimal.Decimal `json:"total_float"`
	GrandTotal       decimal.Decimal `json:"grand_total"`
}

type BalanceSummary struct {
	Cash          *CashBalance       `json:"cash"`
	FloatBalances []FloatBalanceLine `json:"float_balances"`
	Totals        BalanceTotals      `json:"totals"`
}

// LoadShopBalances reads the cash row (created if absent) and every float row
// of the shop, optionally restricted to one category.
func LoadShopBalances(ctx context.Context, actorId string, shopId string, category *Category) (*CashBalance, []*FloatBalance, error) {
	var cash *CashBalance
	var floats []*FloatBalance
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := VerifyShopAccess(tx, shopId, actorId); err != nil {
			return err
		}
		var err error
		if cash, err = GetOrCreateCashBalance(tx, shopId); err != nil {
			return err
		}
		q := tx.Where("shop_id = ?", shopId)
		if category != nil {
			q = q.Where("category = ?", *category)
		}
		return q.Find(&floats).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return cash, floats, nil
}

// BuildBalanceSummary attaches provider names and computes totals. Lines are
// ordered by category, then provider name.
func BuildBalanceSummary(cash *CashBalance, floats []*FloatBalance, providers map[string]*Provider) *BalanceSummary {
	summary := &BalanceSummary{
		Cash:          cash,
		FloatBalances: make([]FloatBalanceLine, 0, len(floats)),
	}
	totals := BalanceTotals{
		TotalCash:        cash.Balance,
		TotalMobileFloat: decimal.Zero,
		TotalBankFloat:   decimal.Zero,
	}
	for _, fb := range floats {
		name := Provider{}.GetDefault(fb.ProviderId).(Provider).Name
		if p, ok := providers[fb.ProviderId]; ok && p != nil {
			name = p.Name
		}
		summary.FloatBalances = append(summary.FloatBalances, FloatBalanceLine{FloatBalance: *fb, ProviderName: name})
		switch fb.Category {
		case CategoryMobile:
			totals.TotalMobileFloat = totals.TotalMobileFloat.Add(fb.Balance)
		case CategoryBank:
			totals.TotalBankFloat = totals.TotalBankFloat.Add(fb.Balance)
		}
	}
	sort.SliceStable(summary.FloatBalances, func(i, j int) bool {
		a, b := summary.FloatBalances[i], summary.FloatBalances[j]
		if a.Category != b.Category {
			return a.Category > b.Category
		}
		return a.ProviderName < b.ProviderName
	})
	totals.TotalFloat = totals.TotalMobileFloat.Add(totals.TotalBankFloat)
	totals.GrandTotal = totals.TotalCash.Add(totals.TotalFloat)
	summary.Totals = totals
	return summary
}
