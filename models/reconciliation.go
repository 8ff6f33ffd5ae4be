package models

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CheckTypeCashBalance  = "CASH_BALANCE"
	CheckTypeFloatBalance = "FLOAT_BALANCE"
)

// ReconciliationReport is one drift found between a stored balance and the
// ledger it should be derived from.
type ReconciliationReport struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId        string          `gorm:"size:36;index;not null" json:"shop_id"`
	CheckType     string          `gorm:"size:50;index;not null" json:"check_type"`
	ProviderId    string          `gorm:"size:36" json:"provider_id,omitempty"`
	Category      Category        `gorm:"size:20" json:"category,omitempty"`
	Expected      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"expected"`
	Actual        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"actual"`
	Details       string          `gorm:"type:text" json:"details"`
	Fixed         bool            `gorm:"not null;default:false" json:"fixed"`
	CorrelationId string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (r *ReconciliationReport) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

type BalanceCheck struct {
	ProviderId string          `json:"provider_id,omitempty"`
	Category   Category        `json:"category,omitempty"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	InSync     bool            `json:"in_sync"`
}

type ReconciliationResult struct {
	ShopId        string         `json:"shop_id"`
	CorrelationId string         `json:"correlation_id"`
	CheckedAt     time.Time      `json:"checked_at"`
	Cash          BalanceCheck   `json:"cash"`
	Floats        []BalanceCheck `json:"floats"`
	Drifts        int            `json:"drifts"`
	Fixed         bool           `json:"fixed"`
}

func newBalanceCheck(key BalanceKey, expected, actual decimal.Decimal) BalanceCheck {
	return BalanceCheck{
		ProviderId: key.ProviderId,
		Category:   key.Category,
		Expected:   expected,
		Actual:     actual,
		Difference: actual.Sub(expected),
		InSync:     actual.Equal(expected),
	}
}

type ledgerTotals struct {
	cash   decimal.Decimal
	floats map[BalanceKey]decimal.Decimal
}

func (l *ledgerTotals) add(key BalanceKey, effect Effect, amount decimal.Decimal) {
	floatDelta, cashDelta := effect.Deltas(amount)
	l.cash = l.cash.Add(cashDelta)
	if effect.Float != NoChange {
		l.floats[key] = l.floats[key].Add(floatDelta)
	}
}

// sumLedger replays every live ledger row of the shop. Sums are done with
// decimals in Go so the result does not depend on the SQL dialect.
func sumLedger(tx *gorm.DB, shopId string) (*ledgerTotals, error) {
	totals := &ledgerTotals{cash: decimal.Zero, floats: map[BalanceKey]decimal.Decimal{}}

	var transactions []Transaction
	if err := tx.Select("id", "shop_id", "provider_id", "category", "type", "amount").
		Where("shop_id = ?", shopId).Find(&transactions).Error; err != nil {
		return nil, err
	}
	for i := range transactions {
		t := &transactions[i]
		effect, err := TransactionEffect(t.Type)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		totals.add(t.balanceKey(), effect, t.Amount)
	}

	var movements []FloatMovement
	if err := tx.Select("id", "shop_id", "provider_id", "category", "type", "amount", "is_new_capital").
		Where("shop_id = ?", shopId).Find(&movements).Error; err != nil {
		return nil, err
	}
	for i := range movements {
		m := &movements[i]
		effect, err := m.effect()
		if err != nil {
			return nil, fmt.Errorf("float movement %s: %w", m.ID, err)
		}
		totals.add(m.balanceKey(), effect, m.Amount)
	}

	var adjustments []CashAdjustment
	if err := tx.Select("id", "type", "amount").Where("shop_id = ?", shopId).Find(&adjustments).Error; err != nil {
		return nil, err
	}
	for _, a := range adjustments {
		effect, err := CashAdjustmentEffect(a.Type)
		if err != nil {
			return nil, fmt.Errorf("cash adjustment %s: %w", a.ID, err)
		}
		totals.add(BalanceKey{ShopId: shopId}, effect, a.Amount)
	}
	return totals, nil
}

// ReconcileShopBalances is the owner-facing check. With fix set, drifted rows
// are rewritten from the ledger.
func ReconcileShopBalances(ctx context.Context, actorId string, shopId string, fix bool) (*ReconciliationResult, error) {
	db := config.GetDB().WithContext(ctx)
	shop, err := VerifyShopAccess(db, shopId, actorId)
	if err != nil {
		return nil, err
	}
	if fix {
		if err := verifyOwner(shop, actorId); err != nil {
			return nil, err
		}
	}
	return RebuildShopBalances(ctx, shopId, fix)
}

// RebuildShopBalances recomputes every balance of the shop from the ledger.
// Without fix it only reads. With fix it holds the shop lock, locks float rows
// (creating any the ledger needs) before the cash row, rewrites drifted rows and
// records a ReconciliationReport per drift.
func RebuildShopBalances(ctx context.Context, shopId string, fix bool) (*ReconciliationResult, error) {
	cid, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || cid == "" {
		cid = uuid.NewString()
	}
	if fix {
		release, err := utils.ShopLock(ctx, shopId, "Reconciliation", "RebuildShopBalances")
		if err != nil {
			return nil, err
		}
		defer release()
	}

	result := &ReconciliationResult{
		ShopId:        shopId,
		CorrelationId: cid,
		CheckedAt:     time.Now().UTC(),
		Floats:        []BalanceCheck{},
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := utils.FetchModel[Shop](tx, "Shop", shopId); err != nil {
			return err
		}
		floats, missing, err := loadFloatRows(tx, shopId, fix)
		if err != nil {
			return err
		}
		cash, err := loadCashRow(tx, shopId, fix)
		if err != nil {
			return err
		}
		totals, err := sumLedger(tx, shopId)
		if err != nil {
			return err
		}

		var reports []ReconciliationReport
		expectedCash := cash.OpeningBalance.Add(totals.cash)
		result.Cash = newBalanceCheck(BalanceKey{}, expectedCash, cash.Balance)
		if !result.Cash.InSync {
			reports = append(reports, ReconciliationReport{
				ShopId:    shopId,
				CheckType: CheckTypeCashBalance,
				Expected:  expectedCash,
				Actual:    cash.Balance,
				Details:   fmt.Sprintf("balance=%s != opening_balance=%s + ledger=%s", cash.Balance, cash.OpeningBalance, totals.cash),
			})
			if fix {
				if _, _, err := ApplyCashDelta(tx, shopId, expectedCash.Sub(cash.Balance), decimal.Zero); err != nil {
					return err
				}
			}
		}

		seen := map[BalanceKey]bool{}
		for _, fb := range floats {
			key := BalanceKey{ShopId: shopId, ProviderId: fb.ProviderId, Category: fb.Category}
			seen[key] = true
			check := newBalanceCheck(key, totals.floats[key], fb.Balance)
			result.Floats = append(result.Floats, check)
			if check.InSync {
				continue
			}
			reason := "balance does not match ledger"
			if missing[key] {
				reason = "balance row missing"
			}
			reports = append(reports, floatDriftReport(shopId, check, reason))
			if fix {
				if err := tx.Model(fb).Updates(map[string]interface{}{
					"balance":      check.Expected,
					"last_updated": time.Now().UTC(),
				}).Error; err != nil {
					return err
				}
			}
		}
		// report-only runs do not create rows
		for _, key := range sortedKeys(totals.floats) {
			expected := totals.floats[key]
			if seen[key] || expected.IsZero() {
				continue
			}
			check := newBalanceCheck(key, expected, decimal.Zero)
			result.Floats = append(result.Floats, check)
			reports = append(reports, floatDriftReport(shopId, check, "balance row missing"))
		}

		result.Drifts = len(reports)
		result.Fixed = fix && len(reports) > 0
		if !fix || len(reports) == 0 {
			return nil
		}
		for i := range reports {
			reports[i].Fixed = true
			reports[i].CorrelationId = cid
		}
		return tx.Create(&reports).Error
	})
	if err != nil {
		config.LogError(config.GetLogger(), "Reconciliation", "RebuildShopBalances", "rebuild failed", shopId, err)
		return nil, err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"field":          "Reconciliation",
		"shop_id":        shopId,
		"correlation_id": cid,
		"float_checked":  len(result.Floats),
		"drifts":         result.Drifts,
		"fixed":          result.Fixed,
	}).Info("balance reconciliation completed")
	return result, nil
}

// loadFloatRows reads the shop's float rows. With lock set the rows are held
// FOR UPDATE and rows for ledger keys that have none are created first; those
// keys are returned in missing.
func loadFloatRows(tx *gorm.DB, shopId string, lock bool) ([]*FloatBalance, map[BalanceKey]bool, error) {
	q := tx.Where("shop_id = ?", shopId).Order("provider_id, category")
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var floats []*FloatBalance
	if err := q.Find(&floats).Error; err != nil {
		return nil, nil, err
	}
	missing := map[BalanceKey]bool{}
	if !lock {
		return floats, missing, nil
	}

	have := map[BalanceKey]bool{}
	for _, fb := range floats {
		have[BalanceKey{ShopId: shopId, ProviderId: fb.ProviderId, Category: fb.Category}] = true
	}
	keys, err := ledgerKeys(tx, shopId)
	if err != nil {
		return nil, nil, err
	}
	for _, key := range keys {
		if have[key] {
			continue
		}
		row, err := GetOrCreateFloatBalance(tx, key)
		if err != nil {
			return nil, nil, err
		}
		missing[key] = true
		floats = append(floats, row)
	}
	return floats, missing, nil
}

// loadCashRow reads the cash row. Without lock a missing row reads as zero
// and is not created.
func loadCashRow(tx *gorm.DB, shopId string, lock bool) (*CashBalance, error) {
	if lock {
		return GetOrCreateCashBalance(tx, shopId)
	}
	var rows []CashBalance
	if err := tx.Where("shop_id = ?", shopId).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &CashBalance{ShopId: shopId, Balance: decimal.Zero, OpeningBalance: decimal.Zero}, nil
	}
	return &rows[0], nil
}

// ledgerKeys lists the float rows the shop's ledger touches, ordered.
func ledgerKeys(tx *gorm.DB, shopId string) ([]BalanceKey, error) {
	type pair struct {
		ProviderId string
		Category   Category
	}
	set := map[BalanceKey]decimal.Decimal{}
	for _, model := range []interface{}{&Transaction{}, &FloatMovement{}} {
		var pairs []pair
		if err := tx.Model(model).Distinct("provider_id", "category").
			Where("shop_id = ?", shopId).Scan(&pairs).Error; err != nil {
			return nil, err
		}
		for _, p := range pairs {
			set[BalanceKey{ShopId: shopId, ProviderId: p.ProviderId, Category: p.Category}] = decimal.Zero
		}
	}
	return sortedKeys(set), nil
}

func sortedKeys(m map[BalanceKey]decimal.Decimal) []BalanceKey {
	keys := make([]BalanceKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProviderId != keys[j].ProviderId {
			return keys[i].ProviderId < keys[j].ProviderId
		}
		return keys[i].Category < keys[j].Category
	})
	return keys
}

func floatDriftReport(shopId string, check BalanceCheck, reason string) ReconciliationReport {
	return ReconciliationReport{
		ShopId:     shopId,
		CheckType:  CheckTypeFloatBalance,
		ProviderId: check.ProviderId,
		Category:   check.Category,
		Expected:   check.Expected,
		Actual:     check.Actual,
		Details:    fmt.Sprintf("%s: balance=%s expected=%s", reason, check.Actual, check.Expected),
	}
}
