package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("float-backend/models")

// CashBalance is the till of one shop.
// Balance = OpeningBalance + signed cash effects of every live ledger row.
type CashBalance struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId         string          `gorm:"size:36;not null;uniqueIndex" json:"shop_id"`
	Balance        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"opening_balance"`
	LastUpdated    time.Time       `gorm:"not null" json:"last_updated"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// FloatBalance is the electronic value a shop holds with one provider in one
// category. Balance = signed float effects of every live ledger row.
type FloatBalance struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId      string          `gorm:"size:36;not null;uniqueIndex:idx_float_balance_key" json:"shop_id"`
	ProviderId  string          `gorm:"size:36;not null;uniqueIndex:idx_float_balance_key;index" json:"provider_id"`
	Category    Category        `gorm:"size:20;not null;uniqueIndex:idx_float_balance_key" json:"category"`
	Balance     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	LastUpdated time.Time       `gorm:"not null" json:"last_updated"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (b *CashBalance) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

func (b *FloatBalance) BeforeCreate(tx *gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// BalanceKey identifies one float balance row.
type BalanceKey struct {
	ShopId     string
	ProviderId string
	Category   Category
}

type BalanceChange struct {
	Previous decimal.Decimal `json:"previous"`
	Current  decimal.Decimal `json:"current"`
	Change   decimal.Decimal `json:"change"`
}

func newBalanceChange(previous, current decimal.Decimal) BalanceChange {
	return BalanceChange{Previous: previous, Current: current, Change: current.Sub(previous)}
}

// BalanceUpdates is reported by every mutation.
type BalanceUpdates struct {
	FloatBalance BalanceChange `json:"float_balance"`
	CashBalance  BalanceChange `json:"cash_balance"`
}

// MergeBalanceUpdates folds two consecutive updates of the same rows into one
// spanning both, as reported by reverse-then-reapply.
func MergeBalanceUpdates(first, second *BalanceUpdates) *BalanceUpdates {
	return &BalanceUpdates{
		FloatBalance: newBalanceChange(first.FloatBalance.Previous, second.FloatBalance.Current),
		CashBalance:  newBalanceChange(first.CashBalance.Previous, second.CashBalance.Current),
	}
}

// GetOrCreateCashBalance returns the shop's cash row, creating it at zero on
// first use, and holds a row lock on it until tx ends.
func GetOrCreateCashBalance(tx *gorm.DB, shopId string) (*CashBalance, error) {
	seed := CashBalance{
		ShopId:         shopId,
		Balance:        decimal.Zero,
		OpeningBalance: decimal.Zero,
		LastUpdated:    time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var row CashBalance
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("shop_id = ?", shopId).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// GetOrCreateFloatBalance is GetOrCreateCashBalance for a float row.
func GetOrCreateFloatBalance(tx *gorm.DB, key BalanceKey) (*FloatBalance, error) {
	seed := FloatBalance{
		ShopId:      key.ShopId,
		ProviderId:  key.ProviderId,
		Category:    key.Category,
		Balance:     decimal.Zero,
		LastUpdated: time.Now().UTC(),
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var row FloatBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("shop_id = ? AND provider_id = ? AND category = ?", key.ShopId, key.ProviderId, key.Category).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ApplyDelta adds the signed deltas to the float row of key and the shop's
// cash row. Rows are locked float first, then cash. Negative results are
// allowed; only infrastructure errors fail.
func ApplyDelta(tx *gorm.DB, key BalanceKey, floatDelta, cashDelta decimal.Decimal) (_ *BalanceUpdates, err error) {
	ctx, span := tracer.Start(statementContext(tx), "balances.apply_delta", trace.WithAttributes(
		attribute.String("shop_id", key.ShopId),
		attribute.String("provider_id", key.ProviderId),
		attribute.String("category", string(key.Category)),
		attribute.String("float_delta", floatDelta.String()),
		attribute.String("cash_delta", cashDelta.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	tx = tx.WithContext(ctx)

	floatRow, err := GetOrCreateFloatBalance(tx, key)
	if err != nil {
		return nil, err
	}
	cashRow, err := GetOrCreateCashBalance(tx, key.ShopId)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	floatCurrent := floatRow.Balance.Add(floatDelta)
	if err := tx.Model(floatRow).Updates(map[string]interface{}{
		"balance":      floatCurrent,
		"last_updated": now,
	}).Error; err != nil {
		return nil, err
	}
	cashCurrent := cashRow.Balance.Add(cashDelta)
	if err := tx.Model(cashRow).Updates(map[string]interface{}{
		"balance":      cashCurrent,
		"last_updated": now,
	}).Error; err != nil {
		return nil, err
	}

	return &BalanceUpdates{
		FloatBalance: newBalanceChange(floatRow.Balance, floatCurrent),
		CashBalance:  newBalanceChange(cashRow.Balance, cashCurrent),
	}, nil
}

// ApplyEffect applies a float operation of amount. A top-up raises float and,
// unless it is new capital, spends cash; a withdrawal does the opposite.
// top_up(x) followed by withdraw(x) restores both balances exactly.
func ApplyEffect(tx *gorm.DB, key BalanceKey, amount decimal.Decimal, op FloatOperation, isNewCapital bool) (*BalanceUpdates, error) {
	effect, err := FloatMovementEffect(op, isNewCapital)
	if err != nil {
		return nil, err
	}
	return applyLedgerEffect(tx, key, effect, amount)
}

func applyLedgerEffect(tx *gorm.DB, key BalanceKey, effect Effect, amount decimal.Decimal) (*BalanceUpdates, error) {
	floatDelta, cashDelta := effect.Deltas(amount)
	return ApplyDelta(tx, key, floatDelta, cashDelta)
}

// reapplyLedgerEffect reverses the stored effect and applies the new one
// inside tx, reporting the net change.
func reapplyLedgerEffect(tx *gorm.DB, key BalanceKey, effect Effect, oldAmount, newAmount decimal.Decimal) (*BalanceUpdates, error) {
	reversed, err := applyLedgerEffect(tx, key, effect.Reversed(), oldAmount)
	if err != nil {
		return nil, err
	}
	applied, err := applyLedgerEffect(tx, key, effect, newAmount)
	if err != nil {
		return nil, err
	}
	return MergeBalanceUpdates(reversed, applied), nil
}

// ApplyCashDelta changes only the till. Used by adjustments and opening
// balance changes.
func ApplyCashDelta(tx *gorm.DB, shopId string, delta decimal.Decimal, openingDelta decimal.Decimal) (*CashBalance, BalanceChange, error) {
	ctx, span := tracer.Start(statementContext(tx), "balances.apply_cash_delta", trace.WithAttributes(
		attribute.String("shop_id", shopId),
		attribute.String("cash_delta", delta.String()),
	))
	defer span.End()
	tx = tx.WithContext(ctx)

	row, err := GetOrCreateCashBalance(tx, shopId)
	if err != nil {
		span.RecordError(err)
		return nil, BalanceChange{}, err
	}
	previous := row.Balance
	row.Balance = row.Balance.Add(delta)
	row.OpeningBalance = row.OpeningBalance.Add(openingDelta)
	row.LastUpdated = time.Now().UTC()
	if err := tx.Model(row).Updates(map[string]interface{}{
		"balance":         row.Balance,
		"opening_balance": row.OpeningBalance,
		"last_updated":    row.LastUpdated,
	}).Error; err != nil {
		span.RecordError(err)
		return nil, BalanceChange{}, err
	}
	return row, newBalanceChange(previous, row.Balance), nil
}

func statementContext(tx *gorm.DB) context.Context {
	if tx.Statement != nil && tx.Statement.Context != nil {
		return tx.Statement.Context
	}
	return context.Background()
}
