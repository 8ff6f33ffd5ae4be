package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashAdjustment is a manual correction of the till, e.g. after a count.
// It is a ledger row so the cash invariant still holds.
type CashAdjustment struct {
	ID         string             `gorm:"primaryKey;size:36" json:"id"`
	ShopId     string             `gorm:"size:36;index;not null" json:"shop_id"`
	RecordedBy string             `gorm:"size:36;index" json:"recorded_by"`
	Type       CashAdjustmentType `gorm:"size:20;not null" json:"type"`
	Amount     decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reason     string             `gorm:"size:255;not null" json:"reason"`
	CreatedAt  time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

type NewCashAdjustment struct {
	Type   CashAdjustmentType `json:"type" binding:"required,oneof=add subtract"`
	Amount *utils.Amount      `json:"amount" binding:"required"`
	Reason string             `json:"reason" binding:"required,max=255"`
}

type NewOpeningBalance struct {
	OpeningBalance *utils.Amount `json:"opening_balance" binding:"required"`
}

type CashAdjustmentResult struct {
	Adjustment  *CashAdjustment `json:"adjustment"`
	CashBalance BalanceChange   `json:"cash_balance"`
}

type OpeningBalanceResult struct {
	CashBalance    *CashBalance  `json:"cash"`
	OpeningBalance BalanceChange `json:"opening_balance"`
	Balance        BalanceChange `json:"balance"`
}

func (a *CashAdjustment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// GetCashBalance returns the shop's till, creating it at zero if absent.
func GetCashBalance(ctx context.Context, actorId string, shopId string) (*CashBalance, error) {
	var row *CashBalance
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := VerifyShopAccess(tx, shopId, actorId); err != nil {
			return err
		}
		var err error
		row, err = GetOrCreateCashBalance(tx, shopId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SetCashOpeningBalance replaces the opening balance. The running balance
// moves by the same difference so ledger effects are preserved.
func SetCashOpeningBalance(ctx context.Context, actorId string, shopId string, input *NewOpeningBalance) (*OpeningBalanceResult, error) {
	if input.OpeningBalance == nil {
		return nil, utils.NewValidation("opening_balance is required", map[string]string{"opening_balance": "required"})
	}
	opening := input.OpeningBalance.Decimal
	if err := utils.ValidateMoney("opening_balance", opening, false); err != nil {
		return nil, err
	}

	release, err := utils.ShopLock(ctx, shopId, "CashBalance", "SetCashOpeningBalance")
	if err != nil {
		return nil, err
	}
	defer release()

	var result OpeningBalanceResult
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shop, err := VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		current, err := GetOrCreateCashBalance(tx, shopId)
		if err != nil {
			return err
		}
		previousOpening := current.OpeningBalance
		delta := opening.Sub(previousOpening)
		row, change, err := ApplyCashDelta(tx, shopId, delta, delta)
		if err != nil {
			return err
		}
		result = OpeningBalanceResult{
			CashBalance:    row,
			OpeningBalance: newBalanceChange(previousOpening, row.OpeningBalance),
			Balance:        change,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AdjustCash records an add or subtract against the till.
func AdjustCash(ctx context.Context, actorId string, shopId string, input *NewCashAdjustment) (*CashAdjustmentResult, error) {
	if !input.Type.IsValid() {
		return nil, utils.NewValidation("type must be add or subtract", map[string]string{"type": "oneof"})
	}
	effect, err := CashAdjustmentEffect(input.Type)
	if err != nil {
		return nil, err
	}
	if input.Amount == nil {
		return nil, utils.NewValidation("amount is required", map[string]string{"amount": "required"})
	}
	if err := utils.ValidateMoney("amount", input.Amount.Decimal, true); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, utils.NewValidation("reason is required", map[string]string{"reason": "required"})
	}

	release, err := utils.ShopLock(ctx, shopId, "CashBalance", "AdjustCash")
	if err != nil {
		return nil, err
	}
	defer release()

	adjustment := CashAdjustment{
		ShopId:     shopId,
		RecordedBy: actorId,
		Type:       input.Type,
		Amount:     input.Amount.Decimal,
		Reason:     reason,
	}
	var change BalanceChange
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shop, err := VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		_, cashDelta := effect.Deltas(adjustment.Amount)
		if _, change, err = ApplyCashDelta(tx, shopId, cashDelta, decimal.Zero); err != nil {
			return err
		}
		return tx.Create(&adjustment).Error
	})
	if err != nil {
		return nil, err
	}
	return &CashAdjustmentResult{Adjustment: &adjustment, CashBalance: change}, nil
}

func ListCashAdjustments(ctx context.Context, actorId string, shopId string) ([]*CashAdjustment, error) {
	db := config.GetDB().WithContext(ctx)
	if _, err := VerifyShopAccess(db, shopId, actorId); err != nil {
		return nil, err
	}
	var rows []*CashAdjustment
	if err := db.Where("shop_id = ?", shopId).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
