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

// FloatMovement moves float between the shop and a super agent. Type,
// category, provider, super agent and the new-capital flag are fixed at
// creation.
type FloatMovement struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId          string          `gorm:"size:36;index;not null" json:"shop_id"`
	ProviderId      string          `gorm:"size:36;index;not null" json:"provider_id"`
	SuperAgentId    string          `gorm:"size:36;index;not null" json:"super_agent_id"`
	RecordedBy      string          `gorm:"size:36;index" json:"recorded_by"`
	Type            FloatOperation  `gorm:"size:20;not null" json:"type"`
	Category        Category        `gorm:"size:20;not null" json:"category"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Reference       string          `gorm:"size:100;not null" json:"reference"`
	IsNewCapital    bool            `gorm:"not null;default:false" json:"is_new_capital"`
	Notes           string          `gorm:"type:text" json:"notes"`
	ReceiptImageUrl string          `gorm:"size:500" json:"receipt_image_url"`
	TransactionDate time.Time       `gorm:"index;not null" json:"transaction_date"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFloatMovement struct {
	ProviderId      string        `json:"provider_id" binding:"required"`
	SuperAgentId    string        `json:"super_agent_id" binding:"required"`
	Category        Category      `json:"category" binding:"required,oneof=mobile bank"`
	Amount          *utils.Amount `json:"amount" binding:"required"`
	Reference       string        `json:"reference" binding:"required,max=100"`
	IsNewCapital    bool          `json:"is_new_capital"`
	Notes           string        `json:"notes"`
	ReceiptImageUrl string        `json:"receipt_image_url" binding:"omitempty,url,max=500"`
	TransactionDate string        `json:"transaction_date" binding:"required"`
}

type FloatMovementUpdate struct {
	Amount          *utils.Amount `json:"amount"`
	Reference       *string       `json:"reference" binding:"omitempty,max=100"`
	Notes           *string       `json:"notes"`
	ReceiptImageUrl *string       `json:"receipt_image_url" binding:"omitempty,url,max=500"`
}

type FloatMovementResult struct {
	FloatMovement  *FloatMovement  `json:"float_movement"`
	BalanceUpdates *BalanceUpdates `json:"balance_updates"`
}

func (m *FloatMovement) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (m *FloatMovement) balanceKey() BalanceKey {
	return BalanceKey{ShopId: m.ShopId, ProviderId: m.ProviderId, Category: m.Category}
}

func (m *FloatMovement) effect() (Effect, error) {
	return FloatMovementEffect(m.Type, m.IsNewCapital)
}

func (input *NewFloatMovement) validate(op FloatOperation) (*FloatMovement, error) {
	if !op.IsValid() {
		return nil, utils.NewValidation("invalid float operation", map[string]string{"type": "oneof"})
	}
	if !input.Category.IsValid() {
		return nil, utils.NewValidation("invalid category", map[string]string{"category": "oneof"})
	}
	if strings.TrimSpace(input.ProviderId) == "" {
		return nil, utils.NewValidation("provider_id is required", map[string]string{"provider_id": "required"})
	}
	if strings.TrimSpace(input.SuperAgentId) == "" {
		return nil, utils.NewValidation("super_agent_id is required", map[string]string{"super_agent_id": "required"})
	}
	if input.Amount == nil {
		return nil, utils.NewValidation("amount is required", map[string]string{"amount": "required"})
	}
	if err := utils.ValidateMoney("amount", input.Amount.Decimal, true); err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, utils.NewValidation("reference is required", map[string]string{"reference": "required"})
	}
	if input.IsNewCapital && op != FloatOperationTopUp {
		return nil, utils.NewValidation("only top-ups can be new capital", map[string]string{"is_new_capital": "top_up"})
	}
	date, err := utils.ParseDate(input.TransactionDate)
	if err != nil {
		return nil, utils.NewValidation("transaction_date must be YYYY-MM-DD or RFC3339", map[string]string{"transaction_date": "date"})
	}
	return &FloatMovement{
		ProviderId:      input.ProviderId,
		SuperAgentId:    input.SuperAgentId,
		Type:            op,
		Category:        input.Category,
		Amount:          input.Amount.Decimal,
		Reference:       reference,
		IsNewCapital:    input.IsNewCapital,
		Notes:           strings.TrimSpace(input.Notes),
		ReceiptImageUrl: strings.TrimSpace(input.ReceiptImageUrl),
		TransactionDate: date,
	}, nil
}

// CreateFloatMovement records a top-up or withdrawal and applies it through
// ApplyEffect in one database transaction.
func CreateFloatMovement(ctx context.Context, actorId string, shopId string, op FloatOperation, input *NewFloatMovement) (*FloatMovementResult, error) {
	movement, err := input.validate(op)
	if err != nil {
		return nil, err
	}
	movement.ShopId = shopId
	movement.RecordedBy = actorId

	release, err := utils.ShopLock(ctx, shopId, "FloatMovement", "CreateFloatMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	var updates *BalanceUpdates
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := VerifyShopAccess(tx, shopId, actorId); err != nil {
			return err
		}
		if err := verifyProviderCategory(tx, shopId, movement.ProviderId, movement.Category); err != nil {
			return err
		}
		if err := utils.ValidateResourceId[SuperAgent](tx, "Super agent", shopId, movement.SuperAgentId); err != nil {
			return err
		}
		var err error
		updates, err = ApplyEffect(tx, movement.balanceKey(), movement.Amount, movement.Type, movement.IsNewCapital)
		if err != nil {
			return err
		}
		return tx.Create(movement).Error
	})
	if err != nil {
		return nil, err
	}
	return &FloatMovementResult{FloatMovement: movement, BalanceUpdates: updates}, nil
}

func GetFloatMovement(ctx context.Context, actorId string, id string) (*FloatMovement, error) {
	db := config.GetDB().WithContext(ctx)
	movement, err := utils.FetchModel[FloatMovement](db, "Float movement", id)
	if err != nil {
		return nil, err
	}
	if _, err := VerifyShopAccess(db, movement.ShopId, actorId); err != nil {
		return nil, err
	}
	return movement, nil
}

func (input *FloatMovementUpdate) validate() (map[string]interface{}, *decimal.Decimal, error) {
	changes := map[string]interface{}{}
	var newAmount *decimal.Decimal
	if input.Amount != nil {
		if err := utils.ValidateMoney("amount", input.Amount.Decimal, true); err != nil {
			return nil, nil, err
		}
		amount := input.Amount.Decimal
		newAmount = &amount
		changes["amount"] = amount
	}
	if input.Reference != nil {
		reference := strings.TrimSpace(*input.Reference)
		if reference == "" {
			return nil, nil, utils.NewValidation("reference cannot be empty", map[string]string{"reference": "required"})
		}
		changes["reference"] = reference
	}
	if input.Notes != nil {
		changes["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.ReceiptImageUrl != nil {
		changes["receipt_image_url"] = strings.TrimSpace(*input.ReceiptImageUrl)
	}
	return changes, newAmount, nil
}

// UpdateFloatMovement is reverse-then-reapply with the stored new-capital flag.
func UpdateFloatMovement(ctx context.Context, actorId string, id string, input *FloatMovementUpdate) (*FloatMovementResult, error) {
	changes, newAmount, err := input.validate()
	if err != nil {
		return nil, err
	}
	shopId, err := ledgerShopId[FloatMovement](ctx, "Float movement", id)
	if err != nil {
		return nil, err
	}
	release, err := utils.ShopLock(ctx, shopId, "FloatMovement", "UpdateFloatMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	var movement *FloatMovement
	var updates *BalanceUpdates
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = utils.FetchModelForUpdate[FloatMovement](tx, "Float movement", id)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, movement.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := VerifyMutationAuthority(tx, shop, actorId); err != nil {
			return err
		}
		effect, err := movement.effect()
		if err != nil {
			return err
		}
		amount := movement.Amount
		if newAmount != nil {
			amount = *newAmount
		}
		updates, err = reapplyLedgerEffect(tx, movement.balanceKey(), effect, movement.Amount, amount)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(movement).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(movement).Error
	})
	if err != nil {
		return nil, err
	}
	return &FloatMovementResult{FloatMovement: movement, BalanceUpdates: updates}, nil
}

// DeleteFloatMovement reverses the stored effect and removes the row.
func DeleteFloatMovement(ctx context.Context, actorId string, id string) (*FloatMovementResult, error) {
	shopId, err := ledgerShopId[FloatMovement](ctx, "Float movement", id)
	if err != nil {
		return nil, err
	}
	release, err := utils.ShopLock(ctx, shopId, "FloatMovement", "DeleteFloatMovement")
	if err != nil {
		return nil, err
	}
	defer release()

	var movement *FloatMovement
	var updates *BalanceUpdates
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = utils.FetchModelForUpdate[FloatMovement](tx, "Float movement", id)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, movement.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := VerifyMutationAuthority(tx, shop, actorId); err != nil {
			return err
		}
		effect, err := movement.effect()
		if err != nil {
			return err
		}
		updates, err = applyLedgerEffect(tx, movement.balanceKey(), effect.Reversed(), movement.Amount)
		if err != nil {
			return err
		}
		return tx.Delete(movement).Error
	})
	if err != nil {
		return nil, err
	}
	return &FloatMovementResult{FloatMovement: movement, BalanceUpdates: updates}, nil
}
