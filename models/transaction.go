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

// Transaction is one customer-facing operation served by the shop. Shop,
// provider, category and type never change after creation.
type Transaction struct {
	ID                 string          `gorm:"primaryKey;size:36" json:"id"`
	ShopId             string          `gorm:"size:36;index;not null" json:"shop_id"`
	ProviderId         string          `gorm:"size:36;index;not null" json:"provider_id"`
	RecordedBy         string          `gorm:"size:36;index" json:"recorded_by"`
	Category           Category        `gorm:"size:20;not null" json:"category"`
	Type               TransactionType `gorm:"size:30;not null" json:"type"`
	Amount             decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Commission         decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"commission"`
	Reference          string          `gorm:"size:100;not null" json:"reference"`
	CustomerIdentifier string          `gorm:"size:100;not null" json:"customer_identifier"`
	Notes              string          `gorm:"type:text" json:"notes"`
	ReceiptImageUrl    string          `gorm:"size:500" json:"receipt_image_url"`
	TransactionDate    time.Time       `gorm:"index;not null" json:"transaction_date"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	Category           Category        `json:"category" binding:"required,oneof=mobile bank"`
	Type               TransactionType `json:"type" binding:"required"`
	ProviderId         string          `json:"provider_id" binding:"required"`
	Amount             *utils.Amount   `json:"amount" binding:"required"`
	Commission         *utils.Amount   `json:"commission"`
	Reference          string          `json:"reference" binding:"required,max=100"`
	CustomerIdentifier string          `json:"customer_identifier" binding:"required,max=100"`
	Notes              string          `json:"notes"`
	ReceiptImageUrl    string          `json:"receipt_image_url" binding:"omitempty,url,max=500"`
	TransactionDate    string          `json:"transaction_date" binding:"required"`
}

// TransactionUpdate holds the editable fields; nil leaves a field unchanged.
type TransactionUpdate struct {
	Amount             *utils.Amount `json:"amount"`
	Commission         *utils.Amount `json:"commission"`
	Reference          *string       `json:"reference" binding:"omitempty,max=100"`
	CustomerIdentifier *string       `json:"customer_identifier" binding:"omitempty,max=100"`
	Notes              *string       `json:"notes"`
	ReceiptImageUrl    *string       `json:"receipt_image_url" binding:"omitempty,url,max=500"`
}

type TransactionResult struct {
	Transaction    *Transaction    `json:"transaction"`
	BalanceUpdates *BalanceUpdates `json:"balance_updates"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (t *Transaction) balanceKey() BalanceKey {
	return BalanceKey{ShopId: t.ShopId, ProviderId: t.ProviderId, Category: t.Category}
}

func (input *NewTransaction) validate() (*Transaction, error) {
	if !input.Category.IsValid() {
		return nil, utils.NewValidation("invalid category", map[string]string{"category": "oneof"})
	}
	if _, ok := input.Type.Category(); !ok {
		return nil, utils.NewValidation("invalid transaction type", map[string]string{"type": "oneof"})
	}
	if strings.TrimSpace(input.ProviderId) == "" {
		return nil, utils.NewValidation("provider_id is required", map[string]string{"provider_id": "required"})
	}
	if input.Amount == nil {
		return nil, utils.NewValidation("amount is required", map[string]string{"amount": "required"})
	}
	if err := utils.ValidateMoney("amount", input.Amount.Decimal, true); err != nil {
		return nil, err
	}
	commission := decimal.Zero
	if input.Commission != nil {
		commission = input.Commission.Decimal
	}
	if err := utils.ValidateMoney("commission", commission, false); err != nil {
		return nil, err
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, utils.NewValidation("reference is required", map[string]string{"reference": "required"})
	}
	customer := strings.TrimSpace(input.CustomerIdentifier)
	if customer == "" {
		return nil, utils.NewValidation("customer_identifier is required", map[string]string{"customer_identifier": "required"})
	}
	date, err := utils.ParseDate(input.TransactionDate)
	if err != nil {
		return nil, utils.NewValidation("transaction_date must be YYYY-MM-DD or RFC3339", map[string]string{"transaction_date": "date"})
	}
	return &Transaction{
		ProviderId:         input.ProviderId,
		Category:           input.Category,
		Type:               input.Type,
		Amount:             input.Amount.Decimal,
		Commission:         commission,
		Reference:          reference,
		CustomerIdentifier: customer,
		Notes:              strings.TrimSpace(input.Notes),
		ReceiptImageUrl:    strings.TrimSpace(input.ReceiptImageUrl),
		TransactionDate:    date,
	}, nil
}

// CreateTransaction records a transaction and applies its effect in one
// database transaction.
func CreateTransaction(ctx context.Context, actorId string, shopId string, input *NewTransaction) (*TransactionResult, error) {
	txn, err := input.validate()
	if err != nil {
		return nil, err
	}
	txn.ShopId = shopId
	txn.RecordedBy = actorId

	release, err := utils.ShopLock(ctx, shopId, "Transaction", "CreateTransaction")
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
		if err := verifyProviderCategory(tx, shopId, txn.ProviderId, txn.Category); err != nil {
			return err
		}
		effect, err := TransactionEffect(txn.Type)
		if err != nil {
			return err
		}
		updates, err = applyLedgerEffect(tx, txn.balanceKey(), effect, txn.Amount)
		if err != nil {
			return err
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn, BalanceUpdates: updates}, nil
}

func GetTransaction(ctx context.Context, actorId string, id string) (*Transaction, error) {
	db := config.GetDB().WithContext(ctx)
	txn, err := utils.FetchModel[Transaction](db, "Transaction", id)
	if err != nil {
		return nil, err
	}
	if _, err := VerifyShopAccess(db, txn.ShopId, actorId); err != nil {
		return nil, err
	}
	return txn, nil
}

// UpdateTransaction reverses the stored effect with the stored amount and
// reapplies it with the new one. Reversal, reapplication and the row update
// commit or roll back together.
func UpdateTransaction(ctx context.Context, actorId string, id string, input *TransactionUpdate) (*TransactionResult, error) {
	changes, newAmount, err := input.validate()
	if err != nil {
		return nil, err
	}

	shopId, err := ledgerShopId[Transaction](ctx, "Transaction", id)
	if err != nil {
		return nil, err
	}
	release, err := utils.ShopLock(ctx, shopId, "Transaction", "UpdateTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *Transaction
	var updates *BalanceUpdates
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = utils.FetchModelForUpdate[Transaction](tx, "Transaction", id)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, txn.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := VerifyMutationAuthority(tx, shop, actorId); err != nil {
			return err
		}
		effect, err := TransactionEffect(txn.Type)
		if err != nil {
			return err
		}
		amount := txn.Amount
		if newAmount != nil {
			amount = *newAmount
		}
		updates, err = reapplyLedgerEffect(tx, txn.balanceKey(), effect, txn.Amount, amount)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(txn).Updates(changes).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", id).First(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn, BalanceUpdates: updates}, nil
}

func (input *TransactionUpdate) validate() (map[string]interface{}, *decimal.Decimal, error) {
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
	if input.Commission != nil {
		if err := utils.ValidateMoney("commission", input.Commission.Decimal, false); err != nil {
			return nil, nil, err
		}
		changes["commission"] = input.Commission.Decimal
	}
	if input.Reference != nil {
		reference := strings.TrimSpace(*input.Reference)
		if reference == "" {
			return nil, nil, utils.NewValidation("reference cannot be empty", map[string]string{"reference": "required"})
		}
		changes["reference"] = reference
	}
	if input.CustomerIdentifier != nil {
		customer := strings.TrimSpace(*input.CustomerIdentifier)
		if customer == "" {
			return nil, nil, utils.NewValidation("customer_identifier cannot be empty", map[string]string{"customer_identifier": "required"})
		}
		changes["customer_identifier"] = customer
	}
	if input.Notes != nil {
		changes["notes"] = strings.TrimSpace(*input.Notes)
	}
	if input.ReceiptImageUrl != nil {
		changes["receipt_image_url"] = strings.TrimSpace(*input.ReceiptImageUrl)
	}
	return changes, newAmount, nil
}

// DeleteTransaction reverses the stored effect and removes the row.
func DeleteTransaction(ctx context.Context, actorId string, id string) (*TransactionResult, error) {
	shopId, err := ledgerShopId[Transaction](ctx, "Transaction", id)
	if err != nil {
		return nil, err
	}
	release, err := utils.ShopLock(ctx, shopId, "Transaction", "DeleteTransaction")
	if err != nil {
		return nil, err
	}
	defer release()

	var txn *Transaction
	var updates *BalanceUpdates
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = utils.FetchModelForUpdate[Transaction](tx, "Transaction", id)
		if err != nil {
			return err
		}
		shop, err := VerifyShopAccess(tx, txn.ShopId, actorId)
		if err != nil {
			return err
		}
		if err := VerifyMutationAuthority(tx, shop, actorId); err != nil {
			return err
		}
		effect, err := TransactionEffect(txn.Type)
		if err != nil {
			return err
		}
		updates, err = applyLedgerEffect(tx, txn.balanceKey(), effect.Reversed(), txn.Amount)
		if err != nil {
			return err
		}
		return tx.Delete(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Transaction: txn, BalanceUpdates: updates}, nil
}

func verifyProviderCategory(tx *gorm.DB, shopId string, providerId string, category Category) error {
	provider, err := GetProviderInShop(tx, shopId, providerId)
	if err != nil {
		return err
	}
	if provider.Category != category {
		return utils.NewValidation("provider does not serve the "+string(category)+" category", map[string]string{"provider_id": "category"})
	}
	return nil
}

// ledgerShopId reads the owning shop of a ledger row without locking, so the
// shop lock can be taken before the database transaction starts.
func ledgerShopId[T any](ctx context.Context, resource string, id string) (string, error) {
	var shopIds []string
	var model T
	err := config.GetDB().WithContext(ctx).Model(&model).Where("id = ?", id).Limit(1).Pluck("shop_id", &shopIds).Error
	if err != nil {
		return "", err
	}
	if len(shopIds) == 0 || shopIds[0] == "" {
		return "", utils.NewNotFound(resource)
	}
	return shopIds[0], nil
}
