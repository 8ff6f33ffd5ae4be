package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"gorm.io/gorm"
)

type Shop struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	OwnerId   string    `gorm:"size:36;index;not null" json:"owner_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewShop struct {
	Name     string `json:"name" binding:"required,max=150"`
	Location string `json:"location" binding:"max=255"`
}

type ShopUpdate struct {
	Name     *string `json:"name" binding:"omitempty,max=150"`
	Location *string `json:"location" binding:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
}

// Cashier grants a user access to one shop.
type Cashier struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserId    string    `gorm:"size:36;not null;uniqueIndex:idx_cashier_user_shop" json:"user_id"`
	ShopId    string    `gorm:"size:36;not null;uniqueIndex:idx_cashier_user_shop;index" json:"shop_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCashier struct {
	UserId string `json:"user_id" binding:"required"`
}

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (c *Cashier) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func CreateShop(ctx context.Context, ownerId string, input *NewShop) (*Shop, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.NewValidation("name is required", map[string]string{"name": "required"})
	}
	if _, err := GetUser(ctx, ownerId); err != nil {
		return nil, err
	}

	shop := Shop{
		Name:     name,
		Location: strings.TrimSpace(input.Location),
		OwnerId:  ownerId,
		IsActive: utils.NewTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&shop).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetShop returns the shop when the actor may operate on it.
func GetShop(ctx context.Context, actorId string, shopId string) (*Shop, error) {
	return VerifyShopAccess(config.GetDB().WithContext(ctx), shopId, actorId)
}

// ListShops returns the shops the actor owns or works at, newest first.
func ListShops(ctx context.Context, actorId string) ([]*Shop, error) {
	db := config.GetDB().WithContext(ctx)
	cashierShops := db.Model(&Cashier{}).Select("shop_id").Where("user_id = ? AND is_active = ?", actorId, true)
	var shops []*Shop
	err := db.Where("owner_id = ?", actorId).Or("id IN (?)", cashierShops).
		Order("created_at DESC").Find(&shops).Error
	if err != nil {
		return nil, err
	}
	return shops, nil
}

// UpdateShop edits the shop's descriptive fields. Owner only.
func UpdateShop(ctx context.Context, actorId string, shopId string, input *ShopUpdate) (*Shop, error) {
	var shop *Shop
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		shop, err = VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}

		changes := map[string]interface{}{}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return utils.NewValidation("name is required", map[string]string{"name": "required"})
			}
			changes["name"] = name
		}
		if input.Location != nil {
			changes["location"] = strings.TrimSpace(*input.Location)
		}
		if input.IsActive != nil {
			changes["is_active"] = *input.IsActive
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(shop).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", shop.ID).First(shop).Error
	})
	if err != nil {
		return nil, err
	}
	return shop, nil
}

// AddCashier grants userId cashier access. Owner only; re-adding a removed
// cashier reactivates the existing grant.
func AddCashier(ctx context.Context, actorId string, shopId string, input *NewCashier) (*Cashier, error) {
	var cashier Cashier
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shop, err := VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		if input.UserId == shop.OwnerId {
			return utils.NewValidation("the owner cannot be added as a cashier", map[string]string{"user_id": "owner"})
		}
		if _, err := utils.FetchModel[User](tx, "User", input.UserId); err != nil {
			return err
		}

		err = tx.Where("shop_id = ? AND user_id = ?", shopId, input.UserId).First(&cashier).Error
		if err == nil {
			return tx.Model(&cashier).Update("is_active", true).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		cashier = Cashier{UserId: input.UserId, ShopId: shopId, IsActive: utils.NewTrue()}
		if err := tx.Create(&cashier).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return utils.NewConflict("cashier already added")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cashier.IsActive = utils.NewTrue()
	return &cashier, nil
}

// RemoveCashier revokes access without deleting the grant, so rows the cashier
// recorded keep a resolvable owner.
func RemoveCashier(ctx context.Context, actorId string, shopId string, userId string) (*Cashier, error) {
	var cashier Cashier
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shop, err := VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		if err := tx.Where("shop_id = ? AND user_id = ?", shopId, userId).First(&cashier).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("Cashier")
			}
			return err
		}
		return tx.Model(&cashier).Update("is_active", false).Error
	})
	if err != nil {
		return nil, err
	}
	cashier.IsActive = utils.NewFalse()
	return &cashier, nil
}

// ToggleCashierStatus flips a cashier grant between active and inactive. Owner only.
func ToggleCashierStatus(ctx context.Context, actorId string, shopId string, userId string) (*Cashier, error) {
	var cashier Cashier
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shop, err := VerifyShopAccess(tx, shopId, actorId)
		if err != nil {
			return err
		}
		if err := verifyOwner(shop, actorId); err != nil {
			return err
		}
		if err := tx.Where("shop_id = ? AND user_id = ?", shopId, userId).First(&cashier).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("Cashier")
			}
			return err
		}
		active := cashier.IsActive == nil || !*cashier.IsActive
		if err := tx.Model(&cashier).Update("is_active", active).Error; err != nil {
			return err
		}
		cashier.IsActive = &active
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cashier, nil
}
