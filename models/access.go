package models

import (
	"errors"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"gorm.io/gorm"
)

// VerifyShopAccess is the precondition of every shop operation: the shop must
// exist and the actor must be its owner or one of its active cashiers.
func VerifyShopAccess(tx *gorm.DB, shopId string, actorId string) (*Shop, error) {
	if shopId == "" {
		return nil, utils.NewNotFound("Shop")
	}
	var shop Shop
	if err := tx.Where("id = ?", shopId).First(&shop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("Shop")
		}
		return nil, err
	}
	if actorId != "" && shop.OwnerId == actorId {
		return &shop, nil
	}
	ok, err := isActiveCashier(tx, shopId, actorId)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NewForbidden("You do not have access to this shop")
	}
	return &shop, nil
}

// VerifyMutationAuthority decides whether the actor may update or delete a
// recorded transaction or float movement of shop. Run after VerifyShopAccess.
func VerifyMutationAuthority(tx *gorm.DB, shop *Shop, actorId string) error {
	switch config.MutationAuthority() {
	case config.MutationAuthorityOwnerOrCashier:
		if shop.OwnerId == actorId {
			return nil
		}
		ok, err := isActiveCashier(tx, shop.ID, actorId)
		if err != nil {
			return err
		}
		if !ok {
			return utils.NewForbidden("Only the shop owner or its cashiers can modify records")
		}
		return nil
	default:
		return verifyOwner(shop, actorId)
	}
}

func verifyOwner(shop *Shop, actorId string) error {
	if actorId == "" || shop.OwnerId != actorId {
		return utils.NewForbidden("Only the shop owner can perform this action")
	}
	return nil
}

func isActiveCashier(tx *gorm.DB, shopId string, userId string) (bool, error) {
	if userId == "" {
		return false, nil
	}
	var count int64
	err := tx.Model(&Cashier{}).
		Where("shop_id = ? AND user_id = ? AND is_active = ?", shopId, userId, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
