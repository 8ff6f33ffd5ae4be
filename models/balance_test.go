package models_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/internal/testdb"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGetOrCreateBalances_Idempotent(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	db := config.GetDB()
	key := models.BalanceKey{ShopId: f.Shop.ID, ProviderId: f.MobileProvider.ID, Category: models.CategoryMobile}

	var firstCash, firstFloat string
	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			cash, err := models.GetOrCreateCashBalance(tx, f.Shop.ID)
			require.NoError(t, err)
			fb, err := models.GetOrCreateFloatBalance(tx, key)
			require.NoError(t, err)
			if i == 0 {
				firstCash, firstFloat = cash.ID, fb.ID
			}
			assert.Equal(t, firstCash, cash.ID)
			assert.Equal(t, firstFloat, fb.ID)
			assert.True(t, cash.Balance.IsZero())
			assert.True(t, fb.Balance.IsZero())
			return nil
		})
		require.NoError(t, err)
	}

	var cashRows, floatRows int64
	require.NoError(t, db.Model(&models.CashBalance{}).Where("shop_id = ?", f.Shop.ID).Count(&cashRows).Error)
	require.NoError(t, db.Model(&models.FloatBalance{}).Where("shop_id = ?", f.Shop.ID).Count(&floatRows).Error)
	assert.EqualValues(t, 1, cashRows)
	assert.EqualValues(t, 1, floatRows)
}

func TestApplyEffect_TopUpThenWithdrawRestores(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	key := models.BalanceKey{ShopId: f.Shop.ID, ProviderId: f.BankProvider.ID, Category: models.CategoryBank}
	amt := decimal.RequireFromString("250.75")

	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		up, err := models.ApplyEffect(tx, key, amt, models.FloatOperationTopUp, false)
		require.NoError(t, err)
		assertDecimal(t, "250.75", up.FloatBalance.Current)
		assertDecimal(t, "-250.75", up.CashBalance.Current)

		down, err := models.ApplyEffect(tx, key, amt, models.FloatOperationWithdraw, false)
		require.NoError(t, err)
		assertDecimal(t, "250.75", down.FloatBalance.Previous)
		assert.True(t, down.FloatBalance.Current.IsZero())
		assert.True(t, down.CashBalance.Current.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestApplyDelta_AllowsNegativeBalances(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	key := models.BalanceKey{ShopId: f.Shop.ID, ProviderId: f.MobileProvider.ID, Category: models.CategoryMobile}

	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		updates, err := models.ApplyDelta(tx, key, decimal.NewFromInt(-500), decimal.NewFromInt(-20))
		require.NoError(t, err)
		assertDecimal(t, "-500", updates.FloatBalance.Change)
		assertDecimal(t, "-20", updates.CashBalance.Change)
		return nil
	})
	require.NoError(t, err)

	assertDecimal(t, "-500", floatBalance(t, f.Shop.ID, f.MobileProvider.ID, models.CategoryMobile))
	assertDecimal(t, "-20", cashBalance(t, f.Shop.ID))
}

func TestApplyDelta_KeepsCategoriesApart(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()

	record(t, f, f.MobileProvider, models.TransactionTypeDeposit, "100")
	record(t, f, f.BankProvider, models.TransactionTypeBankWithdrawal, "40")

	_, floats, err := models.LoadShopBalances(ctx, f.Owner.ID, f.Shop.ID, nil)
	require.NoError(t, err)
	assert.Len(t, floats, 2)

	bank := models.CategoryBank
	_, floats, err = models.LoadShopBalances(ctx, f.Owner.ID, f.Shop.ID, &bank)
	require.NoError(t, err)
	require.Len(t, floats, 1)
	assertDecimal(t, "40", floats[0].Balance)
	assertDecimal(t, "60", cashBalance(t, f.Shop.ID))
}
