package models_test

import (
	"testing"

	"github.com/mmdatafocus/float_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionEffect_EveryTypeClassified(t *testing.T) {
	for _, typ := range models.AllTransactionTypes {
		effect, err := models.TransactionEffect(typ)
		require.NoError(t, err, typ)
		assert.NotEqual(t, models.NoChange, effect.Float, "%s must move float", typ)

		_, ok := typ.Category()
		assert.True(t, ok, "%s has no category", typ)
	}

	_, err := models.TransactionEffect("lottery")
	assert.Error(t, err)
}

func TestTransactionEffect_Directions(t *testing.T) {
	cases := map[models.TransactionType]models.Effect{
		models.TransactionTypeDeposit:         {Float: models.Decrement, Cash: models.Increment},
		models.TransactionTypeAirtime:         {Float: models.Decrement, Cash: models.Increment},
		models.TransactionTypeBillPayment:     {Float: models.Decrement, Cash: models.Increment},
		models.TransactionTypeWithdrawal:      {Float: models.Increment, Cash: models.Decrement},
		models.TransactionTypeBankWithdrawal:  {Float: models.Increment, Cash: models.Decrement},
		models.TransactionTypeAccountToWallet: {Float: models.Decrement, Cash: models.NoChange},
		models.TransactionTypeWalletToAccount: {Float: models.Increment, Cash: models.NoChange},
	}
	for typ, want := range cases {
		got, err := models.TransactionEffect(typ)
		require.NoError(t, err)
		assert.Equal(t, want, got, typ)
	}
}

func TestEffect_ReversedCancelsOut(t *testing.T) {
	amount := decimal.RequireFromString("123.45")
	var effects []models.Effect
	for _, typ := range models.AllTransactionTypes {
		e, err := models.TransactionEffect(typ)
		require.NoError(t, err)
		effects = append(effects, e)
	}
	for _, op := range []models.FloatOperation{models.FloatOperationTopUp, models.FloatOperationWithdraw} {
		for _, capital := range []bool{false, true} {
			e, err := models.FloatMovementEffect(op, capital)
			require.NoError(t, err)
			effects = append(effects, e)
		}
	}

	for _, e := range effects {
		f1, c1 := e.Deltas(amount)
		f2, c2 := e.Reversed().Deltas(amount)
		assert.True(t, f1.Add(f2).IsZero())
		assert.True(t, c1.Add(c2).IsZero())
	}
}

func TestFloatMovementEffect_NewCapitalLeavesCash(t *testing.T) {
	e, err := models.FloatMovementEffect(models.FloatOperationTopUp, true)
	require.NoError(t, err)
	assert.Equal(t, models.Effect{Float: models.Increment, Cash: models.NoChange}, e)

	e, err = models.FloatMovementEffect(models.FloatOperationTopUp, false)
	require.NoError(t, err)
	assert.Equal(t, models.Effect{Float: models.Increment, Cash: models.Decrement}, e)

	e, err = models.FloatMovementEffect(models.FloatOperationWithdraw, false)
	require.NoError(t, err)
	assert.Equal(t, models.Effect{Float: models.Decrement, Cash: models.Increment}, e)

	_, err = models.FloatMovementEffect("transfer", false)
	assert.Error(t, err)
}

func TestTransactionTypesByCategory(t *testing.T) {
	table := models.TransactionTypesByCategory()
	assert.Len(t, table[models.CategoryMobile], 8)
	assert.Len(t, table[models.CategoryBank], 6)

	for _, info := range table[models.CategoryBank] {
		if info.Value == models.TransactionTypeAccountToWallet {
			assert.Equal(t, "decrement", info.AffectsFloat)
			assert.Equal(t, "none", info.AffectsCash)
			assert.Equal(t, "Account to Wallet", info.Label)
		}
	}
	for _, info := range table[models.CategoryMobile] {
		if info.Value == models.TransactionTypeDeposit {
			assert.Equal(t, "decrement", info.AffectsFloat)
			assert.Equal(t, "increment", info.AffectsCash)
		}
	}
}
