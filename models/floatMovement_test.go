package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/float_backend/internal/testdb"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFloatMovement_TopUpAndWithdraw(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()
	p := f.MobileProvider

	topUp, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, newFloatMovement(f, p, "500", false))
	require.NoError(t, err)
	assert.Equal(t, models.FloatOperationTopUp, topUp.FloatMovement.Type)
	assertDecimal(t, "500", topUp.BalanceUpdates.FloatBalance.Current)
	assertDecimal(t, "-500", topUp.BalanceUpdates.CashBalance.Current)

	capital, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, newFloatMovement(f, p, "300", true))
	require.NoError(t, err)
	assert.True(t, capital.FloatMovement.IsNewCapital)
	assertDecimal(t, "800", capital.BalanceUpdates.FloatBalance.Current)
	assert.True(t, capital.BalanceUpdates.CashBalance.Change.IsZero())

	withdraw, err := models.CreateFloatMovement(ctx, f.Cashier.ID, f.Shop.ID, models.FloatOperationWithdraw, newFloatMovement(f, p, "200", false))
	require.NoError(t, err)
	assertDecimal(t, "600", withdraw.BalanceUpdates.FloatBalance.Current)
	assertDecimal(t, "-300", withdraw.BalanceUpdates.CashBalance.Current)

	got, err := models.GetFloatMovement(ctx, f.Cashier.ID, withdraw.FloatMovement.ID)
	require.NoError(t, err)
	assert.Equal(t, f.SuperAgent.ID, got.SuperAgentId)
	assert.Equal(t, f.Cashier.ID, got.RecordedBy)
}

func TestFloatMovement_Validation(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()

	_, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationWithdraw, newFloatMovement(f, f.MobileProvider, "10", true))
	assertAppError(t, err, utils.CodeValidation)

	_, err = models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, "transfer", newFloatMovement(f, f.MobileProvider, "10", false))
	assertAppError(t, err, utils.CodeValidation)

	in := newFloatMovement(f, f.MobileProvider, "10", false)
	in.Category = models.CategoryBank
	_, err = models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, in)
	assertAppError(t, err, utils.CodeValidation)

	in = newFloatMovement(f, f.MobileProvider, "-10", false)
	_, err = models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, in)
	assertAppError(t, err, utils.CodeValidation)

	otherShop := testdb.CreateShop(t, f.Owner, "Branch")
	foreignAgent := testdb.CreateSuperAgent(t, f.Owner, otherShop, "Branch Agent")
	in = newFloatMovement(f, f.MobileProvider, "10", false)
	in.SuperAgentId = foreignAgent.ID
	_, err = models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, in)
	assertAppError(t, err, utils.CodeNotFound)

	_, err = models.CreateFloatMovement(ctx, f.Outsider.ID, f.Shop.ID, models.FloatOperationTopUp, newFloatMovement(f, f.MobileProvider, "10", false))
	assertAppError(t, err, utils.CodeForbidden)
}

func TestFloatMovement_UpdateKeepsCapitalFlag(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()
	p := f.BankProvider

	created, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, newFloatMovement(f, p, "300", true))
	require.NoError(t, err)

	notes := "corrected slip"
	updated, err := models.UpdateFloatMovement(ctx, f.Owner.ID, created.FloatMovement.ID, &models.FloatMovementUpdate{
		Amount: amount("100"),
		Notes:  &notes,
	})
	require.NoError(t, err)
	assertDecimal(t, "100", updated.FloatMovement.Amount)
	assert.Equal(t, notes, updated.FloatMovement.Notes)
	assert.True(t, updated.FloatMovement.IsNewCapital)
	assertDecimal(t, "-200", updated.BalanceUpdates.FloatBalance.Change)
	assert.True(t, updated.BalanceUpdates.CashBalance.Change.IsZero())

	assertDecimal(t, "100", floatBalance(t, f.Shop.ID, p.ID, models.CategoryBank))
	assert.True(t, cashBalance(t, f.Shop.ID).IsZero())
}

func TestFloatMovement_DeleteReverses(t *testing.T) {
	testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()
	p := f.MobileProvider

	record(t, f, p, models.TransactionTypeDeposit, "50")
	withdraw, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationWithdraw, newFloatMovement(f, p, "40", false))
	require.NoError(t, err)

	t.Setenv("MUTATION_AUTHORITY", "owner")
	_, err = models.DeleteFloatMovement(ctx, f.Cashier.ID, withdraw.FloatMovement.ID)
	assertAppError(t, err, utils.CodeForbidden)

	deleted, err := models.DeleteFloatMovement(ctx, f.Owner.ID, withdraw.FloatMovement.ID)
	require.NoError(t, err)
	assertDecimal(t, "-50", deleted.BalanceUpdates.FloatBalance.Current)
	assertDecimal(t, "50", deleted.BalanceUpdates.CashBalance.Current)

	_, err = models.GetFloatMovement(ctx, f.Owner.ID, withdraw.FloatMovement.ID)
	assertAppError(t, err, utils.CodeNotFound)
}

func TestDeleteFloatMovement_RollsBackReversalWhenRowDeleteFails(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t)
	ctx := context.Background()
	p := f.MobileProvider

	topUp, err := models.CreateFloatMovement(ctx, f.Owner.ID, f.Shop.ID, models.FloatOperationTopUp, newFloatMovement(f, p, "500", false))
	require.NoError(t, err)

	err = db.Callback().Delete().Before("gorm:delete").Register("test:fail_movement_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "float_movements" {
			_ = tx.AddError(errors.New("row delete rejected"))
		}
	})
	require.NoError(t, err)

	_, err = models.DeleteFloatMovement(ctx, f.Owner.ID, topUp.FloatMovement.ID)
	require.Error(t, err)

	assertDecimal(t, "500", floatBalance(t, f.Shop.ID, p.ID, models.CategoryMobile))
	assertDecimal(t, "-500", cashBalance(t, f.Shop.ID))
	stored, err := models.GetFloatMovement(ctx, f.Owner.ID, topUp.FloatMovement.ID)
	require.NoError(t, err)
	assertDecimal(t, "500", stored.Amount)

	check, err := models.RebuildShopBalances(ctx, f.Shop.ID, false)
	require.NoError(t, err)
	assert.Zero(t, check.Drifts)
}
