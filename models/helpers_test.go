package models_test

import (
	"context"
	"testing"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/internal/testdb"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(s string) *utils.Amount {
	return utils.NewAmount(decimal.RequireFromString(s))
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	want := decimal.RequireFromString(expected)
	assert.Truef(t, want.Equal(actual), "expected %s, got %s %v", want, actual, msgAndArgs)
}

func assertAppError(t *testing.T, err error, code utils.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Truef(t, utils.IsAppErrorCode(err, code), "expected %s, got %v", code, err)
}

func cashBalance(t *testing.T, shopId string) decimal.Decimal {
	t.Helper()
	var row models.CashBalance
	err := config.GetDB().Where("shop_id = ?", shopId).First(&row).Error
	require.NoError(t, err)
	return row.Balance
}

func floatBalance(t *testing.T, shopId string, providerId string, category models.Category) decimal.Decimal {
	t.Helper()
	var row models.FloatBalance
	err := config.GetDB().
		Where("shop_id = ? AND provider_id = ? AND category = ?", shopId, providerId, category).
		First(&row).Error
	require.NoError(t, err)
	return row.Balance
}

func newTransaction(provider *models.Provider, t models.TransactionType, amt string) *models.NewTransaction {
	return &models.NewTransaction{
		Category:           provider.Category,
		Type:               t,
		ProviderId:         provider.ID,
		Amount:             amount(amt),
		Reference:          "REF-" + string(t),
		CustomerIdentifier: "0712345678",
		TransactionDate:    "2024-05-01",
	}
}

func newFloatMovement(f *testdb.Fixture, provider *models.Provider, amt string, newCapital bool) *models.NewFloatMovement {
	return &models.NewFloatMovement{
		ProviderId:      provider.ID,
		SuperAgentId:    f.SuperAgent.ID,
		Category:        provider.Category,
		Amount:          amount(amt),
		Reference:       "SA-001",
		IsNewCapital:    newCapital,
		TransactionDate: "2024-05-01T09:30:00Z",
	}
}

func record(t *testing.T, f *testdb.Fixture, provider *models.Provider, typ models.TransactionType, amt string) *models.TransactionResult {
	t.Helper()
	result, err := models.CreateTransaction(context.Background(), f.Owner.ID, f.Shop.ID, newTransaction(provider, typ, amt))
	require.NoError(t, err)
	return result
}
