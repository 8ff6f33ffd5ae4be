package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction is the sign a ledger row contributes to a balance.
type Direction int8

const (
	Decrement Direction = -1
	NoChange  Direction = 0
	Increment Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Increment:
		return "increment"
	case Decrement:
		return "decrement"
	}
	return "none"
}

func (d Direction) apply(amount decimal.Decimal) decimal.Decimal {
	switch d {
	case Increment:
		return amount
	case Decrement:
		return amount.Neg()
	}
	return decimal.Zero
}

// Effect is what one ledger row does to the float and cash balances.
type Effect struct {
	Float Direction
	Cash  Direction
}

// Deltas returns the signed float and cash changes for amount.
func (e Effect) Deltas(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return e.Float.apply(amount), e.Cash.apply(amount)
}

// Reversed undoes e exactly.
func (e Effect) Reversed() Effect {
	return Effect{Float: -e.Float, Cash: -e.Cash}
}

// TransactionEffect classifies a customer transaction. The customer side of the
// trade determines the shop side: a customer withdrawal pays out cash and takes
// float in, every sale of value takes cash in and spends float.
func TransactionEffect(t TransactionType) (Effect, error) {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeBankWithdrawal:
		return Effect{Float: Increment, Cash: Decrement}, nil
	case TransactionTypeAccountToWallet:
		return Effect{Float: Decrement, Cash: NoChange}, nil
	case TransactionTypeWalletToAccount:
		return Effect{Float: Increment, Cash: NoChange}, nil
	case TransactionTypeDeposit, TransactionTypeAirtime, TransactionTypeBundle, TransactionTypeElectricity,
		TransactionTypeWater, TransactionTypeTv, TransactionTypeOtherUtility, TransactionTypeBankDeposit,
		TransactionTypeBillPayment, TransactionTypeFundsTransfer:
		return Effect{Float: Decrement, Cash: Increment}, nil
	}
	return Effect{}, fmt.Errorf("unknown transaction type %q", t)
}

// FloatMovementEffect classifies a float top-up or withdrawal. New capital
// comes from outside the till, so it leaves cash alone.
func FloatMovementEffect(op FloatOperation, isNewCapital bool) (Effect, error) {
	switch op {
	case FloatOperationTopUp:
		if isNewCapital {
			return Effect{Float: Increment, Cash: NoChange}, nil
		}
		return Effect{Float: Increment, Cash: Decrement}, nil
	case FloatOperationWithdraw:
		return Effect{Float: Decrement, Cash: Increment}, nil
	}
	return Effect{}, fmt.Errorf("unknown float operation %q", op)
}

// CashAdjustmentEffect is cash-only.
func CashAdjustmentEffect(t CashAdjustmentType) (Effect, error) {
	switch t {
	case CashAdjustmentAdd:
		return Effect{Float: NoChange, Cash: Increment}, nil
	case CashAdjustmentSubtract:
		return Effect{Float: NoChange, Cash: Decrement}, nil
	}
	return Effect{}, fmt.Errorf("unknown cash adjustment type %q", t)
}

type TransactionTypeInfo struct {
	Value        TransactionType `json:"value"`
	Label        string          `json:"label"`
	AffectsFloat string          `json:"affects_float"`
	AffectsCash  string          `json:"affects_cash"`
}

// TransactionTypesByCategory is the metadata table served to clients, built
// from the same classification the balances use.
func TransactionTypesByCategory() map[Category][]TransactionTypeInfo {
	out := make(map[Category][]TransactionTypeInfo, len(AllCategories))
	for _, t := range AllTransactionTypes {
		cat, _ := t.Category()
		effect, err := TransactionEffect(t)
		if err != nil {
			continue
		}
		out[cat] = append(out[cat], TransactionTypeInfo{
			Value:        t,
			Label:        t.Label(),
			AffectsFloat: effect.Float.String(),
			AffectsCash:  effect.Cash.String(),
		})
	}
	return out
}
