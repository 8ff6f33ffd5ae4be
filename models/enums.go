package models

type Category string

const (
	CategoryMobile Category = "mobile"
	CategoryBank   Category = "bank"
)

var AllCategories = []Category{CategoryMobile, CategoryBank}

func (c Category) IsValid() bool {
	switch c {
	case CategoryMobile, CategoryBank:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionTypeDeposit         TransactionType = "deposit"
	TransactionTypeWithdrawal      TransactionType = "withdrawal"
	TransactionTypeAirtime         TransactionType = "airtime"
	TransactionTypeBundle          TransactionType = "bundle"
	TransactionTypeElectricity     TransactionType = "electricity"
	TransactionTypeWater           TransactionType = "water"
	TransactionTypeTv              TransactionType = "tv"
	TransactionTypeOtherUtility    TransactionType = "other_utility"
	TransactionTypeBankDeposit     TransactionType = "bank_deposit"
	TransactionTypeBankWithdrawal  TransactionType = "bank_withdrawal"
	TransactionTypeBillPayment     TransactionType = "bill_payment"
	TransactionTypeFundsTransfer   TransactionType = "funds_transfer"
	TransactionTypeAccountToWallet TransactionType = "account_to_wallet"
	TransactionTypeWalletToAccount TransactionType = "wallet_to_account"
)

var AllTransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeWithdrawal,
	TransactionTypeAirtime,
	TransactionTypeBundle,
	TransactionTypeElectricity,
	TransactionTypeWater,
	TransactionTypeTv,
	TransactionTypeOtherUtility,
	TransactionTypeBankDeposit,
	TransactionTypeBankWithdrawal,
	TransactionTypeBillPayment,
	TransactionTypeFundsTransfer,
	TransactionTypeAccountToWallet,
	TransactionTypeWalletToAccount,
}

// Category returns the group a transaction type belongs to.
func (t TransactionType) Category() (Category, bool) {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeAirtime, TransactionTypeBundle,
		TransactionTypeElectricity, TransactionTypeWater, TransactionTypeTv, TransactionTypeOtherUtility:
		return CategoryMobile, true
	case TransactionTypeBankDeposit, TransactionTypeBankWithdrawal, TransactionTypeBillPayment,
		TransactionTypeFundsTransfer, TransactionTypeAccountToWallet, TransactionTypeWalletToAccount:
		return CategoryBank, true
	}
	return "", false
}

func (t TransactionType) Label() string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	case TransactionTypeAirtime:
		return "Airtime"
	case TransactionTypeBundle:
		return "Bundle"
	case TransactionTypeElectricity:
		return "Electricity"
	case TransactionTypeWater:
		return "Water"
	case TransactionTypeTv:
		return "TV"
	case TransactionTypeOtherUtility:
		return "Other Utility"
	case TransactionTypeBankDeposit:
		return "Bank Deposit"
	case TransactionTypeBankWithdrawal:
		return "Bank Withdrawal"
	case TransactionTypeBillPayment:
		return "Bill Payment"
	case TransactionTypeFundsTransfer:
		return "Funds Transfer"
	case TransactionTypeAccountToWallet:
		return "Account to Wallet"
	case TransactionTypeWalletToAccount:
		return "Wallet to Account"
	}
	return string(t)
}

type FloatOperation string

const (
	FloatOperationTopUp    FloatOperation = "top_up"
	FloatOperationWithdraw FloatOperation = "withdraw"
)

func (o FloatOperation) IsValid() bool {
	return o == FloatOperationTopUp || o == FloatOperationWithdraw
}

type UserRole string

const (
	UserRoleOwner   UserRole = "owner"
	UserRoleCashier UserRole = "cashier"
)

type CashAdjustmentType string

const (
	CashAdjustmentAdd      CashAdjustmentType = "add"
	CashAdjustmentSubtract CashAdjustmentType = "subtract"
)

func (t CashAdjustmentType) IsValid() bool {
	return t == CashAdjustmentAdd || t == CashAdjustmentSubtract
}
