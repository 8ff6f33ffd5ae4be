package config

import (
	"os"
	"strings"
)

type MutationAuthorityPolicy string

const (
	// Only the shop owner may edit or delete recorded transactions and float movements.
	MutationAuthorityOwner MutationAuthorityPolicy = "owner"
	// Owners and active cashiers of the shop may edit or delete.
	MutationAuthorityOwnerOrCashier MutationAuthorityPolicy = "owner_or_cashier"
)

// MutationAuthority decides who may update or delete ledger rows.
// Applies to transactions and float movements alike.
//
// Set via env:
// - MUTATION_AUTHORITY=owner (default)
// - MUTATION_AUTHORITY=owner_or_cashier
func MutationAuthority() MutationAuthorityPolicy {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MUTATION_AUTHORITY"))) {
	case string(MutationAuthorityOwnerOrCashier):
		return MutationAuthorityOwnerOrCashier
	default:
		return MutationAuthorityOwner
	}
}

// IsProduction is true when GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}
