package models

import (
	"gorm.io/gorm"
)

func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Shop{}, &Cashier{},
		&Provider{}, &SuperAgent{},
		&Transaction{}, &FloatMovement{}, &CashAdjustment{},
		&CashBalance{}, &FloatBalance{},
		&ReconciliationReport{},
	)
}
