package utils

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* DB fetching */

// FetchModel loads a row by primary key. A missing row becomes NOT_FOUND
// named after resource.
func FetchModel[T any](tx *gorm.DB, resource string, id string) (*T, error) {
	var result T
	if err := tx.Where("id = ?", id).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound(resource)
		}
		return nil, err
	}
	return &result, nil
}

// FetchModelForUpdate is FetchModel holding a row lock until the surrounding
// transaction ends.
func FetchModelForUpdate[T any](tx *gorm.DB, resource string, id string) (*T, error) {
	return FetchModel[T](tx.Clauses(clause.Locking{Strength: "UPDATE"}), resource, id)
}
