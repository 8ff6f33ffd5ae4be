package utils

import (
	"gorm.io/gorm"
)

// ValidateResourceId checks that id belongs to shopId, returning NOT_FOUND
// named after resource otherwise.
func ValidateResourceId[T any](tx *gorm.DB, resource string, shopId string, id string) error {
	count, err := ResourceCountWhere[T](tx, shopId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return NewNotFound(resource)
	}
	return nil
}

// ValidateUnique fails when another row of the shop already uses value in column.
func ValidateUnique[T any](tx *gorm.DB, shopId string, column string, value interface{}, exceptId string) error {
	var count int64
	var err error
	if exceptId == "" {
		count, err = ResourceCountWhere[T](tx, shopId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](tx, shopId, column+" = ? AND id <> ?", value, exceptId)
	}
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidation("duplicate "+column, map[string]string{column: "unique"})
	}
	return nil
}

// count records, using WHERE shop_id = ? AND $condition
func ResourceCountWhere[T any](tx *gorm.DB, shopId string, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	q := tx.Model(&model)
	if shopId != "" {
		q = q.Where("shop_id = ?", shopId)
	}
	if err := q.Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
