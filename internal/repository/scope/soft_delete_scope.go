package scope

import "gorm.io/gorm"

// WithSoftDeleted includes soft deleted records.
func WithSoftDeleted(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
