package scope

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForOrganization restricts a query to one tenant's rows.
func ForOrganization(organizationId uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ?", organizationId)
	}
}

func Paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit).Offset(offset)
	}
}
