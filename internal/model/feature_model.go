// FILE: internal/model/feature_model.go
// GORM model for the features (catalog) table
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Feature struct {
	Id             uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID                   `gorm:"type:uuid;not null;index;uniqueIndex:idx_features_org_name,priority:1,where:deleted_at IS NULL"`
	Name           string                      `gorm:"type:varchar(255);not null;uniqueIndex:idx_features_org_name,priority:2,where:deleted_at IS NULL"`
	Description    string                      `gorm:"type:text"`
	DataType       string                      `gorm:"type:varchar(20);not null"`
	ServingType    string                      `gorm:"type:varchar(20);not null"`
	Status         string                      `gorm:"type:varchar(20);not null;default:'draft';index"`
	Owner          string                      `gorm:"type:varchar(255);not null;index"`
	Tags           datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime"`
	CreatedBy      uuid.UUID                   `gorm:"type:uuid;not null"`
	UpdatedAt      time.Time                   `gorm:"autoUpdateTime"`
	UpdatedBy      *uuid.UUID                  `gorm:"type:uuid"`
	DeletedAt      gorm.DeletedAt              `gorm:"index"`
}

func (Feature) TableName() string {
	return "features"
}
