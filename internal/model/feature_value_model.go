// FILE: internal/model/feature_value_model.go
// GORM model for the feature_values table
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FeatureValue rows are unique per (feature_id, entity_id, timestamp). The
// same index serves the latest-at-or-before lookup by scanning backwards.
type FeatureValue struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationId uuid.UUID      `gorm:"type:uuid;not null;index:idx_feature_values_org_time,priority:1"`
	FeatureId      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_feature_values_triple,priority:1"`
	EntityId       string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_feature_values_triple,priority:2;index"`
	Timestamp      time.Time      `gorm:"type:timestamptz;not null;uniqueIndex:idx_feature_values_triple,priority:3;index:idx_feature_values_org_time,priority:2"`
	Value          datatypes.JSON `gorm:"type:jsonb;not null"`
	ValueType      string         `gorm:"type:varchar(20);not null"`
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null"`
	UpdatedAt      *time.Time
	UpdatedBy      *uuid.UUID `gorm:"type:uuid"`
}

func (FeatureValue) TableName() string {
	return "feature_values"
}
