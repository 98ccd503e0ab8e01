package specification

import (
	"time"

	"feature-store-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByFeatureID struct {
	FeatureID uuid.UUID
}

func (s ByFeatureID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("feature_id = ?", s.FeatureID)
}

func (s ByFeatureID) MatchFeatureValue(v *entity.FeatureValue) bool {
	return v.FeatureId == s.FeatureID
}

type ByEntityID struct {
	EntityID string
}

func (s ByEntityID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("entity_id = ?", s.EntityID)
}

func (s ByEntityID) MatchFeatureValue(v *entity.FeatureValue) bool {
	return v.EntityId == s.EntityID
}

// TimestampFrom keeps values effective at or after From.
type TimestampFrom struct {
	From time.Time
}

func (s TimestampFrom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timestamp >= ?", entity.NormalizeTimestamp(s.From))
}

func (s TimestampFrom) MatchFeatureValue(v *entity.FeatureValue) bool {
	return !v.Timestamp.Before(entity.NormalizeTimestamp(s.From))
}

// TimestampTo keeps values effective at or before To.
type TimestampTo struct {
	To time.Time
}

func (s TimestampTo) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("timestamp <= ?", entity.NormalizeTimestamp(s.To))
}

func (s TimestampTo) MatchFeatureValue(v *entity.FeatureValue) bool {
	return !v.Timestamp.After(entity.NormalizeTimestamp(s.To))
}
