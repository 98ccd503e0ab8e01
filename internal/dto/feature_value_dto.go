package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type CreateFeatureValueRequest struct {
	FeatureId uuid.UUID              `json:"feature_id" validate:"required"`
	EntityId  string                 `json:"entity_id" validate:"required,max=255"`
	Value     json.RawMessage        `json:"value" validate:"required"`
	ValueType string                 `json:"value_type,omitempty" validate:"omitempty,oneof=string integer float boolean object array"`
	Timestamp *time.Time             `json:"timestamp" validate:"required"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type BatchCreateFeatureValuesRequest struct {
	Values []CreateFeatureValueRequest `json:"values" validate:"dive"`
}

// UpdateFeatureValueRequest patches value and metadata. The key fields are
// decoded only so that an attempt to change them can be rejected.
type UpdateFeatureValueRequest struct {
	Id        uuid.UUID              `json:"-"`
	Value     json.RawMessage        `json:"value,omitempty"`
	ValueType string                 `json:"value_type,omitempty" validate:"omitempty,oneof=string integer float boolean object array"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`

	FeatureId *uuid.UUID `json:"feature_id,omitempty"`
	EntityId  *string    `json:"entity_id,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type FeatureValueResponse struct {
	Id             uuid.UUID              `json:"id"`
	OrganizationId uuid.UUID              `json:"organization_id"`
	FeatureId      uuid.UUID              `json:"feature_id"`
	EntityId       string                 `json:"entity_id"`
	Value          json.RawMessage        `json:"value"`
	ValueType      string                 `json:"value_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Metadata       map[string]interface{} `json:"metadata"`
	CreatedAt      time.Time              `json:"created_at"`
	CreatedBy      uuid.UUID              `json:"created_by"`
	UpdatedAt      *time.Time             `json:"updated_at"`
	UpdatedBy      *uuid.UUID             `json:"updated_by"`
}

type BatchCreateFeatureValuesResponse struct {
	CreatedCount int                     `json:"created_count"`
	Values       []*FeatureValueResponse `json:"values"`
}

type ListFeatureValuesRequest struct {
	FeatureId      *uuid.UUID
	EntityId       string
	StartTimestamp *time.Time
	EndTimestamp   *time.Time
	Page           int
	Limit          int
}

type ServeFeaturesRequest struct {
	FeatureIds []uuid.UUID `json:"feature_ids" validate:"required"`
	EntityIds  []string    `json:"entity_ids" validate:"required,dive,required,max=255"`
	Timestamp  *time.Time  `json:"timestamp,omitempty"`
}

type ServedFeatureValue struct {
	Value     json.RawMessage        `json:"value"`
	ValueType string                 `json:"value_type"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// ServeFeaturesResponse carries one entity. Features holds every requested
// feature id; a nil entry means no value existed at or before Timestamp.
type ServeFeaturesResponse struct {
	EntityId  string                         `json:"entity_id"`
	Features  map[string]*ServedFeatureValue `json:"features"`
	Timestamp time.Time                      `json:"timestamp"`
}

type FeatureValueStatsRequest struct {
	FeatureId      uuid.UUID
	StartTimestamp *time.Time
	EndTimestamp   *time.Time
}

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ValueStats struct {
	Count     int     `json:"count"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	NullCount int     `json:"null_count"`
}

type FeatureValueStatsResponse struct {
	FeatureId      uuid.UUID   `json:"feature_id"`
	TotalValues    int64       `json:"total_values"`
	UniqueEntities int         `json:"unique_entities"`
	DateRange      *DateRange  `json:"date_range"`
	ValueStats     *ValueStats `json:"value_stats"`
}
