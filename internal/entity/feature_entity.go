// FILE: internal/entity/feature_entity.go
// Domain entity for catalog features
package entity

import (
	"time"

	"github.com/google/uuid"
)

type DataType string

const (
	DataTypeString   DataType = "string"
	DataTypeInteger  DataType = "integer"
	DataTypeFloat    DataType = "float"
	DataTypeBoolean  DataType = "boolean"
	DataTypeDatetime DataType = "datetime"
	DataTypeArray    DataType = "array"
	DataTypeObject   DataType = "object"
)

type ServingType string

const (
	ServingTypeOnline    ServingType = "online"
	ServingTypeBatch     ServingType = "batch"
	ServingTypeStreaming ServingType = "streaming"
)

type FeatureStatus string

const (
	FeatureStatusDraft      FeatureStatus = "draft"
	FeatureStatusActive     FeatureStatus = "active"
	FeatureStatusDeprecated FeatureStatus = "deprecated"
	FeatureStatusArchived   FeatureStatus = "archived"
)

// Feature is a named, typed definition owned by one organization.
type Feature struct {
	Id             uuid.UUID
	OrganizationId uuid.UUID
	Name           string
	Description    string
	DataType       DataType
	ServingType    ServingType
	Status         FeatureStatus
	Owner          string
	Tags           []string
	CreatedAt      time.Time
	CreatedBy      uuid.UUID
	UpdatedAt      *time.Time
	UpdatedBy      *uuid.UUID
	DeletedAt      *time.Time
	IsDeleted      bool
}

// Accepts reports whether v may be stored for a feature of this data type and
// returns the value with its type normalized to the feature (integer → float).
func (d DataType) Accepts(v Value) (Value, bool) {
	switch d {
	case DataTypeString:
		return v, v.Type == ValueTypeString
	case DataTypeInteger:
		return v, v.Type == ValueTypeInteger
	case DataTypeFloat:
		if v.Type == ValueTypeInteger {
			v.Type = ValueTypeFloat
		}
		return v, v.Type == ValueTypeFloat
	case DataTypeBoolean:
		return v, v.Type == ValueTypeBoolean
	case DataTypeDatetime:
		s, ok := v.AsString()
		if !ok {
			return v, false
		}
		_, err := time.Parse(time.RFC3339Nano, s)
		return v, err == nil
	case DataTypeArray:
		return v, v.Type == ValueTypeArray
	case DataTypeObject:
		return v, v.Type == ValueTypeObject
	}
	return v, false
}
