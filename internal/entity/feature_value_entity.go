package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeatureValue is one timestamped observation of a feature for an entity.
type FeatureValue struct {
	Id             uuid.UUID
	OrganizationId uuid.UUID
	FeatureId      uuid.UUID
	EntityId       string
	Value          Value
	Timestamp      time.Time
	Metadata       map[string]interface{}
	CreatedAt      time.Time
	CreatedBy      uuid.UUID
	UpdatedAt      *time.Time
	UpdatedBy      *uuid.UUID
}

// FeatureValueKey is the (feature, entity, timestamp) identity of a value.
type FeatureValueKey struct {
	FeatureId uuid.UUID
	EntityId  string
	Timestamp time.Time
}

func (v *FeatureValue) Key() FeatureValueKey {
	return FeatureValueKey{FeatureId: v.FeatureId, EntityId: v.EntityId, Timestamp: v.Timestamp}
}

// String renders the key as feature_id:entity_id:timestamp.
func (k FeatureValueKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.FeatureId, k.EntityId, NormalizeTimestamp(k.Timestamp).Format(time.RFC3339Nano))
}

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	UserId         uuid.UUID
	OrganizationId uuid.UUID
}
