package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	FeatureCreated = "FEATURE_CREATED"
	FeatureUpdated = "FEATURE_UPDATED"
	FeatureDeleted = "FEATURE_DELETED"
)

// NewFeatureEvent builds a catalog change event. The payload is flat so it
// survives a JSON round trip through any broker unchanged.
func NewFeatureEvent(eventType string, organizationId, featureId uuid.UUID, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"organization_id": organizationId.String(),
			"feature_id":      featureId.String(),
			"occurred_at":     occurredAt.UTC().Format(time.RFC3339Nano),
		},
		OccurredAt: occurredAt,
	}
}

// FeatureRef extracts the organization and feature ids from a catalog event.
func FeatureRef(e Event) (organizationId, featureId uuid.UUID, err error) {
	data := e.Payload()
	org, _ := data["organization_id"].(string)
	feature, _ := data["feature_id"].(string)

	if organizationId, err = uuid.Parse(org); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("event %s: invalid organization_id: %w", e.EventType(), err)
	}
	if featureId, err = uuid.Parse(feature); err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("event %s: invalid feature_id: %w", e.EventType(), err)
	}
	return organizationId, featureId, nil
}
