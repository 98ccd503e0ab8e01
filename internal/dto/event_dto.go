package dto

import (
	"time"

	"github.com/google/uuid"
)

// FeatureEventMessage is the in-process bus payload for catalog changes.
type FeatureEventMessage struct {
	Type           string    `json:"type"`
	OrganizationId uuid.UUID `json:"organization_id"`
	FeatureId      uuid.UUID `json:"feature_id"`
	OccurredAt     time.Time `json:"occurred_at"`
}
