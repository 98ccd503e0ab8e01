package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateFeatureRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description,omitempty"`
	DataType    string   `json:"data_type" validate:"required,oneof=string integer float boolean datetime array object"`
	ServingType string   `json:"serving_type,omitempty" validate:"omitempty,oneof=online batch streaming"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=draft active deprecated archived"`
	Owner       string   `json:"owner,omitempty" validate:"max=255"`
	Tags        []string `json:"tags,omitempty" validate:"dive,required,max=100"`
}

// UpdateFeatureRequest is a partial update; data_type is fixed once values
// may exist for the feature.
type UpdateFeatureRequest struct {
	Id          uuid.UUID `json:"-"`
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description,omitempty"`
	ServingType *string   `json:"serving_type,omitempty" validate:"omitempty,oneof=online batch streaming"`
	Status      *string   `json:"status,omitempty" validate:"omitempty,oneof=draft active deprecated archived"`
	Owner       *string   `json:"owner,omitempty" validate:"omitempty,max=255"`
	Tags        []string  `json:"tags,omitempty" validate:"omitempty,dive,required,max=100"`
}

type ListFeaturesRequest struct {
	Search      string `query:"search"`
	Status      string `query:"status" validate:"omitempty,oneof=draft active deprecated archived"`
	DataType    string `query:"data_type" validate:"omitempty,oneof=string integer float boolean datetime array object"`
	ServingType string `query:"serving_type" validate:"omitempty,oneof=online batch streaming"`
	Owner       string `query:"owner"`
	Page        int    `query:"page" validate:"omitempty,min=1"`
	Limit       int    `query:"limit" validate:"omitempty,min=1,max=1000"`
}

type FeatureResponse struct {
	Id             uuid.UUID  `json:"id"`
	OrganizationId uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	DataType       string     `json:"data_type"`
	ServingType    string     `json:"serving_type"`
	Status         string     `json:"status"`
	Owner          string     `json:"owner"`
	Tags           []string   `json:"tags"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	UpdatedAt      *time.Time `json:"updated_at"`
	UpdatedBy      *uuid.UUID `json:"updated_by"`
}
