package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/model"

	"gorm.io/datatypes"
)

type FeatureValueMapper struct{}

func NewFeatureValueMapper() *FeatureValueMapper {
	return &FeatureValueMapper{}
}

func (m *FeatureValueMapper) ToEntity(v *model.FeatureValue) (*entity.FeatureValue, error) {
	if v == nil {
		return nil, nil
	}

	var metadata map[string]interface{}
	if len(v.Metadata) > 0 {
		if err := json.Unmarshal(v.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("feature value %s: decode metadata: %w", v.Id, err)
		}
	}

	return &entity.FeatureValue{
		Id:             v.Id,
		OrganizationId: v.OrganizationId,
		FeatureId:      v.FeatureId,
		EntityId:       v.EntityId,
		Value: entity.Value{
			Type: entity.ValueType(v.ValueType),
			Raw:  compactJSON(v.Value),
		},
		Timestamp: entity.NormalizeTimestamp(v.Timestamp),
		Metadata:  metadata,
		CreatedAt: v.CreatedAt,
		CreatedBy: v.CreatedBy,
		UpdatedAt: v.UpdatedAt,
		UpdatedBy: v.UpdatedBy,
	}, nil
}

func (m *FeatureValueMapper) ToModel(v *entity.FeatureValue) (*model.FeatureValue, error) {
	if v == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if v.Metadata != nil {
		raw, err := json.Marshal(v.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	return &model.FeatureValue{
		Id:             v.Id,
		OrganizationId: v.OrganizationId,
		FeatureId:      v.FeatureId,
		EntityId:       v.EntityId,
		Timestamp:      entity.NormalizeTimestamp(v.Timestamp),
		Value:          datatypes.JSON(v.Value.Raw),
		ValueType:      string(v.Value.Type),
		Metadata:       metadata,
		CreatedAt:      v.CreatedAt,
		CreatedBy:      v.CreatedBy,
		UpdatedAt:      v.UpdatedAt,
		UpdatedBy:      v.UpdatedBy,
	}, nil
}

func (m *FeatureValueMapper) ToEntities(values []*model.FeatureValue) ([]*entity.FeatureValue, error) {
	entities := make([]*entity.FeatureValue, len(values))
	for i, v := range values {
		e, err := m.ToEntity(v)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}

func (m *FeatureValueMapper) ToModels(values []*entity.FeatureValue) ([]*model.FeatureValue, error) {
	models := make([]*model.FeatureValue, len(values))
	for i, v := range values {
		mv, err := m.ToModel(v)
		if err != nil {
			return nil, err
		}
		models[i] = mv
	}
	return models, nil
}

// compactJSON undoes the whitespace jsonb adds on output.
func compactJSON(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return json.RawMessage(raw)
	}
	return json.RawMessage(buf.Bytes())
}
