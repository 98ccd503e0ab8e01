package mapper

import (
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/model"

	"gorm.io/gorm"
)

type FeatureMapper struct{}

func NewFeatureMapper() *FeatureMapper {
	return &FeatureMapper{}
}

func (m *FeatureMapper) ToEntity(f *model.Feature) *entity.Feature {
	if f == nil {
		return nil
	}

	var deletedAt *time.Time
	if f.DeletedAt.Valid {
		t := f.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !f.UpdatedAt.IsZero() {
		t := f.UpdatedAt
		updatedAt = &t
	}

	tags := make([]string, 0, len(f.Tags))
	tags = append(tags, f.Tags...)

	return &entity.Feature{
		Id:             f.Id,
		OrganizationId: f.OrganizationId,
		Name:           f.Name,
		Description:    f.Description,
		DataType:       entity.DataType(f.DataType),
		ServingType:    entity.ServingType(f.ServingType),
		Status:         entity.FeatureStatus(f.Status),
		Owner:          f.Owner,
		Tags:           tags,
		CreatedAt:      f.CreatedAt,
		CreatedBy:      f.CreatedBy,
		UpdatedAt:      updatedAt,
		UpdatedBy:      f.UpdatedBy,
		DeletedAt:      deletedAt,
		IsDeleted:      f.DeletedAt.Valid,
	}
}

func (m *FeatureMapper) ToModel(f *entity.Feature) *model.Feature {
	if f == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if f.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *f.DeletedAt, Valid: true}
	} else if f.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if f.UpdatedAt != nil {
		updatedAt = *f.UpdatedAt
	}

	return &model.Feature{
		Id:             f.Id,
		OrganizationId: f.OrganizationId,
		Name:           f.Name,
		Description:    f.Description,
		DataType:       string(f.DataType),
		ServingType:    string(f.ServingType),
		Status:         string(f.Status),
		Owner:          f.Owner,
		Tags:           f.Tags,
		CreatedAt:      f.CreatedAt,
		CreatedBy:      f.CreatedBy,
		UpdatedAt:      updatedAt,
		UpdatedBy:      f.UpdatedBy,
		DeletedAt:      deletedAt,
	}
}

func (m *FeatureMapper) ToEntities(features []*model.Feature) []*entity.Feature {
	entities := make([]*entity.Feature, len(features))
	for i, f := range features {
		entities[i] = m.ToEntity(f)
	}
	return entities
}
