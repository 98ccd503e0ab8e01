package implementation

import (
	"context"
	"errors"
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/mapper"
	"feature-store-be/internal/model"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/scope"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const insertBatchSize = 500

const latestAsOfQuery = `
SELECT DISTINCT ON (feature_id, entity_id) *
FROM feature_values
WHERE organization_id = ?
  AND feature_id IN ?
  AND entity_id IN ?
  AND "timestamp" <= ?
ORDER BY feature_id, entity_id, "timestamp" DESC, id DESC`

type FeatureValueRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FeatureValueMapper
}

func NewFeatureValueRepository(db *gorm.DB) contract.FeatureValueRepository {
	return &FeatureValueRepositoryImpl{
		db:     db,
		mapper: mapper.NewFeatureValueMapper(),
	}
}

func (r *FeatureValueRepositoryImpl) Create(ctx context.Context, value *entity.FeatureValue) error {
	m, err := r.mapper.ToModel(value)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err)
	}
	created, err := r.mapper.ToEntity(m)
	if err != nil {
		return err
	}
	*value = *created
	return nil
}

func (r *FeatureValueRepositoryImpl) CreateBatch(ctx context.Context, values []*entity.FeatureValue) error {
	if len(values) == 0 {
		return nil
	}
	models, err := r.mapper.ToModels(values)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).CreateInBatches(models, insertBatchSize).Error; err != nil {
		return translateError(err)
	}
	for i, m := range models {
		created, err := r.mapper.ToEntity(m)
		if err != nil {
			return err
		}
		*values[i] = *created
	}
	return nil
}

// Update writes the payload and audit columns only. Key fields never change,
// and a row deleted since it was read is reported as contract.ErrNotFound
// instead of being re-inserted.
func (r *FeatureValueRepositoryImpl) Update(ctx context.Context, value *entity.FeatureValue) error {
	m, err := r.mapper.ToModel(value)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&model.FeatureValue{}).
		Scopes(scope.ForOrganization(value.OrganizationId)).
		Where("id = ?", value.Id).
		Updates(map[string]interface{}{
			"value":      m.Value,
			"value_type": m.ValueType,
			"metadata":   m.Metadata,
			"updated_at": m.UpdatedAt,
			"updated_by": m.UpdatedBy,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return contract.ErrNotFound
	}
	return nil
}

func (r *FeatureValueRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FeatureValue{}, "id = ?", id).Error
}

func (r *FeatureValueRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureValue, error) {
	var m model.FeatureValue
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m)
}

func (r *FeatureValueRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FeatureValue, error) {
	var models []*model.FeatureValue
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}

func (r *FeatureValueRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.FeatureValue{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FeatureValueRepositoryImpl) FindExistingKeys(ctx context.Context, organizationId uuid.UUID, keys []entity.FeatureValueKey) ([]entity.FeatureValueKey, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	tuples := make([][]interface{}, len(keys))
	for i, k := range keys {
		tuples[i] = []interface{}{k.FeatureId, k.EntityId, entity.NormalizeTimestamp(k.Timestamp)}
	}

	var rows []*model.FeatureValue
	err := r.db.WithContext(ctx).
		Select("feature_id", "entity_id", "timestamp").
		Scopes(scope.ForOrganization(organizationId)).
		Where(`(feature_id, entity_id, "timestamp") IN ?`, tuples).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	existing := make([]entity.FeatureValueKey, len(rows))
	for i, row := range rows {
		existing[i] = entity.FeatureValueKey{
			FeatureId: row.FeatureId,
			EntityId:  row.EntityId,
			Timestamp: entity.NormalizeTimestamp(row.Timestamp),
		}
	}
	return existing, nil
}

func (r *FeatureValueRepositoryImpl) FindLatestAsOf(ctx context.Context, organizationId uuid.UUID, featureIds []uuid.UUID, entityIds []string, asOf time.Time) ([]*entity.FeatureValue, error) {
	if len(featureIds) == 0 || len(entityIds) == 0 {
		return nil, nil
	}

	var models []*model.FeatureValue
	err := r.db.WithContext(ctx).
		Raw(latestAsOfQuery, organizationId, featureIds, entityIds, entity.NormalizeTimestamp(asOf)).
		Scan(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models)
}
