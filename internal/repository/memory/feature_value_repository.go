package memory

import (
	"context"
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FeatureValueRepository struct {
	uow *UnitOfWork
}

func (r *FeatureValueRepository) prepare(value *entity.FeatureValue) {
	if value.Id == uuid.Nil {
		value.Id = uuid.New()
	}
	if value.CreatedAt.IsZero() {
		value.CreatedAt = r.uow.store.now()
	}
	value.Timestamp = entity.NormalizeTimestamp(value.Timestamp)
}

func (r *FeatureValueRepository) Create(ctx context.Context, value *entity.FeatureValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.prepare(value)
	return r.uow.exec(r.uow.store.createValueOp(cloneValue(value)))
}

func (r *FeatureValueRepository) CreateBatch(ctx context.Context, values []*entity.FeatureValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ops := make([]op, len(values))
	for i, value := range values {
		r.prepare(value)
		ops[i] = r.uow.store.createValueOp(cloneValue(value))
	}
	return r.uow.exec(ops...)
}

func (r *FeatureValueRepository) Update(ctx context.Context, value *entity.FeatureValue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.exec(r.uow.store.updateValueOp(cloneValue(value)))
}

func (r *FeatureValueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.exec(r.uow.store.deleteValueOp(id))
}

func (r *FeatureValueRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureValue, error) {
	values, err := r.uow.store.findValues(ctx, specs)
	if err != nil || len(values) == 0 {
		return nil, err
	}
	return values[0], nil
}

func (r *FeatureValueRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FeatureValue, error) {
	return r.uow.store.findValues(ctx, specs)
}

func (r *FeatureValueRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	values, err := r.uow.store.findValues(ctx, specs)
	if err != nil {
		return 0, err
	}
	return int64(len(values)), nil
}

func (r *FeatureValueRepository) FindExistingKeys(ctx context.Context, organizationId uuid.UUID, keys []entity.FeatureValueKey) ([]entity.FeatureValueKey, error) {
	return r.uow.store.existingKeys(ctx, organizationId, keys)
}

func (r *FeatureValueRepository) FindLatestAsOf(ctx context.Context, organizationId uuid.UUID, featureIds []uuid.UUID, entityIds []string, asOf time.Time) ([]*entity.FeatureValue, error) {
	return r.uow.store.latestAsOf(ctx, organizationId, featureIds, entityIds, asOf)
}
