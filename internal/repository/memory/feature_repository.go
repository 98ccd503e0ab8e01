package memory

import (
	"context"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FeatureRepository struct {
	uow *UnitOfWork
}

func (r *FeatureRepository) Create(ctx context.Context, feature *entity.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.uow.store.now()
	if feature.Id == uuid.Nil {
		feature.Id = uuid.New()
	}
	if feature.CreatedAt.IsZero() {
		feature.CreatedAt = now
	}
	if feature.Status == "" {
		feature.Status = entity.FeatureStatusDraft
	}
	feature.UpdatedAt = &now
	return r.uow.exec(r.uow.store.saveFeatureOp(cloneFeature(feature)))
}

func (r *FeatureRepository) Update(ctx context.Context, feature *entity.Feature) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.uow.store.now()
	feature.UpdatedAt = &now
	return r.uow.exec(r.uow.store.updateFeatureOp(cloneFeature(feature)))
}

func (r *FeatureRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.uow.exec(r.uow.store.deleteFeatureOp(id, r.uow.store.now()))
}

func (r *FeatureRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Feature, error) {
	features, err := r.uow.store.findFeatures(ctx, specs)
	if err != nil || len(features) == 0 {
		return nil, err
	}
	return features[0], nil
}

func (r *FeatureRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Feature, error) {
	return r.uow.store.findFeatures(ctx, specs)
}

func (r *FeatureRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	features, err := r.uow.store.findFeatures(ctx, specs)
	if err != nil {
		return 0, err
	}
	return int64(len(features)), nil
}
