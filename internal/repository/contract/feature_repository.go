package contract

import (
	"context"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FeatureRepository interface {
	Create(ctx context.Context, feature *entity.Feature) error
	Update(ctx context.Context, feature *entity.Feature) error
	// Delete soft-deletes the feature; its values are left in place.
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Feature, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Feature, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
