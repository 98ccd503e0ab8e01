package contract

import (
	"context"
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FeatureValueRepository interface {
	Create(ctx context.Context, value *entity.FeatureValue) error
	CreateBatch(ctx context.Context, values []*entity.FeatureValue) error
	Update(ctx context.Context, value *entity.FeatureValue) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureValue, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FeatureValue, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// FindExistingKeys returns the subset of keys already stored for the
	// organization, in one round trip.
	FindExistingKeys(ctx context.Context, organizationId uuid.UUID, keys []entity.FeatureValueKey) ([]entity.FeatureValueKey, error)

	// FindLatestAsOf returns, for every (feature, entity) pair that has one,
	// the value with the greatest timestamp not after asOf. Pairs without such
	// a value are absent from the result.
	FindLatestAsOf(ctx context.Context, organizationId uuid.UUID, featureIds []uuid.UUID, entityIds []string, asOf time.Time) ([]*entity.FeatureValue, error)
}
