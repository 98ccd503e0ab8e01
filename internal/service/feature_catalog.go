package service

import (
	"context"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/internal/repository/specification"
	"feature-store-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// IFeatureCatalog resolves feature definitions for the value store.
type IFeatureCatalog interface {
	// Resolve returns the non-deleted features of the organization whose ids
	// are in ids. Missing ids are simply absent from the map.
	Resolve(ctx context.Context, organizationId uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entity.Feature, error)
	// Get returns one feature, or nil when it does not exist in the
	// organization. Soft-deleted features are only returned with includeDeleted.
	Get(ctx context.Context, organizationId, id uuid.UUID, includeDeleted bool) (*entity.Feature, error)
	Invalidate(organizationId, featureId uuid.UUID)
}

type featureCatalog struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.FeatureCache
}

func NewFeatureCatalog(uowFactory unitofwork.RepositoryFactory, cache *memory.FeatureCache) IFeatureCatalog {
	return &featureCatalog{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func (c *featureCatalog) Resolve(ctx context.Context, organizationId uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*entity.Feature, error) {
	result := make(map[uuid.UUID]*entity.Feature, len(ids))
	missing := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if f, ok := c.cache.Get(organizationId, id); ok {
			result[id] = f
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	features, err := uow.FeatureRepository().FindAll(ctx,
		specification.ByOrganization{OrganizationID: organizationId},
		specification.ByIDs{IDs: missing},
	)
	if err != nil {
		return nil, err
	}
	for _, f := range features {
		c.cache.Save(f)
		result[f.Id] = f
	}
	return result, nil
}

func (c *featureCatalog) Get(ctx context.Context, organizationId, id uuid.UUID, includeDeleted bool) (*entity.Feature, error) {
	if !includeDeleted {
		features, err := c.Resolve(ctx, organizationId, []uuid.UUID{id})
		if err != nil {
			return nil, err
		}
		return features[id], nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	return uow.FeatureRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByOrganization{OrganizationID: organizationId},
		specification.IncludeDeleted{},
	)
}

func (c *featureCatalog) Invalidate(organizationId, featureId uuid.UUID) {
	c.cache.Delete(organizationId, featureId)
}
