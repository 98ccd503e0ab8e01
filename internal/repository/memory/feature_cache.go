package memory

import (
	"time"

	"feature-store-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// FeatureCache keeps recently resolved catalog features keyed by
// organization and id. A zero TTL disables caching.
type FeatureCache struct {
	cache   *cache.Cache
	enabled bool
}

func NewFeatureCache(ttl time.Duration) *FeatureCache {
	if ttl <= 0 {
		return &FeatureCache{}
	}
	return &FeatureCache{
		cache:   cache.New(ttl, 2*ttl),
		enabled: true,
	}
}

func featureCacheKey(organizationId, featureId uuid.UUID) string {
	return organizationId.String() + ":" + featureId.String()
}

func (c *FeatureCache) Save(feature *entity.Feature) {
	if !c.enabled || feature == nil {
		return
	}
	c.cache.Set(featureCacheKey(feature.OrganizationId, feature.Id), cloneFeature(feature), cache.DefaultExpiration)
}

func (c *FeatureCache) Get(organizationId, featureId uuid.UUID) (*entity.Feature, bool) {
	if !c.enabled {
		return nil, false
	}
	if x, found := c.cache.Get(featureCacheKey(organizationId, featureId)); found {
		return cloneFeature(x.(*entity.Feature)), true
	}
	return nil, false
}

func (c *FeatureCache) Delete(organizationId, featureId uuid.UUID) {
	if !c.enabled {
		return
	}
	c.cache.Delete(featureCacheKey(organizationId, featureId))
}

func (c *FeatureCache) Flush() {
	if c.enabled {
		c.cache.Flush()
	}
}
