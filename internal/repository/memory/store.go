package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/specification"

	"github.com/google/uuid"
)

type seriesKey struct {
	organizationId uuid.UUID
	featureId      uuid.UUID
	entityId       string
}

// Store is the process-local persistence substrate used when STORAGE_DRIVER
// is "memory". Values of one (organization, feature, entity) are kept in a
// series sorted by timestamp so point-in-time lookups are a binary search.
type Store struct {
	mu       sync.RWMutex
	features map[uuid.UUID]*entity.Feature
	values   map[uuid.UUID]*entity.FeatureValue
	keys     map[string]uuid.UUID
	series   map[seriesKey][]*entity.FeatureValue
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		features: make(map[uuid.UUID]*entity.Feature),
		values:   make(map[uuid.UUID]*entity.FeatureValue),
		keys:     make(map[string]uuid.UUID),
		series:   make(map[seriesKey][]*entity.FeatureValue),
		now:      time.Now,
	}
}

// op is one staged write. check runs against the pending view of every op
// staged before it; apply mutates the store and only runs once every op of
// the commit passed its check.
type op struct {
	check func(p *pending) error
	apply func(s *Store)
}

type pending struct {
	store       *Store
	addedKeys   map[string]bool
	removedKeys map[string]bool
	features    map[uuid.UUID]*entity.Feature
}

func (p *pending) keyTaken(key string) bool {
	if p.addedKeys[key] {
		return true
	}
	_, ok := p.store.keys[key]
	return ok && !p.removedKeys[key]
}

func (p *pending) nameTaken(f *entity.Feature) bool {
	taken := func(other *entity.Feature) bool {
		return other.Id != f.Id &&
			!other.IsDeleted &&
			other.OrganizationId == f.OrganizationId &&
			other.Name == f.Name
	}
	for id, other := range p.store.features {
		if staged, ok := p.features[id]; ok {
			other = staged
		}
		if taken(other) {
			return true
		}
	}
	for id, staged := range p.features {
		if _, ok := p.store.features[id]; !ok && taken(staged) {
			return true
		}
	}
	return false
}

// commit validates and applies ops atomically: either every op lands or none.
func (s *Store) commit(ops []op) error {
	if len(ops) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &pending{
		store:       s,
		addedKeys:   make(map[string]bool),
		removedKeys: make(map[string]bool),
		features:    make(map[uuid.UUID]*entity.Feature),
	}
	for _, o := range ops {
		if err := o.check(p); err != nil {
			return err
		}
	}
	for _, o := range ops {
		o.apply(s)
	}
	return nil
}

func (s *Store) createValueOp(v *entity.FeatureValue) op {
	key := v.Key().String()
	return op{
		check: func(p *pending) error {
			if p.keyTaken(key) {
				return fmt.Errorf("%w: %s", contract.ErrDuplicateKey, key)
			}
			p.addedKeys[key] = true
			delete(p.removedKeys, key)
			return nil
		},
		apply: func(s *Store) {
			stored := cloneValue(v)
			stored.Timestamp = entity.NormalizeTimestamp(stored.Timestamp)
			s.values[stored.Id] = stored
			s.keys[key] = stored.Id

			sk := seriesKeyOf(stored)
			series := s.series[sk]
			i := sort.Search(len(series), func(i int) bool {
				return !series[i].Timestamp.Before(stored.Timestamp)
			})
			series = slices.Insert(series, i, stored)
			s.series[sk] = series
		},
	}
}

func (s *Store) updateValueOp(v *entity.FeatureValue) op {
	return op{
		check: func(p *pending) error {
			current, ok := p.store.values[v.Id]
			if !ok || current.OrganizationId != v.OrganizationId || p.removedKeys[current.Key().String()] {
				return fmt.Errorf("%w: feature value %s", contract.ErrNotFound, v.Id)
			}
			return nil
		},
		apply: func(s *Store) {
			current, ok := s.values[v.Id]
			if !ok {
				return
			}
			// Key fields are immutable; only the payload changes.
			updated := cloneValue(v)
			updated.OrganizationId = current.OrganizationId
			updated.FeatureId = current.FeatureId
			updated.EntityId = current.EntityId
			updated.Timestamp = current.Timestamp
			s.values[v.Id] = updated

			sk := seriesKeyOf(updated)
			series := s.series[sk]
			for i := range series {
				if series[i].Id == v.Id {
					series[i] = updated
					break
				}
			}
		},
	}
}

func (s *Store) deleteValueOp(id uuid.UUID) op {
	return op{
		check: func(p *pending) error {
			if current, ok := p.store.values[id]; ok {
				key := current.Key().String()
				p.removedKeys[key] = true
				delete(p.addedKeys, key)
			}
			return nil
		},
		apply: func(s *Store) {
			current, ok := s.values[id]
			if !ok {
				return
			}
			delete(s.values, id)
			delete(s.keys, current.Key().String())

			sk := seriesKeyOf(current)
			series := slices.DeleteFunc(s.series[sk], func(v *entity.FeatureValue) bool {
				return v.Id == id
			})
			if len(series) == 0 {
				delete(s.series, sk)
			} else {
				s.series[sk] = series
			}
		},
	}
}

func (s *Store) saveFeatureOp(f *entity.Feature) op {
	return op{
		check: func(p *pending) error {
			if !f.IsDeleted && p.nameTaken(f) {
				return fmt.Errorf("%w: feature name %q", contract.ErrDuplicateKey, f.Name)
			}
			p.features[f.Id] = f
			return nil
		},
		apply: func(s *Store) {
			s.features[f.Id] = cloneFeature(f)
		},
	}
}

// updateFeatureOp saves f only while it is still live in its organization.
func (s *Store) updateFeatureOp(f *entity.Feature) op {
	save := s.saveFeatureOp(f)
	return op{
		check: func(p *pending) error {
			current, ok := p.features[f.Id]
			if !ok {
				current, ok = p.store.features[f.Id]
			}
			if !ok || current.IsDeleted || current.OrganizationId != f.OrganizationId {
				return fmt.Errorf("%w: feature %s", contract.ErrNotFound, f.Id)
			}
			return save.check(p)
		},
		apply: save.apply,
	}
}

func (s *Store) deleteFeatureOp(id uuid.UUID, at time.Time) op {
	return op{
		check: func(p *pending) error {
			if current, ok := p.store.features[id]; ok {
				deleted := cloneFeature(current)
				deleted.IsDeleted = true
				p.features[id] = deleted
			}
			return nil
		},
		apply: func(s *Store) {
			current, ok := s.features[id]
			if !ok || current.IsDeleted {
				return
			}
			deletedAt := at
			current.IsDeleted = true
			current.DeletedAt = &deletedAt
		},
	}
}

func (s *Store) findFeatures(ctx context.Context, specs []specification.Specification) ([]*entity.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		matchers       []specification.FeatureMatcher
		orders         []specification.OrderBy
		page           *specification.Pagination
		includeDeleted bool
	)
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.OrderBy:
			orders = append(orders, sp)
		case specification.Pagination:
			page = &sp
		case specification.IncludeDeleted:
			includeDeleted = true
		case specification.FeatureMatcher:
			matchers = append(matchers, sp)
		default:
			return nil, fmt.Errorf("memory: unsupported feature specification %T", spec)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entity.Feature
	for _, f := range s.features {
		if f.IsDeleted && !includeDeleted {
			continue
		}
		if matchAll(f, matchers, specification.FeatureMatcher.MatchFeature) {
			result = append(result, cloneFeature(f))
		}
	}

	slices.SortStableFunc(result, func(a, b *entity.Feature) int {
		for _, o := range orders {
			if c := compareFeatures(a, b, o.Field); c != 0 {
				if o.Desc {
					return -c
				}
				return c
			}
		}
		return strings.Compare(a.Id.String(), b.Id.String())
	})
	return paginate(result, page), nil
}

func (s *Store) findValues(ctx context.Context, specs []specification.Specification) ([]*entity.FeatureValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		matchers []specification.FeatureValueMatcher
		orders   []specification.OrderBy
		page     *specification.Pagination
	)
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.OrderBy:
			orders = append(orders, sp)
		case specification.Pagination:
			page = &sp
		case specification.FeatureValueMatcher:
			matchers = append(matchers, sp)
		default:
			return nil, fmt.Errorf("memory: unsupported feature value specification %T", spec)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entity.FeatureValue
	for _, v := range s.values {
		if matchAll(v, matchers, specification.FeatureValueMatcher.MatchFeatureValue) {
			result = append(result, cloneValue(v))
		}
	}

	slices.SortStableFunc(result, func(a, b *entity.FeatureValue) int {
		for _, o := range orders {
			if c := compareValues(a, b, o.Field); c != 0 {
				if o.Desc {
					return -c
				}
				return c
			}
		}
		return strings.Compare(a.Id.String(), b.Id.String())
	})
	return paginate(result, page), nil
}

func (s *Store) existingKeys(ctx context.Context, organizationId uuid.UUID, keys []entity.FeatureValueKey) ([]entity.FeatureValueKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var existing []entity.FeatureValueKey
	for _, k := range keys {
		id, ok := s.keys[k.String()]
		if !ok || s.values[id].OrganizationId != organizationId {
			continue
		}
		k.Timestamp = entity.NormalizeTimestamp(k.Timestamp)
		existing = append(existing, k)
	}
	return existing, nil
}

func (s *Store) latestAsOf(ctx context.Context, organizationId uuid.UUID, featureIds []uuid.UUID, entityIds []string, asOf time.Time) ([]*entity.FeatureValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	asOf = entity.NormalizeTimestamp(asOf)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*entity.FeatureValue
	for _, featureId := range featureIds {
		for _, entityId := range entityIds {
			series := s.series[seriesKey{organizationId: organizationId, featureId: featureId, entityId: entityId}]
			// First index strictly after asOf; its predecessor is the answer.
			i := sort.Search(len(series), func(i int) bool {
				return series[i].Timestamp.After(asOf)
			})
			if i == 0 {
				continue
			}
			result = append(result, cloneValue(series[i-1]))
		}
	}
	return result, nil
}

func matchAll[T any, M any](item T, matchers []M, match func(M, T) bool) bool {
	for _, m := range matchers {
		if !match(m, item) {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, page *specification.Pagination) []T {
	if page == nil {
		return items
	}
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func compareFeatures(a, b *entity.Feature, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return compareTimePtr(a.UpdatedAt, b.UpdatedAt)
	case "status":
		return strings.Compare(string(a.Status), string(b.Status))
	case "id":
		return strings.Compare(a.Id.String(), b.Id.String())
	}
	return 0
}

func compareValues(a, b *entity.FeatureValue, field string) int {
	switch field {
	case "timestamp":
		return a.Timestamp.Compare(b.Timestamp)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "entity_id":
		return strings.Compare(a.EntityId, b.EntityId)
	case "id":
		return strings.Compare(a.Id.String(), b.Id.String())
	}
	return 0
}

func compareTimePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func seriesKeyOf(v *entity.FeatureValue) seriesKey {
	return seriesKey{organizationId: v.OrganizationId, featureId: v.FeatureId, entityId: v.EntityId}
}

func cloneValue(v *entity.FeatureValue) *entity.FeatureValue {
	c := *v
	c.Value.Raw = append([]byte(nil), v.Value.Raw...)
	if v.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(v.Metadata))
		for k, val := range v.Metadata {
			c.Metadata[k] = val
		}
	}
	return &c
}

func cloneFeature(f *entity.Feature) *entity.Feature {
	c := *f
	c.Tags = append([]string(nil), f.Tags...)
	return &c
}
