package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feature-store-be/internal/config"
	"feature-store-be/internal/dto"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/specification"
	"feature-store-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const maxEntityIdLength = 255

type IFeatureValueService interface {
	Create(ctx context.Context, caller entity.Caller, req *dto.CreateFeatureValueRequest) (*dto.FeatureValueResponse, error)
	CreateBatch(ctx context.Context, caller entity.Caller, req *dto.BatchCreateFeatureValuesRequest) (*dto.BatchCreateFeatureValuesResponse, error)
	List(ctx context.Context, caller entity.Caller, req *dto.ListFeatureValuesRequest) (*dto.PaginatedResponse[*dto.FeatureValueResponse], error)
	Show(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.FeatureValueResponse, error)
	Update(ctx context.Context, caller entity.Caller, req *dto.UpdateFeatureValueRequest) (*dto.FeatureValueResponse, error)
	Delete(ctx context.Context, caller entity.Caller, id uuid.UUID) error
	Serve(ctx context.Context, caller entity.Caller, req *dto.ServeFeaturesRequest) ([]*dto.ServeFeaturesResponse, error)
	Stats(ctx context.Context, caller entity.Caller, req *dto.FeatureValueStatsRequest) (*dto.FeatureValueStatsResponse, error)
}

type featureValueService struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    IFeatureCatalog
	limits     config.ServingConfig
	logger     logger.ILogger
	opts       options
}

func NewFeatureValueService(
	uowFactory unitofwork.RepositoryFactory,
	catalog IFeatureCatalog,
	limits config.ServingConfig,
	logger logger.ILogger,
	opts ...Option,
) IFeatureValueService {
	return &featureValueService{
		uowFactory: uowFactory,
		catalog:    catalog,
		limits:     limits,
		logger:     logger,
		opts:       buildOptions(opts),
	}
}

func (s *featureValueService) Create(ctx context.Context, caller entity.Caller, req *dto.CreateFeatureValueRequest) (*dto.FeatureValueResponse, error) {
	feature, err := s.catalog.Get(ctx, caller.OrganizationId, req.FeatureId, false)
	if err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, apperror.NotFound("Feature not found")
	}

	value, err := s.buildValue(caller, feature, req, s.opts.now())
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureValueRepository()

	existing, err := repo.FindExistingKeys(ctx, caller.OrganizationId, []entity.FeatureValueKey{value.Key()})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, duplicateValueError(value.Key())
	}

	if err := repo.Create(ctx, value); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, duplicateValueError(value.Key())
		}
		return nil, err
	}

	s.logger.Debug("FeatureValueService", "Feature value created", map[string]interface{}{
		"id":              value.Id,
		"feature_id":      value.FeatureId,
		"organization_id": value.OrganizationId,
	})
	return toFeatureValueResponse(value), nil
}

func (s *featureValueService) CreateBatch(ctx context.Context, caller entity.Caller, req *dto.BatchCreateFeatureValuesRequest) (*dto.BatchCreateFeatureValuesResponse, error) {
	n := len(req.Values)
	if n == 0 {
		return nil, apperror.Validation("values must contain at least one feature value")
	}
	if n > s.limits.MaxBatchSize {
		return nil, apperror.Validation(fmt.Sprintf("batch size %d exceeds the maximum of %d", n, s.limits.MaxBatchSize))
	}

	// Reject duplicates inside the request before touching storage.
	seen := make(map[string]bool, n)
	featureIds := make([]uuid.UUID, 0)
	featureSeen := make(map[uuid.UUID]bool)
	for i, item := range req.Values {
		if item.Timestamp == nil {
			return nil, apperror.Validation(fmt.Sprintf("values[%d]: timestamp is required", i))
		}
		key := entity.FeatureValueKey{
			FeatureId: item.FeatureId,
			EntityId:  strings.TrimSpace(item.EntityId),
			Timestamp: *item.Timestamp,
		}
		if seen[key.String()] {
			return nil, apperror.Conflict(fmt.Sprintf("Duplicate feature values in batch at values[%d]", i), key.String())
		}
		seen[key.String()] = true

		if !featureSeen[item.FeatureId] {
			featureSeen[item.FeatureId] = true
			featureIds = append(featureIds, item.FeatureId)
		}
	}

	features, err := s.catalog.Resolve(ctx, caller.OrganizationId, featureIds)
	if err != nil {
		return nil, err
	}
	if len(features) != len(featureIds) {
		return nil, apperror.NotFound("One or more features not found")
	}

	now := s.opts.now()
	values := make([]*entity.FeatureValue, n)
	keys := make([]entity.FeatureValueKey, n)
	for i := range req.Values {
		value, err := s.buildValue(caller, features[req.Values[i].FeatureId], &req.Values[i], now)
		if err != nil {
			var appErr *apperror.Error
			if errors.As(err, &appErr) {
				return nil, apperror.Validation(fmt.Sprintf("values[%d]: %s", i, appErr.Message), appErr.Details...)
			}
			return nil, err
		}
		values[i] = value
		keys[i] = value.Key()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.FeatureValueRepository().FindExistingKeys(ctx, caller.OrganizationId, keys)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		taken := make(map[string]bool, len(existing))
		for _, k := range existing {
			taken[k.String()] = true
		}
		details := make([]string, 0, len(existing))
		for _, k := range keys {
			if taken[k.String()] {
				details = append(details, k.String())
			}
		}
		return nil, apperror.Conflict(fmt.Sprintf("%d feature values already exist", len(details)), details...)
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.FeatureValueRepository().CreateBatch(ctx, values); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, apperror.Conflict("Batch conflicts with existing feature values")
		}
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, apperror.Conflict("Batch conflicts with existing feature values")
		}
		return nil, err
	}

	s.logger.Info("FeatureValueService", "Feature value batch created", map[string]interface{}{
		"organization_id": caller.OrganizationId,
		"count":           n,
	})

	res := &dto.BatchCreateFeatureValuesResponse{
		CreatedCount: n,
		Values:       make([]*dto.FeatureValueResponse, n),
	}
	for i, v := range values {
		res.Values[i] = toFeatureValueResponse(v)
	}
	return res, nil
}

func (s *featureValueService) List(ctx context.Context, caller entity.Caller, req *dto.ListFeatureValuesRequest) (*dto.PaginatedResponse[*dto.FeatureValueResponse], error) {
	page, limit, err := resolvePage(req.Page, req.Limit, s.limits.DefaultPageSize, s.limits.MaxPageSize)
	if err != nil {
		return nil, err
	}
	if err := checkRange(req.StartTimestamp, req.EndTimestamp); err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
	}
	if req.FeatureId != nil {
		specs = append(specs, specification.ByFeatureID{FeatureID: *req.FeatureId})
	}
	if req.EntityId != "" {
		specs = append(specs, specification.ByEntityID{EntityID: req.EntityId})
	}
	specs = append(specs, rangeSpecs(req.StartTimestamp, req.EndTimestamp)...)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureValueRepository()

	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	query := append(append([]specification.Specification{}, specs...),
		specification.OrderBy{Field: "timestamp", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Page(page, limit),
	)
	values, err := repo.FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.FeatureValueResponse, len(values))
	for i, v := range values {
		items[i] = toFeatureValueResponse(v)
	}
	return dto.NewPaginatedResponse(items, total, page, limit), nil
}

func (s *featureValueService) Show(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.FeatureValueResponse, error) {
	value, err := s.find(ctx, s.uowFactory.NewUnitOfWork(ctx), caller, id)
	if err != nil {
		return nil, err
	}
	return toFeatureValueResponse(value), nil
}

func (s *featureValueService) Update(ctx context.Context, caller entity.Caller, req *dto.UpdateFeatureValueRequest) (*dto.FeatureValueResponse, error) {
	var immutable []string
	if req.FeatureId != nil {
		immutable = append(immutable, "feature_id")
	}
	if req.EntityId != nil {
		immutable = append(immutable, "entity_id")
	}
	if req.Timestamp != nil {
		immutable = append(immutable, "timestamp")
	}
	if len(immutable) > 0 {
		return nil, apperror.Validation("Key fields of a feature value cannot be changed", immutable...)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	value, err := s.find(ctx, uow, caller, req.Id)
	if err != nil {
		return nil, err
	}

	switch {
	case len(req.Value) > 0:
		parsed, err := entity.ParseValue(req.Value, entity.ValueType(req.ValueType))
		if err != nil {
			return nil, apperror.Validation(err.Error())
		}
		// The feature may have been soft-deleted since; its data type still applies.
		feature, err := s.catalog.Get(ctx, caller.OrganizationId, value.FeatureId, true)
		if err != nil {
			return nil, err
		}
		if feature == nil {
			return nil, apperror.NotFound("Feature not found")
		}
		accepted, ok := feature.DataType.Accepts(parsed)
		if !ok {
			return nil, incompatibleValueError(accepted, feature)
		}
		value.Value = accepted
	case req.ValueType != "" && entity.ValueType(req.ValueType) != value.Value.Type:
		return nil, apperror.Validation("value_type can only be changed together with value")
	}

	if req.Metadata != nil {
		value.Metadata = req.Metadata
	}

	now := s.opts.now()
	userId := caller.UserId
	value.UpdatedAt = &now
	value.UpdatedBy = &userId

	if err := uow.FeatureValueRepository().Update(ctx, value); err != nil {
		if errors.Is(err, contract.ErrNotFound) {
			return nil, apperror.NotFound("Feature value not found")
		}
		return nil, err
	}
	return toFeatureValueResponse(value), nil
}

func (s *featureValueService) Delete(ctx context.Context, caller entity.Caller, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	value, err := s.find(ctx, uow, caller, id)
	if err != nil {
		return err
	}
	if err := uow.FeatureValueRepository().Delete(ctx, value.Id); err != nil {
		return err
	}

	s.logger.Debug("FeatureValueService", "Feature value deleted", map[string]interface{}{
		"id":              value.Id,
		"organization_id": caller.OrganizationId,
	})
	return nil
}

func (s *featureValueService) Serve(ctx context.Context, caller entity.Caller, req *dto.ServeFeaturesRequest) ([]*dto.ServeFeaturesResponse, error) {
	featureIds := distinctUUIDs(req.FeatureIds)
	entityIds, err := distinctEntityIds(req.EntityIds)
	if err != nil {
		return nil, err
	}

	if len(featureIds) == 0 {
		return nil, apperror.Validation("feature_ids must contain at least one feature id")
	}
	if len(featureIds) > s.limits.MaxServeFeatures {
		return nil, apperror.Validation(fmt.Sprintf("feature_ids must contain at most %d ids", s.limits.MaxServeFeatures))
	}
	if len(entityIds) == 0 {
		return nil, apperror.Validation("entity_ids must contain at least one entity id")
	}
	if len(entityIds) > s.limits.MaxServeEntities {
		return nil, apperror.Validation(fmt.Sprintf("entity_ids must contain at most %d ids", s.limits.MaxServeEntities))
	}

	now := s.opts.now()
	asOf := now
	if req.Timestamp != nil {
		asOf = *req.Timestamp
		if asOf.After(now) {
			return nil, apperror.Validation("timestamp cannot be in the future")
		}
	}
	asOf = entity.NormalizeTimestamp(asOf)

	if s.limits.ServeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.ServeTimeout)
		defer cancel()
	}

	features, err := s.catalog.Resolve(ctx, caller.OrganizationId, featureIds)
	if err != nil {
		return nil, serveError(ctx, err)
	}
	if len(features) != len(featureIds) {
		return nil, apperror.NotFound("One or more features not found")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	latest, err := uow.FeatureValueRepository().FindLatestAsOf(ctx, caller.OrganizationId, featureIds, entityIds, asOf)
	if err != nil {
		return nil, serveError(ctx, err)
	}

	byEntity := make(map[string]map[uuid.UUID]*entity.FeatureValue, len(entityIds))
	for _, v := range latest {
		if byEntity[v.EntityId] == nil {
			byEntity[v.EntityId] = make(map[uuid.UUID]*entity.FeatureValue)
		}
		byEntity[v.EntityId][v.FeatureId] = v
	}

	result := make([]*dto.ServeFeaturesResponse, len(entityIds))
	for i, entityId := range entityIds {
		served := make(map[string]*dto.ServedFeatureValue, len(featureIds))
		for _, featureId := range featureIds {
			var item *dto.ServedFeatureValue
			if v, ok := byEntity[entityId][featureId]; ok {
				item = &dto.ServedFeatureValue{
					Value:     v.Value.Raw,
					ValueType: string(v.Value.Type),
					Timestamp: v.Timestamp,
					Metadata:  v.Metadata,
				}
			}
			served[featureId.String()] = item
		}
		result[i] = &dto.ServeFeaturesResponse{
			EntityId:  entityId,
			Features:  served,
			Timestamp: asOf,
		}
	}
	return result, nil
}

func (s *featureValueService) Stats(ctx context.Context, caller entity.Caller, req *dto.FeatureValueStatsRequest) (*dto.FeatureValueStatsResponse, error) {
	if err := checkRange(req.StartTimestamp, req.EndTimestamp); err != nil {
		return nil, err
	}

	feature, err := s.catalog.Get(ctx, caller.OrganizationId, req.FeatureId, false)
	if err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, apperror.NotFound("Feature not found")
	}

	specs := []specification.Specification{
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
		specification.ByFeatureID{FeatureID: feature.Id},
	}
	specs = append(specs, rangeSpecs(req.StartTimestamp, req.EndTimestamp)...)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	values, err := uow.FeatureValueRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	res := &dto.FeatureValueStatsResponse{
		FeatureId:   feature.Id,
		TotalValues: int64(len(values)),
	}
	if len(values) == 0 {
		return res, nil
	}

	entities := make(map[string]struct{})
	dateRange := &dto.DateRange{Start: values[0].Timestamp, End: values[0].Timestamp}
	for _, v := range values {
		entities[v.EntityId] = struct{}{}
		if v.Timestamp.Before(dateRange.Start) {
			dateRange.Start = v.Timestamp
		}
		if v.Timestamp.After(dateRange.End) {
			dateRange.End = v.Timestamp
		}
	}
	res.UniqueEntities = len(entities)
	res.DateRange = dateRange
	res.ValueStats = numericStats(values)
	return res, nil
}

// numericStats returns nil as soon as one value does not coerce to a number.
func numericStats(values []*entity.FeatureValue) *dto.ValueStats {
	stats := &dto.ValueStats{}
	var sum float64
	for _, v := range values {
		if v.Value.IsZero() {
			stats.NullCount++
			continue
		}
		f, ok := v.Value.Float()
		if !ok {
			return nil
		}
		if stats.Count == 0 || f < stats.Min {
			stats.Min = f
		}
		if stats.Count == 0 || f > stats.Max {
			stats.Max = f
		}
		sum += f
		stats.Count++
	}
	if stats.Count == 0 {
		return nil
	}
	stats.Mean = sum / float64(stats.Count)
	return stats
}

func (s *featureValueService) buildValue(caller entity.Caller, feature *entity.Feature, req *dto.CreateFeatureValueRequest, now time.Time) (*entity.FeatureValue, error) {
	entityId := strings.TrimSpace(req.EntityId)
	if entityId == "" {
		return nil, apperror.Validation("entity_id must not be empty")
	}
	if len(entityId) > maxEntityIdLength {
		return nil, apperror.Validation(fmt.Sprintf("entity_id must be at most %d characters", maxEntityIdLength))
	}
	if req.Timestamp == nil {
		return nil, apperror.Validation("timestamp is required")
	}
	if req.Timestamp.After(now) {
		return nil, apperror.Validation("timestamp cannot be in the future")
	}

	parsed, err := entity.ParseValue(req.Value, entity.ValueType(req.ValueType))
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	value, ok := feature.DataType.Accepts(parsed)
	if !ok {
		return nil, incompatibleValueError(value, feature)
	}

	return &entity.FeatureValue{
		Id:             uuid.New(),
		OrganizationId: caller.OrganizationId,
		FeatureId:      feature.Id,
		EntityId:       entityId,
		Value:          value,
		Timestamp:      entity.NormalizeTimestamp(*req.Timestamp),
		Metadata:       req.Metadata,
		CreatedAt:      now,
		CreatedBy:      caller.UserId,
	}, nil
}

func (s *featureValueService) find(ctx context.Context, uow unitofwork.UnitOfWork, caller entity.Caller, id uuid.UUID) (*entity.FeatureValue, error) {
	value, err := uow.FeatureValueRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
	)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, apperror.NotFound("Feature value not found")
	}
	return value, nil
}

func toFeatureValueResponse(v *entity.FeatureValue) *dto.FeatureValueResponse {
	return &dto.FeatureValueResponse{
		Id:             v.Id,
		OrganizationId: v.OrganizationId,
		FeatureId:      v.FeatureId,
		EntityId:       v.EntityId,
		Value:          v.Value.Raw,
		ValueType:      string(v.Value.Type),
		Timestamp:      v.Timestamp,
		Metadata:       v.Metadata,
		CreatedAt:      v.CreatedAt,
		CreatedBy:      v.CreatedBy,
		UpdatedAt:      v.UpdatedAt,
		UpdatedBy:      v.UpdatedBy,
	}
}

func duplicateValueError(key entity.FeatureValueKey) error {
	return apperror.Conflict("Feature value already exists for this feature, entity and timestamp", key.String())
}

func incompatibleValueError(v entity.Value, feature *entity.Feature) error {
	return apperror.Validation(fmt.Sprintf("value of type %s is not compatible with feature data type %s", v.Type, feature.DataType))
}

func serveError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Timeout("Feature serving timed out", err)
	}
	return err
}

func checkRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return apperror.Validation("start_timestamp must be before or equal to end_timestamp")
	}
	return nil
}

func rangeSpecs(start, end *time.Time) []specification.Specification {
	var specs []specification.Specification
	if start != nil {
		specs = append(specs, specification.TimestampFrom{From: *start})
	}
	if end != nil {
		specs = append(specs, specification.TimestampTo{To: *end})
	}
	return specs
}

func distinctUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func distinctEntityIds(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, apperror.Validation("entity_ids must not contain empty ids")
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}
