package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"feature-store-be/internal/dto"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/specification"
	"feature-store-be/internal/repository/unitofwork"
	"feature-store-be/pkg/events"

	"github.com/google/uuid"
)

type IFeatureService interface {
	Create(ctx context.Context, caller entity.Caller, req *dto.CreateFeatureRequest) (*dto.FeatureResponse, error)
	List(ctx context.Context, caller entity.Caller, req *dto.ListFeaturesRequest) (*dto.PaginatedResponse[*dto.FeatureResponse], error)
	Show(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.FeatureResponse, error)
	Update(ctx context.Context, caller entity.Caller, req *dto.UpdateFeatureRequest) (*dto.FeatureResponse, error)
	Delete(ctx context.Context, caller entity.Caller, id uuid.UUID) error
}

type featureService struct {
	uowFactory       unitofwork.RepositoryFactory
	catalog          IFeatureCatalog
	publisherService IPublisherService
	defaultPageSize  int
	maxPageSize      int
	logger           logger.ILogger
	opts             options
}

func NewFeatureService(
	uowFactory unitofwork.RepositoryFactory,
	catalog IFeatureCatalog,
	publisherService IPublisherService,
	defaultPageSize, maxPageSize int,
	logger logger.ILogger,
	opts ...Option,
) IFeatureService {
	return &featureService{
		uowFactory:       uowFactory,
		catalog:          catalog,
		publisherService: publisherService,
		defaultPageSize:  defaultPageSize,
		maxPageSize:      maxPageSize,
		logger:           logger,
		opts:             buildOptions(opts),
	}
}

func (s *featureService) Create(ctx context.Context, caller entity.Caller, req *dto.CreateFeatureRequest) (*dto.FeatureResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureRepository()

	existing, err := repo.FindOne(ctx,
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
		specification.ByName{Name: name},
	)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("Feature with this name already exists", name)
	}

	feature := entity.Feature{
		Id:             uuid.New(),
		OrganizationId: caller.OrganizationId,
		Name:           name,
		Description:    req.Description,
		DataType:       entity.DataType(req.DataType),
		ServingType:    entity.ServingType(req.ServingType),
		Status:         entity.FeatureStatus(req.Status),
		Owner:          req.Owner,
		Tags:           req.Tags,
		CreatedAt:      s.opts.now(),
		CreatedBy:      caller.UserId,
	}
	if feature.ServingType == "" {
		feature.ServingType = entity.ServingTypeOnline
	}
	if feature.Status == "" {
		feature.Status = entity.FeatureStatusDraft
	}
	if feature.Owner == "" {
		feature.Owner = caller.UserId.String()
	}

	if err := repo.Create(ctx, &feature); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, apperror.Conflict("Feature with this name already exists", name)
		}
		return nil, err
	}

	s.publish(ctx, events.FeatureCreated, &feature)
	s.logger.Info("FeatureService", "Feature created", map[string]interface{}{
		"feature_id":      feature.Id,
		"organization_id": feature.OrganizationId,
		"name":            feature.Name,
	})
	return toFeatureResponse(&feature), nil
}

func (s *featureService) List(ctx context.Context, caller entity.Caller, req *dto.ListFeaturesRequest) (*dto.PaginatedResponse[*dto.FeatureResponse], error) {
	page, limit, err := resolvePage(req.Page, req.Limit, s.defaultPageSize, s.maxPageSize)
	if err != nil {
		return nil, err
	}

	specs := []specification.Specification{
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
	}
	if req.Search != "" {
		specs = append(specs, specification.NameContains{Query: req.Search})
	}
	if req.Status != "" {
		specs = append(specs, specification.ByStatus{Status: entity.FeatureStatus(req.Status)})
	}
	if req.DataType != "" {
		specs = append(specs, specification.ByDataType{DataType: entity.DataType(req.DataType)})
	}
	if req.ServingType != "" {
		specs = append(specs, specification.ByServingType{ServingType: entity.ServingType(req.ServingType)})
	}
	if req.Owner != "" {
		specs = append(specs, specification.ByOwner{Owner: req.Owner})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.FeatureRepository().Count(ctx, specs...)
	if err != nil {
		return nil, err
	}

	query := append(append([]specification.Specification{}, specs...),
		specification.OrderBy{Field: "name"},
		specification.Page(page, limit),
	)
	features, err := uow.FeatureRepository().FindAll(ctx, query...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.FeatureResponse, len(features))
	for i, f := range features {
		items[i] = toFeatureResponse(f)
	}
	return dto.NewPaginatedResponse(items, total, page, limit), nil
}

func (s *featureService) Show(ctx context.Context, caller entity.Caller, id uuid.UUID) (*dto.FeatureResponse, error) {
	feature, err := s.find(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toFeatureResponse(feature), nil
}

func (s *featureService) Update(ctx context.Context, caller entity.Caller, req *dto.UpdateFeatureRequest) (*dto.FeatureResponse, error) {
	feature, err := s.find(ctx, caller, req.Id)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.FeatureRepository()

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		if name != feature.Name {
			clash, err := repo.FindOne(ctx,
				specification.ByOrganization{OrganizationID: caller.OrganizationId},
				specification.ByName{Name: name},
			)
			if err != nil {
				return nil, err
			}
			if clash != nil {
				return nil, apperror.Conflict("Feature with this name already exists", name)
			}
			feature.Name = name
		}
	}
	if req.Description != nil {
		feature.Description = *req.Description
	}
	if req.ServingType != nil {
		feature.ServingType = entity.ServingType(*req.ServingType)
	}
	if req.Status != nil {
		feature.Status = entity.FeatureStatus(*req.Status)
	}
	if req.Owner != nil {
		feature.Owner = *req.Owner
	}
	if req.Tags != nil {
		feature.Tags = req.Tags
	}

	now := s.opts.now()
	userId := caller.UserId
	feature.UpdatedAt = &now
	feature.UpdatedBy = &userId

	if err := repo.Update(ctx, feature); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, apperror.Conflict("Feature with this name already exists", feature.Name)
		}
		if errors.Is(err, contract.ErrNotFound) {
			return nil, apperror.NotFound("Feature not found")
		}
		return nil, err
	}

	s.catalog.Invalidate(feature.OrganizationId, feature.Id)
	s.publish(ctx, events.FeatureUpdated, feature)
	return toFeatureResponse(feature), nil
}

// Delete soft-deletes the feature. Its values stay readable but no new values
// can be written or served for it.
func (s *featureService) Delete(ctx context.Context, caller entity.Caller, id uuid.UUID) error {
	feature, err := s.find(ctx, caller, id)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.FeatureRepository().Delete(ctx, feature.Id); err != nil {
		return err
	}

	s.catalog.Invalidate(feature.OrganizationId, feature.Id)
	s.publish(ctx, events.FeatureDeleted, feature)
	s.logger.Info("FeatureService", "Feature deleted", map[string]interface{}{
		"feature_id":      feature.Id,
		"organization_id": feature.OrganizationId,
	})
	return nil
}

func (s *featureService) find(ctx context.Context, caller entity.Caller, id uuid.UUID) (*entity.Feature, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	feature, err := uow.FeatureRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByOrganization{OrganizationID: caller.OrganizationId},
	)
	if err != nil {
		return nil, err
	}
	if feature == nil {
		return nil, apperror.NotFound("Feature not found")
	}
	return feature, nil
}

// publish is best effort: the catalog write already happened.
func (s *featureService) publish(ctx context.Context, eventType string, feature *entity.Feature) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.FeatureEventMessage{
		Type:           eventType,
		OrganizationId: feature.OrganizationId,
		FeatureId:      feature.Id,
		OccurredAt:     s.opts.now(),
	})
	if err == nil {
		err = s.publisherService.SendMessage(ctx, payload)
	}
	if err != nil {
		s.logger.Warn("FeatureService", "Failed to publish catalog event", map[string]interface{}{
			"type":       eventType,
			"feature_id": feature.Id,
			"error":      err.Error(),
		})
	}
}

func toFeatureResponse(f *entity.Feature) *dto.FeatureResponse {
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.FeatureResponse{
		Id:             f.Id,
		OrganizationId: f.OrganizationId,
		Name:           f.Name,
		Description:    f.Description,
		DataType:       string(f.DataType),
		ServingType:    string(f.ServingType),
		Status:         string(f.Status),
		Owner:          f.Owner,
		Tags:           tags,
		CreatedAt:      f.CreatedAt,
		CreatedBy:      f.CreatedBy,
		UpdatedAt:      f.UpdatedAt,
		UpdatedBy:      f.UpdatedBy,
	}
}

// resolvePage applies the default page size and rejects out-of-range values.
func resolvePage(page, limit, defaultSize, maxSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultSize
	}
	if page < 1 {
		return 0, 0, apperror.Validation("page must be greater than or equal to 1")
	}
	if limit < 1 || limit > maxSize {
		return 0, 0, apperror.Validation("limit must be between 1 and " + strconv.Itoa(maxSize))
	}
	return page, limit, nil
}
