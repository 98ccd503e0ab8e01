package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"feature-store-be/internal/config"
	"feature-store-be/internal/dto"
	"feature-store-be/internal/entity"
	"feature-store-be/internal/pkg/apperror"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/internal/repository/specification"
	"feature-store-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	caller   entity.Caller
	features IFeatureService
	values   IFeatureValueService
	catalog  IFeatureCatalog
	factory  unitofwork.RepositoryFactory
}

func testLimits() config.ServingConfig {
	return config.ServingConfig{
		MaxBatchSize:     10,
		MaxServeFeatures: 5,
		MaxServeEntities: 5,
		ServeTimeout:     time.Second,
		DefaultPageSize:  50,
		MaxPageSize:      100,
	}
}

func newFixture(t *testing.T, limits config.ServingConfig) *fixture {
	t.Helper()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	catalog := NewFeatureCatalog(factory, memory.NewFeatureCache(0))
	clock := WithClock(func() time.Time { return testNow })

	return &fixture{
		ctx:      context.Background(),
		caller:   entity.Caller{UserId: uuid.New(), OrganizationId: uuid.New()},
		features: NewFeatureService(factory, catalog, nil, limits.DefaultPageSize, limits.MaxPageSize, logger.NewNopLogger(), clock),
		values:   NewFeatureValueService(factory, catalog, limits, logger.NewNopLogger(), clock),
		catalog:  catalog,
		factory:  factory,
	}
}

func (f *fixture) createFeature(t *testing.T, name string, dataType entity.DataType) uuid.UUID {
	t.Helper()
	res, err := f.features.Create(f.ctx, f.caller, &dto.CreateFeatureRequest{Name: name, DataType: string(dataType)})
	require.NoError(t, err)
	return res.Id
}

func valueReq(featureId uuid.UUID, entityId, raw string, ts time.Time) dto.CreateFeatureValueRequest {
	return dto.CreateFeatureValueRequest{
		FeatureId: featureId,
		EntityId:  entityId,
		Value:     json.RawMessage(raw),
		Timestamp: &ts,
	}
}

func (f *fixture) createValue(t *testing.T, featureId uuid.UUID, entityId, raw string, ts time.Time) *dto.FeatureValueResponse {
	t.Helper()
	req := valueReq(featureId, entityId, raw, ts)
	res, err := f.values.Create(f.ctx, f.caller, &req)
	require.NoError(t, err)
	return res
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestFeatureValueService_ServePointInTime(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	tier := f.createFeature(t, "tier", entity.DataTypeString)

	f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))
	f.createValue(t, age, "user_1", `26`, day(2024, 6, 1))
	f.createValue(t, tier, "user_1", `"gold"`, day(2024, 2, 1))

	tests := []struct {
		name     string
		asOf     *time.Time
		wantAge  string
		wantTier string
	}{
		{name: "defaults to now", asOf: nil, wantAge: `26`, wantTier: `"gold"`},
		{name: "between observations", asOf: timePtr(day(2024, 3, 1)), wantAge: `25`, wantTier: `"gold"`},
		{name: "exactly at an observation", asOf: timePtr(day(2024, 6, 1)), wantAge: `26`, wantTier: `"gold"`},
		{name: "before tier existed", asOf: timePtr(day(2024, 1, 15)), wantAge: `25`},
		{name: "before anything existed", asOf: timePtr(day(2023, 12, 31))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.values.Serve(f.ctx, f.caller, &dto.ServeFeaturesRequest{
				FeatureIds: []uuid.UUID{age, tier},
				EntityIds:  []string{"user_1"},
				Timestamp:  tt.asOf,
			})
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, "user_1", res[0].EntityId)
			assertServed(t, res[0].Features, age, tt.wantAge)
			assertServed(t, res[0].Features, tier, tt.wantTier)
		})
	}
}

func assertServed(t *testing.T, served map[string]*dto.ServedFeatureValue, featureId uuid.UUID, want string) {
	t.Helper()
	got, ok := served[featureId.String()]
	require.True(t, ok, "every requested feature is present")
	if want == "" {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.Equal(t, want, string(got.Value))
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestFeatureValueService_ServeShapesResponse(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	f.createValue(t, age, "user_2", `40`, day(2024, 1, 1))

	res, err := f.values.Serve(f.ctx, f.caller, &dto.ServeFeaturesRequest{
		FeatureIds: []uuid.UUID{age, age},
		EntityIds:  []string{"user_1", " user_2 ", "user_1"},
		Timestamp:  timePtr(day(2024, 5, 1)),
	})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "user_1", res[0].EntityId)
	assert.Nil(t, res[0].Features[age.String()])
	assert.Equal(t, "user_2", res[1].EntityId)
	assert.Equal(t, `40`, string(res[1].Features[age.String()].Value))
	assert.True(t, res[1].Timestamp.Equal(day(2024, 5, 1)))
}

func TestFeatureValueService_ServeRejectsBadRequests(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)

	tests := []struct {
		name string
		req  dto.ServeFeaturesRequest
		kind apperror.Kind
	}{
		{"no features", dto.ServeFeaturesRequest{EntityIds: []string{"u"}}, apperror.KindValidation},
		{"no entities", dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}}, apperror.KindValidation},
		{"blank entity", dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}, EntityIds: []string{"  "}}, apperror.KindValidation},
		{"too many entities", dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}, EntityIds: []string{"a", "b", "c", "d", "e", "f"}}, apperror.KindValidation},
		{"future timestamp", dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}, EntityIds: []string{"u"}, Timestamp: timePtr(testNow.Add(time.Hour))}, apperror.KindValidation},
		{"unknown feature", dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age, uuid.New()}, EntityIds: []string{"u"}}, apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.values.Serve(f.ctx, f.caller, &tt.req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

func TestFeatureValueService_ServeTimesOut(t *testing.T) {
	limits := testLimits()
	limits.ServeTimeout = time.Nanosecond
	f := newFixture(t, limits)
	age := f.createFeature(t, "age", entity.DataTypeInteger)

	_, err := f.values.Serve(f.ctx, f.caller, &dto.ServeFeaturesRequest{
		FeatureIds: []uuid.UUID{age},
		EntityIds:  []string{"user_1"},
	})
	assert.Equal(t, apperror.KindTimeout, apperror.KindOf(err))
}

func TestFeatureValueService_Create(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	score := f.createFeature(t, "score", entity.DataTypeFloat)

	t.Run("stores normalized timestamp and audit fields", func(t *testing.T) {
		ts := time.Date(2024, 1, 1, 3, 0, 0, 123456789, time.FixedZone("UTC+3", 3*3600))
		res := f.createValue(t, age, " user_1 ", `25`, ts)

		assert.Equal(t, "user_1", res.EntityId)
		assert.Equal(t, "integer", res.ValueType)
		assert.Equal(t, time.UTC, res.Timestamp.Location())
		assert.True(t, res.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 123456000, time.UTC)))
		assert.Equal(t, f.caller.UserId, res.CreatedBy)
		assert.Equal(t, testNow, res.CreatedAt)
		assert.Nil(t, res.UpdatedAt)
	})

	t.Run("integer widens for float features", func(t *testing.T) {
		res := f.createValue(t, score, "user_1", `7`, day(2024, 1, 1))
		assert.Equal(t, "float", res.ValueType)
		assert.Equal(t, `7`, string(res.Value))
	})

	tests := []struct {
		name string
		req  dto.CreateFeatureValueRequest
		kind apperror.Kind
	}{
		{"duplicate key", valueReq(age, "user_1", `30`, time.Date(2024, 1, 1, 0, 0, 0, 123456000, time.UTC)), apperror.KindConflict},
		{"type mismatch", valueReq(age, "user_2", `"old"`, day(2024, 1, 1)), apperror.KindValidation},
		{"future timestamp", valueReq(age, "user_2", `1`, testNow.Add(time.Minute)), apperror.KindValidation},
		{"blank entity", valueReq(age, "   ", `1`, day(2024, 1, 1)), apperror.KindValidation},
		{"null value", valueReq(age, "user_2", `null`, day(2024, 1, 1)), apperror.KindValidation},
		{"unknown feature", valueReq(uuid.New(), "user_2", `1`, day(2024, 1, 1)), apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.values.Create(f.ctx, f.caller, &tt.req)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	t.Run("declared value_type must match", func(t *testing.T) {
		req := valueReq(age, "user_3", `1.5`, day(2024, 1, 1))
		req.ValueType = "integer"
		_, err := f.values.Create(f.ctx, f.caller, &req)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestFeatureValueService_CreateBatch(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	tier := f.createFeature(t, "tier", entity.DataTypeString)

	countValues := func() int64 {
		res, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{})
		require.NoError(t, err)
		return res.Total
	}

	t.Run("creates all values in order", func(t *testing.T) {
		res, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{
			Values: []dto.CreateFeatureValueRequest{
				valueReq(age, "user_1", `25`, day(2024, 1, 1)),
				valueReq(tier, "user_1", `"gold"`, day(2024, 1, 1)),
				valueReq(age, "user_2", `31`, day(2024, 1, 1)),
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 3, res.CreatedCount)
		require.Len(t, res.Values, 3)
		assert.Equal(t, "user_2", res.Values[2].EntityId)
		assert.Equal(t, int64(3), countValues())
	})

	t.Run("duplicate inside the batch stores nothing", func(t *testing.T) {
		_, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{
			Values: []dto.CreateFeatureValueRequest{
				valueReq(age, "user_9", `1`, day(2024, 2, 1)),
				valueReq(age, "user_9", `2`, day(2024, 2, 1)),
			},
		})
		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.KindConflict, appErr.Kind)
		assert.Equal(t, []string{entity.FeatureValueKey{FeatureId: age, EntityId: "user_9", Timestamp: day(2024, 2, 1)}.String()}, appErr.Details)
		assert.Contains(t, appErr.Message, "values[1]")
		assert.Equal(t, int64(3), countValues())
	})

	t.Run("conflict with stored values stores nothing", func(t *testing.T) {
		_, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{
			Values: []dto.CreateFeatureValueRequest{
				valueReq(age, "user_3", `50`, day(2024, 1, 1)),
				valueReq(age, "user_1", `26`, day(2024, 1, 1)),
			},
		})
		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.KindConflict, appErr.Kind)
		assert.Equal(t, []string{entity.FeatureValueKey{FeatureId: age, EntityId: "user_1", Timestamp: day(2024, 1, 1)}.String()}, appErr.Details)
		assert.Equal(t, int64(3), countValues())
	})

	t.Run("invalid item is reported by index", func(t *testing.T) {
		_, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{
			Values: []dto.CreateFeatureValueRequest{
				valueReq(age, "user_4", `1`, day(2024, 1, 1)),
				valueReq(age, "user_4", `"x"`, day(2024, 1, 2)),
			},
		})
		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.KindValidation, appErr.Kind)
		assert.Contains(t, appErr.Message, "values[1]")
		assert.Equal(t, int64(3), countValues())
	})

	t.Run("unknown feature", func(t *testing.T) {
		_, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{
			Values: []dto.CreateFeatureValueRequest{valueReq(uuid.New(), "user_1", `1`, day(2024, 1, 1))},
		})
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("size limits", func(t *testing.T) {
		_, err := f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		items := make([]dto.CreateFeatureValueRequest, 11)
		for i := range items {
			items[i] = valueReq(age, "bulk", `1`, day(2024, 1, i+1))
		}
		_, err = f.values.CreateBatch(f.ctx, f.caller, &dto.BatchCreateFeatureValuesRequest{Values: items})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestFeatureValueService_TenantIsolation(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	value := f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))

	other := entity.Caller{UserId: uuid.New(), OrganizationId: uuid.New()}

	_, err := f.values.Show(f.ctx, other, value.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	err = f.values.Delete(f.ctx, other, value.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.values.Serve(f.ctx, other, &dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}, EntityIds: []string{"user_1"}})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	req := valueReq(age, "user_1", `99`, day(2024, 2, 1))
	_, err = f.values.Create(f.ctx, other, &req)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	list, err := f.values.List(f.ctx, other, &dto.ListFeatureValuesRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	_, err = f.values.Show(f.ctx, f.caller, value.Id)
	assert.NoError(t, err)
}

func TestFeatureValueService_DeletedFeature(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	value := f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))

	require.NoError(t, f.features.Delete(f.ctx, f.caller, age))

	req := valueReq(age, "user_1", `26`, day(2024, 2, 1))
	_, err := f.values.Create(f.ctx, f.caller, &req)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.values.Serve(f.ctx, f.caller, &dto.ServeFeaturesRequest{FeatureIds: []uuid.UUID{age}, EntityIds: []string{"user_1"}})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.values.Stats(f.ctx, f.caller, &dto.FeatureValueStatsRequest{FeatureId: age})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	// Existing values remain readable and editable.
	_, err = f.values.Show(f.ctx, f.caller, value.Id)
	require.NoError(t, err)

	updated, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{Id: value.Id, Value: json.RawMessage(`27`)})
	require.NoError(t, err)
	assert.Equal(t, `27`, string(updated.Value))

	require.NoError(t, f.values.Delete(f.ctx, f.caller, value.Id))
}

func TestFeatureValueService_Update(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	value := f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))

	t.Run("rejects key fields", func(t *testing.T) {
		entityId := "user_2"
		_, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{
			Id:        value.Id,
			EntityId:  &entityId,
			Timestamp: timePtr(day(2024, 2, 1)),
		})
		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.KindValidation, appErr.Kind)
		assert.Equal(t, []string{"entity_id", "timestamp"}, appErr.Details)
	})

	t.Run("rejects value_type without value", func(t *testing.T) {
		_, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{Id: value.Id, ValueType: "string"})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("rejects incompatible value", func(t *testing.T) {
		_, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{Id: value.Id, Value: json.RawMessage(`"x"`)})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("replaces value and metadata", func(t *testing.T) {
		res, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{
			Id:       value.Id,
			Value:    json.RawMessage(`30`),
			Metadata: map[string]interface{}{"source": "backfill"},
		})
		require.NoError(t, err)
		assert.Equal(t, `30`, string(res.Value))
		assert.Equal(t, "backfill", res.Metadata["source"])
		require.NotNil(t, res.UpdatedAt)
		assert.Equal(t, testNow, *res.UpdatedAt)
		assert.Equal(t, f.caller.UserId, *res.UpdatedBy)
		assert.True(t, res.Timestamp.Equal(day(2024, 1, 1)))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.values.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{Id: uuid.New(), Value: json.RawMessage(`1`)})
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})
}

// deleteAfterRead removes every value right after it is loaded, as a
// concurrent DELETE landing between a read and the following write would.
type deleteAfterRead struct {
	unitofwork.RepositoryFactory
}

func (f deleteAfterRead) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return deleteAfterReadUoW{UnitOfWork: f.RepositoryFactory.NewUnitOfWork(ctx), factory: f.RepositoryFactory}
}

type deleteAfterReadUoW struct {
	unitofwork.UnitOfWork
	factory unitofwork.RepositoryFactory
}

func (u deleteAfterReadUoW) FeatureValueRepository() contract.FeatureValueRepository {
	return deleteAfterReadRepo{FeatureValueRepository: u.UnitOfWork.FeatureValueRepository(), factory: u.factory}
}

type deleteAfterReadRepo struct {
	contract.FeatureValueRepository
	factory unitofwork.RepositoryFactory
}

func (r deleteAfterReadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FeatureValue, error) {
	value, err := r.FeatureValueRepository.FindOne(ctx, specs...)
	if value != nil {
		if delErr := r.factory.NewUnitOfWork(ctx).FeatureValueRepository().Delete(ctx, value.Id); delErr != nil {
			return nil, delErr
		}
	}
	return value, err
}

func TestFeatureValueService_UpdateOfConcurrentlyDeletedValue(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	value := f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))

	racing := NewFeatureValueService(deleteAfterRead{f.factory}, f.catalog, testLimits(), logger.NewNopLogger(), WithClock(func() time.Time { return testNow }))
	_, err := racing.Update(f.ctx, f.caller, &dto.UpdateFeatureValueRequest{Id: value.Id, Value: json.RawMessage(`30`)})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	// The deleted row stays deleted.
	_, err = f.values.Show(f.ctx, f.caller, value.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestFeatureValueService_ConcurrentCreatesOfOneKey(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)

	const writers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		kinds     []apperror.Kind
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := valueReq(age, "user_1", `25`, day(2024, 1, 1))
			_, err := f.values.Create(f.ctx, f.caller, &req)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			kinds = append(kinds, apperror.KindOf(err))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	require.Len(t, kinds, writers-1)
	for _, kind := range kinds {
		assert.Equal(t, apperror.KindConflict, kind)
	}

	list, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestFeatureValueService_DeleteFreesKey(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	value := f.createValue(t, age, "user_1", `25`, day(2024, 1, 1))

	require.NoError(t, f.values.Delete(f.ctx, f.caller, value.Id))

	_, err := f.values.Show(f.ctx, f.caller, value.Id)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	f.createValue(t, age, "user_1", `26`, day(2024, 1, 1))
}

func TestFeatureValueService_List(t *testing.T) {
	f := newFixture(t, testLimits())
	age := f.createFeature(t, "age", entity.DataTypeInteger)
	tier := f.createFeature(t, "tier", entity.DataTypeString)

	f.createValue(t, age, "user_1", `1`, day(2024, 1, 1))
	f.createValue(t, age, "user_1", `2`, day(2024, 2, 1))
	f.createValue(t, age, "user_2", `3`, day(2024, 3, 1))
	f.createValue(t, tier, "user_1", `"gold"`, day(2024, 4, 1))

	t.Run("newest first with filters", func(t *testing.T) {
		res, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{FeatureId: &age, EntityId: "user_1"})
		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, `2`, string(res.Items[0].Value))
		assert.Equal(t, `1`, string(res.Items[1].Value))
	})

	t.Run("time range is inclusive", func(t *testing.T) {
		res, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{
			StartTimestamp: timePtr(day(2024, 2, 1)),
			EndTimestamp:   timePtr(day(2024, 3, 1)),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)
	})

	t.Run("paginates", func(t *testing.T) {
		res, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.Total)
		require.Len(t, res.Items, 1)
		assert.Equal(t, `1`, string(res.Items[0].Value))
	})

	t.Run("rejects bad parameters", func(t *testing.T) {
		_, err := f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{Limit: 101})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		_, err = f.values.List(f.ctx, f.caller, &dto.ListFeatureValuesRequest{
			StartTimestamp: timePtr(day(2024, 3, 1)),
			EndTimestamp:   timePtr(day(2024, 2, 1)),
		})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestFeatureValueService_Stats(t *testing.T) {
	f := newFixture(t, testLimits())
	score := f.createFeature(t, "score", entity.DataTypeFloat)
	tier := f.createFeature(t, "tier", entity.DataTypeString)

	f.createValue(t, score, "user_1", `1`, day(2024, 1, 1))
	f.createValue(t, score, "user_1", `2.5`, day(2024, 2, 1))
	f.createValue(t, score, "user_2", `5.5`, day(2024, 3, 1))
	f.createValue(t, tier, "user_1", `"gold"`, day(2024, 1, 1))

	t.Run("numeric feature", func(t *testing.T) {
		res, err := f.values.Stats(f.ctx, f.caller, &dto.FeatureValueStatsRequest{FeatureId: score})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.TotalValues)
		assert.Equal(t, 2, res.UniqueEntities)
		require.NotNil(t, res.DateRange)
		assert.True(t, res.DateRange.Start.Equal(day(2024, 1, 1)))
		assert.True(t, res.DateRange.End.Equal(day(2024, 3, 1)))
		require.NotNil(t, res.ValueStats)
		assert.Equal(t, 3, res.ValueStats.Count)
		assert.Equal(t, 1.0, res.ValueStats.Min)
		assert.Equal(t, 5.5, res.ValueStats.Max)
		assert.InDelta(t, 3.0, res.ValueStats.Mean, 1e-9)
	})

	t.Run("range narrows the window", func(t *testing.T) {
		res, err := f.values.Stats(f.ctx, f.caller, &dto.FeatureValueStatsRequest{
			FeatureId:      score,
			StartTimestamp: timePtr(day(2024, 2, 1)),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.TotalValues)
		assert.Equal(t, 2.5, res.ValueStats.Min)
	})

	t.Run("non numeric feature has no value stats", func(t *testing.T) {
		res, err := f.values.Stats(f.ctx, f.caller, &dto.FeatureValueStatsRequest{FeatureId: tier})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.TotalValues)
		assert.Nil(t, res.ValueStats)
	})

	t.Run("empty window", func(t *testing.T) {
		res, err := f.values.Stats(f.ctx, f.caller, &dto.FeatureValueStatsRequest{
			FeatureId:      score,
			StartTimestamp: timePtr(day(2025, 1, 1)),
		})
		require.NoError(t, err)
		assert.Zero(t, res.TotalValues)
		assert.Nil(t, res.DateRange)
		assert.Nil(t, res.ValueStats)
	})
}
