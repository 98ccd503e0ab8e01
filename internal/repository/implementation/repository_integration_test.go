package implementation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"feature-store-be/internal/entity"
	"feature-store-be/internal/model"
	"feature-store-be/internal/repository/contract"
	"feature-store-be/internal/repository/specification"
	"feature-store-be/internal/repository/unitofwork"
	"feature-store-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	sharedDB     *gorm.DB
	sharedDBOnce sync.Once
	sharedDBErr  error
)

// getTestDB returns a migrated PostgreSQL shared by every test in the run.
// TEST_DB_CONNECTION_STRING points the tests at an existing database instead
// of starting a container.
func getTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedDBOnce.Do(func() {
		sharedDB, sharedDBErr = setupTestDB()
	})
	if sharedDBErr != nil {
		t.Skipf("Skipping integration test: database unavailable: %v", sharedDBErr)
	}
	return sharedDB
}

func setupTestDB() (*gorm.DB, error) {
	ctx := context.Background()

	dsn := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dsn == "" {
		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "feature_store",
				"POSTGRES_USER":     "feature_store",
				"POSTGRES_PASSWORD": "test_password",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}

		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to start test container: %w", err)
		}

		host, err := container.Host(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get container host: %w", err)
		}
		port, err := container.MappedPort(ctx, "5432")
		if err != nil {
			return nil, fmt.Errorf("failed to get container port: %w", err)
		}
		dsn = fmt.Sprintf("postgres://feature_store:test_password@%s:%s/feature_store?sslmode=disable", host, port.Port())
	}

	db, err := database.NewGormDBFromDSN(dsn, database.PoolConfig{
		MaxIdleConns:    2,
		MaxOpenConns:    5,
		ConnMaxLifetime: time.Minute,
	}, false)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, model.All()...); err != nil {
		return nil, err
	}
	return db, nil
}

func newFeatureValue(t *testing.T, org, feature uuid.UUID, entityId string, ts time.Time, raw string) *entity.FeatureValue {
	t.Helper()
	v, err := entity.ParseValue(json.RawMessage(raw), "")
	require.NoError(t, err)
	return &entity.FeatureValue{
		Id:             uuid.New(),
		OrganizationId: org,
		FeatureId:      feature,
		EntityId:       entityId,
		Value:          v,
		Timestamp:      ts,
		CreatedBy:      uuid.New(),
	}
}

func TestFeatureValueRepository_Postgres(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)
	repo := factory.NewUnitOfWork(ctx).FeatureValueRepository()

	org, feature := uuid.New(), uuid.New()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	first := newFeatureValue(t, org, feature, "user_1", jan, `25`)
	first.Metadata = map[string]interface{}{"source": "import"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newFeatureValue(t, org, feature, "user_1", jun, `26`)))
	require.NoError(t, repo.Create(ctx, newFeatureValue(t, org, feature, "user_2", jun, `{"tier":"gold"}`)))

	t.Run("duplicate triple is rejected", func(t *testing.T) {
		err := repo.Create(ctx, newFeatureValue(t, org, feature, "user_1", jan, `99`))
		assert.ErrorIs(t, err, contract.ErrDuplicateKey)
	})

	t.Run("round trip keeps value and metadata", func(t *testing.T) {
		got, err := repo.FindOne(ctx, specification.ByID{ID: first.Id}, specification.ByOrganization{OrganizationID: org})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, `25`, string(got.Value.Raw))
		assert.Equal(t, entity.ValueTypeInteger, got.Value.Type)
		assert.Equal(t, "import", got.Metadata["source"])
		assert.True(t, got.Timestamp.Equal(jan))
	})

	t.Run("latest as of", func(t *testing.T) {
		latest, err := repo.FindLatestAsOf(ctx, org, []uuid.UUID{feature}, []string{"user_1", "user_2", "user_3"}, jan.AddDate(0, 2, 0))
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, "user_1", latest[0].EntityId)
		assert.Equal(t, `25`, string(latest[0].Value.Raw))

		latest, err = repo.FindLatestAsOf(ctx, org, []uuid.UUID{feature}, []string{"user_1", "user_2"}, jun)
		require.NoError(t, err)
		require.Len(t, latest, 2)

		latest, err = repo.FindLatestAsOf(ctx, uuid.New(), []uuid.UUID{feature}, []string{"user_1"}, jun)
		require.NoError(t, err)
		assert.Empty(t, latest)
	})

	t.Run("existing keys", func(t *testing.T) {
		existing, err := repo.FindExistingKeys(ctx, org, []entity.FeatureValueKey{
			{FeatureId: feature, EntityId: "user_1", Timestamp: jan},
			{FeatureId: feature, EntityId: "user_1", Timestamp: jan.Add(time.Second)},
		})
		require.NoError(t, err)
		require.Len(t, existing, 1)
		assert.Equal(t, "user_1", existing[0].EntityId)
	})

	t.Run("list ordering and count", func(t *testing.T) {
		values, err := repo.FindAll(ctx,
			specification.ByOrganization{OrganizationID: org},
			specification.ByEntityID{EntityID: "user_1"},
			specification.OrderBy{Field: "timestamp", Desc: true},
			specification.Page(1, 10),
		)
		require.NoError(t, err)
		require.Len(t, values, 2)
		assert.True(t, values[0].Timestamp.Equal(jun))

		count, err := repo.Count(ctx, specification.ByOrganization{OrganizationID: org}, specification.TimestampFrom{From: jun})
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("update writes payload and never resurrects a deleted row", func(t *testing.T) {
		value := newFeatureValue(t, org, feature, "user_3", jan, `1`)
		require.NoError(t, repo.Create(ctx, value))

		loaded, err := repo.FindOne(ctx, specification.ByID{ID: value.Id})
		require.NoError(t, err)
		require.NotNil(t, loaded)

		patched, err := entity.ParseValue(json.RawMessage(`2`), "")
		require.NoError(t, err)
		loaded.Value = patched
		require.NoError(t, repo.Update(ctx, loaded))

		foreign := *loaded
		foreign.OrganizationId = uuid.New()
		assert.ErrorIs(t, repo.Update(ctx, &foreign), contract.ErrNotFound)

		require.NoError(t, repo.Delete(ctx, loaded.Id))
		assert.ErrorIs(t, repo.Update(ctx, loaded), contract.ErrNotFound)

		gone, err := repo.FindOne(ctx, specification.ByID{ID: loaded.Id})
		require.NoError(t, err)
		assert.Nil(t, gone)
	})
}

func TestUnitOfWork_BatchRollsBackOnConflict(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(db)

	org, feature := uuid.New(), uuid.New()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, factory.NewUnitOfWork(ctx).FeatureValueRepository().Create(ctx, newFeatureValue(t, org, feature, "taken", ts, `1`)))

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	err := uow.FeatureValueRepository().CreateBatch(ctx, []*entity.FeatureValue{
		newFeatureValue(t, org, feature, "fresh", ts, `2`),
		newFeatureValue(t, org, feature, "taken", ts, `3`),
	})
	assert.ErrorIs(t, err, contract.ErrDuplicateKey)
	require.NoError(t, uow.Rollback())

	count, err := factory.NewUnitOfWork(ctx).FeatureValueRepository().Count(ctx, specification.ByOrganization{OrganizationID: org})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestFeatureRepository_Postgres(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	repo := unitofwork.NewRepositoryFactory(db).NewUnitOfWork(ctx).FeatureRepository()

	org := uuid.New()
	newFeature := func(name string) *entity.Feature {
		return &entity.Feature{
			Id:             uuid.New(),
			OrganizationId: org,
			Name:           name,
			DataType:       entity.DataTypeInteger,
			ServingType:    entity.ServingTypeOnline,
			Status:         entity.FeatureStatusDraft,
			Owner:          "team-a",
			Tags:           []string{"profile"},
			CreatedBy:      uuid.New(),
		}
	}

	age := newFeature("age")
	require.NoError(t, repo.Create(ctx, age))
	assert.ErrorIs(t, repo.Create(ctx, newFeature("age")), contract.ErrDuplicateKey)

	now := time.Now()
	age.Description = "years since birth"
	age.UpdatedAt = &now
	require.NoError(t, repo.Update(ctx, age))

	found, err := repo.FindAll(ctx,
		specification.ByOrganization{OrganizationID: org},
		specification.NameContains{Query: "AG"},
	)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"profile"}, found[0].Tags)

	require.NoError(t, repo.Delete(ctx, age.Id))

	gone, err := repo.FindOne(ctx, specification.ByID{ID: age.Id})
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err := repo.FindOne(ctx, specification.ByID{ID: age.Id}, specification.IncludeDeleted{})
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.True(t, deleted.IsDeleted)

	assert.Equal(t, "years since birth", deleted.Description)

	// Updating a soft-deleted feature neither clears deleted_at nor inserts a copy.
	assert.ErrorIs(t, repo.Update(ctx, age), contract.ErrNotFound)

	// The partial unique index ignores deleted rows.
	assert.NoError(t, repo.Create(ctx, newFeature("age")))
}
