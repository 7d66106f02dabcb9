package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/infrastructure/cache"
	"RegionAccess-App/internal/infrastructure/database"
)

// setupTestPostgres DATABASE_URL が無ければスキップ
func setupTestPostgres(t *testing.T) *database.PostgreSQLClient {
	t.Helper()
	_ = godotenv.Load("../../.env")
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL が設定されていないためスキップ")
	}

	client, err := database.NewPostgreSQLClientWithRetry(3, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.EnsureSchema(context.Background()))
	return client
}

func TestPostgresAccessListRepository_Integration(t *testing.T) {
	client := setupTestPostgres(t)
	ctx := context.Background()
	alice := "it-" + uuid.NewString()
	bob := "it-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = client.DB.ExecContext(ctx, `DELETE FROM user_region_access WHERE user_id IN ($1, $2)`, alice, bob)
	})

	_, err := client.DB.ExecContext(ctx, `INSERT INTO user_region_access (user_id, level, region_name) VALUES
		($1, 'state', 'Gujarat'), ($1, 'district', 'Surat'), ($2, 'state', NULL)`, alice, bob)
	require.NoError(t, err)

	repo := NewPostgresAccessListRepository(client)

	entry, err := repo.GetByUserID(ctx, alice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.RegionGrant{
		{Level: model.RegionLevelState, Name: "Gujarat"},
		{Level: model.RegionLevelDistrict, Name: "Surat"},
	}, entry.Grants)

	entry, err = repo.GetByUserID(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, entry.Grants)

	_, err = repo.GetByUserID(ctx, "it-"+uuid.NewString())
	assert.ErrorIs(t, err, model.ErrAccessListNotFound)
}

func TestPostgresInfrastructureRepository_Integration(t *testing.T) {
	client := setupTestPostgres(t)
	ctx := context.Background()
	owner := "it-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = client.DB.ExecContext(ctx, `DELETE FROM infrastructure_points WHERE owner_id = $1`, owner)
	})

	repo := NewPostgresInfrastructureRepository(client)
	now := time.Now().UTC().Truncate(time.Millisecond)
	height := 45.0

	p1 := infraPoint("inf-"+uuid.NewString(), owner, 21.17, 72.83, now)
	p1.TowerHeight = &height
	require.NoError(t, repo.Create(ctx, &p1))
	require.NoError(t, repo.CreateBatch(ctx, []model.InfraPoint{
		infraPoint("inf-"+uuid.NewString(), owner, 28.61, 77.20, now.Add(time.Second)),
	}))

	got, err := repo.GetByID(ctx, owner, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.TowerHeight)
	assert.Equal(t, height, *got.TowerHeight)
	assert.Nil(t, got.BuildingHeight)

	all, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	within, err := repo.ListWithinBounds(ctx, owner, &model.BoundingBox{MinLat: 20, MinLng: 68, MaxLat: 25, MaxLng: 75})
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, p1.ID, within[0].ID)

	p1.Address = "Surat"
	require.NoError(t, repo.Update(ctx, &p1))
	require.NoError(t, repo.Delete(ctx, owner, p1.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner, p1.ID), model.ErrInfraNotFound)
}

func TestCachedAccessListRepository_Integration(t *testing.T) {
	_ = godotenv.Load("../../.env")
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR が設定されていないためスキップ")
	}
	ctx := context.Background()
	rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	alice := "it-" + uuid.NewString()
	backend := NewStaticAccessListRepositoryFromEntries(model.AccessEntry{
		UserID: alice,
		Grants: []model.RegionGrant{{Level: model.RegionLevelState, Name: "Gujarat"}},
	})
	repo := NewCachedAccessListRepository(backend, rdb, time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = repo.Invalidate(ctx, alice) })

	entry, err := repo.GetByUserID(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, entry.Grants, 1)

	// 2回目はキャッシュから返る（バックエンドを空にしても同じ結果）
	repo.next = NewStaticAccessListRepositoryFromEntries()
	entry, err = repo.GetByUserID(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, entry.Grants, 1)

	require.NoError(t, repo.Invalidate(ctx, alice))
	_, err = repo.GetByUserID(ctx, alice)
	assert.ErrorIs(t, err, model.ErrAccessListNotFound)

	// 未設定もキャッシュされる
	repo.next = backend
	_, err = repo.GetByUserID(ctx, alice)
	assert.ErrorIs(t, err, model.ErrAccessListNotFound)
}
