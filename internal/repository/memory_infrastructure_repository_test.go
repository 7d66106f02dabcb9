package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegionAccess-App/internal/domain/model"
)

func infraPoint(id, owner string, lat, lng float64, created time.Time) model.InfraPoint {
	return model.InfraPoint{
		ID:           id,
		OwnerID:      owner,
		Location:     "Site " + id,
		LocationType: "Warehouse",
		Latitude:     lat,
		Longitude:    lng,
		CreatedAt:    created,
	}
}

func TestMemoryInfrastructureRepository(t *testing.T) {
	repo := NewMemoryInfrastructureRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p1 := infraPoint("p1", "alice", 21.17, 72.83, base.Add(time.Minute))
	p2 := infraPoint("p2", "alice", 23.02, 72.57, base)
	require.NoError(t, repo.Create(ctx, &p1))
	require.NoError(t, repo.Create(ctx, &p2))
	assert.Error(t, repo.Create(ctx, &p1), "ID重複")

	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID, "作成日時順")

	others, err := repo.ListByOwner(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, others)

	within, err := repo.ListWithinBounds(ctx, "alice", &model.BoundingBox{MinLat: 20, MinLng: 72, MaxLat: 22, MaxLng: 73})
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "p1", within[0].ID)

	p1.Address = "Surat"
	require.NoError(t, repo.Update(ctx, &p1))
	got, err := repo.GetByID(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Surat", got.Address)

	_, err = repo.GetByID(ctx, "bob", "p1")
	assert.ErrorIs(t, err, model.ErrInfraNotFound)

	require.NoError(t, repo.Delete(ctx, "alice", "p1"))
	assert.ErrorIs(t, repo.Delete(ctx, "alice", "p1"), model.ErrInfraNotFound)
	missing := infraPoint("p9", "alice", 0, 0, base)
	assert.ErrorIs(t, repo.Update(ctx, &missing), model.ErrInfraNotFound)
}

func TestMemoryInfrastructureRepository_CreateBatchIsAtomic(t *testing.T) {
	repo := NewMemoryInfrastructureRepository()
	ctx := context.Background()
	now := time.Now()

	existing := infraPoint("dup", "alice", 1, 1, now)
	require.NoError(t, repo.Create(ctx, &existing))

	err := repo.CreateBatch(ctx, []model.InfraPoint{
		infraPoint("new", "alice", 2, 2, now),
		infraPoint("dup", "alice", 3, 3, now),
	})
	require.Error(t, err)

	list, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.CreateBatch(ctx, []model.InfraPoint{
		infraPoint("a", "alice", 2, 2, now),
		infraPoint("b", "alice", 3, 3, now),
	}))
	list, err = repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestGeoHelper(t *testing.T) {
	p := infraPoint("p", "alice", 21.5, 72.5, time.Now())
	bbox := &model.BoundingBox{MinLat: 21, MinLng: 72, MaxLat: 22, MaxLng: 73}

	pt := InfraPointToPoint(&p)
	assert.Equal(t, 72.5, pt.Lon())
	assert.Equal(t, 21.5, pt.Lat())
	assert.True(t, WithinBound(bbox.ToBound(), &p))
	assert.Equal(t, []any{21.0, 22.0, 72.0, 73.0}, BoundQueryArgs(bbox))
}
