package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"RegionAccess-App/internal/domain/model"
)

func TestDatasetCache_ResetDropsInFlightResult(t *testing.T) {
	src := standardSource()
	release := src.block("districts.geojson")
	t.Cleanup(release)
	cache := newDatasetCache(src, time.Second, zap.NewNop())
	spec := testConfig().Regional[model.RegionLevelDistrict]

	done := make(chan error, 1)
	go func() {
		_, err := cache.load(context.Background(), spec, model.RegionLevelDistrict)
		done <- err
	}()
	<-src.started

	cache.reset()
	release()
	require.NoError(t, <-done)

	_, _, ok := cache.cached(spec.Name)
	assert.False(t, ok, "reset 前に始まった読み込みはキャッシュされない")

	boundaries, err := cache.load(context.Background(), spec, model.RegionLevelDistrict)
	require.NoError(t, err)
	assert.Len(t, boundaries, 2)
	assert.Equal(t, 2, src.Calls(spec.Name))

	_, _, ok = cache.cached(spec.Name)
	assert.True(t, ok)
}
