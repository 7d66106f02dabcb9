package service

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegionAccess-App/internal/domain/model"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func TestBoundaryIndex(t *testing.T) {
	holed := square(0, 0, 10, 10)
	holed = append(holed, orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}})

	idx, err := NewBoundaryIndex([]model.Boundary{
		{Name: "Holed", Polygons: orb.MultiPolygon{holed}},
		{Name: "Islands", Polygons: orb.MultiPolygon{square(20, 20, 21, 21), square(30, 30, 31, 31)}},
		{Name: "Overlap", Polygons: orb.MultiPolygon{square(8, 8, 25, 25)}},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.PolygonCount())

	assert.True(t, idx.Contains(orb.Point{1, 1}))
	assert.False(t, idx.Contains(orb.Point{5, 5}), "穴の内側は外")
	assert.True(t, idx.Contains(orb.Point{30.5, 30.5}), "マルチポリゴンは OR")
	assert.False(t, idx.Contains(orb.Point{50, 50}))

	assert.ElementsMatch(t, []string{"Holed", "Overlap"}, idx.Locate(orb.Point{9, 9}))
	assert.Empty(t, idx.Locate(orb.Point{50, 50}))

	assert.Equal(t, &model.BoundingBox{MinLat: 0, MinLng: 0, MaxLat: 31, MaxLng: 31}, idx.Bounds())
}

func TestBoundaryIndex_Empty(t *testing.T) {
	idx, err := NewBoundaryIndex(nil, PlanarContainment{})
	require.NoError(t, err)
	assert.Zero(t, idx.PolygonCount())
	assert.False(t, idx.Contains(orb.Point{0, 0}))
	assert.Nil(t, idx.Bounds())
}

func TestBoundaryIndex_DegenerateRect(t *testing.T) {
	// 幅0の外接矩形でも索引に入る
	flat := orb.Polygon{{{0, 0}, {0, 1}, {0, 2}, {0, 0}}}
	idx, err := NewBoundaryIndex([]model.Boundary{{Name: "Flat", Polygons: orb.MultiPolygon{flat}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.PolygonCount())
}

func TestPlanarContainment(t *testing.T) {
	c := PlanarContainment{}
	assert.True(t, c.Contains(square(0, 0, 10, 10), orb.Point{10, 10}))
	assert.False(t, c.Contains(square(0, 0, 10, 10), orb.Point{10.0001, 10}))
	assert.False(t, c.Contains(orb.Polygon{}, orb.Point{0, 0}))
}

func TestPlanarContainment_HoleEdges(t *testing.T) {
	c := PlanarContainment{}
	holed := square(0, 0, 10, 10)
	holed = append(holed, orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}})

	// 穴の辺・頂点はポリゴンの境界なので内側
	assert.True(t, c.Contains(holed, orb.Point{5, 4}))
	assert.True(t, c.Contains(holed, orb.Point{6, 5}))
	assert.True(t, c.Contains(holed, orb.Point{4, 6}))

	assert.False(t, c.Contains(holed, orb.Point{5, 5}))
	assert.False(t, c.Contains(holed, orb.Point{4.5, 5.5}))
	assert.True(t, c.Contains(holed, orb.Point{3.9, 5}))
	assert.True(t, c.Contains(holed, orb.Point{0, 5}))
}

func TestBoundingBoxOf(t *testing.T) {
	assert.Nil(t, BoundingBoxOf(nil))
	assert.Nil(t, BoundingBoxOf(&model.AllowedRegionSet{Configured: true}))

	set := &model.AllowedRegionSet{Regions: []model.Boundary{
		{Name: "A", Polygons: orb.MultiPolygon{square(-3, 2, 1, 5)}},
		{Name: "B", Polygons: orb.MultiPolygon{square(4, -1, 6, 0)}},
	}}
	assert.Equal(t, &model.BoundingBox{MinLat: -1, MinLng: -3, MaxLat: 5, MaxLng: 6}, BoundingBoxOf(set))
}
