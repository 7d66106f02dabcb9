package service

import (
	"fmt"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"RegionAccess-App/internal/domain/model"
)

const (
	// 幅・高さ0の外接矩形は R-tree に入らないため最小幅を持たせる
	minRectLength = 1e-9
	// 点検索用の矩形の半径
	pointTolerance = 1e-12

	rtreeMinChildren = 8
	rtreeMaxChildren = 32
)

// indexedPolygon R-tree に格納するポリゴンと所属 Boundary
type indexedPolygon struct {
	owner   int
	polygon orb.Polygon
	rect    rtreego.Rect
}

// Bounds rtreego.Spatial の実装
func (p *indexedPolygon) Bounds() rtreego.Rect {
	return p.rect
}

// BoundaryIndex 読み込み時に一度だけ構築する不変の検索構造
// R-tree で外接矩形が重なるポリゴンを絞り込み、Containment で厳密判定する
type BoundaryIndex struct {
	boundaries  []model.Boundary
	tree        *rtreego.Rtree
	containment Containment
	polygons    int
	bounds      *model.BoundingBox
}

// NewBoundaryIndex Boundary のリストから索引を構築
func NewBoundaryIndex(boundaries []model.Boundary, containment Containment) (*BoundaryIndex, error) {
	if containment == nil {
		containment = PlanarContainment{}
	}

	var items []rtreego.Spatial
	for i, b := range boundaries {
		for _, polygon := range b.Polygons {
			if len(polygon) == 0 || len(polygon[0]) == 0 {
				continue
			}
			rect, err := boundToRect(polygon.Bound())
			if err != nil {
				return nil, fmt.Errorf("%w: %s の外接矩形が不正: %v", model.ErrDataMalformed, b.Name, err)
			}
			items = append(items, &indexedPolygon{owner: i, polygon: polygon, rect: rect})
		}
	}

	idx := &BoundaryIndex{
		boundaries:  boundaries,
		containment: containment,
		polygons:    len(items),
		bounds:      BoundingBoxOfBoundaries(boundaries),
	}
	if len(items) > 0 {
		idx.tree = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, items...)
	}
	return idx, nil
}

func boundToRect(b orb.Bound) (rtreego.Rect, error) {
	width := b.Max.Lon() - b.Min.Lon()
	height := b.Max.Lat() - b.Min.Lat()
	if width < minRectLength {
		width = minRectLength
	}
	if height < minRectLength {
		height = minRectLength
	}
	return rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, []float64{width, height})
}

// candidates 外接矩形が点を含むポリゴン
func (idx *BoundaryIndex) candidates(point orb.Point) []rtreego.Spatial {
	if idx == nil || idx.tree == nil {
		return nil
	}
	return idx.tree.SearchIntersect(rtreego.Point{point.Lon(), point.Lat()}.ToRect(pointTolerance))
}

// Contains いずれかのポリゴンが点を含むか（マルチポリゴンは OR）
func (idx *BoundaryIndex) Contains(point orb.Point) bool {
	for _, c := range idx.candidates(point) {
		ip := c.(*indexedPolygon)
		if idx.containment.Contains(ip.polygon, point) {
			return true
		}
	}
	return false
}

// Locate 点を含む Boundary の名前（重複なし）
func (idx *BoundaryIndex) Locate(point orb.Point) []string {
	seen := make(map[int]bool)
	var names []string
	for _, c := range idx.candidates(point) {
		ip := c.(*indexedPolygon)
		if seen[ip.owner] {
			continue
		}
		if idx.containment.Contains(ip.polygon, point) {
			seen[ip.owner] = true
			names = append(names, idx.boundaries[ip.owner].Name)
		}
	}
	return names
}

// Bounds 全頂点の外接矩形（空なら nil）
func (idx *BoundaryIndex) Bounds() *model.BoundingBox {
	if idx == nil {
		return nil
	}
	return idx.bounds
}

// PolygonCount 索引に含まれるポリゴン数
func (idx *BoundaryIndex) PolygonCount() int {
	if idx == nil {
		return 0
	}
	return idx.polygons
}
