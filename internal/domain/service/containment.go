package service

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Containment 点がポリゴン内（境界上を含む）にあるかを判定するプリミティブ
// 幾何ライブラリを差し替えられるようにインターフェースとして切り出している
type Containment interface {
	Contains(polygon orb.Polygon, point orb.Point) bool
}

// PlanarContainment orb/planar のレイキャスティングによる実装
// 外周・穴の辺上の点は内側、穴の内部は外側として扱う
type PlanarContainment struct{}

// Contains 点がポリゴンに含まれるか
func (PlanarContainment) Contains(polygon orb.Polygon, point orb.Point) bool {
	if len(polygon) == 0 || len(polygon[0]) == 0 {
		return false
	}
	if !planar.RingContains(polygon[0], point) {
		return false
	}
	// planar.PolygonContains は穴の辺上の点も外側にするので穴は個別に判定する
	for _, hole := range polygon[1:] {
		if len(hole) == 0 {
			continue
		}
		if planar.RingContains(hole, point) && !onRing(hole, point) {
			return false
		}
	}
	return true
}

// onRing 点がリングのいずれかの辺上にあるか
func onRing(ring orb.Ring, p orb.Point) bool {
	for i := 0; i+1 < len(ring); i++ {
		if onSegment(ring[i], ring[i+1], p) {
			return true
		}
	}
	return false
}

func onSegment(a, b, p orb.Point) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if cross != 0 {
		return false
	}
	return p[0] >= min(a[0], b[0]) && p[0] <= max(a[0], b[0]) &&
		p[1] >= min(a[1], b[1]) && p[1] <= max(a[1], b[1])
}
