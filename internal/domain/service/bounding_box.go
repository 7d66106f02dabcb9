package service

import (
	"github.com/paulmach/orb"

	"RegionAccess-App/internal/domain/model"
)

// BoundingBoxOf 許可領域に含まれる全頂点の外接矩形を計算する
// 領域が空の場合は nil を返す
func BoundingBoxOf(set *model.AllowedRegionSet) *model.BoundingBox {
	if set == nil {
		return nil
	}
	return BoundingBoxOfBoundaries(set.Regions)
}

// BoundingBoxOfBoundaries Boundary のリストの外接矩形
func BoundingBoxOfBoundaries(boundaries []model.Boundary) *model.BoundingBox {
	var bound orb.Bound
	found := false

	for _, b := range boundaries {
		for _, polygon := range b.Polygons {
			for _, ring := range polygon {
				for _, pt := range ring {
					if !found {
						bound = orb.Bound{Min: pt, Max: pt}
						found = true
						continue
					}
					bound = bound.Extend(pt)
				}
			}
		}
	}

	if !found {
		return nil
	}
	return model.BoundingBoxFromBound(bound)
}
