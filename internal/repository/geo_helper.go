package repository

import (
	"github.com/paulmach/orb"

	"RegionAccess-App/internal/domain/model"
)

// InfraPointToPoint model.InfraPoint を orb.Point に変換
func InfraPointToPoint(p *model.InfraPoint) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// WithinBound 地点が境界ボックス内（境界上を含む）か
func WithinBound(bound orb.Bound, p *model.InfraPoint) bool {
	return bound.Contains(InfraPointToPoint(p))
}

// BoundQueryArgs 境界ボックスを SQL の BETWEEN 用の引数に変換（min_lat, max_lat, min_lng, max_lng）
func BoundQueryArgs(bbox *model.BoundingBox) []any {
	bound := bbox.ToBound()
	return []any{bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon()}
}
