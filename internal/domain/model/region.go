package model

import (
	"math"

	"github.com/paulmach/orb"
)

// LatLng 緯度経度を表す基本的な型（WGS84）
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsFinite 緯度経度がどちらも有限値かチェック
func (p LatLng) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// ToPoint orb.Point（[lng, lat]）に変換
func (p LatLng) ToPoint() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// RegionLevel 行政区の階層
type RegionLevel string

const (
	RegionLevelNational    RegionLevel = "national"
	RegionLevelState       RegionLevel = "state"
	RegionLevelDistrict    RegionLevel = "district"
	RegionLevelSubdistrict RegionLevel = "subdistrict"
)

// GrantableLevels アクセス権として付与できる階層（national は含まない）
var GrantableLevels = []RegionLevel{
	RegionLevelState,
	RegionLevelDistrict,
	RegionLevelSubdistrict,
}

// IsGrantable 付与可能な階層かチェック
func (l RegionLevel) IsGrantable() bool {
	for _, g := range GrantableLevels {
		if g == l {
			return true
		}
	}
	return false
}

// Boundary 1つ以上の閉じたポリゴンからなる地理的領域
// 各ポリゴンの最初のリングが外周、以降は穴。読み込み後は変更しない
type Boundary struct {
	Name     string           `json:"name"`
	Level    RegionLevel      `json:"level"`
	Polygons orb.MultiPolygon `json:"-"`
}

// VertexCount 全リングの頂点数
func (b *Boundary) VertexCount() int {
	n := 0
	for _, poly := range b.Polygons {
		for _, ring := range poly {
			n += len(ring)
		}
	}
	return n
}

// AllowedRegionSet ユーザーが操作を許可されている Boundary の集合
type AllowedRegionSet struct {
	UserID string `json:"user_id"`
	// Configured false はアクセスリストにエントリが存在しないことを表す
	Configured bool       `json:"configured"`
	Regions    []Boundary `json:"regions"`
}

// RegionNames 許可された領域名の一覧
func (s *AllowedRegionSet) RegionNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Regions))
	for _, r := range s.Regions {
		names = append(names, r.Name)
	}
	return names
}

// IsEmpty 領域を1つも持たないか
func (s *AllowedRegionSet) IsEmpty() bool {
	return s == nil || len(s.Regions) == 0
}

// BoundingBox 表示範囲の調整にのみ使う外接矩形（認可判定には使わない）
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains 点が矩形内（境界含む）にあるか
func (b *BoundingBox) Contains(p LatLng) bool {
	if b == nil {
		return false
	}
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// ToBound orb.Bound に変換
func (b *BoundingBox) ToBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLng, b.MinLat},
		Max: orb.Point{b.MaxLng, b.MaxLat},
	}
}

// BoundingBoxFromBound orb.Bound から BoundingBox を作成
func BoundingBoxFromBound(bound orb.Bound) *BoundingBox {
	return &BoundingBox{
		MinLat: bound.Min.Lat(),
		MinLng: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLng: bound.Max.Lon(),
	}
}
