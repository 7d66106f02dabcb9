package helper

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"RegionAccess-App/internal/domain/model"
)

// BoundaryParseResult GeoJSON からの Boundary 変換結果
type BoundaryParseResult struct {
	Boundaries []model.Boundary
	Skipped    int // 不正なジオメトリのため読み飛ばした Feature 数
}

// rawCollection Feature 単位で読み飛ばせるよう生の JSON のまま保持する
type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// ParseBoundaries GeoJSON（FeatureCollection / Feature）を Boundary のリストに変換
// 壊れた Feature は全体を中断せずに読み飛ばす
func ParseBoundaries(data []byte, level model.RegionLevel, nameKeys []string) (*BoundaryParseResult, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: GeoJSONのパース失敗: %v", model.ErrDataMalformed, err)
	}

	var features []json.RawMessage
	switch strings.ToLower(raw.Type) {
	case "featurecollection":
		features = raw.Features
	case "feature":
		features = []json.RawMessage{data}
	default:
		return nil, fmt.Errorf("%w: 未対応のGeoJSONタイプ %q", model.ErrDataMalformed, raw.Type)
	}

	result := &BoundaryParseResult{}
	for i, rawFeature := range features {
		boundary, ok := parseFeature(rawFeature, level, nameKeys)
		if !ok {
			result.Skipped++
			continue
		}
		if boundary.Name == "" {
			boundary.Name = fmt.Sprintf("%s-%d", level, i)
		}
		result.Boundaries = append(result.Boundaries, *boundary)
	}

	if len(features) > 0 && len(result.Boundaries) == 0 {
		return nil, fmt.Errorf("%w: 有効なポリゴンが1つもありません（%d件読み飛ばし）", model.ErrDataMalformed, result.Skipped)
	}

	return result, nil
}

func parseFeature(data []byte, level model.RegionLevel, nameKeys []string) (*model.Boundary, bool) {
	feature, err := geojson.UnmarshalFeature(data)
	if err != nil || feature.Geometry == nil {
		return nil, false
	}

	var polygons orb.MultiPolygon
	switch g := feature.Geometry.(type) {
	case orb.Polygon:
		polygons = orb.MultiPolygon{g}
	case orb.MultiPolygon:
		polygons = g
	default:
		return nil, false
	}

	polygons = cleanPolygons(polygons)
	if len(polygons) == 0 {
		return nil, false
	}

	return &model.Boundary{
		Name:     featureName(feature, nameKeys),
		Level:    level,
		Polygons: polygons,
	}, true
}

// cleanPolygons 頂点数3未満の外周を持つポリゴンを除外し、同様の穴も取り除く
func cleanPolygons(polygons orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, 0, len(polygons))
	for _, poly := range polygons {
		if len(poly) == 0 || !validRing(poly[0]) {
			continue
		}
		cleaned := orb.Polygon{poly[0]}
		for _, hole := range poly[1:] {
			if validRing(hole) {
				cleaned = append(cleaned, hole)
			}
		}
		out = append(out, cleaned)
	}
	return out
}

func validRing(r orb.Ring) bool {
	distinct := len(r)
	if distinct > 1 && r[0] == r[distinct-1] {
		distinct--
	}
	return distinct >= 3
}

func featureName(f *geojson.Feature, nameKeys []string) string {
	for _, key := range nameKeys {
		if v, ok := f.Properties[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if id, ok := f.ID.(string); ok {
		return id
	}
	return ""
}

// NormalizeRegionName 領域名の比較用キー
func NormalizeRegionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SelectBoundaries 名前に一致する Boundary を抽出し、一致しなかった名前を返す
// 同名の Feature が複数ある場合は全て含める
func SelectBoundaries(all []model.Boundary, names []string) ([]model.Boundary, []string) {
	byName := make(map[string][]model.Boundary, len(all))
	for _, b := range all {
		key := NormalizeRegionName(b.Name)
		byName[key] = append(byName[key], b)
	}

	var selected []model.Boundary
	var missing []string
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := NormalizeRegionName(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		matches, ok := byName[key]
		if !ok {
			missing = append(missing, name)
			continue
		}
		selected = append(selected, matches...)
	}
	return selected, missing
}
