package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"RegionAccess-App/internal/domain/model"
)

// fakeSource データセット名ごとに固定の内容を返す BoundarySource
type fakeSource struct {
	mu      sync.Mutex
	data    map[string]string
	errs    map[string]error
	gates   map[string]chan struct{}
	calls   map[string]int
	started chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		data:    map[string]string{},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		calls:   map[string]int{},
		started: make(chan string, 16),
	}
}

// block 指定データセットの取得を release が呼ばれるまで止める
func (s *fakeSource) block(name string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[name] = gate
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *fakeSource) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *fakeSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	s.calls[name]++
	gate := s.gates[name]
	data, ok := s.data[name]
	err := s.errs[name]
	s.mu.Unlock()

	select {
	case s.started <- name:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, model.ErrDataUnavailable)
	}
	return []byte(data), nil
}

// fakeAccessLists メモリ上のアクセスリスト
type fakeAccessLists struct {
	entries map[string]*model.AccessEntry
	err     error
}

func (f *fakeAccessLists) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	entry, ok := f.entries[userID]
	if !ok {
		return nil, model.ErrAccessListNotFound
	}
	return entry, nil
}

var errSourceDown = errors.New("source down")

// polygonFeature 単一ポリゴンの Feature（座標は [lng, lat]）
func polygonFeature(nameKey, name string, ring string) string {
	return fmt.Sprintf(`{"type": "Feature", "properties": {%q: %q},
	  "geometry": {"type": "Polygon", "coordinates": [%s]}}`, nameKey, name, ring)
}

func collection(features ...string) string {
	out := `{"type": "FeatureCollection", "features": [`
	for i, f := range features {
		if i > 0 {
			out += ","
		}
		out += f
	}
	return out + "]}"
}

const (
	squareRing    = `[[0,0],[10,0],[10,10],[0,10],[0,0]]`
	triangleARing = `[[0,0],[10,0],[0,10],[0,0]]`
	triangleBRing = `[[20,20],[30,20],[20,30],[20,20]]`
)

func testConfig() AuthorizerConfig {
	cfg := DefaultAuthorizerConfig()
	cfg.National = DatasetSpec{Name: "national.geojson", NameKeys: []string{"name"}}
	cfg.Regional = map[model.RegionLevel]DatasetSpec{
		model.RegionLevelState:    {Name: "states.geojson", NameKeys: []string{"st_nm", "name"}},
		model.RegionLevelDistrict: {Name: "districts.geojson", NameKeys: []string{"dtname", "name"}},
	}
	return cfg
}

// standardSource 正方形の国境と2つの三角形の地区
func standardSource() *fakeSource {
	src := newFakeSource()
	src.data["national.geojson"] = collection(polygonFeature("name", "Country", squareRing))
	src.data["districts.geojson"] = collection(
		polygonFeature("dtname", "A", triangleARing),
		polygonFeature("dtname", "B", triangleBRing),
	)
	src.data["states.geojson"] = collection(polygonFeature("st_nm", "Whole", `[[-5,-5],[40,-5],[40,40],[-5,40],[-5,-5]]`))
	return src
}

func grants(userID string, level model.RegionLevel, names ...string) *model.AccessEntry {
	entry := &model.AccessEntry{UserID: userID, Grants: []model.RegionGrant{}}
	for _, n := range names {
		entry.Grants = append(entry.Grants, model.RegionGrant{Level: level, Name: n})
	}
	return entry
}
