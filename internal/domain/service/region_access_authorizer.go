package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"RegionAccess-App/internal/domain/helper"
	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/metrics"
)

// ErrLoadDiscarded 読み込み中にセッションが解放されたため結果を破棄した
var ErrLoadDiscarded = errors.New("load result discarded")

// RegionAccessAuthorizer 点が国境内か、ユーザーの許可領域内かを判定する
type RegionAccessAuthorizer interface {
	// LoadNationalBoundary 国境データを読み込む。失敗時は Unloaded のまま（フェイルクローズ）
	LoadNationalBoundary(ctx context.Context) (*model.Boundary, error)

	// LoadAllowedRegions ユーザーの許可領域を読み込む。エントリが無い場合は未設定の空集合
	LoadAllowedRegions(ctx context.Context, userID string) (*model.AllowedRegionSet, error)

	// LoadDataset 地域データセットを事前に読み込む
	LoadDataset(ctx context.Context, level model.RegionLevel) error

	// IsInsideNational 国境内（境界上を含む）か。未読み込みなら常に false
	IsInsideNational(point model.LatLng) bool

	// IsInsideAllowed 許可領域内か。未準備なら常に false
	IsInsideAllowed(userID string, point model.LatLng) bool

	// LocateAllowed 点を含む許可領域の名前
	LocateAllowed(userID string, point model.LatLng) []string

	NationalState() model.LoadState
	AllowedState(userID string) model.LoadState
	AllowedReady(userID string) bool
	AllowedRegions(userID string) *model.AllowedRegionSet

	NationalBoundingBox() *model.BoundingBox
	AllowedBoundingBox(userID string) *model.BoundingBox

	// Release ユーザーのセッションを破棄する。読み込み中の結果は反映されない
	Release(userID string)

	// Close 全セッションを破棄する
	Close()

	Policy() model.MissingAccessListPolicy
}

// AuthorizerConfig 認可の設定
type AuthorizerConfig struct {
	National    DatasetSpec
	Regional    map[model.RegionLevel]DatasetSpec
	LoadTimeout time.Duration
	Policy      model.MissingAccessListPolicy
}

// DefaultAuthorizerConfig 元データのファイル構成に合わせたデフォルト設定
func DefaultAuthorizerConfig() AuthorizerConfig {
	return AuthorizerConfig{
		National: DatasetSpec{Name: "india-boundary.geojson", NameKeys: []string{"name"}},
		Regional: map[model.RegionLevel]DatasetSpec{
			model.RegionLevelState:       {Name: "india.json", NameKeys: []string{"st_nm", "name"}},
			model.RegionLevelDistrict:    {Name: "GUJARAT_DISTRICTS.geojson", NameKeys: []string{"dtname", "name"}},
			model.RegionLevelSubdistrict: {Name: "GUJARAT_SUBDISTRICTS.geojson", NameKeys: []string{"sdtname", "name"}},
		},
		LoadTimeout: 15 * time.Second,
		Policy:      model.DenyAll,
	}
}

// nationalSlot 国境データの状態
type nationalSlot struct {
	state    model.LoadState
	gen      uint64
	boundary *model.Boundary
	index    *BoundaryIndex
}

// allowedSlot ユーザーごとの許可領域の状態
// epoch はセッション作成時に決まり、Release 後の新しいセッションとは別の読み込みになる
type allowedSlot struct {
	epoch uint64
	state model.LoadState
	gen   uint64
	set   *model.AllowedRegionSet
	index *BoundaryIndex
}

// regionAccessAuthorizer RegionAccessAuthorizerの実装
type regionAccessAuthorizer struct {
	cfg         AuthorizerConfig
	accessLists repository.AccessListRepository
	containment Containment
	datasets    *datasetCache
	logger      *zap.Logger

	mu            sync.RWMutex
	nextGen       uint64
	nationalEpoch uint64 // Close ごとに進める
	national      nationalSlot
	allowed       map[string]*allowedSlot

	group singleflight.Group
}

// NewRegionAccessAuthorizer RegionAccessAuthorizerの新しいインスタンスを作成
func NewRegionAccessAuthorizer(
	cfg AuthorizerConfig,
	source repository.BoundarySource,
	accessLists repository.AccessListRepository,
	containment Containment,
	logger *zap.Logger,
) RegionAccessAuthorizer {
	if containment == nil {
		containment = PlanarContainment{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = DefaultAuthorizerConfig().LoadTimeout
	}
	return &regionAccessAuthorizer{
		cfg:         cfg,
		accessLists: accessLists,
		containment: containment,
		datasets:    newDatasetCache(source, cfg.LoadTimeout, logger),
		logger:      logger,
		allowed:     make(map[string]*allowedSlot),
	}
}

func (a *regionAccessAuthorizer) Policy() model.MissingAccessListPolicy {
	return a.cfg.Policy
}

// do 同一キーの読み込みを1回にまとめ、呼び出し元の ctx で待機を打ち切れるようにする
func (a *regionAccessAuthorizer) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := a.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.LoadTimeout)
		defer cancel()
		return fn(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// ---- 国境 ----

func (a *regionAccessAuthorizer) LoadNationalBoundary(ctx context.Context) (*model.Boundary, error) {
	a.mu.RLock()
	if a.national.state == model.LoadStateReady {
		b := a.national.boundary
		a.mu.RUnlock()
		return b, nil
	}
	epoch := a.nationalEpoch
	a.mu.RUnlock()

	key := fmt.Sprintf("national:%d", epoch)
	v, err := a.do(ctx, key, func(loadCtx context.Context) (any, error) {
		return a.loadNational(loadCtx, epoch)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Boundary), nil
}

func (a *regionAccessAuthorizer) loadNational(ctx context.Context, epoch uint64) (*model.Boundary, error) {
	a.mu.Lock()
	if a.nationalEpoch != epoch {
		a.mu.Unlock()
		return nil, ErrLoadDiscarded
	}
	if a.national.state == model.LoadStateReady {
		b := a.national.boundary
		a.mu.Unlock()
		return b, nil
	}
	a.nextGen++
	gen := a.nextGen
	a.national.state = model.LoadStateLoading
	a.national.gen = gen
	a.mu.Unlock()

	boundaries, err := a.datasets.load(ctx, a.cfg.National, model.RegionLevelNational)
	if err != nil {
		a.failNational(gen)
		a.logger.Error("国境データの読み込み失敗（フェイルクローズ）", zap.Error(err))
		return nil, err
	}

	boundary := mergeBoundaries(a.cfg.National.Name, model.RegionLevelNational, boundaries)
	index, err := NewBoundaryIndex([]model.Boundary{*boundary}, a.containment)
	if err != nil {
		a.failNational(gen)
		a.logger.Error("国境データの索引構築失敗", zap.Error(err))
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.national.gen != gen {
		metrics.RecordDatasetLoad(a.cfg.National.Name, metrics.OutcomeDiscarded, 0)
		return nil, ErrLoadDiscarded
	}
	a.national = nationalSlot{
		state:    model.LoadStateReady,
		gen:      gen,
		boundary: boundary,
		index:    index,
	}
	a.logger.Info("国境データ準備完了",
		zap.Int("polygons", index.PolygonCount()),
		zap.Int("vertices", boundary.VertexCount()))
	return boundary, nil
}

func (a *regionAccessAuthorizer) failNational(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.national.gen == gen {
		a.national = nationalSlot{state: model.LoadStateUnloaded, gen: gen}
	}
}

// mergeBoundaries 複数の Feature を1つのマルチポリゴンにまとめる
func mergeBoundaries(name string, level model.RegionLevel, boundaries []model.Boundary) *model.Boundary {
	merged := &model.Boundary{Name: name, Level: level}
	for _, b := range boundaries {
		merged.Polygons = append(merged.Polygons, b.Polygons...)
	}
	return merged
}

func (a *regionAccessAuthorizer) IsInsideNational(point model.LatLng) bool {
	if !point.IsFinite() {
		a.logger.Debug("不正な座標", zap.Error(model.ErrInvalidPoint), zap.Float64("lat", point.Lat), zap.Float64("lng", point.Lng))
		return false
	}

	a.mu.RLock()
	var index *BoundaryIndex
	if a.national.state == model.LoadStateReady {
		index = a.national.index
	}
	a.mu.RUnlock()

	if index == nil {
		return false
	}
	return index.Contains(point.ToPoint())
}

func (a *regionAccessAuthorizer) NationalState() model.LoadState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.national.state
}

func (a *regionAccessAuthorizer) NationalBoundingBox() *model.BoundingBox {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.national.state != model.LoadStateReady {
		return nil
	}
	return a.national.index.Bounds()
}

// ---- 地域データセット ----

func (a *regionAccessAuthorizer) LoadDataset(ctx context.Context, level model.RegionLevel) error {
	spec, ok := a.cfg.Regional[level]
	if !ok {
		return fmt.Errorf("%w: %s のデータセットが設定されていません", model.ErrDataUnavailable, level)
	}
	_, err := a.datasets.load(ctx, spec, level)
	return err
}

// ---- 許可領域 ----

func (a *regionAccessAuthorizer) LoadAllowedRegions(ctx context.Context, userID string) (*model.AllowedRegionSet, error) {
	a.mu.Lock()
	slot, ok := a.allowed[userID]
	if ok && slot.state == model.LoadStateReady {
		set := slot.set
		a.mu.Unlock()
		return set, nil
	}
	if !ok {
		a.nextGen++
		slot = &allowedSlot{epoch: a.nextGen}
		a.allowed[userID] = slot
	}
	a.mu.Unlock()

	key := fmt.Sprintf("allowed:%s:%d", userID, slot.epoch)
	v, err := a.do(ctx, key, func(loadCtx context.Context) (any, error) {
		return a.loadAllowed(loadCtx, userID, slot)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.AllowedRegionSet), nil
}

func (a *regionAccessAuthorizer) loadAllowed(ctx context.Context, userID string, slot *allowedSlot) (*model.AllowedRegionSet, error) {
	a.mu.Lock()
	if a.allowed[userID] != slot {
		a.mu.Unlock()
		return nil, ErrLoadDiscarded
	}
	if slot.state == model.LoadStateReady {
		set := slot.set
		a.mu.Unlock()
		return set, nil
	}
	a.nextGen++
	gen := a.nextGen
	slot.state = model.LoadStateLoading
	slot.gen = gen
	a.mu.Unlock()

	set, err := a.buildAllowedSet(ctx, userID)
	if err != nil {
		a.failAllowed(userID, slot, gen)
		a.logger.Error("許可領域の読み込み失敗（フェイルクローズ）", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	index, err := NewBoundaryIndex(set.Regions, a.containment)
	if err != nil {
		a.failAllowed(userID, slot, gen)
		a.logger.Error("許可領域の索引構築失敗", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if current, ok := a.allowed[userID]; !ok || current != slot || slot.gen != gen {
		a.logger.Info("解放済みセッションの読み込み結果を破棄", zap.String("user_id", userID))
		return nil, ErrLoadDiscarded
	}
	slot.state = model.LoadStateReady
	slot.set = set
	slot.index = index

	a.logger.Info("許可領域準備完了",
		zap.String("user_id", userID),
		zap.Bool("configured", set.Configured),
		zap.Strings("regions", set.RegionNames()))
	return set, nil
}

// buildAllowedSet アクセスリストを取得し、付与された領域を各データセットから抽出する
func (a *regionAccessAuthorizer) buildAllowedSet(ctx context.Context, userID string) (*model.AllowedRegionSet, error) {
	if a.accessLists == nil {
		return &model.AllowedRegionSet{UserID: userID}, nil
	}

	entry, err := a.accessLists.GetByUserID(ctx, userID)
	if errors.Is(err, model.ErrAccessListNotFound) {
		a.logger.Info("アクセスリスト未設定", zap.String("user_id", userID), zap.String("policy", a.cfg.Policy.String()))
		return &model.AllowedRegionSet{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: アクセスリストの取得失敗: %v", model.ErrDataUnavailable, err)
	}

	set := &model.AllowedRegionSet{UserID: userID, Configured: true}
	for _, level := range model.GrantableLevels {
		names := entry.NamesByLevel()[level]
		if len(names) == 0 {
			continue
		}
		spec, ok := a.cfg.Regional[level]
		if !ok {
			a.logger.Warn("未設定の階層のアクセス権を無視", zap.String("user_id", userID), zap.String("level", string(level)))
			continue
		}

		boundaries, err := a.datasets.load(ctx, spec, level)
		if err != nil {
			return nil, err
		}

		selected, missing := helper.SelectBoundaries(boundaries, names)
		if len(missing) > 0 {
			a.logger.Warn("データセットに存在しない領域名",
				zap.String("user_id", userID),
				zap.String("dataset", spec.Name),
				zap.Strings("missing", missing))
		}
		set.Regions = append(set.Regions, selected...)
	}
	return set, nil
}

func (a *regionAccessAuthorizer) failAllowed(userID string, slot *allowedSlot, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if current, ok := a.allowed[userID]; ok && current == slot && slot.gen == gen {
		slot.state = model.LoadStateUnloaded
		slot.set = nil
		slot.index = nil
	}
}

// readyAllowed 準備済みのスロット（未準備なら nil）
func (a *regionAccessAuthorizer) readyAllowed(userID string) *allowedSlot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	slot, ok := a.allowed[userID]
	if !ok || slot.state != model.LoadStateReady {
		return nil
	}
	snapshot := *slot
	return &snapshot
}

func (a *regionAccessAuthorizer) IsInsideAllowed(userID string, point model.LatLng) bool {
	if !point.IsFinite() {
		a.logger.Debug("不正な座標", zap.Error(model.ErrInvalidPoint), zap.String("user_id", userID))
		return false
	}

	slot := a.readyAllowed(userID)
	if slot == nil {
		return false
	}
	if !slot.set.Configured {
		return a.cfg.Policy == model.AllowAll
	}
	return slot.index.Contains(point.ToPoint())
}

func (a *regionAccessAuthorizer) LocateAllowed(userID string, point model.LatLng) []string {
	if !point.IsFinite() {
		return nil
	}
	slot := a.readyAllowed(userID)
	if slot == nil {
		return nil
	}
	return slot.index.Locate(point.ToPoint())
}

func (a *regionAccessAuthorizer) AllowedState(userID string) model.LoadState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if slot, ok := a.allowed[userID]; ok {
		return slot.state
	}
	return model.LoadStateUnloaded
}

func (a *regionAccessAuthorizer) AllowedReady(userID string) bool {
	return a.AllowedState(userID) == model.LoadStateReady
}

func (a *regionAccessAuthorizer) AllowedRegions(userID string) *model.AllowedRegionSet {
	slot := a.readyAllowed(userID)
	if slot == nil {
		return nil
	}
	return slot.set
}

func (a *regionAccessAuthorizer) AllowedBoundingBox(userID string) *model.BoundingBox {
	slot := a.readyAllowed(userID)
	if slot == nil {
		return nil
	}
	return slot.index.Bounds()
}

func (a *regionAccessAuthorizer) Release(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.allowed[userID]; ok {
		delete(a.allowed, userID)
		a.logger.Debug("セッション解放", zap.String("user_id", userID))
	}
}

func (a *regionAccessAuthorizer) Close() {
	a.mu.Lock()
	a.nextGen++
	a.nationalEpoch++
	a.national = nationalSlot{state: model.LoadStateUnloaded, gen: a.nextGen}
	a.allowed = make(map[string]*allowedSlot)
	a.mu.Unlock()
	a.datasets.reset()
}
