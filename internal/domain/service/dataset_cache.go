package service

import (
	"context"
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

// DatasetSpec 境界データセットの識別子と名前プロパティ
type DatasetSpec struct {
	Name     string   // データセットのファイル名（キャッシュキー）
	NameKeys []string // 領域名として使う GeoJSON プロパティ（優先順）
}

// datasetCache パース済みデータセットをデータセット名ごとに保持する
// 失敗した読み込みはキャッシュしない
type datasetCache struct {
	source  repository.BoundarySource
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	gen     uint64 // reset ごとに進め、古い読み込み結果を書き込まない
	entries map[string][]model.Boundary
	group   singleflight.Group
}

func newDatasetCache(source repository.BoundarySource, timeout time.Duration, logger *zap.Logger) *datasetCache {
	return &datasetCache{
		source:  source,
		timeout: timeout,
		logger:  logger,
		entries: make(map[string][]model.Boundary),
	}
}

func (c *datasetCache) cached(name string) ([]model.Boundary, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.entries[name]
	return b, c.gen, ok
}

// load データセットを取得・パースする。同一データセットへの同時要求は1回にまとめる
func (c *datasetCache) load(ctx context.Context, spec DatasetSpec, level model.RegionLevel) ([]model.Boundary, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: %s のデータセットが設定されていません", model.ErrDataUnavailable, level)
	}
	b, gen, ok := c.cached(spec.Name)
	if ok {
		return b, nil
	}

	key := fmt.Sprintf("%s@%d", spec.Name, gen)
	ch := c.group.DoChan(key, func() (any, error) {
		// 呼び出し元が離脱しても他の待機者のために読み込みは続ける。上限は timeout
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(loadCtx, spec, level, gen)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s の読み込みを中断: %v", model.ErrDataUnavailable, spec.Name, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]model.Boundary), nil
	}
}

func (c *datasetCache) fetch(ctx context.Context, spec DatasetSpec, level model.RegionLevel, gen uint64) ([]model.Boundary, error) {
	start := time.Now()

	data, err := c.source.Fetch(ctx, spec.Name)
	if err != nil {
		metrics.RecordDatasetLoad(spec.Name, metrics.OutcomeFailed, time.Since(start))
		c.logger.Warn("境界データの取得失敗", zap.String("dataset", spec.Name), zap.Error(err))
		return nil, err
	}

	parsed, err := helper.ParseBoundaries(data, level, spec.NameKeys)
	if err != nil {
		metrics.RecordDatasetLoad(spec.Name, metrics.OutcomeFailed, time.Since(start))
		c.logger.Warn("境界データのパース失敗", zap.String("dataset", spec.Name), zap.Error(err))
		return nil, err
	}
	if parsed.Skipped > 0 {
		metrics.SkippedFeatures.WithLabelValues(spec.Name).Add(float64(parsed.Skipped))
		c.logger.Warn("不正なFeatureを読み飛ばしました",
			zap.String("dataset", spec.Name),
			zap.Int("skipped", parsed.Skipped),
			zap.Int("loaded", len(parsed.Boundaries)))
	}

	c.mu.Lock()
	if c.gen == gen {
		c.entries[spec.Name] = parsed.Boundaries
	}
	c.mu.Unlock()

	metrics.RecordDatasetLoad(spec.Name, metrics.OutcomeSuccess, time.Since(start))
	c.logger.Info("境界データ読み込み完了",
		zap.String("dataset", spec.Name),
		zap.Int("features", len(parsed.Boundaries)),
		zap.Duration("elapsed", time.Since(start)))
	return parsed.Boundaries, nil
}

// reset キャッシュを空にする。実行中の読み込み結果は以後キャッシュされない
func (c *datasetCache) reset() {
	c.mu.Lock()
	c.gen++
	c.entries = make(map[string][]model.Boundary)
	c.mu.Unlock()
}
