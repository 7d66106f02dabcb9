package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/metrics"
)

const accessListCacheKeyPrefix = "region-access:acl:"

// cachedAccessEntry Redis に保存する値。未設定ユーザーも Missing として保存する
type cachedAccessEntry struct {
	Missing bool               `json:"missing"`
	Entry   *model.AccessEntry `json:"entry,omitempty"`
}

// CachedAccessListRepository Redis でアクセスリストをキャッシュするデコレータ
type CachedAccessListRepository struct {
	next   repository.AccessListRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAccessListRepository 新しいCachedAccessListRepositoryインスタンスを作成
func NewCachedAccessListRepository(next repository.AccessListRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedAccessListRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAccessListRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func accessListCacheKey(userID string) string {
	return accessListCacheKeyPrefix + userID
}

// GetByUserID キャッシュ障害時はバックエンドへそのまま問い合わせる
func (r *CachedAccessListRepository) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	key := accessListCacheKey(userID)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedAccessEntry
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			metrics.AccessListCache.WithLabelValues("hit").Inc()
			if cached.Missing || cached.Entry == nil {
				return nil, fmt.Errorf("ユーザー %s: %w", userID, model.ErrAccessListNotFound)
			}
			return cached.Entry, nil
		}
		r.logger.Warn("キャッシュ値の破損を検出", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		metrics.AccessListCache.WithLabelValues("miss").Inc()
	default:
		metrics.AccessListCache.WithLabelValues("error").Inc()
		r.logger.Warn("Redis読み込み失敗", zap.String("key", key), zap.Error(err))
	}

	entry, err := r.next.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		r.store(ctx, key, cachedAccessEntry{Entry: entry})
		return entry, nil
	case errors.Is(err, model.ErrAccessListNotFound):
		r.store(ctx, key, cachedAccessEntry{Missing: true})
		return nil, err
	default:
		return nil, err
	}
}

func (r *CachedAccessListRepository) store(ctx context.Context, key string, value cachedAccessEntry) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("キャッシュ値のシリアライズ失敗", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Redis書き込み失敗", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate ユーザーのキャッシュを削除する
func (r *CachedAccessListRepository) Invalidate(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, accessListCacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ削除失敗: %w", err)
	}
	return nil
}
