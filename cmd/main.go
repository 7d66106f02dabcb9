package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"RegionAccess-App/internal/application"
	"RegionAccess-App/internal/config"
	"RegionAccess-App/internal/database"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/domain/service"
	"RegionAccess-App/internal/handler"
	"RegionAccess-App/internal/infrastructure/boundary"
	"RegionAccess-App/internal/infrastructure/cache"
	pgdb "RegionAccess-App/internal/infrastructure/database"
	"RegionAccess-App/internal/infrastructure/firestore"
	"RegionAccess-App/internal/logger"
	repoImpl "RegionAccess-App/internal/repository"
	"RegionAccess-App/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込み失敗: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("ロガー初期化失敗: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("サーバー異常終了", zap.Error(err))
	}
}

// closers 終了時にまとめて閉じるリソース
type closers []func() error

func (cs closers) Close() error {
	var err error
	for i := len(cs) - 1; i >= 0; i-- {
		err = multierr.Append(err, cs[i]())
	}
	return err
}

func run(cfg *config.Config, zl *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var resources closers
	defer func() {
		err = multierr.Append(err, resources.Close())
	}()

	// PostgreSQL（アクセスリスト・インフラ地点のいずれかで使用する場合のみ）
	var pg *pgdb.PostgreSQLClient
	if cfg.NeedsPostgres() {
		zl.Info("PostgreSQLに接続中...")
		pg, err = pgdb.NewPostgreSQLClientWithRetry(5, 2*time.Second)
		if err != nil {
			return fmt.Errorf("PostgreSQL接続失敗: %w", err)
		}
		resources = append(resources, pg.Close)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("スキーマ作成失敗: %w", err)
		}
	}

	accessLists, err := newAccessListRepository(ctx, cfg, pg, zl, &resources)
	if err != nil {
		return err
	}

	// Redis キャッシュ（REDIS_ADDR が設定されている場合）
	var invalidator repository.AccessListInvalidator
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("Redis接続失敗: %w", err)
		}
		resources = append(resources, rdb.Close)
		cached := repoImpl.NewCachedAccessListRepository(accessLists, rdb, cfg.AccessListCacheTTL, zl)
		accessLists = cached
		invalidator = cached
		zl.Info("アクセスリストキャッシュ有効", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.AccessListCacheTTL))
	}

	var source repository.BoundarySource
	if cfg.BoundaryBaseURL != "" {
		source = boundary.NewHTTPBoundarySource(cfg.BoundaryBaseURL, cfg.Authorizer.LoadTimeout)
		zl.Info("境界データをHTTPから取得", zap.String("base_url", cfg.BoundaryBaseURL))
	} else {
		source = boundary.NewFileBoundarySource(cfg.BoundaryDir)
		zl.Info("境界データをファイルから取得", zap.String("dir", cfg.BoundaryDir))
	}

	authorizer := service.NewRegionAccessAuthorizer(cfg.Authorizer, source, accessLists, service.PlanarContainment{}, zl)
	resources = append(resources, func() error {
		authorizer.Close()
		return nil
	})
	regions := application.NewRegionAccessService(authorizer, cfg.WarmupLevels(), invalidator, zl)

	var infraRepo repository.InfrastructureRepository
	switch cfg.InfraBackend {
	case config.InfraPostgres:
		infraRepo = repoImpl.NewPostgresInfrastructureRepository(pg)
	default:
		infraRepo = repoImpl.NewMemoryInfrastructureRepository()
	}
	infra := usecase.NewInfrastructureUseCase(regions, infraRepo, zl)

	// 事前読み込みの失敗は致命的ではない（判定はフェイルクローズ）
	go func() {
		if err := regions.Warmup(ctx); err != nil {
			zl.Warn("境界データの事前読み込み失敗", zap.Error(err))
			return
		}
		zl.Info("境界データの事前読み込み完了")
	}()

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.NewRegionAccessHandler(regions), handler.NewInfrastructureHandler(infra), zl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("RegionAccess-App server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("シャットダウン中...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newAccessListRepository 設定に応じたアクセスリストのバックエンドを作成
func newAccessListRepository(
	ctx context.Context,
	cfg *config.Config,
	pg *pgdb.PostgreSQLClient,
	zl *zap.Logger,
	resources *closers,
) (repository.AccessListRepository, error) {
	switch cfg.AccessListBackend {
	case config.AccessListPostgres:
		return repoImpl.NewPostgresAccessListRepository(pg), nil

	case config.AccessListSupabase:
		client, err := database.NewSupabaseClient(cfg.Supabase, zl)
		if err != nil {
			return nil, fmt.Errorf("Supabaseクライアント初期化失敗: %w", err)
		}
		if err := client.HealthCheck(repoImpl.AccessListTable); err != nil {
			return nil, fmt.Errorf("Supabaseヘルスチェック失敗: %w", err)
		}
		return repoImpl.NewSupabaseAccessListRepository(client), nil

	case config.AccessListFirestore:
		client, err := firestore.NewFirestoreClient(ctx, cfg.FirestoreProjectID, zl)
		if err != nil {
			return nil, err
		}
		*resources = append(*resources, client.Close)
		return repoImpl.NewFirestoreAccessListRepository(client.GetClient()), nil

	default:
		repo, err := repoImpl.NewStaticAccessListRepository(cfg.AccessListFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				zl.Warn("アクセスリストファイルがありません（全ユーザー未設定として扱います）", zap.String("path", cfg.AccessListFile))
				return repoImpl.NewStaticAccessListRepositoryFromEntries(), nil
			}
			return nil, err
		}
		return repo, nil
	}
}
