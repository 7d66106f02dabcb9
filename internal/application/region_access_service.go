package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/domain/service"
	"RegionAccess-App/internal/metrics"
)

// RegionAccessService 地点操作の認可ゲート（作成・表示・インポートの全経路で使用）
type RegionAccessService interface {
	// Authorize 点に対する操作可否を判定する
	Authorize(ctx context.Context, userID string, point model.LatLng) model.AccessDecision

	// Visible 一覧表示用の判定。Authorize と同じ規則だが判定メトリクスは記録しない
	Visible(ctx context.Context, userID string, point model.LatLng) bool

	// Status ユーザーの読み込み状態と許可領域
	Status(ctx context.Context, userID string) (*model.RegionAccessStatus, error)

	// Bounds 許可領域の外接矩形（空なら nil）
	Bounds(ctx context.Context, userID string) (*model.BoundingBox, error)

	// Reload セッションを破棄して許可領域を再読み込み
	Reload(ctx context.Context, userID string) (*model.RegionAccessStatus, error)

	// Release セッションを破棄
	Release(userID string)

	// Warmup 国境と地域データセットを並行で事前読み込み
	Warmup(ctx context.Context) error

	NationalState() model.LoadState
}

// regionAccessServiceImpl RegionAccessServiceの実装
type regionAccessServiceImpl struct {
	authorizer  service.RegionAccessAuthorizer
	levels      []model.RegionLevel
	invalidator repository.AccessListInvalidator
	logger      *zap.Logger
}

// NewRegionAccessService RegionAccessServiceの新しいインスタンスを作成
// warmupLevels は Warmup で事前に読み込む地域データセットの階層
// invalidator は Reload 時にアクセスリストのキャッシュを破棄する（nil 可）
func NewRegionAccessService(
	authorizer service.RegionAccessAuthorizer,
	warmupLevels []model.RegionLevel,
	invalidator repository.AccessListInvalidator,
	logger *zap.Logger,
) RegionAccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &regionAccessServiceImpl{
		authorizer:  authorizer,
		levels:      warmupLevels,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (s *regionAccessServiceImpl) Authorize(ctx context.Context, userID string, point model.LatLng) model.AccessDecision {
	decision := s.authorize(ctx, userID, point)
	metrics.RecordDecision(decision.Reason)
	return decision
}

func (s *regionAccessServiceImpl) Visible(ctx context.Context, userID string, point model.LatLng) bool {
	return s.authorize(ctx, userID, point).Allowed
}

func (s *regionAccessServiceImpl) authorize(ctx context.Context, userID string, point model.LatLng) model.AccessDecision {
	if !point.IsFinite() {
		return model.AccessDecision{Reason: model.ReasonInvalidPoint}
	}

	// 国境データ: 読み込みに失敗しても IsInsideNational が false を返すので続行する
	if _, err := s.authorizer.LoadNationalBoundary(ctx); err != nil {
		s.logger.Debug("国境データ未準備", zap.Error(err))
	}
	decision := model.AccessDecision{
		InsideNational: s.authorizer.IsInsideNational(point),
	}
	if !decision.InsideNational {
		decision.Reason = model.ReasonOutsideNational
		return decision
	}

	if _, err := s.authorizer.LoadAllowedRegions(ctx, userID); err != nil {
		s.logger.Debug("許可領域未準備", zap.String("user_id", userID), zap.Error(err))
	}
	decision.AllowedReady = s.authorizer.AllowedReady(userID)

	if decision.AllowedReady {
		decision.InsideAllowed = s.authorizer.IsInsideAllowed(userID, point)
		if !decision.InsideAllowed {
			decision.Reason = model.ReasonRegionNotPermitted
			return decision
		}
		decision.Allowed = true
		decision.Reason = model.ReasonAllowed
		return decision
	}

	// 許可領域が未準備の場合はポリシーに従う（AllowAll は判定を省略）
	if s.authorizer.Policy() == model.AllowAll {
		decision.Allowed = true
		decision.Reason = model.ReasonAllowed
		return decision
	}
	decision.Reason = model.ReasonAccessListUnavailable
	return decision
}

func (s *regionAccessServiceImpl) Status(ctx context.Context, userID string) (*model.RegionAccessStatus, error) {
	if _, err := s.authorizer.LoadNationalBoundary(ctx); err != nil {
		s.logger.Debug("国境データ未準備", zap.Error(err))
	}
	set, err := s.authorizer.LoadAllowedRegions(ctx, userID)
	if err != nil {
		s.logger.Warn("許可領域の読み込み失敗", zap.String("user_id", userID), zap.Error(err))
	}
	return s.status(userID, set), nil
}

func (s *regionAccessServiceImpl) status(userID string, set *model.AllowedRegionSet) *model.RegionAccessStatus {
	st := &model.RegionAccessStatus{
		UserID:        userID,
		NationalState: s.authorizer.NationalState(),
		AllowedState:  s.authorizer.AllowedState(userID),
		Regions:       []string{},
	}
	if set != nil {
		st.Configured = set.Configured
		st.Regions = append(st.Regions, set.RegionNames()...)
		st.Bounds = service.BoundingBoxOf(set)
	}
	return st
}

func (s *regionAccessServiceImpl) Bounds(ctx context.Context, userID string) (*model.BoundingBox, error) {
	if _, err := s.authorizer.LoadAllowedRegions(ctx, userID); err != nil {
		return nil, fmt.Errorf("許可領域の読み込み失敗: %w", err)
	}
	return s.authorizer.AllowedBoundingBox(userID), nil
}

func (s *regionAccessServiceImpl) Reload(ctx context.Context, userID string) (*model.RegionAccessStatus, error) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			s.logger.Warn("アクセスリストキャッシュの破棄失敗", zap.String("user_id", userID), zap.Error(err))
		}
	}
	s.authorizer.Release(userID)
	set, err := s.authorizer.LoadAllowedRegions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("許可領域の再読み込み失敗: %w", err)
	}
	return s.status(userID, set), nil
}

func (s *regionAccessServiceImpl) Release(userID string) {
	s.authorizer.Release(userID)
}

func (s *regionAccessServiceImpl) NationalState() model.LoadState {
	return s.authorizer.NationalState()
}

func (s *regionAccessServiceImpl) Warmup(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := s.authorizer.LoadNationalBoundary(gctx)
		return err
	})
	for _, level := range s.levels {
		level := level
		g.Go(func() error {
			return s.authorizer.LoadDataset(gctx, level)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("境界データの事前読み込み失敗: %w", err)
	}
	return nil
}
