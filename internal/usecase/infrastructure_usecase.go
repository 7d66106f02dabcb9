package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"RegionAccess-App/internal/application"
	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
)

// AuthorizationError 認可で拒否された操作
type AuthorizationError struct {
	Decision model.AccessDecision
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: %s", model.ErrOutsideAllowedRegion.Error(), e.Decision.Reason)
}

func (e *AuthorizationError) Unwrap() error {
	return model.ErrOutsideAllowedRegion
}

type InfrastructureUseCase interface {
	// Create 許可領域内の地点のみ登録する
	Create(ctx context.Context, userID string, req *model.InfraPointRequest) (*model.InfraPoint, error)

	// List 現在の許可領域で表示できる地点のみ返す
	List(ctx context.Context, userID string) ([]model.InfraPoint, error)

	// Update 新しい座標で再度認可する
	Update(ctx context.Context, userID, id string, req *model.InfraPointRequest) (*model.InfraPoint, error)

	Delete(ctx context.Context, userID, id string) error

	// Import 各行を検証・認可し、受け入れた行のみまとめて登録する
	Import(ctx context.Context, userID string, reqs []model.InfraPointRequest) (*model.ImportResult, error)
}

// infrastructureUseCaseImpl InfrastructureUseCaseの実装
type infrastructureUseCaseImpl struct {
	regions application.RegionAccessService
	repo    repository.InfrastructureRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewInfrastructureUseCase 新しいInfrastructureUseCaseインスタンスを作成
func NewInfrastructureUseCase(
	regions application.RegionAccessService,
	repo repository.InfrastructureRepository,
	logger *zap.Logger,
) InfrastructureUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &infrastructureUseCaseImpl{
		regions: regions,
		repo:    repo,
		logger:  logger,
		now:     time.Now,
	}
}

// validateRequest 入力値の検証
func validateRequest(req *model.InfraPointRequest) error {
	if req == nil {
		return fmt.Errorf("%w: リクエストが空です", model.ErrInvalidInfraRequest)
	}
	if strings.TrimSpace(req.Location) == "" {
		return fmt.Errorf("%w: location は必須です", model.ErrInvalidInfraRequest)
	}
	if !model.IsValidLocationType(req.LocationType) {
		return fmt.Errorf("%w: 不明な location_type %q", model.ErrInvalidInfraRequest, req.LocationType)
	}
	if !req.ToLatLng().IsFinite() {
		return fmt.Errorf("%w: %v", model.ErrInvalidInfraRequest, model.ErrInvalidPoint)
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return fmt.Errorf("%w: 座標が範囲外です", model.ErrInvalidInfraRequest)
	}
	for name, h := range map[string]*float64{"building_height": req.BuildingHeight, "tower_height": req.TowerHeight} {
		if h != nil && (*h < 0 || math.IsNaN(*h) || math.IsInf(*h, 0)) {
			return fmt.Errorf("%w: %s は0以上の数値を指定してください", model.ErrInvalidInfraRequest, name)
		}
	}
	return nil
}

func newInfraID() string {
	return "inf-" + uuid.NewString()
}

func (u *infrastructureUseCaseImpl) toPoint(userID string, req *model.InfraPointRequest) *model.InfraPoint {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = newInfraID()
	}
	return &model.InfraPoint{
		ID:             id,
		OwnerID:        userID,
		Location:       strings.TrimSpace(req.Location),
		LocationType:   req.LocationType,
		BuildingHeight: req.BuildingHeight,
		TowerHeight:    req.TowerHeight,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Address:        strings.TrimSpace(req.Address),
		CreatedAt:      u.now().UTC(),
	}
}

func (u *infrastructureUseCaseImpl) authorize(ctx context.Context, userID string, point model.LatLng) error {
	decision := u.regions.Authorize(ctx, userID, point)
	if !decision.Allowed {
		return &AuthorizationError{Decision: decision}
	}
	return nil
}

func (u *infrastructureUseCaseImpl) Create(ctx context.Context, userID string, req *model.InfraPointRequest) (*model.InfraPoint, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := u.authorize(ctx, userID, req.ToLatLng()); err != nil {
		return nil, err
	}

	point := u.toPoint(userID, req)
	if err := u.repo.Create(ctx, point); err != nil {
		return nil, fmt.Errorf("インフラ地点の保存に失敗: %w", err)
	}
	u.logger.Info("インフラ地点を登録", zap.String("user_id", userID), zap.String("id", point.ID))
	return point, nil
}

func (u *infrastructureUseCaseImpl) List(ctx context.Context, userID string) ([]model.InfraPoint, error) {
	var (
		stored []model.InfraPoint
		err    error
	)
	// 許可領域の外接矩形があれば事前に絞り込む（未設定・未準備なら全件から判定）
	if bbox, bErr := u.regions.Bounds(ctx, userID); bErr == nil && bbox != nil {
		stored, err = u.repo.ListWithinBounds(ctx, userID, bbox)
	} else {
		stored, err = u.repo.ListByOwner(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("インフラ地点一覧の取得に失敗: %w", err)
	}

	visible := make([]model.InfraPoint, 0, len(stored))
	for i := range stored {
		if u.regions.Visible(ctx, userID, stored[i].ToLatLng()) {
			visible = append(visible, stored[i])
		}
	}
	return visible, nil
}

func (u *infrastructureUseCaseImpl) Update(ctx context.Context, userID, id string, req *model.InfraPointRequest) (*model.InfraPoint, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	current, err := u.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := u.authorize(ctx, userID, req.ToLatLng()); err != nil {
		return nil, err
	}

	updated := u.toPoint(userID, req)
	updated.ID = current.ID
	updated.CreatedAt = current.CreatedAt
	if err := u.repo.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("インフラ地点の更新に失敗: %w", err)
	}
	return updated, nil
}

func (u *infrastructureUseCaseImpl) Delete(ctx context.Context, userID, id string) error {
	return u.repo.Delete(ctx, userID, id)
}

// idTaken 同じ取り込み内、または保存済みの地点とIDが重なるか
func (u *infrastructureUseCaseImpl) idTaken(ctx context.Context, userID, id string, seen map[string]bool) (bool, error) {
	if seen[id] {
		return true, nil
	}
	_, err := u.repo.GetByID(ctx, userID, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, model.ErrInfraNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("インフラ地点 %s の重複確認に失敗: %w", id, err)
	}
}

func (u *infrastructureUseCaseImpl) Import(ctx context.Context, userID string, reqs []model.InfraPointRequest) (*model.ImportResult, error) {
	result := &model.ImportResult{Imported: []model.InfraPoint{}}
	seen := make(map[string]bool, len(reqs))

	for i := range reqs {
		req := reqs[i]
		if req.LocationType == "" {
			req.LocationType = model.LocationTypeImported
		}
		if err := validateRequest(&req); err != nil {
			result.Invalid++
			result.Rejected = append(result.Rejected, model.RejectedPoint{Index: i, Reason: err.Error()})
			continue
		}

		var authErr *AuthorizationError
		if err := u.authorize(ctx, userID, req.ToLatLng()); errors.As(err, &authErr) {
			result.Skipped++
			result.Rejected = append(result.Rejected, model.RejectedPoint{Index: i, Reason: authErr.Decision.Reason})
			continue
		}

		point := u.toPoint(userID, &req)
		taken, err := u.idTaken(ctx, userID, point.ID, seen)
		if err != nil {
			return nil, err
		}
		if taken {
			point.ID = newInfraID()
		}
		seen[point.ID] = true
		result.Imported = append(result.Imported, *point)
	}

	if err := u.repo.CreateBatch(ctx, result.Imported); err != nil {
		return nil, fmt.Errorf("インフラ地点の一括保存に失敗: %w", err)
	}

	u.logger.Info("インフラ地点を取り込み",
		zap.String("user_id", userID),
		zap.Int("imported", len(result.Imported)),
		zap.Int("skipped", result.Skipped),
		zap.Int("invalid", result.Invalid))
	return result, nil
}
