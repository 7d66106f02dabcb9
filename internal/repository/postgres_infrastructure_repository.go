package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/infrastructure/database"
)

const infraColumns = `id, owner_id, location, location_type, building_height, tower_height, latitude, longitude, address, created_at`

type PostgresInfrastructureRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresInfrastructureRepository(client *database.PostgreSQLClient) repository.InfrastructureRepository {
	return &PostgresInfrastructureRepository{
		client: client,
	}
}

// rowScanner *sql.Row と *sql.Rows の共通部分
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInfraPoint(s rowScanner) (*model.InfraPoint, error) {
	var p model.InfraPoint
	var buildingHeight, towerHeight sql.NullFloat64
	err := s.Scan(&p.ID, &p.OwnerID, &p.Location, &p.LocationType, &buildingHeight, &towerHeight,
		&p.Latitude, &p.Longitude, &p.Address, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if buildingHeight.Valid {
		p.BuildingHeight = &buildingHeight.Float64
	}
	if towerHeight.Valid {
		p.TowerHeight = &towerHeight.Float64
	}
	return &p, nil
}

func infraArgs(p *model.InfraPoint) []any {
	return []any{p.ID, p.OwnerID, p.Location, p.LocationType, p.BuildingHeight, p.TowerHeight,
		p.Latitude, p.Longitude, p.Address, p.CreatedAt}
}

const insertInfraQuery = `INSERT INTO infrastructure_points (` + infraColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// uniqueViolation 主キー重複のエラーコード
const uniqueViolation = "23505"

// wrapInsertError 主キー重複を ErrInfraDuplicate に変換
func wrapInsertError(id string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", model.ErrInfraDuplicate, id)
	}
	return fmt.Errorf("インフラ地点 %s の作成失敗: %w", id, err)
}

func (r *PostgresInfrastructureRepository) Create(ctx context.Context, point *model.InfraPoint) error {
	if _, err := r.client.DB.ExecContext(ctx, insertInfraQuery, infraArgs(point)...); err != nil {
		return wrapInsertError(point.ID, err)
	}
	return nil
}

func (r *PostgresInfrastructureRepository) CreateBatch(ctx context.Context, points []model.InfraPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始失敗: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertInfraQuery)
	if err != nil {
		return fmt.Errorf("ステートメント準備失敗: %w", err)
	}
	defer stmt.Close()

	for i := range points {
		if _, err := stmt.ExecContext(ctx, infraArgs(&points[i])...); err != nil {
			return wrapInsertError(points[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミット失敗: %w", err)
	}
	return nil
}

func (r *PostgresInfrastructureRepository) GetByID(ctx context.Context, ownerID, id string) (*model.InfraPoint, error) {
	query := `SELECT ` + infraColumns + ` FROM infrastructure_points WHERE owner_id = $1 AND id = $2`

	point, err := scanInfraPoint(r.client.DB.QueryRowContext(ctx, query, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("インフラ地点 %s: %w", id, model.ErrInfraNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("インフラ地点の取得失敗: %w", err)
	}
	return point, nil
}

func (r *PostgresInfrastructureRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.InfraPoint, error) {
	query := `SELECT ` + infraColumns + ` FROM infrastructure_points WHERE owner_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, ownerID)
}

func (r *PostgresInfrastructureRepository) ListWithinBounds(ctx context.Context, ownerID string, bbox *model.BoundingBox) ([]model.InfraPoint, error) {
	if bbox == nil {
		return []model.InfraPoint{}, nil
	}
	query := `SELECT ` + infraColumns + ` FROM infrastructure_points
		WHERE owner_id = $1
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		ORDER BY created_at, id`
	args := append([]any{ownerID}, BoundQueryArgs(bbox)...)
	return r.list(ctx, query, args...)
}

func (r *PostgresInfrastructureRepository) list(ctx context.Context, query string, args ...any) ([]model.InfraPoint, error) {
	rows, err := r.client.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("インフラ地点一覧の取得失敗: %w", err)
	}
	defer rows.Close()

	points := []model.InfraPoint{}
	for rows.Next() {
		p, err := scanInfraPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("インフラ地点スキャンエラー: %w", err)
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インフラ地点一覧の取得失敗: %w", err)
	}
	return points, nil
}

func (r *PostgresInfrastructureRepository) Update(ctx context.Context, point *model.InfraPoint) error {
	query := `UPDATE infrastructure_points
		SET location = $3, location_type = $4, building_height = $5, tower_height = $6,
		    latitude = $7, longitude = $8, address = $9
		WHERE owner_id = $1 AND id = $2`

	res, err := r.client.DB.ExecContext(ctx, query, point.OwnerID, point.ID, point.Location, point.LocationType,
		point.BuildingHeight, point.TowerHeight, point.Latitude, point.Longitude, point.Address)
	if err != nil {
		return fmt.Errorf("インフラ地点の更新失敗: %w", err)
	}
	return expectAffected(res, point.ID)
}

func (r *PostgresInfrastructureRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.client.DB.ExecContext(ctx, `DELETE FROM infrastructure_points WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("インフラ地点の削除失敗: %w", err)
	}
	return expectAffected(res, id)
}

func expectAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得失敗: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("インフラ地点 %s: %w", id, model.ErrInfraNotFound)
	}
	return nil
}
