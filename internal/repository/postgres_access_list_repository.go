package repository

import (
	"context"
	"database/sql"
	"fmt"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
	"RegionAccess-App/internal/infrastructure/database"
)

type PostgresAccessListRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresAccessListRepository(client *database.PostgreSQLClient) repository.AccessListRepository {
	return &PostgresAccessListRepository{
		client: client,
	}
}

// GetByUserID region_name が NULL の行は「付与なし」のエントリとして扱う
func (r *PostgresAccessListRepository) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	query := `SELECT level, region_name FROM ` + AccessListTable + ` WHERE user_id = $1 ORDER BY level, region_name`

	rows, err := r.client.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("アクセスリスト取得失敗: %w", err)
	}
	defer rows.Close()

	entry := &model.AccessEntry{UserID: userID, Grants: []model.RegionGrant{}}
	found := false
	for rows.Next() {
		var level string
		var regionName sql.NullString
		if err := rows.Scan(&level, &regionName); err != nil {
			return nil, fmt.Errorf("アクセスリストスキャンエラー: %w", err)
		}
		found = true
		if !regionName.Valid {
			continue
		}
		entry.Grants = append(entry.Grants, model.RegionGrant{
			Level: model.RegionLevel(level),
			Name:  regionName.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アクセスリスト取得失敗: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("ユーザー %s: %w", userID, model.ErrAccessListNotFound)
	}
	return entry, nil
}
