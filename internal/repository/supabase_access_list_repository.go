package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"RegionAccess-App/internal/database"
	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
)

// AccessListTable アクセスリストのテーブル名（postgres と共通）
const AccessListTable = "user_region_access"

type SupabaseAccessListRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseAccessListRepository(client *database.SupabaseClient) repository.AccessListRepository {
	return &SupabaseAccessListRepository{
		client: client,
	}
}

// accessRow user_region_access テーブルの行
type accessRow struct {
	Level      string  `json:"level"`
	RegionName *string `json:"region_name"`
}

func (r *SupabaseAccessListRepository) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	data, _, err := r.client.GetClient().From(AccessListTable).
		Select("level,region_name", "exact", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("アクセスリスト取得失敗: %w", err)
	}

	var rows []accessRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("アクセスリストのJSONアンマーシャル失敗: %w", err)
	}

	return accessRowsToEntry(userID, rows)
}

// accessRowsToEntry 行のリストを AccessEntry に変換（行が無ければ未設定）
func accessRowsToEntry(userID string, rows []accessRow) (*model.AccessEntry, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ユーザー %s: %w", userID, model.ErrAccessListNotFound)
	}

	entry := &model.AccessEntry{UserID: userID, Grants: []model.RegionGrant{}}
	for _, row := range rows {
		if row.RegionName == nil || *row.RegionName == "" {
			continue
		}
		entry.Grants = append(entry.Grants, model.RegionGrant{
			Level: model.RegionLevel(row.Level),
			Name:  *row.RegionName,
		})
	}
	return entry, nil
}
