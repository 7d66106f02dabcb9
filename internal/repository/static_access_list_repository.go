package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
)

// staticAccessFile アクセスリスト設定ファイルの形式
//
//	{"users": {"alice": {"state": ["Gujarat"], "district": ["Surat"]}}}
type staticAccessFile struct {
	Users map[string]map[model.RegionLevel][]string `json:"users"`
}

// StaticAccessListRepository 設定ファイルから読み込んだアクセスリスト
type StaticAccessListRepository struct {
	entries map[string]*model.AccessEntry
}

// NewStaticAccessListRepository JSONファイルからリポジトリを作成
func NewStaticAccessListRepository(path string) (repository.AccessListRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("アクセスリストファイルの読み込み失敗: %w", err)
	}
	return NewStaticAccessListRepositoryFromJSON(data)
}

// NewStaticAccessListRepositoryFromJSON JSONからリポジトリを作成
func NewStaticAccessListRepositoryFromJSON(data []byte) (*StaticAccessListRepository, error) {
	var file staticAccessFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("アクセスリストのJSONアンマーシャル失敗: %w", err)
	}

	repo := &StaticAccessListRepository{entries: make(map[string]*model.AccessEntry, len(file.Users))}
	for userID, levels := range file.Users {
		entry := &model.AccessEntry{UserID: userID, Grants: []model.RegionGrant{}}
		for level, names := range levels {
			if !level.IsGrantable() {
				return nil, fmt.Errorf("ユーザー %s に不明な階層 %q が指定されています", userID, level)
			}
			for _, name := range names {
				entry.Grants = append(entry.Grants, model.RegionGrant{Level: level, Name: name})
			}
		}
		repo.entries[userID] = entry
	}
	return repo, nil
}

// NewStaticAccessListRepositoryFromEntries エントリから直接作成（テスト・手動注入用）
func NewStaticAccessListRepositoryFromEntries(entries ...model.AccessEntry) *StaticAccessListRepository {
	repo := &StaticAccessListRepository{entries: make(map[string]*model.AccessEntry, len(entries))}
	for i := range entries {
		e := entries[i]
		repo.entries[e.UserID] = &e
	}
	return repo
}

func (r *StaticAccessListRepository) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	entry, ok := r.entries[userID]
	if !ok {
		return nil, fmt.Errorf("ユーザー %s: %w", userID, model.ErrAccessListNotFound)
	}
	copied := *entry
	copied.Grants = append([]model.RegionGrant(nil), entry.Grants...)
	return &copied, nil
}
