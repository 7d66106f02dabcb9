package repository

import (
	"context"

	"RegionAccess-App/internal/domain/model"
)

// AccessListRepository ユーザーごとのアクセス権を取得する
// エントリが存在しない場合は model.ErrAccessListNotFound を返す
type AccessListRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error)
}

// AccessListInvalidator キャッシュ付きリポジトリのキャッシュ破棄
type AccessListInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}
