package repository

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
)

const accessListCollection = "userRegionAccess"

// FirestoreAccessDocument userRegionAccess コレクションのドキュメント（ID = ユーザーID）
type FirestoreAccessDocument struct {
	States       []string `firestore:"states"`
	Districts    []string `firestore:"districts"`
	Subdistricts []string `firestore:"subdistricts"`
}

// ToAccessEntry ドキュメントを AccessEntry に変換
func (d *FirestoreAccessDocument) ToAccessEntry(userID string) *model.AccessEntry {
	entry := &model.AccessEntry{UserID: userID, Grants: []model.RegionGrant{}}
	add := func(level model.RegionLevel, names []string) {
		for _, name := range names {
			entry.Grants = append(entry.Grants, model.RegionGrant{Level: level, Name: name})
		}
	}
	add(model.RegionLevelState, d.States)
	add(model.RegionLevelDistrict, d.Districts)
	add(model.RegionLevelSubdistrict, d.Subdistricts)
	return entry
}

// FirestoreAccessListRepository Firestoreを使用したアクセスリストリポジトリ
type FirestoreAccessListRepository struct {
	client *firestore.Client
}

// NewFirestoreAccessListRepository 新しいFirestoreAccessListRepositoryインスタンスを作成
func NewFirestoreAccessListRepository(client *firestore.Client) repository.AccessListRepository {
	return &FirestoreAccessListRepository{
		client: client,
	}
}

func (r *FirestoreAccessListRepository) GetByUserID(ctx context.Context, userID string) (*model.AccessEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("ユーザーIDが空です: %w", model.ErrAccessListNotFound)
	}

	doc, err := r.client.Collection(accessListCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("ユーザー %s: %w", userID, model.ErrAccessListNotFound)
		}
		return nil, fmt.Errorf("アクセスリストの取得に失敗しました: %w", err)
	}

	var data FirestoreAccessDocument
	if err := doc.DataTo(&data); err != nil {
		return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
	}
	return data.ToAccessEntry(userID), nil
}
