package repository

import "context"

// BoundarySource 境界データセット（GeoJSON）の取得元
// 取得できない場合は model.ErrDataUnavailable をラップして返す
type BoundarySource interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}
