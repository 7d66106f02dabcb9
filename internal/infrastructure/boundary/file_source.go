package boundary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"RegionAccess-App/internal/domain/model"
)

// FileBoundarySource ローカルディレクトリから GeoJSON を読み込む
type FileBoundarySource struct {
	dir string
}

// NewFileBoundarySource 新しいソースを生成する
func NewFileBoundarySource(dir string) *FileBoundarySource {
	return &FileBoundarySource{dir: dir}
}

// Fetch <dir>/<name> を読み込む
func (s *FileBoundarySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
	}

	// ディレクトリ外への参照は拒否
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%w: 不正なデータセット名 %q", model.ErrDataUnavailable, name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s が見つかりません", model.ErrDataUnavailable, name)
		}
		return nil, fmt.Errorf("%w: %s の読み込みに失敗: %v", model.ErrDataUnavailable, name, err)
	}
	return data, nil
}
