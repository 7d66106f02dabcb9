package boundary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RegionAccess-App/internal/domain/model"
)

// 1データセットあたりの最大サイズ（細かい行政区境界は数十MBになる）
const maxDatasetBytes = 256 << 20

// HTTPBoundarySource 静的アセットとして配信されている GeoJSON を取得する
type HTTPBoundarySource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPBoundarySource 新しいソースを生成する
func NewHTTPBoundarySource(baseURL string, timeout time.Duration) *HTTPBoundarySource {
	return &HTTPBoundarySource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch <baseURL>/<name> を取得する
func (s *HTTPBoundarySource) Fetch(ctx context.Context, name string) ([]byte, error) {
	// 1. リクエストURLを構築
	reqURL, err := url.JoinPath(s.baseURL, name)
	if err != nil {
		return nil, fmt.Errorf("%w: URLの構築に失敗: %v", model.ErrDataUnavailable, err)
	}

	// 2. HTTPリクエストを作成・実行
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: リクエストの作成に失敗: %v", model.ErrDataUnavailable, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s の取得に失敗: %v", model.ErrDataUnavailable, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s でエラーステータスが返されました: %s", model.ErrDataUnavailable, name, resp.Status)
	}

	// 3. 本文を読み込む（パースは呼び出し側）
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s の読み込みに失敗: %v", model.ErrDataUnavailable, name, err)
	}
	return data, nil
}
