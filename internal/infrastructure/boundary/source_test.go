package boundary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegionAccess-App/internal/domain/model"
)

func TestFileBoundarySource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "india.json"), []byte(`{"type":"FeatureCollection","features":[]}`), 0o600))
	src := NewFileBoundarySource(dir)
	ctx := context.Background()

	data, err := src.Fetch(ctx, "india.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")

	_, err = src.Fetch(ctx, "missing.geojson")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	_, err = src.Fetch(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Fetch(cancelled, "india.json")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestHTTPBoundarySource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/india-boundary.geojson" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	src := NewHTTPBoundarySource(srv.URL+"/assets/", time.Second)
	ctx := context.Background()

	data, err := src.Fetch(ctx, "india-boundary.geojson")
	require.NoError(t, err)
	assert.Contains(t, string(data), "FeatureCollection")

	_, err = src.Fetch(ctx, "GUJARAT_DISTRICTS.geojson")
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}
