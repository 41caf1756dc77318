package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/layout"
	"github.com/nikolaydubina/go-heatmap/heatmap/render"
	"github.com/nikolaydubina/go-heatmap/heatmap/source"
	"github.com/nikolaydubina/go-heatmap/heatmap/tooltip"
	"github.com/nikolaydubina/go-heatmap/metrics"
	"github.com/nikolaydubina/go-heatmap/server"
)

type failingSource struct{}

func (failingSource) Load(ctx context.Context) (*heatmap.Dataset, error) {
	return nil, errors.New("network down")
}

func newServer(t *testing.T, src source.Source) http.Handler {
	t.Helper()

	palette, ok := render.GetPalette(context.Background(), render.DefaultPalette)
	require.True(t, ok)

	reg := prometheus.NewRegistry()
	s := &server.Server{
		Source: source.NewCached(src, zap.NewNop(), nil),
		Builder: render.UIHeatMapBuilder{
			Palette:  palette,
			Geometry: layout.DefaultGeometry,
		},
		Logger:   zap.NewNop(),
		Metrics:  metrics.NewCollector("heatmap", reg),
		Gatherer: reg,
	}
	return s.Router()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestServer(t *testing.T) {
	h := newServer(t, source.FileSource{Path: "testdata/global-temperature.json"})

	t.Run("page", func(t *testing.T) {
		w := get(t, h, "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		body := w.Body.String()
		assert.Contains(t, body, `id="tooltip"`)
		assert.Contains(t, body, `id="legend"`)
		assert.Equal(t, 24, strings.Count(body, `class="cell"`))
		assert.NotContains(t, body, `id="error"`)
	})

	t.Run("svg", func(t *testing.T) {
		w := get(t, h, "/heatmap.svg")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.Equal(t, 24, strings.Count(w.Body.String(), `class="cell"`))
	})

	t.Run("svg year window", func(t *testing.T) {
		w := get(t, h, "/heatmap.svg?from=1754&to=1754")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 12, strings.Count(w.Body.String(), `class="cell"`))
		assert.NotContains(t, w.Body.String(), `data-year="1753"`)
	})

	t.Run("svg bad query", func(t *testing.T) {
		for _, target := range []string{"/heatmap.svg?from=abc", "/heatmap.svg?to=x", "/heatmap.svg?from=1754&to=1753"} {
			w := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})

	t.Run("svg empty window", func(t *testing.T) {
		w := get(t, h, "/heatmap.svg?from=1900&to=1950")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("tooltip", func(t *testing.T) {
		w := get(t, h, "/api/tooltip?year=1753&month=0")
		require.Equal(t, http.StatusOK, w.Code)

		var label tooltip.Label
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &label))
		assert.Equal(t, []string{"1753 - January", "7.294", "-1.366"}, label.Lines)
		assert.Equal(t, 1753, label.Year)
		assert.Equal(t, tooltip.VisibleOpacity, label.Opacity)
	})

	t.Run("tooltip miss", func(t *testing.T) {
		w := get(t, h, "/api/tooltip?year=1900&month=0")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "record not found")
	})

	t.Run("tooltip bad query", func(t *testing.T) {
		for _, target := range []string{"/api/tooltip?year=x&month=0", "/api/tooltip?year=1753", "/api/tooltip?year=1753&month=12"} {
			w := get(t, h, target)
			assert.Equal(t, http.StatusBadRequest, w.Code, target)
		}
	})

	t.Run("dataset", func(t *testing.T) {
		w := get(t, h, "/api/dataset")
		require.Equal(t, http.StatusOK, w.Code)

		var resp map[string]float64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 8.66, resp["base_temperature"])
		assert.Equal(t, 24.0, resp["records"])
		assert.Equal(t, 1753.0, resp["min_year"])
		assert.Equal(t, 1754.0, resp["max_year"])
	})

	t.Run("legend", func(t *testing.T) {
		w := get(t, h, "/api/legend")
		require.Equal(t, http.StatusOK, w.Code)

		var resp []struct {
			Index       int     `json:"index"`
			Color       string  `json:"color"`
			Temperature float64 `json:"temperature"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp, 10)
		assert.Equal(t, "#a50026", resp[0].Color)
		assert.Equal(t, 8.9, resp[0].Temperature)
		assert.Equal(t, 6.4, resp[9].Temperature)
	})

	t.Run("health", func(t *testing.T) {
		w := get(t, h, "/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		w := get(t, h, "/metrics")
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "heatmap_http_requests_total")
		assert.Contains(t, body, `route="/api/tooltip"`)
		assert.Contains(t, body, "heatmap_tooltip_lookups_total")
		assert.Contains(t, body, "heatmap_render_duration_seconds_count")
	})
}

func TestServerDatasetUnavailable(t *testing.T) {
	h := newServer(t, failingSource{})

	t.Run("page shows error state", func(t *testing.T) {
		w := get(t, h, "/")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `id="error"`)
		assert.Contains(t, w.Body.String(), "network down")
		assert.NotContains(t, w.Body.String(), `class="cell"`)
	})

	for _, target := range []string{"/heatmap.svg", "/api/dataset", "/api/legend", "/api/tooltip?year=1753&month=0"} {
		t.Run(target, func(t *testing.T) {
			w := get(t, h, target)
			assert.Equal(t, http.StatusServiceUnavailable, w.Code)
			assert.Contains(t, w.Body.String(), "dataset unavailable")
		})
	}
}
