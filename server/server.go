package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	_ "embed"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	chirender "github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/render"
	"github.com/nikolaydubina/go-heatmap/heatmap/source"
	"github.com/nikolaydubina/go-heatmap/heatmap/tooltip"
	"github.com/nikolaydubina/go-heatmap/metrics"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

const tooltipPath = "/api/tooltip"

// ErrBadQuery is returned for malformed query parameters.
var ErrBadQuery = errors.New("bad query")

type Server struct {
	Source   source.Source
	Builder  render.UIHeatMapBuilder
	Renderer render.SVGRenderer
	Logger   *zap.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
}

// Router builds routes. Middlewares are applied before default ones.
func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	router.Use(middlewares...)
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)

	router.Get("/", s.pageHandler)
	router.Get("/heatmap.svg", s.svgHandler)
	router.Get("/health", s.healthHandler)
	router.Route("/api", func(r chi.Router) {
		r.Get("/dataset", s.datasetHandler)
		r.Get("/tooltip", s.tooltipHandler)
		r.Get("/legend", s.legendHandler)
	})
	if s.Gatherer != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	return router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		s.Metrics.ObserveRequest(route, r.Method, status, time.Since(start))
		s.Logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusOf maps domain errors to HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadQuery), errors.Is(err, heatmap.ErrInvalidYearRange), errors.Is(err, heatmap.ErrInvalidMonth):
		return http.StatusBadRequest
	case errors.Is(err, heatmap.ErrRecordNotFound), errors.Is(err, heatmap.ErrEmptyDataset):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	chirender.Status(r, status)
	chirender.JSON(w, r, errorResponse{Error: err.Error()})
}

// dataset loads dataset, failures are reported as 503.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*heatmap.Dataset, bool) {
	d, err := s.Source.Load(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, fmt.Errorf("dataset unavailable: %w", err))
		return nil, false
	}
	return d, true
}

func (s *Server) renderSVG(ctx context.Context, d heatmap.Dataset) ([]byte, error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Server.renderSVG")
	defer span.End()

	start := time.Now()
	spec, err := s.Builder.NewUIHeatMap(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("can not build heatmap: %w", err)
	}
	out := s.Renderer.Render(ctx, *spec)
	s.Metrics.ObserveRender(time.Since(start), len(spec.Cells))
	return out, nil
}

type pageData struct {
	Title         string
	Error         string
	SVG           template.HTML
	TooltipURL    string
	HiddenOpacity float64
	FadeMillis    int64
	OffsetX       int
	OffsetY       int
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := pageData{
		Title:         render.DefaultTitle,
		TooltipURL:    tooltipPath,
		HiddenOpacity: tooltip.Handler{}.Leave(ctx).Opacity,
		FadeMillis:    tooltip.FadeDuration.Milliseconds(),
		OffsetX:       tooltip.OffsetX,
		OffsetY:       tooltip.OffsetY,
	}
	if s.Builder.Title != "" {
		data.Title = s.Builder.Title
	}

	status := http.StatusOK
	if d, err := s.Source.Load(ctx); err != nil {
		status = http.StatusServiceUnavailable
		data.Error = err.Error()
		s.Logger.Error("can not load dataset for page", zap.Error(err))
	} else if svg, err := s.renderSVG(ctx, *d); err != nil {
		status = http.StatusInternalServerError
		data.Error = err.Error()
		s.Logger.Error("can not render page", zap.Error(err))
	} else {
		data.SVG = template.HTML(svg)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, data); err != nil {
		s.Logger.Error("can not execute page template", zap.Error(err))
	}
}

func (s *Server) svgHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	from, to, err := yearWindow(ctx, *d, r)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	if d, err = heatmap.FilterYears(ctx, *d, from, to); err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	svg, err := s.renderSVG(ctx, *d)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// yearWindow reads optional from and to years, defaulting to dataset bounds.
func yearWindow(ctx context.Context, d heatmap.Dataset, r *http.Request) (from, to int, err error) {
	from, to = d.YearRange(ctx)
	query := r.URL.Query()
	if v := query.Get("from"); v != "" {
		if from, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: from(%s) is not int", ErrBadQuery, v)
		}
	}
	if v := query.Get("to"); v != "" {
		if to, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: to(%s) is not int", ErrBadQuery, v)
		}
	}
	return from, to, nil
}

type datasetSummary struct {
	BaseTemperature float64 `json:"base_temperature"`
	Records         int     `json:"records"`
	MinYear         int     `json:"min_year"`
	MaxYear         int     `json:"max_year"`
	MinTemperature  float64 `json:"min_temperature"`
	MaxTemperature  float64 `json:"max_temperature"`
}

func (s *Server) datasetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	minYear, maxYear := d.YearRange(ctx)
	minTemp, maxTemp := d.TemperatureRange(ctx)
	chirender.JSON(w, r, datasetSummary{
		BaseTemperature: d.BaseTemperature,
		Records:         len(d.Records),
		MinYear:         minYear,
		MaxYear:         maxYear,
		MinTemperature:  minTemp,
		MaxTemperature:  maxTemp,
	})
}

// tooltipHandler answers hover over cell, month is 0-indexed as in data-month.
func (s *Server) tooltipHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	year, err := strconv.Atoi(query.Get("year"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: year(%s) is not int", ErrBadQuery, query.Get("year")))
		return
	}
	month, err := strconv.Atoi(query.Get("month"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: month(%s) is not int", ErrBadQuery, query.Get("month")))
		return
	}
	if month < 0 || month >= heatmap.NumMonths {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: month(%d)", heatmap.ErrInvalidMonth, month))
		return
	}

	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	label, err := tooltip.Handler{Dataset: *d}.Enter(ctx, year, month)
	s.Metrics.ObserveTooltip(err == nil)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	chirender.JSON(w, r, label)
}

type legendSwatch struct {
	Index       int     `json:"index"`
	Color       string  `json:"color"`
	Temperature float64 `json:"temperature"`
}

func (s *Server) legendHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, ok := s.dataset(w, r)
	if !ok {
		return
	}

	colorScale, err := render.NewColorScale(ctx, s.Builder.Palette, *d)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}
	parts := s.Builder.LegendParts
	if parts == 0 {
		parts = render.DefaultLegendParts
	}
	swatches, err := render.Legend(ctx, render.NewInverseColorScale(ctx, *colorScale, s.Builder.InverseSamples), parts)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	resp := make([]legendSwatch, 0, len(swatches))
	for _, sw := range swatches {
		resp = append(resp, legendSwatch{
			Index:       sw.Index,
			Color:       sw.Color.Hex(),
			Temperature: sw.Temperature,
		})
	}
	chirender.JSON(w, r, resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	chirender.JSON(w, r, map[string]string{"status": "ok"})
}
