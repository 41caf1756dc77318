package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	chitrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/go-chi/chi"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/nikolaydubina/go-heatmap/config"
	"github.com/nikolaydubina/go-heatmap/heatmap/render"
	"github.com/nikolaydubina/go-heatmap/heatmap/source"
	"github.com/nikolaydubina/go-heatmap/logger"
	"github.com/nikolaydubina/go-heatmap/metrics"
	"github.com/nikolaydubina/go-heatmap/server"
)

const shutdownTimeout = 10 * time.Second

func newSource(cfg config.Config, l *zap.Logger, m *metrics.Collector) source.Source {
	var src source.Source
	if cfg.DataFile != "" {
		src = source.FileSource{Path: cfg.DataFile, BaseTemperature: cfg.BaseTemperature}
	} else {
		src = source.NewHTTPSource(cfg.DataURL, &http.Client{Timeout: cfg.HTTPTimeout}, cfg.Backoff(), l)
	}
	cached := source.NewCached(src, l, m)
	// every attempt may take full client timeout, plus backoff between them
	cached.Timeout = time.Duration(cfg.FetchMaxRetries+1)*cfg.HTTPTimeout + time.Duration(cfg.FetchMaxRetries)*cfg.FetchMaxInterval
	return cached
}

func newBuilder(ctx context.Context, cfg config.Config) (render.UIHeatMapBuilder, error) {
	palette, ok := render.GetPalette(ctx, cfg.Palette)
	if !ok {
		return render.UIHeatMapBuilder{}, fmt.Errorf("can not get palette(%s)", cfg.Palette)
	}
	return render.UIHeatMapBuilder{
		Palette:     palette,
		Geometry:    cfg.Geometry(),
		LegendParts: cfg.LegendParts,
		XTicks:      cfg.XTicks,
	}, nil
}

// renderFile writes heatmap SVG to path and exits.
func renderFile(ctx context.Context, src source.Source, builder render.UIHeatMapBuilder, path string) error {
	d, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("can not load dataset: %w", err)
	}
	spec, err := builder.NewUIHeatMap(ctx, *d)
	if err != nil {
		return fmt.Errorf("can not build heatmap: %w", err)
	}
	if err := os.WriteFile(path, render.SVGRenderer{}.Render(ctx, *spec), 0o644); err != nil {
		return fmt.Errorf("can not write file: %w", err)
	}
	return nil
}

func run(ctx context.Context, configPath, outPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("can not load config: %w", err)
	}

	l, err := logger.New(cfg.AppName, cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer l.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewCollector("heatmap", reg)

	src := newSource(*cfg, l, m)
	builder, err := newBuilder(ctx, *cfg)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := renderFile(ctx, src, builder, outPath); err != nil {
			l.Error("can not render", zap.String("out", outPath), zap.Error(err))
			return err
		}
		l.Info("rendered", zap.String("out", outPath))
		return nil
	}

	var middlewares []func(http.Handler) http.Handler
	if cfg.TracingEnabled {
		tracer.Start(
			tracer.WithServiceName(cfg.AppName),
			tracer.WithEnv(cfg.AppEnv),
			tracer.WithSamplingRules([]tracer.SamplingRule{tracer.RateRule(1)}),
		)
		defer tracer.Stop()
		middlewares = append(middlewares, chitrace.Middleware(chitrace.WithServiceName(cfg.AppName)))
	}

	s := &server.Server{
		Source:   src,
		Builder:  builder,
		Logger:   l,
		Metrics:  m,
		Gatherer: reg,
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(middlewares...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// warm up cache, failures are retried on request
	go func() {
		if _, err := src.Load(ctx); err != nil {
			l.Warn("initial dataset load failed", zap.Error(err))
		}
	}()

	errc := make(chan error, 1)
	go func() {
		l.Info("server started", zap.String("addr", httpServer.Addr))
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		l.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("can not shutdown: %w", err)
		}
	}
	return nil
}

func main() {
	var (
		configPath string
		outPath    string
	)
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to YAML config file")
	flag.StringVar(&outPath, "o", "", "render heatmap SVG to this file and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath, outPath); err != nil {
		log.Fatal(err)
	}
}
