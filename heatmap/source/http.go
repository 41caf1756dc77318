package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/parser"
)

// BackoffConfig controls exponential backoff between attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultBackoff = BackoffConfig{
	MaxRetries:      3,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	ErrInvalidConfig = errors.New("invalid backoff configuration")
)

// HTTPSource fetches JSON dataset over HTTP.
type HTTPSource struct {
	URL     string
	Client  HTTPClient
	Backoff BackoffConfig
	Logger  *zap.Logger

	breaker *gobreaker.CircuitBreaker
}

func NewHTTPSource(url string, client HTTPClient, backoff BackoffConfig, logger *zap.Logger) *HTTPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSource{
		URL:     url,
		Client:  client,
		Backoff: backoff,
		Logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "dataset-http",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (s *HTTPSource) Load(ctx context.Context) (dataset *heatmap.Dataset, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "HTTPSource.Load")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	resp, err := s.do(ctx)
	if err != nil {
		return nil, fmt.Errorf("can not fetch %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	dataset, err = parser.JSONParser{}.Parse(ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can not parse response: %w", err)
	}
	return dataset, nil
}

// do executes request with retries, exponential backoff and circuit breaker.
// Client errors other than 429 are not retried.
func (s *HTTPSource) do(ctx context.Context) (*http.Response, error) {
	if s.Client == nil {
		return nil, errors.New("http client not configured")
	}
	if s.Backoff.MaxRetries < 0 || s.Backoff.InitialInterval <= 0 {
		return nil, ErrInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("can not make request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		result, err := s.breaker.Execute(func() (interface{}, error) {
			resp, err := s.Client.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}

			drain(resp)
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, ErrRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d", ErrUnexpected, resp.StatusCode)
			}
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if errors.Is(err, ErrUnexpected) || attempt >= s.Backoff.MaxRetries {
			return nil, err
		}

		delay := s.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if s.Backoff.MaxInterval > 0 && delay > s.Backoff.MaxInterval {
			delay = s.Backoff.MaxInterval
		}
		s.Logger.Warn("dataset fetch failed, retrying",
			zap.String("url", s.URL),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
