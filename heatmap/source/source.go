package source

import (
	"context"
	"net/http"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

// DefaultURL is public global temperature dataset.
const DefaultURL = "https://raw.githubusercontent.com/freeCodeCamp/ProjectReferenceData/master/global-temperature.json"

// Source loads dataset.
type Source interface {
	Load(ctx context.Context) (*heatmap.Dataset, error)
}

// HTTPClient is subset of *http.Client used by HTTPSource.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
