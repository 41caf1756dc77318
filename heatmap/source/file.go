package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/parser"
)

// FileSource reads dataset from local .json or .csv file.
// BaseTemperature is used only for .csv.
type FileSource struct {
	Path            string
	BaseTemperature float64
}

func (s FileSource) Load(ctx context.Context) (dataset *heatmap.Dataset, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "FileSource.Load")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("can not open file: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(s.Path)); ext {
	case ".json":
		dataset, err = parser.JSONParser{}.Parse(ctx, f)
	case ".csv":
		dataset, err = parser.CSVParser{BaseTemperature: s.BaseTemperature}.Parse(ctx, f)
	default:
		return nil, fmt.Errorf("unsupported file extension(%s)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("can not parse file %s: %w", s.Path, err)
	}
	return dataset, nil
}
