package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

// JSONParser reads dataset in global-temperature.json format.
// Months are 1-indexed on the wire and 0-indexed in heatmap.Record.
type JSONParser struct{}

type wireDataset struct {
	BaseTemperature *float64     `json:"baseTemperature"`
	MonthlyVariance []wireRecord `json:"monthlyVariance"`
}

type wireRecord struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Variance float64 `json:"variance"`
}

func (s JSONParser) Parse(ctx context.Context, in io.Reader) (dataset *heatmap.Dataset, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "JSONParser.Parse")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	var w wireDataset
	if err := json.NewDecoder(in).Decode(&w); err != nil {
		return nil, fmt.Errorf("can not decode json: %w", err)
	}
	if w.BaseTemperature == nil {
		return nil, errors.New("missing baseTemperature")
	}

	records := make([]heatmap.Record, 0, len(w.MonthlyVariance))
	for _, r := range w.MonthlyVariance {
		month, err := monthFromWire(r.Month)
		if err != nil {
			return nil, fmt.Errorf("year(%d): %w", r.Year, err)
		}
		records = append(records, heatmap.Record{
			Year:     r.Year,
			Month:    month,
			Variance: r.Variance,
		})
	}

	dataset, err = heatmap.NewDataset(ctx, *w.BaseTemperature, records)
	if err != nil {
		return nil, fmt.Errorf("can not make dataset: %w", err)
	}
	return dataset, nil
}

func monthFromWire(month int) (int, error) {
	if month < 1 || month > heatmap.NumMonths {
		return 0, fmt.Errorf("%w: month(%d) is not in [1, %d]", heatmap.ErrInvalidMonth, month, heatmap.NumMonths)
	}
	return month - 1, nil
}
