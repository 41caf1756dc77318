package heatmap

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
)

// FilterYears returns new dataset with records of years in [from, to], inclusive.
func FilterYears(ctx context.Context, d Dataset, from, to int) (*Dataset, error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "FilterYears")
	defer span.End()
	if from > to {
		return nil, fmt.Errorf("%w: from(%d) > to(%d)", ErrInvalidYearRange, from, to)
	}

	records := make([]Record, 0, len(d.Records))
	for _, r := range d.Records {
		if r.Year < from || r.Year > to {
			continue
		}
		records = append(records, r)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no records in years [%d, %d]: %w", from, to, ErrEmptyDataset)
	}

	return &Dataset{
		BaseTemperature: d.BaseTemperature,
		Records:         records,
	}, nil
}
