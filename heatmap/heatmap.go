package heatmap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// NumMonths is number of month bands in heatmap.
const NumMonths = 12

var (
	ErrEmptyDataset     = errors.New("empty dataset")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrDuplicateRecord  = errors.New("duplicate record")
	ErrRecordNotFound   = errors.New("record not found")
	ErrInvalidYearRange = errors.New("invalid year range")
)

// Record is deviation of temperature from base temperature for single month of a year.
// Month is 0-indexed, January is 0.
type Record struct {
	Year     int
	Month    int
	Variance float64
}

// Dataset is immutable after construction.
// Absolute temperature of every record is BaseTemperature + Variance.
type Dataset struct {
	BaseTemperature float64
	Records         []Record
}

// NewDataset validates records and copies them into new dataset.
func NewDataset(ctx context.Context, baseTemperature float64, records []Record) (dataset *Dataset, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "NewDataset")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	seen := make(map[[2]int]bool, len(records))
	for _, r := range records {
		if r.Month < 0 || r.Month >= NumMonths {
			return nil, fmt.Errorf("%w: year(%d) month(%d)", ErrInvalidMonth, r.Year, r.Month)
		}
		key := [2]int{r.Year, r.Month}
		if seen[key] {
			return nil, fmt.Errorf("%w: year(%d) month(%d)", ErrDuplicateRecord, r.Year, r.Month)
		}
		seen[key] = true
	}

	rs := make([]Record, len(records))
	copy(rs, records)

	return &Dataset{
		BaseTemperature: baseTemperature,
		Records:         rs,
	}, nil
}

// Temperature is absolute temperature of record, no rounding.
func (d Dataset) Temperature(r Record) float64 {
	return d.BaseTemperature + r.Variance
}

func (d Dataset) TemperatureRange(ctx context.Context) (minTemp float64, maxTemp float64) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Dataset.TemperatureRange")
	defer span.End()
	first := true
	for _, r := range d.Records {
		t := d.Temperature(r)

		if first {
			minTemp = t
			maxTemp = t
			first = false
			continue
		}

		if t > maxTemp {
			maxTemp = t
		}
		if t < minTemp {
			minTemp = t
		}
	}
	return minTemp, maxTemp
}

func (d Dataset) YearRange(ctx context.Context) (minYear int, maxYear int) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Dataset.YearRange")
	defer span.End()
	for i, r := range d.Records {
		if i == 0 || r.Year < minYear {
			minYear = r.Year
		}
		if i == 0 || r.Year > maxYear {
			maxYear = r.Year
		}
	}
	return minYear, maxYear
}

// Lookup finds record for exact year and month.
func (d Dataset) Lookup(ctx context.Context, year, month int) (Record, error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Dataset.Lookup")
	defer span.End()
	for _, r := range d.Records {
		if r.Year == year && r.Month == month {
			return r, nil
		}
	}
	err := fmt.Errorf("%w: year(%d) month(%d)", ErrRecordNotFound, year, month)
	span.SetStatus(codes.Error, "error")
	span.RecordError(err)
	return Record{}, err
}

// MonthName returns English name for 0-indexed month or empty string if out of range.
func MonthName(month int) string {
	if month < 0 || month >= NumMonths {
		return ""
	}
	return time.Month(month + 1).String()
}
