package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

// CSVParser reads rows of `year,month,variance` with 1-indexed month.
// Optional header row starting with "year" is skipped.
// Base temperature is not part of the file.
type CSVParser struct {
	BaseTemperature float64
}

func (s CSVParser) Parse(ctx context.Context, in io.Reader) (dataset *heatmap.Dataset, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "CSVParser.Parse")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	records, err := parseRecords(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("can not parse records: %w", err)
	}

	dataset, err = heatmap.NewDataset(ctx, s.BaseTemperature, records)
	if err != nil {
		return nil, fmt.Errorf("can not make dataset: %w", err)
	}
	return dataset, nil
}

func parseRecords(ctx context.Context, in io.Reader) (records []heatmap.Record, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "parseRecords")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("can not parse: %w", err)
		}

		if line == 1 && len(row) > 0 && strings.EqualFold(row[0], "year") {
			continue
		}

		if len(row) != 3 {
			return nil, errors.New("expected 3 values in row")
		}

		year, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("year(%s) is not int: %w", row[0], err)
		}

		m, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("month(%s) is not int: %w", row[1], err)
		}
		month, err := monthFromWire(m)
		if err != nil {
			return nil, fmt.Errorf("line(%d): %w", line, err)
		}

		variance, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("variance(%s) is not float: %w", row[2], err)
		}

		records = append(records, heatmap.Record{
			Year:     year,
			Month:    month,
			Variance: variance,
		})
	}
	return records, nil
}
