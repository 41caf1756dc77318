package tooltip

import (
	"context"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

// Presentation of label in page.
const (
	VisibleOpacity = 0.9
	HiddenOpacity  = 0
	FadeDuration   = 100 * time.Millisecond
	OffsetX        = 30
	OffsetY        = -50
)

// Label is content and visibility of tooltip.
type Label struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Lines   []string `json:"lines"`
	HTML    string   `json:"html"`
	Opacity float64  `json:"opacity"`
}

func (l Label) Text() string { return strings.Join(l.Lines, "\n") }

// NewLabel formats record as three lines: "<year> - <month name>", temperature, signed variance.
func NewLabel(d heatmap.Dataset, r heatmap.Record) Label {
	lines := []string{
		strconv.Itoa(r.Year) + " - " + heatmap.MonthName(r.Month),
		FormatTemperature(d.Temperature(r)),
		FormatVariance(r.Variance),
	}

	escaped := make([]string, len(lines))
	for i, line := range lines {
		escaped[i] = html.EscapeString(line)
	}

	return Label{
		Year:    r.Year,
		Month:   r.Month,
		Lines:   lines,
		HTML:    strings.Join(escaped, "<br>"),
		Opacity: VisibleOpacity,
	}
}

// FormatTemperature rounds to 3 decimals.
func FormatTemperature(t float64) string {
	return formatFloat(math.Round(t*1000) / 1000)
}

// FormatVariance prefixes "+" only to positive values.
func FormatVariance(v float64) string {
	if v > 0 {
		return "+" + formatFloat(v)
	}
	return formatFloat(v)
}

func formatFloat(v float64) string {
	if v == 0 {
		// also negative zero
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Handler answers hover events over cells of dataset.
type Handler struct {
	Dataset heatmap.Dataset
}

// Enter returns visible label for cell, or heatmap.ErrRecordNotFound.
func (h Handler) Enter(ctx context.Context, year, month int) (label Label, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Handler.Enter")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	r, err := h.Dataset.Lookup(ctx, year, month)
	if err != nil {
		return Label{}, err
	}
	return NewLabel(h.Dataset, r), nil
}

// Leave returns hidden label.
func (h Handler) Leave(ctx context.Context) Label {
	_, span := otel.Tracer("go-heatmap").Start(ctx, "Handler.Leave")
	defer span.End()
	return Label{Opacity: HiddenOpacity}
}
