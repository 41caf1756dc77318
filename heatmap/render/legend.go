package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/aclements/go-moremath/scale"
	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const DefaultLegendParts = 10

var ErrLegendIndex = errors.New("legend index out of range")

// LegendScale colors legend swatches 0..Parts-1 over auxiliary palette.
// Domain is reversed, swatch 0 is hottest.
type LegendScale struct {
	Palette ColorfulPalette
	Domain  scale.Linear
	Parts   int
}

func NewLegendScale(inv InverseColorScale, parts int) LegendScale {
	return LegendScale{
		Palette: inv.Palette,
		Domain:  scale.Linear{Min: float64(parts - 1), Max: 0, Clamp: true},
		Parts:   parts,
	}
}

func (s LegendScale) Color(ctx context.Context, i int) (colorful.Color, error) {
	if i < 0 || i >= s.Parts {
		return colorful.Color{}, fmt.Errorf("%w: index(%d) parts(%d)", ErrLegendIndex, i, s.Parts)
	}
	return s.Palette.GetInterpolatedColorFor(ctx, s.Domain.Map(float64(i))), nil
}

type LegendSwatch struct {
	Index       int
	Color       colorful.Color
	Temperature float64
}

// Legend is swatches left to right with labels recovered by InverseColorScale.
func Legend(ctx context.Context, inv InverseColorScale, parts int) (swatches []LegendSwatch, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "Legend")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	if parts < 1 {
		return nil, fmt.Errorf("%w: parts(%d)", ErrLegendIndex, parts)
	}

	s := NewLegendScale(inv, parts)
	swatches = make([]LegendSwatch, 0, parts)
	for i := 0; i < parts; i++ {
		c, err := s.Color(ctx, i)
		if err != nil {
			return nil, err
		}
		swatches = append(swatches, LegendSwatch{
			Index:       i,
			Color:       c,
			Temperature: round1(inv.Temperature(ctx, c)),
		})
	}
	return swatches, nil
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// formatLabel prints temperature rounded to 1 decimal, without negative zero.
func formatLabel(v float64) string {
	v = round1(v)
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
