package render

import (
	"context"

	"github.com/aclements/go-moremath/scale"
	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

// ColorScale maps absolute temperature to color.
// Domain is [maxTemp, minTemp], so hottest is at position 0 of palette.
type ColorScale struct {
	Palette ColorfulPalette
	Domain  scale.Linear
}

func NewColorScale(ctx context.Context, palette ColorfulPalette, d heatmap.Dataset) (*ColorScale, error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "NewColorScale")
	defer span.End()
	if len(d.Records) == 0 {
		return nil, heatmap.ErrEmptyDataset
	}
	minTemp, maxTemp := d.TemperatureRange(ctx)
	return &ColorScale{
		Palette: palette,
		Domain:  scale.Linear{Min: maxTemp, Max: minTemp, Clamp: true},
	}, nil
}

// Position of temperature in palette, in [0, 1].
// Single temperature datasets map to 0.5.
func (s ColorScale) Position(t float64) float64 { return s.Domain.Map(t) }

func (s ColorScale) Color(ctx context.Context, t float64) colorful.Color {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "ColorScale.Color")
	defer span.End()
	return s.Palette.GetInterpolatedColorFor(ctx, s.Position(t))
}

// DefaultInverseSamples is resolution of InverseColorScale.
const DefaultInverseSamples = 256

// InverseColorScale approximately recovers temperature from color of ColorScale.
//
// Color is located in auxiliary palette, which is forward palette reversed,
// as nearest of sampled colors by CIE Lab distance.
// Auxiliary position is then mapped to forward domain.
// Error is within one sample step (1/(samples-1) of temperature range)
// plus difference of HCL blending in both directions.
// Use only for labels.
type InverseColorScale struct {
	Palette   ColorfulPalette
	Positions []float64
	Samples   []colorful.Color
	Scale     scale.QQ
}

func NewInverseColorScale(ctx context.Context, fwd ColorScale, samples int) InverseColorScale {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "NewInverseColorScale")
	defer span.End()
	if samples < 2 {
		samples = DefaultInverseSamples
	}

	aux := fwd.Palette.Reversed()
	positions, colors := aux.Samples(ctx, samples)

	return InverseColorScale{
		Palette:   aux,
		Positions: positions,
		Samples:   colors,
		Scale: scale.QQ{
			// auxiliary position q is forward position 1-q
			Src:  &scale.Linear{Min: 1, Max: 0},
			Dest: &scale.Linear{Min: fwd.Domain.Min, Max: fwd.Domain.Max},
		},
	}
}

// TemperatureAt maps position in auxiliary palette to temperature.
func (s InverseColorScale) TemperatureAt(q float64) float64 { return s.Scale.Map(q) }

func (s InverseColorScale) Temperature(ctx context.Context, c colorful.Color) float64 {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "InverseColorScale.Temperature")
	defer span.End()
	return s.TemperatureAt(s.Positions[nearest(c, s.Samples)])
}
