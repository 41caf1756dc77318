package render

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aclements/go-moremath/vec"
	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
)

// ColorfulPalette is sequence of color stops with positions in [0, 1] in ascending order.
type ColorfulPalette []struct {
	Col colorful.Color
	Pos float64
}

// GetInterpolatedColorFor blends neighbouring stops in HCL.
// Positions outside of palette are clamped to first or last stop.
func (gt ColorfulPalette) GetInterpolatedColorFor(ctx context.Context, t float64) colorful.Color {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "ColorfulPalette.GetInterpolatedColorFor")
	defer span.End()
	if len(gt) == 0 {
		return colorful.Color{}
	}
	if t <= gt[0].Pos {
		return gt[0].Col
	}
	if t >= gt[len(gt)-1].Pos {
		return gt[len(gt)-1].Col
	}
	for i := 0; i < len(gt)-1; i++ {
		c1 := gt[i]
		c2 := gt[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			// duplicate stop
			if c2.Pos == c1.Pos {
				return c2.Col
			}
			t := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, t).Clamped()
		}
	}

	return gt[len(gt)-1].Col
}

// Reversed mirrors palette, so that color at t becomes color at 1-t.
// Positions are snapped to 1e-9, reversing twice gives back same stops.
func (gt ColorfulPalette) Reversed() ColorfulPalette {
	r := make(ColorfulPalette, len(gt))
	for i, c := range gt {
		j := len(gt) - 1 - i
		r[j].Col = c.Col
		r[j].Pos = math.Round((1-c.Pos)*1e9) / 1e9
	}
	return r
}

// Samples returns n evenly spaced positions in [0, 1] and colors at them.
func (gt ColorfulPalette) Samples(ctx context.Context, n int) (positions []float64, colors []colorful.Color) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "ColorfulPalette.Samples")
	defer span.End()
	positions = vec.Linspace(0, 1, n)
	colors = make([]colorful.Color, len(positions))
	for i, p := range positions {
		colors[i] = gt.GetInterpolatedColorFor(ctx, p)
	}
	return positions, colors
}

// nearest returns index of sample closest to c in CIE Lab.
func nearest(c colorful.Color, samples []colorful.Color) int {
	best, bestDist := 0, math.Inf(1)
	for i, s := range samples {
		if d := c.DistanceLab(s); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

//go:embed palettes/RdYlBu.csv
var paletteRdYlBuCSV string

//go:embed palettes/RdBu.csv
var paletteRdBuCSV string

//go:embed palettes/RdYlGn.csv
var paletteRdYlGnCSV string

var paletteCSVs = map[string]string{
	"RdYlBu": paletteRdYlBuCSV,
	"RdBu":   paletteRdBuCSV,
	"RdYlGn": paletteRdYlGnCSV,
}

// DefaultPalette goes from red at 0 to blue at 1.
const DefaultPalette = "RdYlBu"

func makePaletteFromCSV(ctx context.Context, csv string) (ColorfulPalette, error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "makePaletteFromCSV")
	defer span.End()
	var palette ColorfulPalette

	for i, row := range strings.Split(csv, "\n") {
		parts := strings.Split(strings.TrimSpace(row), ",")
		if len(parts) != 2 {
			continue
		}

		c, err := colorful.Hex(parts[0])
		if err != nil {
			return nil, fmt.Errorf("row(%d): %w", i, err)
		}

		v, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row(%d): %w", i, err)
		}

		palette = append(palette, struct {
			Col colorful.Color
			Pos float64
		}{Col: c, Pos: v})
	}

	return palette, nil
}

func GetPalette(ctx context.Context, name string) (ColorfulPalette, bool) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "GetPalette")
	defer span.End()
	csv, ok := paletteCSVs[name]
	if !ok {
		return nil, false
	}
	palette, err := makePaletteFromCSV(ctx, csv)
	if err != nil || len(palette) == 0 {
		return nil, false
	}
	return palette, true
}

// PaletteNames lists names accepted by GetPalette.
func PaletteNames() []string {
	names := make([]string, 0, len(paletteCSVs))
	for name := range paletteCSVs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
