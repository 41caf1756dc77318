package render

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/layout"
	"github.com/nikolaydubina/go-heatmap/heatmap/tooltip"
)

const (
	DefaultTitle   = "Monthly Global Land-Surface Temperature"
	DefaultXTicks  = 20
	tickSize       = 10
	legendMargin   = 50
	legendSwatch   = 30
	legendTickTop  = legendSwatch
	legendTickEnd  = legendSwatch + 10
	legendLabelY   = legendSwatch * 2
	titleFontSize  = 20
	labelFontSize  = 12
	titleBaseline  = 30
	descBaseline   = 55
	xTickLabelDown = tickSize + 12
	yTickLabelLeft = tickSize + 3
)

type UIText struct {
	ID       string
	Text     string
	X        float64
	Y        float64
	Anchor   string
	FontSize int
}

type UILine struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

type UITick struct {
	Line  UILine
	Label UIText
}

// UIAxis is drawn translated to X, Y.
type UIAxis struct {
	ID     string
	X      float64
	Y      float64
	Domain UILine
	Ticks  []UITick
}

type UICell struct {
	Box         layout.Box
	Year        int
	Month       int
	Temperature float64
	Color       colorful.Color
	Title       string
}

type UISwatch struct {
	Box         layout.Box
	Color       colorful.Color
	Temperature float64
}

// UILegend is drawn translated to X, Y.
type UILegend struct {
	X        float64
	Y        float64
	Swatches []UISwatch
	Labels   []UIText
	Ticks    []UILine
}

type UIHeatMap struct {
	W           float64
	H           float64
	Title       UIText
	Description UIText
	Cells       []UICell
	XAxis       UIAxis
	YAxis       UIAxis
	Legend      UILegend
}

type UIHeatMapBuilder struct {
	Palette        ColorfulPalette
	Geometry       layout.Geometry
	Title          string
	LegendParts    int
	XTicks         int
	InverseSamples int
}

func (s UIHeatMapBuilder) NewUIHeatMap(ctx context.Context, d heatmap.Dataset) (spec *UIHeatMap, err error) {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "UIHeatMapBuilder.NewUIHeatMap")
	defer span.End()
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, "error")
			span.RecordError(err)
		}
	}()

	colorScale, err := NewColorScale(ctx, s.Palette, d)
	if err != nil {
		return nil, fmt.Errorf("can not make color scale: %w", err)
	}
	inverse := NewInverseColorScale(ctx, *colorScale, s.InverseSamples)

	g := s.Geometry
	grid := layout.NewGrid(ctx, g, d)

	legend, err := s.newUILegend(ctx, d, inverse)
	if err != nil {
		return nil, fmt.Errorf("can not make legend: %w", err)
	}

	title := s.Title
	if title == "" {
		title = DefaultTitle
	}

	spec = &UIHeatMap{
		W: g.TotalWidth(),
		H: g.TotalHeight(),
		Title: UIText{
			ID:       "title",
			Text:     title,
			X:        g.TotalWidth() / 2,
			Y:        titleBaseline,
			Anchor:   "middle",
			FontSize: titleFontSize,
		},
		Description: UIText{
			ID:       "description",
			Text:     fmt.Sprintf("%d - %d: base temperature %s℃", grid.MinYear, grid.MaxYear, strconv.FormatFloat(d.BaseTemperature, 'f', -1, 64)),
			X:        g.TotalWidth() / 2,
			Y:        descBaseline,
			Anchor:   "middle",
			FontSize: labelFontSize + 2,
		},
		Cells:  make([]UICell, 0, len(d.Records)),
		XAxis:  s.newUIXAxis(grid),
		YAxis:  s.newUIYAxis(grid),
		Legend: legend,
	}

	for _, r := range d.Records {
		t := d.Temperature(r)
		spec.Cells = append(spec.Cells, UICell{
			Box:         grid.Cell(r),
			Year:        r.Year,
			Month:       r.Month,
			Temperature: t,
			Color:       colorScale.Color(ctx, t),
			Title:       tooltip.NewLabel(d, r).Text(),
		})
	}

	return spec, nil
}

func (s UIHeatMapBuilder) newUIXAxis(grid layout.Grid) UIAxis {
	x0, y0 := grid.Geometry.PlotOrigin()

	n := s.XTicks
	if n == 0 {
		n = DefaultXTicks
	}

	axis := UIAxis{
		ID:     "x-axis",
		X:      x0,
		Y:      y0 + grid.Geometry.Height,
		Domain: UILine{X1: 0, Y1: 0, X2: grid.Geometry.Width, Y2: 0},
	}
	for _, year := range grid.Years.Ticks(n) {
		x := grid.Years.X(year)
		axis.Ticks = append(axis.Ticks, UITick{
			Line: UILine{X1: x, Y1: 0, X2: x, Y2: tickSize},
			Label: UIText{
				Text:     strconv.Itoa(year),
				X:        x,
				Y:        xTickLabelDown,
				Anchor:   "middle",
				FontSize: labelFontSize,
			},
		})
	}
	return axis
}

func (s UIHeatMapBuilder) newUIYAxis(grid layout.Grid) UIAxis {
	x0, y0 := grid.Geometry.PlotOrigin()

	axis := UIAxis{
		ID:     "y-axis",
		X:      x0,
		Y:      y0,
		Domain: UILine{X1: 0, Y1: 0, X2: 0, Y2: grid.Geometry.Height},
	}
	for month := 0; month < heatmap.NumMonths; month++ {
		y := grid.Months.Center(month)
		axis.Ticks = append(axis.Ticks, UITick{
			Line: UILine{X1: -tickSize, Y1: y, X2: 0, Y2: y},
			Label: UIText{
				Text:     heatmap.MonthName(month),
				X:        -yTickLabelLeft,
				Y:        y,
				Anchor:   "end",
				FontSize: labelFontSize,
			},
		})
	}
	return axis
}

// newUILegend places swatches hottest to coldest, left to right,
// with max temperature labeled at left edge and min at right edge.
func (s UIHeatMapBuilder) newUILegend(ctx context.Context, d heatmap.Dataset, inverse InverseColorScale) (UILegend, error) {
	parts := s.LegendParts
	if parts == 0 {
		parts = DefaultLegendParts
	}

	swatches, err := Legend(ctx, inverse, parts)
	if err != nil {
		return UILegend{}, err
	}

	x0, y0 := s.Geometry.PlotOrigin()
	legend := UILegend{
		X: x0,
		Y: y0 + s.Geometry.Height + legendMargin,
	}
	for _, sw := range swatches {
		legend.Swatches = append(legend.Swatches, UISwatch{
			Box:         layout.Box{X: float64(sw.Index * legendSwatch), Y: 0, W: legendSwatch, H: legendSwatch},
			Color:       sw.Color,
			Temperature: sw.Temperature,
		})
	}

	minTemp, maxTemp := d.TemperatureRange(ctx)
	right := float64(parts * legendSwatch)
	for _, v := range []struct {
		x float64
		t float64
	}{
		{x: 0, t: maxTemp},
		{x: right, t: minTemp},
	} {
		legend.Labels = append(legend.Labels, UIText{
			Text:     formatLabel(v.t),
			X:        v.x,
			Y:        legendLabelY,
			Anchor:   "middle",
			FontSize: labelFontSize,
		})
		legend.Ticks = append(legend.Ticks, UILine{X1: v.x, Y1: legendTickTop, X2: v.x, Y2: legendTickEnd})
	}

	return legend, nil
}
