package layout

import (
	"context"
	"math"

	"github.com/aclements/go-moremath/scale"
	"go.opentelemetry.io/otel"

	"github.com/nikolaydubina/go-heatmap/heatmap"
)

type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

type Padding struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Geometry of chart. Width and Height are of plot area only.
// Header is space above plot area for title and description.
type Geometry struct {
	Width   float64
	Height  float64
	Padding Padding
	Header  float64
}

var DefaultGeometry = Geometry{
	Width:   800,
	Height:  400,
	Padding: Padding{Left: 60, Top: 10, Right: 20, Bottom: 200},
	Header:  70,
}

// TotalWidth is width of whole chart.
func (g Geometry) TotalWidth() float64 { return g.Padding.Left + g.Width + g.Padding.Right }

// TotalHeight is height of whole chart.
func (g Geometry) TotalHeight() float64 {
	return g.Header + g.Padding.Top + g.Height + g.Padding.Bottom
}

// PlotOrigin is top left corner of plot area.
func (g Geometry) PlotOrigin() (x, y float64) {
	return g.Padding.Left, g.Header + g.Padding.Top
}

// YearScale maps years linearly to horizontal offset in plot area.
// Domain is [minYear, maxYear+1] so that columns of every year fit into width.
type YearScale struct {
	Linear scale.Linear
	Width  float64
}

func NewYearScale(minYear, maxYear int, width float64) YearScale {
	return YearScale{
		Linear: scale.Linear{Min: float64(minYear), Max: float64(maxYear + 1)},
		Width:  width,
	}
}

func (s YearScale) X(year int) float64 { return s.Linear.Map(float64(year)) * s.Width }

// Bandwidth is width of single year column.
func (s YearScale) Bandwidth() float64 {
	n := s.Linear.Max - s.Linear.Min
	if n <= 0 {
		return s.Width
	}
	return s.Width / n
}

// Ticks returns at most max integer years to label axis with.
func (s YearScale) Ticks(max int) []int {
	major, _ := s.Linear.Ticks(scale.TickOptions{Max: max, MinLevel: 0, MaxLevel: 1000})

	last := int(s.Linear.Max) - 1
	ticks := make([]int, 0, len(major))
	for _, v := range major {
		year := int(math.Round(v))
		if year < int(s.Linear.Min) || year > last {
			continue
		}
		ticks = append(ticks, year)
	}
	return ticks
}

// MonthBand splits height into equal bands for months 0..11, January on top.
type MonthBand struct {
	Height float64
}

func (b MonthBand) Bandwidth() float64 { return b.Height / heatmap.NumMonths }

func (b MonthBand) Y(month int) float64 { return float64(month) * b.Bandwidth() }

func (b MonthBand) Center(month int) float64 { return b.Y(month) + b.Bandwidth()/2 }

// Grid places records of dataset into cells of chart.
type Grid struct {
	Geometry Geometry
	Years    YearScale
	Months   MonthBand
	MinYear  int
	MaxYear  int
}

func NewGrid(ctx context.Context, g Geometry, d heatmap.Dataset) Grid {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "NewGrid")
	defer span.End()

	minYear, maxYear := d.YearRange(ctx)
	return Grid{
		Geometry: g,
		Years:    NewYearScale(minYear, maxYear, g.Width),
		Months:   MonthBand{Height: g.Height},
		MinYear:  minYear,
		MaxYear:  maxYear,
	}
}

// Cell is box of record in chart coordinates.
func (g Grid) Cell(r heatmap.Record) Box {
	x0, y0 := g.Geometry.PlotOrigin()
	return Box{
		X: x0 + g.Years.X(r.Year),
		Y: y0 + g.Months.Y(r.Month),
		W: g.Years.Bandwidth(),
		H: g.Months.Bandwidth(),
	}
}
