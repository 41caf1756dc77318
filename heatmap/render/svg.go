package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	svg "github.com/ajstarks/svgo/float"
	"go.opentelemetry.io/otel"
)

// SVGRenderer writes UIHeatMap as standalone SVG document.
//
// Cells are rect elements with class "cell" and data-year, data-month, data-temp attributes.
// Each cell is wrapped in group with title, so hover shows label without script.
type SVGRenderer struct{}

func (r SVGRenderer) Render(ctx context.Context, spec UIHeatMap) []byte {
	ctx, span := otel.Tracer("go-heatmap").Start(ctx, "SVGRenderer.Render")
	defer span.End()
	var b bytes.Buffer
	canvas := svg.New(&b)

	canvas.Start(spec.W, spec.H, `id="heatmap"`)

	drawText(canvas, spec.Title)
	drawText(canvas, spec.Description)

	canvas.Gid("cells")
	for _, c := range spec.Cells {
		canvas.Group()
		canvas.Rect(
			c.Box.X, c.Box.Y, c.Box.W, c.Box.H,
			`class="cell"`,
			attr("data-year", strconv.Itoa(c.Year)),
			attr("data-month", strconv.Itoa(c.Month)),
			attr("data-temp", strconv.FormatFloat(c.Temperature, 'f', -1, 64)),
			attr("fill", c.Color.Hex()),
		)
		canvas.Title(c.Title)
		canvas.Gend()
	}
	canvas.Gend()

	drawAxis(canvas, spec.XAxis)
	drawAxis(canvas, spec.YAxis)
	drawLegend(canvas, spec.Legend)

	canvas.End()
	return b.Bytes()
}

func attr(name, value string) string { return fmt.Sprintf(`%s="%s"`, name, value) }

func translate(x, y float64) string { return fmt.Sprintf(`transform="translate(%.2f,%.2f)"`, x, y) }

func drawText(canvas *svg.SVG, t UIText) {
	attrs := []string{
		attr("text-anchor", t.Anchor),
		attr("font-size", strconv.Itoa(t.FontSize)),
	}
	if t.ID != "" {
		attrs = append(attrs, attr("id", t.ID))
	}
	canvas.Text(t.X, t.Y, t.Text, attrs...)
}

func drawLine(canvas *svg.SVG, l UILine) {
	canvas.Line(l.X1, l.Y1, l.X2, l.Y2, `stroke="black"`)
}

func drawAxis(canvas *svg.SVG, axis UIAxis) {
	canvas.Group(attr("id", axis.ID), translate(axis.X, axis.Y))
	drawLine(canvas, axis.Domain)
	for _, tick := range axis.Ticks {
		canvas.Group(`class="tick"`)
		drawLine(canvas, tick.Line)
		drawText(canvas, tick.Label)
		canvas.Gend()
	}
	canvas.Gend()
}

func drawLegend(canvas *svg.SVG, legend UILegend) {
	canvas.Group(`id="legend"`, translate(legend.X, legend.Y))
	for _, sw := range legend.Swatches {
		canvas.Group(`class="tick"`)
		canvas.Rect(
			sw.Box.X, sw.Box.Y, sw.Box.W, sw.Box.H,
			`stroke="black"`,
			attr("fill", sw.Color.Hex()),
			attr("data-temp", formatLabel(sw.Temperature)),
		)
		canvas.Gend()
	}
	for _, t := range legend.Labels {
		drawText(canvas, t)
	}
	for _, l := range legend.Ticks {
		drawLine(canvas, l)
	}
	canvas.Gend()
}
