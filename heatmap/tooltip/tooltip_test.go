package tooltip_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikolaydubina/go-heatmap/heatmap"
	"github.com/nikolaydubina/go-heatmap/heatmap/tooltip"
)

func TestFormatVariance(t *testing.T) {
	tests := []struct {
		v   float64
		exp string
	}{
		{v: 0.3, exp: "+0.3"},
		{v: -0.3, exp: "-0.3"},
		{v: 0, exp: "0"},
		{v: math.Copysign(0, -1), exp: "0"},
		{v: 1.366, exp: "+1.366"},
		{v: -2.223, exp: "-2.223"},
	}
	for _, tc := range tests {
		t.Run(tc.exp, func(t *testing.T) {
			assert.Equal(t, tc.exp, tooltip.FormatVariance(tc.v))
		})
	}
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "7.5", tooltip.FormatTemperature(7.5))
	assert.Equal(t, "7.294", tooltip.FormatTemperature(8.66+-1.366))
	assert.Equal(t, "8.123", tooltip.FormatTemperature(8.12345))
	assert.Equal(t, "0", tooltip.FormatTemperature(0.0001))
}

func TestHandler(t *testing.T) {
	ctx := context.Background()

	d, err := heatmap.NewDataset(ctx, 8.0, []heatmap.Record{{Year: 1900, Month: 0, Variance: -0.5}})
	require.NoError(t, err)
	h := tooltip.Handler{Dataset: *d}

	t.Run("enter", func(t *testing.T) {
		label, err := h.Enter(ctx, 1900, 0)
		require.NoError(t, err)

		assert.Equal(t, []string{"1900 - January", "7.5", "-0.5"}, label.Lines)
		assert.Equal(t, "1900 - January<br>7.5<br>-0.5", label.HTML)
		assert.Equal(t, "1900 - January\n7.5\n-0.5", label.Text())
		assert.Equal(t, tooltip.VisibleOpacity, label.Opacity)
		assert.Equal(t, 1900, label.Year)
		assert.Equal(t, 0, label.Month)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := h.Enter(ctx, 1901, 0)
		assert.ErrorIs(t, err, heatmap.ErrRecordNotFound)
	})

	t.Run("leave", func(t *testing.T) {
		label := h.Leave(ctx)
		assert.Equal(t, 0.0, label.Opacity)
		assert.Empty(t, label.Lines)
	})
}
