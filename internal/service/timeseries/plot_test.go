package timeseries

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	points := []Point{
		{Timestamp: t0, Population: 100},
		{Timestamp: t0.Add(12 * time.Hour), Population: 150},
		{Timestamp: t0.Add(24 * time.Hour), Population: 200},
	}
	plot, err := Layout(points, Canvas{Width: 260, Height: 160, Margin: 30})
	require.NoError(t, err)

	require.Len(t, plot.Coords, 3)
	assert.InDelta(t, 30, plot.Coords[0].X, 1e-9)
	assert.InDelta(t, 130, plot.Coords[0].Y, 1e-9)
	assert.InDelta(t, 130, plot.Coords[1].X, 1e-9)
	assert.InDelta(t, 80, plot.Coords[1].Y, 1e-9)
	assert.InDelta(t, 230, plot.Coords[2].X, 1e-9)
	assert.InDelta(t, 30, plot.Coords[2].Y, 1e-9)
	assert.Equal(t, 100, plot.PopMin)
	assert.Equal(t, 200, plot.PopMax)
	assert.Equal(t, "01/01", plot.StartLabel)
	assert.Equal(t, "02/01", plot.EndLabel)
}

func TestLayout_FlatSeriesAndZeroSpan(t *testing.T) {
	points := []Point{
		{Timestamp: t0, Population: 50},
		{Timestamp: t0, Population: 50},
	}
	plot, err := Layout(points, Canvas{Width: 200, Height: 100, Margin: 10})
	require.NoError(t, err)
	assert.Equal(t, 40, plot.PopMin)
	assert.Equal(t, 60, plot.PopMax)
	for _, c := range plot.Coords {
		assert.InDelta(t, 10, c.X, 1e-9)
		assert.InDelta(t, 50, c.Y, 1e-9)
	}
}

func TestLayout_InsufficientData(t *testing.T) {
	_, err := Layout([]Point{{Timestamp: t0}}, Canvas{Width: 1, Height: 1})
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
