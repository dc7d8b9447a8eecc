package timeseries

import (
	"sort"
	"time"
)

// Canvas is the drawing area a graph is laid out on.
type Canvas struct {
	Width  float64
	Height float64
	Margin float64
}

// Coord is a point in canvas space; Y grows downwards.
type Coord struct {
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Population int       `json:"population"`
	Timestamp  time.Time `json:"timestamp"`
}

// Plot is a laid-out population graph with its axis labels.
type Plot struct {
	Coords     []Coord `json:"coords"`
	PopMin     int     `json:"pop_min"`
	PopMax     int     `json:"pop_max"`
	StartLabel string  `json:"start_label"`
	EndLabel   string  `json:"end_label"`
}

// Layout scales points into the canvas. X is proportional to elapsed time
// between the first and last sample, Y to population between min and max.
// A flat series is widened by 10 on both sides so it sits mid-graph.
func Layout(points []Point, canvas Canvas) (Plot, error) {
	if len(points) < 2 {
		return Plot{}, ErrInsufficientData
	}
	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	xStart := canvas.Margin
	xEnd := canvas.Width - canvas.Margin
	yStart := canvas.Height - canvas.Margin
	yEnd := canvas.Margin

	popMin, popMax := sorted[0].Population, sorted[0].Population
	for _, p := range sorted[1:] {
		if p.Population < popMin {
			popMin = p.Population
		}
		if p.Population > popMax {
			popMax = p.Population
		}
	}
	if popMin == popMax {
		popMin -= 10
		popMax += 10
	}

	first := sorted[0].Timestamp
	span := sorted[len(sorted)-1].Timestamp.Sub(first).Seconds()
	popSpan := float64(popMax - popMin)

	plot := Plot{
		Coords:     make([]Coord, len(sorted)),
		PopMin:     popMin,
		PopMax:     popMax,
		StartLabel: first.Format("02/01"),
		EndLabel:   sorted[len(sorted)-1].Timestamp.Format("02/01"),
	}
	for i, p := range sorted {
		x := xStart
		if span > 0 {
			x = xStart + (p.Timestamp.Sub(first).Seconds()/span)*(xEnd-xStart)
		}
		y := yStart - (float64(p.Population-popMin)/popSpan)*(yStart-yEnd)
		plot.Coords[i] = Coord{X: x, Y: y, Population: p.Population, Timestamp: p.Timestamp}
	}
	return plot, nil
}
