package charts

import (
	"math"
	"strconv"
)

const (
	chartWidth   = 1200
	chartHeight  = 600
	marginLeft   = 110
	marginRight  = 40
	marginTop    = 60
	marginBottom = 90
	yTicks       = 5
)

type chartKind int

const (
	lineChart chartKind = iota
	barChart
)

// series is the data behind one chart
type series struct {
	title  string
	xTitle string
	yTitle string
	kind   chartKind
	labels []string
	values []float64
}

// draw renders s onto a fresh canvas
func (s series) draw() *canvas {
	c := newCanvas(chartWidth, chartHeight)

	plotW := chartWidth - marginLeft - marginRight
	plotH := chartHeight - marginTop - marginBottom
	x0, y0 := marginLeft, chartHeight-marginBottom

	maxValue := 0.0
	for _, v := range s.values {
		maxValue = math.Max(maxValue, v)
	}
	top := niceCeiling(maxValue)

	c.text(chartWidth/2, marginTop/2+5, s.title, 0)

	// grid and y axis labels
	for i := 0; i <= yTicks; i++ {
		y := y0 - plotH*i/yTicks
		c.line(x0, y, x0+plotW, y, 1, colorGrid)
		c.text(x0-8, y+4, compactNumber(top*float64(i)/yTicks), 1)
	}
	c.line(x0, y0, x0+plotW, y0, 2, colorAxis)
	c.line(x0, y0, x0, marginTop, 2, colorAxis)

	c.text(x0+plotW/2, chartHeight-20, s.xTitle, 0)
	c.text(12, marginTop-20, s.yTitle, -1)

	n := len(s.values)
	if n == 0 {
		return c
	}

	slot := plotW / n
	labelChars := slot/7 - 1
	if labelChars < 3 {
		labelChars = 3
	}
	labelEvery := 1
	if slot < 40 {
		labelEvery = int(math.Ceil(40 / float64(slot)))
	}

	yFor := func(v float64) int {
		if top <= 0 {
			return y0
		}
		return y0 - int(float64(plotH)*v/top)
	}

	prevX, prevY := 0, 0
	for i, v := range s.values {
		cx := x0 + slot*i + slot/2
		cy := yFor(v)

		switch s.kind {
		case barChart:
			barW := slot * 6 / 10
			c.fillRect(cx-barW/2, cy, cx+barW/2, y0, colorBar)
			c.text(cx, cy-6, compactNumber(v), 0)
		case lineChart:
			if i > 0 {
				c.line(prevX, prevY, cx, cy, 3, colorSeries)
			}
			c.fillRect(cx-5, cy-5, cx+5, cy+5, colorSeries)
			prevX, prevY = cx, cy
		}

		if i%labelEvery == 0 {
			c.text(cx, y0+20, truncate(asciiLabel(s.labels[i]), labelChars), 0)
		}
	}

	return c
}

// niceCeiling rounds v up to 1, 2, 2.5 or 5 times a power of ten
func niceCeiling(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}

// compactNumber formats v as 950, 12.5K, 3.2M, 1.1B
func compactNumber(v float64) string {
	mag := math.Abs(v)
	switch {
	case mag >= 1e9:
		return trimFloat(v/1e9) + "B"
	case mag >= 1e6:
		return trimFloat(v/1e6) + "M"
	case mag >= 1e3:
		return trimFloat(v/1e3) + "K"
	default:
		return trimFloat(v)
	}
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
