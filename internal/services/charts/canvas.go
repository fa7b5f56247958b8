package charts

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ternarybob/narro/internal/common"
)

var (
	colorBackground = color.RGBA{255, 255, 255, 255}
	colorAxis       = color.RGBA{60, 60, 60, 255}
	colorGrid       = color.RGBA{225, 225, 225, 255}
	colorText       = color.RGBA{30, 30, 30, 255}
	colorSeries     = color.RGBA{70, 130, 180, 255}
	colorBar        = color.RGBA{135, 206, 235, 255}
)

// canvas is a minimal raster surface for axis charts
type canvas struct {
	img  *image.RGBA
	face font.Face
}

func newCanvas(width, height int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: colorBackground}, image.Point{}, draw.Src)
	return &canvas{img: img, face: basicfont.Face7x13}
}

func (c *canvas) fillRect(x0, y0, x1, y1 int, col color.Color) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	draw.Draw(c.img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

// line draws a Bresenham line with the given thickness
func (c *canvas) line(x0, y0, x1, y1, thickness int, col color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	half := thickness / 2

	for {
		c.fillRect(x0-half, y0-half, x0-half+thickness, y0-half+thickness, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *canvas) textWidth(s string) int {
	return font.MeasureString(c.face, s).Round()
}

// text draws s with its baseline at y; align is -1 left, 0 centre, 1 right of x
func (c *canvas) text(x, y int, s string, align int) {
	switch align {
	case 0:
		x -= c.textWidth(s) / 2
	case 1:
		x -= c.textWidth(s)
	}
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(colorText),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c *canvas) savePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := png.Encode(f, c.img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode chart: %w", err)
	}
	return f.Close()
}

// asciiLabel folds accented text to the ASCII range basicfont can draw
func asciiLabel(s string) string {
	var b strings.Builder
	for _, r := range common.FoldDiacritics(s) {
		if r < 128 {
			b.WriteRune(r)
		} else {
			b.WriteRune('?')
		}
	}
	return b.String()
}

// truncate shortens s to at most n characters
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 2 {
		return s[:n]
	}
	return s[:n-2] + ".."
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
