package viz

import (
	"math"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const (
	brailleBlank = 0x2800
	offGrid      = 1 << 30
)

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is Width*2 by
// Height*4 sub-pixels; anything outside is ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Plot lights the dot for world position p under v. It reports whether p
// landed on the canvas.
func (c *Canvas) Plot(v Viewport, p r2.Vec) (x, y int, ok bool) {
	x, y = v.Project(p, c.Width*2, c.Height*4)
	ok = x >= 0 && y >= 0 && x < c.Width*2 && y < c.Height*4
	c.Set(x, y)
	return x, y, ok
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport is a square window onto the simulation plane.
type Viewport struct {
	Center r2.Vec
	Side   float64
}

// FitViewport returns the smallest square holding every finite particle
// position, grown by margin (0.1 = 10%). A degenerate extent falls back to
// a unit side.
func FitViewport(ps []dynamo.Particle, margin float64) Viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range ps {
		if math.IsNaN(p.Pos.X) || math.IsNaN(p.Pos.Y) || math.IsInf(p.Pos.X, 0) || math.IsInf(p.Pos.Y, 0) {
			continue
		}
		minX, maxX = math.Min(minX, p.Pos.X), math.Max(maxX, p.Pos.X)
		minY, maxY = math.Min(minY, p.Pos.Y), math.Max(maxY, p.Pos.Y)
	}
	if math.IsInf(minX, 1) {
		return Viewport{Side: 1}
	}

	side := math.Max(maxX-minX, maxY-minY)
	if side == 0 {
		side = math.Max(math.Abs(minX), math.Abs(minY))
	}
	if side == 0 {
		side = 1
	}
	return Viewport{
		Center: r2.Vec{X: (minX + maxX) / 2, Y: (minY + maxY) / 2},
		Side:   side * (1 + margin),
	}
}

// Project maps p to sub-pixel coordinates of a w by h grid with y pointing
// down. The square keeps its aspect and is centred on the grid.
func (v Viewport) Project(p r2.Vec, w, h int) (int, int) {
	scale := float64(min(w, h)) / v.Side
	d := r2.Sub(p, v.Center)
	x := float64(w)/2 + d.X*scale
	y := float64(h)/2 - d.Y*scale
	if !(math.Abs(x) < offGrid) || !(math.Abs(y) < offGrid) {
		return -1, -1
	}
	return int(math.Floor(x)), int(math.Floor(y))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
