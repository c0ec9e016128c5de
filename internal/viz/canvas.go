package viz

import (
	"strings"
)

const brailleBlank = 0x2800

// brailleBit is the dot bit of each position in a 2x4 braille cell, indexed
// by [row from the top][column].
var brailleBit = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a dot grid rendered as braille, two dots wide and four tall per
// character. Dot (0, 0) is the bottom-left corner and y grows upward, the
// same way field coordinates do.
type Canvas struct {
	Cols, Rows int
	dots       []bool
}

func NewCanvas(cols, rows int) *Canvas {
	return &Canvas{Cols: cols, Rows: rows, dots: make([]bool, cols*2*rows*4)}
}

// Pixels returns the canvas size in dots.
func (c *Canvas) Pixels() (w, h int) { return c.Cols * 2, c.Rows * 4 }

func (c *Canvas) index(x, y int) (int, bool) {
	w, h := c.Pixels()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, false
	}
	return y*w + x, true
}

// Set turns on the dot at (x, y). Dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if i, ok := c.index(x, y); ok {
		c.dots[i] = true
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	i, ok := c.index(x, y)
	return ok && c.dots[i]
}

func (c *Canvas) Clear() {
	clear(c.dots)
}

// DrawLine sets every dot on the segment between the two points (Bresenham).
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// String renders the canvas top row first.
func (c *Canvas) String() string {
	_, h := c.Pixels()
	var b strings.Builder
	for row := 0; row < c.Rows; row++ {
		top := h - 1 - row*4
		for col := 0; col < c.Cols; col++ {
			cell := rune(brailleBlank)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if c.IsSet(col*2+dx, top-dy) {
						cell |= brailleBit[dy][dx]
					}
				}
			}
			b.WriteRune(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
