package viz

import (
	"math"
	"strings"
)

// Each Braille cell is 2 dots wide and 4 tall. dots[row][col] is the bit of
// a dot inside its cell, added to U+2800.
var dots = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const blank = '\u2800'

// Canvas is a Width x Height character grid addressed in dots, so its
// resolution is (2*Width) x (4*Height).
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

// Set lights dot (x, y); dots off the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	col, row := x/2, y/4
	if x < 0 || y < 0 || col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row*c.Width+col] |= dots[y%4][x%2]
}

// Cell returns the character at column col of row row.
func (c *Canvas) Cell(col, row int) rune { return c.cells[row*c.Width+col] }

// Lit counts the non-blank characters.
func (c *Canvas) Lit() int {
	n := 0
	for _, r := range c.cells {
		if r != blank {
			n++
		}
	}
	return n
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = blank
	}
}

// DrawLine lights the dots between two points, sampling once per dot along
// the longer axis.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	n := max(abs(x1-x0), abs(y1-y0))
	if n == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= n; i++ {
		s := float64(i) / float64(n)
		x := math.Round(float64(x0) + s*float64(x1-x0))
		y := math.Round(float64(y0) + s*float64(y1-y0))
		c.Set(int(x), int(y))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
