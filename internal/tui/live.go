package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/vectorize"
	"github.com/san-kum/matdyn/internal/viz"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the reconstructed matrix while a simulation runs.
// A frame rate of zero draws every step.
type LiveRenderer struct {
	out       io.Writer
	title     string
	layout    vectorize.Layout
	frameRate int
	lastFrame time.Time
	opts      viz.MatrixOptions
	frames    int
}

var _ dynamo.Observer = (*LiveRenderer)(nil)

func NewLiveRenderer(out io.Writer, title string, layout vectorize.Layout, frameRate int) *LiveRenderer {
	return &LiveRenderer{
		out:       out,
		title:     title,
		layout:    layout,
		frameRate: frameRate,
		opts:      viz.DefaultMatrixOptions(),
	}
}

func (r *LiveRenderer) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}
	r.render(x, t)
}

func (r *LiveRenderer) render(x dynamo.State, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.3f\n", r.title, t))
	for _, line := range strings.Split(viz.Matrix(r.layout.Dense(x), r.opts), "\n") {
		b.WriteString("  " + line + "\n")
	}
	fmt.Fprint(r.out, b.String())
	r.frames++
}

// Frames counts frames drawn so far.
func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
