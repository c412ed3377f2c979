package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/mat"
)

// MatrixOptions controls numeric formatting of a rendered matrix.
type MatrixOptions struct {
	Precision int
	Title     string
	Theme     Theme
}

func DefaultMatrixOptions() MatrixOptions {
	return MatrixOptions{Precision: 4, Theme: CurrentTheme}
}

// Matrix renders m as a bordered grid. Diagonal entries use the theme's
// primary color, exact zeros are muted.
func Matrix(m mat.Matrix, opts MatrixOptions) string {
	r, c := m.Dims()
	cells := make([][]string, r)
	width := 0
	for i := 0; i < r; i++ {
		cells[i] = make([]string, c)
		for j := 0; j < c; j++ {
			s := fmt.Sprintf("%.*f", opts.Precision, m.At(i, j))
			cells[i][j] = s
			width = max(width, len(s))
		}
	}

	diag := lipgloss.NewStyle().Foreground(opts.Theme.Primary).Bold(true)
	text := lipgloss.NewStyle().Foreground(opts.Theme.Text)
	zero := lipgloss.NewStyle().Foreground(opts.Theme.Muted)

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(header(opts.Theme).Render(opts.Title) + "\n")
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				b.WriteString("  ")
			}
			cell := fmt.Sprintf("%*s", width, cells[i][j])
			switch {
			case m.At(i, j) == 0:
				b.WriteString(zero.Render(cell))
			case i == j:
				b.WriteString(diag.Render(cell))
			default:
				b.WriteString(text.Render(cell))
			}
		}
		if i < r-1 {
			b.WriteString("\n")
		}
	}
	return panel(opts.Theme).Render(b.String())
}
