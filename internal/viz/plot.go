package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Magenta,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Red,
	asciigraph.Blue,
}

type PlotOptions struct {
	Width, Height int
	Caption       string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 10}
}

// EntryPlot draws one entry's values as a line plot.
func EntryPlot(values []float64, opts PlotOptions) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
	)
}

// EntriesPlot overlays several series of equal length, one color each, and
// appends a color legend.
func EntriesPlot(series [][]float64, names []string, opts PlotOptions) string {
	if len(series) == 0 {
		return ""
	}
	colors := make([]asciigraph.AnsiColor, len(series))
	for i := range colors {
		colors[i] = seriesColors[i%len(seriesColors)]
	}
	graph := asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(opts.Caption),
		asciigraph.SeriesColors(colors...),
	)

	legend := ""
	for i, name := range names {
		if i >= len(series) {
			break
		}
		legend += fmt.Sprintf("  %s■%s %s", colors[i], asciigraph.Default, name)
	}
	return graph + "\n" + legend
}
