package viz

import (
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/parallelphysics/internal/sim"
	"github.com/san-kum/parallelphysics/internal/sweep"
)

const (
	plotWidth  = 80
	plotHeight = 12
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan,
	asciigraph.Yellow,
	asciigraph.Green,
	asciigraph.Magenta,
	asciigraph.Red,
}

// Field extracts one scalar per object from a frame record.
type Field struct {
	Name string
	Of   func(rec sim.FrameRecord, object int) float64
}

var Fields = []Field{
	{"mass", func(r sim.FrameRecord, i int) float64 { return r.Objects[i].Mass }},
	{"energy", func(r sim.FrameRecord, i int) float64 { return r.Objects[i].Energy }},
	{"z", func(r sim.FrameRecord, i int) float64 { return r.Objects[i].Position[2] }},
	{"s0", func(r sim.FrameRecord, i int) float64 { return stateAt(r, i, 0) }},
}

func stateAt(r sim.FrameRecord, object, k int) float64 {
	s := r.Objects[object].State
	if k < len(s) {
		return s[k]
	}
	return 0
}

// PlotFrames draws field over time for up to len(seriesColors) objects.
func PlotFrames(frames []sim.FrameRecord, field Field, objects []int) string {
	if len(frames) == 0 {
		return Subtle.Render("no frames recorded")
	}

	var data [][]float64
	var colors []asciigraph.AnsiColor
	for n, obj := range objects {
		if n >= len(seriesColors) {
			break
		}
		series := make([]float64, 0, len(frames))
		for _, rec := range frames {
			if obj < len(rec.Objects) {
				series = append(series, field.Of(rec, obj))
			}
		}
		if len(series) == 0 {
			continue
		}
		data = append(data, series)
		colors = append(colors, seriesColors[n])
	}
	if len(data) == 0 {
		return Subtle.Render("no objects to plot")
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(field.Name+" vs frame"),
	)
}

// PlotSweep draws every series of a formula sweep on one chart.
func PlotSweep(res *sweep.Result) string {
	data := make([][]float64, len(res.Series))
	colors := make([]asciigraph.AnsiColor, len(res.Series))
	caption := res.Formula + " vs " + res.XLabel + ":"
	for i, s := range res.Series {
		data[i] = s.Y
		colors[i] = seriesColors[i%len(seriesColors)]
		caption += " " + s.Label
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
}
