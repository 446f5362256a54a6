package coverage

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// logFloor is where zero-depth positions are drawn; a log axis cannot
// represent zero.
const logFloor = 0.1

// Plot renders the depth profile as a log-scaled line chart annotated with
// the coverage metrics.
func Plot(t Table, s Summary) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(t.Positions))
	for i := range t.Positions {
		pts[i].X = float64(t.Positions[i])
		y := float64(t.Depths[i])
		if y < logFloor {
			y = logFloor
		}
		pts[i].Y = y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = color.Black

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d nt)\n%s", t.Ref, s.Positions, Subtitle(s))
	p.X.Label.Text = "Genome position"
	p.Y.Label.Text = "Coverage (reads)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{}
	p.Y.Min = logFloor
	p.Add(plotter.NewGrid())
	p.Add(line)
	return p, nil
}

// Subtitle formats the metric annotation shown under the chart title:
// horizontal coverage as a percentage and mean vertical coverage with an "X"
// suffix, both to two decimal places.
func Subtitle(s Summary) string {
	return fmt.Sprintf("Horizontal coverage: %.2f%% | Mean vertical coverage: %.2fX",
		s.Horizontal*100, s.Vertical)
}
