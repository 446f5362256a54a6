package summary

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/nanoqc/nanoqc/report"
)

// page describes one histogram page of the sequencing summary report. The
// order of the pages slice is the fixed page order of the document.
type page struct {
	title    string
	xLabel   string
	col      Column
	passOnly bool
	logY     bool
}

var pages = []page{
	{"Mean Q score (all reads)", "Mean Q score", MeanQScore, false, false},
	{"Mean Q score (quality-filtered reads)", "Mean Q score", MeanQScore, true, false},
	{"Sequence length (all reads)", "Sequence length", SequenceLength, false, true},
	{"Sequence length (quality-filtered reads)", "Sequence length", SequenceLength, true, true},
}

// BuildReport reduces recs into the four standard slices and appends one
// histogram page per slice to b.
func BuildReport(recs []ReadMetric, b *report.Builder) error {
	for _, pg := range pages {
		d, err := Reduce(recs, pg.col, pg.passOnly)
		if err != nil {
			return err
		}
		p, err := histogramPage(pg, d)
		if err != nil {
			return err
		}
		b.Add(p)
	}
	return nil
}

func histogramPage(pg page, d Distribution) (*plot.Plot, error) {
	h, err := plotter.NewHist(plotter.Values(d.Values), NumBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = color.White
	h.LineStyle.Width = vg.Points(1.2)

	p := plot.New()
	p.Title.Text = pg.title
	p.X.Label.Text = pg.xLabel
	p.Y.Label.Text = "Frequency"
	p.Add(plotter.NewGrid())
	p.Add(h)

	top := 1.0
	for _, c := range d.Counts {
		if c > top {
			top = c
		}
	}
	bottom := 0.0
	if pg.logY {
		h.LogY = true
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
		bottom = 1
	}
	marker, err := medianLine(d.Median, bottom, top)
	if err != nil {
		return nil, err
	}
	p.Add(marker)
	p.Legend.Add("Median: "+pg.col.FormatMedian(d.Median), marker)
	p.Legend.Top = true
	return p, nil
}

// medianLine builds the dashed vertical marker drawn at the slice median.
func medianLine(x, bottom, top float64) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{{X: x, Y: bottom}, {X: x, Y: top}})
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = color.RGBA{R: 0xc0, A: 0xff}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	return line, nil
}
