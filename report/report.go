// Package report assembles chart pages into a PDF document. It exists so the
// renderers stay independent of the concrete drawing backend and so every
// document is published with an atomic rename once fully written.
package report

import (
	"os"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"
)

// Builder accumulates chart pages and writes them as one document.
type Builder struct {
	width, height vg.Length
	pages         []*plot.Plot
}

// NewBuilder returns a Builder producing pages of the given size.
func NewBuilder(width, height vg.Length) *Builder {
	return &Builder{width: width, height: height}
}

// Add appends a page to the document.
func (b *Builder) Add(p *plot.Plot) {
	b.pages = append(b.pages, p)
}

// Pages reports the number of pages added so far.
func (b *Builder) Pages() int {
	return len(b.pages)
}

// WriteFile renders all pages into a PDF at path. The document is written to
// a temporary file next to path and renamed into place on completion.
func (b *Builder) WriteFile(path string) (err error) {
	if len(b.pages) == 0 {
		return errors.New("report: no pages to write")
	}
	canvas := vgpdf.New(b.width, b.height)
	for i, p := range b.pages {
		if i > 0 {
			canvas.NextPage()
		}
		p.Draw(draw.New(canvas))
	}

	tmp := path + ".tmp-" + uuid.New().String()
	out, err := os.Create(tmp)
	if err != nil {
		return errors.E(err, "creating report file")
	}
	defer func() {
		if err != nil {
			out.Close()    // nolint: errcheck
			os.Remove(tmp) // nolint: errcheck
		}
	}()
	if _, err = canvas.WriteTo(out); err != nil {
		return errors.E(err, "writing report", path)
	}
	if err = out.Close(); err != nil {
		return errors.E(err, "closing report", path)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.E(err, "publishing report", path)
	}
	log.Printf("report saved as %s (%d pages)", path, len(b.pages))
	return nil
}
