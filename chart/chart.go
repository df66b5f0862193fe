// Package chart renders fingerprint curves.
package chart

import (
	"bytes"
	"io"
	"os"

	"github.com/guigolab/bamfingerprint/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Axis labels of the fingerprint plot.
const (
	XLabel = "rank"
	YLabel = "fraction w.r.t. bin with highest coverage"
)

// Default image size.
var (
	Width  = 8 * vg.Inch
	Height = 6 * vg.Inch
)

// ErrUnsupportedFormat is returned for image formats the renderer cannot produce.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// New returns a plot with one line per curve, labelled in an upper left legend.
func New(curves []*stats.Curve, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = 14
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, c := range curves {
		l, err := plotter.NewLine(c)
		if err != nil {
			return nil, errors.Wrapf(err, "curve %s", c.Label)
		}
		l.LineStyle.Width = vg.Points(1.5)
		l.LineStyle.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(c.Label, l)
	}
	return p, nil
}

// Write renders p in the given format to w.
func Write(p *plot.Plot, format string, w io.Writer) error {
	if format == "emf" {
		return errors.Wrap(ErrUnsupportedFormat, format)
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return errors.Wrap(ErrUnsupportedFormat, err.Error())
	}
	if format == "eps" {
		return writeEPS(wt, w)
	}
	_, err = wt.WriteTo(w)
	return err
}

// writeEPS writes the EPS rendering of wt to w, fixing the doubled percent
// sign of the vgeps header so the output starts with %!PS.
func writeEPS(wt io.WriterTo, w io.Writer) error {
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return err
	}
	b := buf.Bytes()
	if bytes.HasPrefix(b, []byte("%%!PS")) {
		b = b[1:]
	}
	_, err := w.Write(b)
	return err
}

// Save renders the curves in the given format to fname. The file is removed if rendering fails.
func Save(curves []*stats.Curve, title, format, fname string) error {
	p, err := New(curves, title)
	if err != nil {
		return err
	}
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := Write(p, format, f); err != nil {
		f.Close()
		os.Remove(fname)
		return errors.Wrapf(err, "writing %s", fname)
	}
	return f.Close()
}
