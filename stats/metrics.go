package stats

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

type metric float64

func (m metric) String() string {
	return fmt.Sprintf("%.6g", float64(m))
}

// MarshalCSV formats the metric with six significant digits.
func (m metric) MarshalCSV() (string, error) {
	return m.String(), nil
}

// QualityMetrics summarises the fingerprint of a sample.
type QualityMetrics struct {
	Sample string `csv:"Sample"`
	// AUC is the area under the curve. Uniform coverage gives about 0.5, strong enrichment gives lower values.
	AUC metric `csv:"AUC"`
	// XIntercept is the fraction of bins without reads.
	XIntercept metric `csv:"X-intercept"`
	// ElbowPoint is the rank where the distance between the diagonal and the curve is largest.
	ElbowPoint metric `csv:"Elbow Point"`
}

// Calculate computes the metrics of c.
func Calculate(c *Curve) *QualityMetrics {
	m := &QualityMetrics{Sample: c.Label}
	n := c.Len()
	if n == 0 {
		return m
	}
	if n > 1 {
		m.AUC = metric(integrate.Trapezoidal(c.X, c.Y))
	}

	zeros := 0
	for _, y := range c.Y {
		if y > 0 {
			break
		}
		zeros++
	}
	m.XIntercept = metric(float64(zeros) / float64(n))

	dist := make([]float64, n)
	floats.SubTo(dist, c.X, c.Y)
	m.ElbowPoint = metric(c.X[floats.MaxIdx(dist)])
	return m
}

// CalculateAll computes the metrics of every curve.
func CalculateAll(curves []*Curve) []*QualityMetrics {
	out := make([]*QualityMetrics, len(curves))
	for i, c := range curves {
		out[i] = Calculate(c)
	}
	return out
}

// WriteQualityMetrics writes metrics as a tab-separated table with a header line.
func WriteQualityMetrics(w io.Writer, metrics []*QualityMetrics) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	out := gocsv.NewSafeCSVWriter(cw)
	if err := gocsv.MarshalCSV(metrics, out); err != nil {
		return err
	}
	out.Flush()
	return out.Error()
}
