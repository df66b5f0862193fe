package stats

import (
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Curve is the fingerprint of a sample: the cumulative fraction of reads (Y)
// against the rank of the bins sorted by coverage (X). Both axes are normalized to [0, 1].
type Curve struct {
	Label string
	X, Y  []float64
}

// Len returns the number of points of the curve.
func (c *Curve) Len() int {
	return len(c.X)
}

// XY returns the coordinates of point i.
func (c *Curve) XY(i int) (x, y float64) {
	return c.X[i], c.Y[i]
}

// Ranks returns the normalized bin ranks i/n for i in [0, n).
func Ranks(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i) / float64(n)
	}
	return x
}

// CumulativeFraction sorts counts ascending and returns their cumulative sum
// divided by the total. ok is false if the counts sum to zero.
func CumulativeFraction(counts []float64) (y []float64, ok bool) {
	if len(counts) == 0 {
		return nil, false
	}
	sorted := append([]float64(nil), counts...)
	sort.Float64s(sorted)
	y = floats.CumSum(make([]float64, len(sorted)), sorted)
	total := y[len(y)-1]
	if total == 0 {
		return nil, false
	}
	for i := range y {
		y[i] /= total
	}
	return y, true
}

// Fingerprint returns the curve of each column of cm. Columns without reads have no curve.
func Fingerprint(cm *CountMatrix, labels []string) ([]*Curve, error) {
	rows, cols := cm.Dims()
	if len(labels) != cols {
		return nil, errors.Errorf("%d labels for %d columns", len(labels), cols)
	}
	x := Ranks(rows)
	curves := make([]*Curve, 0, cols)
	for j := 0; j < cols; j++ {
		y, ok := CumulativeFraction(cm.Col(j))
		if !ok {
			log.WithFields(log.Fields{
				"Sample": labels[j],
			}).Warn("No reads found in the sampled bins, skipping curve")
			continue
		}
		curves = append(curves, &Curve{labels[j], x, y})
	}
	return curves, nil
}
