// Package stats post-processes bin count matrices into fingerprint curves and quality metrics.
package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// CountMatrix holds read counts, one row per sampled bin and one column per BAM file.
type CountMatrix struct {
	rows, cols int
	m          *mat.Dense
}

// NewCountMatrix returns a rows×cols CountMatrix backed by data in row-major order.
// If data is nil a zero matrix is allocated.
func NewCountMatrix(rows, cols int, data []float64) *CountMatrix {
	if cols <= 0 {
		panic("stats: matrix needs at least one column")
	}
	if data != nil && len(data) != rows*cols {
		panic(fmt.Sprintf("stats: %d values for a %d×%d matrix", len(data), rows, cols))
	}
	cm := &CountMatrix{rows: rows, cols: cols}
	if rows > 0 {
		cm.m = mat.NewDense(rows, cols, data)
	}
	return cm
}

// NewCountMatrixFromRows returns a CountMatrix with the given rows, each of length cols.
func NewCountMatrixFromRows(rows [][]float64, cols int) *CountMatrix {
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("stats: row %d has %d values, expected %d", i, len(r), cols))
		}
		data = append(data, r...)
	}
	return NewCountMatrix(len(rows), cols, data)
}

// Dims returns the number of rows and columns.
func (cm *CountMatrix) Dims() (rows, cols int) {
	return cm.rows, cm.cols
}

// At returns the count of bin i in file j.
func (cm *CountMatrix) At(i, j int) float64 {
	return cm.m.At(i, j)
}

// Set sets the count of bin i in file j.
func (cm *CountMatrix) Set(i, j int, v float64) {
	cm.m.Set(i, j, v)
}

// Sum returns the total number of counts.
func (cm *CountMatrix) Sum() float64 {
	if cm.m == nil {
		return 0
	}
	return mat.Sum(cm.m)
}

// Col returns a copy of the counts of file j.
func (cm *CountMatrix) Col(j int) []float64 {
	if cm.m == nil {
		return nil
	}
	return mat.Col(nil, j, cm.m)
}

// Row returns a copy of the counts of bin i.
func (cm *CountMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, cm.m)
}

// RemoveZeroRows returns a new CountMatrix without the rows that are zero in every column.
// The order of the remaining rows is preserved.
func (cm *CountMatrix) RemoveZeroRows() *CountMatrix {
	var data []float64
	n := 0
	for i := 0; i < cm.rows; i++ {
		row := cm.m.RawRowView(i)
		for _, v := range row {
			if v != 0 {
				data = append(data, row...)
				n++
				break
			}
		}
	}
	return NewCountMatrix(n, cm.cols, data)
}

// WriteRaw writes the matrix as tab-separated integers, after a header line of quoted labels.
func (cm *CountMatrix) WriteRaw(w io.Writer, labels []string) error {
	if len(labels) != cm.cols {
		return errors.Errorf("%d labels for %d columns", len(labels), cm.cols)
	}
	if _, err := io.WriteString(w, "'"+strings.Join(labels, "'\t'")+"'\n"); err != nil {
		return err
	}
	buf := make([]byte, 0, 16*cm.cols)
	for i := 0; i < cm.rows; i++ {
		buf = buf[:0]
		for j, v := range cm.m.RawRowView(i) {
			if j > 0 {
				buf = append(buf, '\t')
			}
			buf = strconv.AppendInt(buf, int64(v), 10)
		}
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
