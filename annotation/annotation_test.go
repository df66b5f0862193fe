package annotation

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/dhconnelly/rtreego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var blacklist = []byte(`# blacklisted regions
track name=blacklist
chr1	100	200	high_signal
chr1	150	300	high_signal
chr1	1000	1100
chr2	0	50	low_mappability
chr10	500	600	low_mappability
chrX	10	20
`)

func newIndex(t *testing.T, b []byte) *RtreeMap {
	scanner, err := NewScanner(bytes.NewReader(b))
	require.NoError(t, err)
	index, err := createIndex(scanner)
	require.NoError(t, err)
	return index
}

func TestCreateIndex(t *testing.T) {
	index := newIndex(t, blacklist)
	l := index.Len()
	if l != 4 {
		t.Errorf("(createIndex) expected length 4, got %v", l)
	}
	validChr := regexp.MustCompile(`^chr`)
	for key, value := range *index {
		typeString := fmt.Sprintf("%T", value)
		if typeString != "*rtreego.Rtree" {
			t.Errorf("(createIndex) expected *rtreego.Rtree, got %v", typeString)
		}
		if !validChr.MatchString(key) {
			t.Errorf("(createIndex) expected chrN key, got %v", key)
		}
	}
	if size := index.Get("chr1").Size(); size != 2 {
		t.Errorf("(createIndex) expected 2 merged intervals on chr1, got %v", size)
	}
}

func TestOverlaps(t *testing.T) {
	index := newIndex(t, blacklist)
	for i, c := range []struct {
		chr        string
		start, end int
		expected   bool
	}{
		{"chr1", 0, 100, false},
		{"chr1", 0, 101, true},
		{"chr1", 250, 350, true},
		{"chr1", 300, 1000, false},
		{"chr1", 1099, 1200, true},
		{"chr2", 49, 50, true},
		{"chr2", 50, 500, false},
		{"chr3", 0, 1000, false},
		{"chrX", 0, 500, true},
	} {
		if got := index.Overlaps(c.chr, c.start, c.end); got != c.expected {
			t.Errorf("(Overlaps) [%d] %s:%d-%d expected %v, got %v", i, c.chr, c.start, c.end, c.expected, got)
		}
	}
}

func TestCreateIndexGzip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blacklist.bed.gz")
	f, err := os.Create(fname)
	require.NoError(t, err)
	w := gzip.NewWriter(f)
	_, err = w.Write(blacklist)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	index, err := CreateIndex(fname)
	require.NoError(t, err)
	assert.Equal(t, 4, index.Len())
	assert.True(t, index.Overlaps("chr10", 550, 560))
}

func TestReadErrors(t *testing.T) {
	for i, b := range [][]byte{
		[]byte("chr1\t100\n"),
		[]byte("chr1\ta\t200\n"),
	} {
		scanner, err := NewScanner(bytes.NewReader(b))
		require.NoError(t, err)
		_, err = createIndex(scanner)
		assert.Error(t, err, "[%d]", i)
	}
}

func newRect(point rtreego.Point, size []float64, t *testing.T) *rtreego.Rect {
	rect, err := rtreego.NewRect(point, size)
	if err != nil {
		t.Fatal(err)
	}
	return rect
}

func TestMergeIntervals(t *testing.T) {
	chr := []byte("chr1")
	element := []byte("blacklist")
	elements := []*Feature{
		NewFeature(chr, element, newRect(rtreego.Point{12613}, []float64{108}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{11869}, []float64{358}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{12010}, []float64{47}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{12179}, []float64{48}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{12613}, []float64{84}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{12975}, []float64{77}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{13221}, []float64{153}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{13221}, []float64{1188}, t)),
		NewFeature(chr, element, newRect(rtreego.Point{13453}, []float64{217}, t)),
	}
	expected := []string{
		"chr1:11869-12227:blacklist",
		"chr1:12613-12721:blacklist",
		"chr1:12975-13052:blacklist",
		"chr1:13221-14409:blacklist",
	}
	results := mergeIntervals(elements)
	if len(results) != len(expected) {
		t.Fatalf("(mergeIntervals) got %v intervals, expected %v", len(results), len(expected))
	}
	for i, e := range expected {
		if e != results[i].String() {
			t.Errorf("(mergeIntervals) got %v, expected %v", results[i], e)
		}
	}
}
