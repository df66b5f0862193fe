package bamfingerprint

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/guigolab/bamfingerprint/annotation"
	"github.com/guigolab/bamfingerprint/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newTestConfig(t *testing.T, files ...string) *config.Config {
	cfg := config.NewConfig(files, filepath.Join(t.TempDir(), "fingerprint.png"))
	cfg.BinSize = 100
	cfg.NumberOfSamples = 15
	cfg.FragmentLength = 0
	cfg.Cpu = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestSample(t *testing.T) {
	c := &CountReadsPerBin{BinSize: 100, NumberOfSamples: 4}
	bins := c.sample([]interval{{"chr1", 0, 250}, {"chr2", 0, 150}})
	assert.Equal(t, []Bin{
		{"chr1", 0, 100},
		{"chr1", 100, 200},
		{"chr1", 200, 250},
		{"chr2", 0, 100},
		{"chr2", 100, 150},
	}, bins)

	c = &CountReadsPerBin{BinSize: 10, NumberOfSamples: 1000}
	bins = c.sample([]interval{{"chr1", 0, 5}})
	assert.Len(t, bins, 5, "step is at least one base")
	assert.Equal(t, Bin{"chr1", 4, 5}, bins[4])
}

func TestJobs(t *testing.T) {
	c := &CountReadsPerBin{Cpu: 2, BinSize: 1, NumberOfSamples: 13}
	c.bins = c.sample([]interval{{"chr1", 0, 10}, {"chr2", 0, 3}})
	jobs := c.jobs()
	assert.Len(t, jobs, 3)
	covered := 0
	for _, j := range jobs {
		assert.Equal(t, covered, j.first)
		for _, b := range j.bins {
			assert.Equal(t, j.bins[0].Chrom, b.Chrom, "jobs do not span chromosomes")
		}
		covered += len(j.bins)
	}
	assert.Equal(t, len(c.bins), covered)
}

func TestCountReadsPerBin(t *testing.T) {
	treatment, control := testBams(t)
	cfg := newTestConfig(t, treatment, control)

	counter := NewCountReadsPerBin(cfg, nil)
	counts, err := counter.Run()
	require.NoError(t, err)
	rows, cols := counts.Dims()
	require.Equal(t, 15, rows)
	require.Equal(t, 2, cols)
	assert.Equal(t, Bin{"chr1", 0, 100}, counter.Bins()[0])
	assert.Equal(t, Bin{"chr2", 400, 500}, counter.Bins()[14])

	expected := map[int][2]float64{
		0:  {3, 0},
		1:  {2, 0},
		4:  {1, 0},
		5:  {0, 3},
		7:  {0, 1},
		11: {1, 0},
	}
	for i := 0; i < rows; i++ {
		e := expected[i]
		assert.Equal(t, e[:], counts.Row(i), "bin %d %v", i, counter.Bins()[i])
	}
	assert.Equal(t, 11.0, counts.Sum())
}

func TestCountReadsPerBinFilters(t *testing.T) {
	treatment, control := testBams(t)
	for i, c := range []struct {
		filters config.Filters
		bin     int
		count   float64
	}{
		{config.Filters{MinMappingQuality: 10}, 5, 2},
		{config.Filters{MinMappingQuality: 10, IgnoreDuplicates: true}, 5, 1},
		{config.Filters{IgnoreDuplicates: true}, 5, 2},
		{config.Filters{SamFlagExclude: 1024}, 5, 2},
		{config.Filters{SamFlagExclude: 16}, 7, 0},
		{config.Filters{SamFlagInclude: 16}, 7, 1},
		{config.Filters{SamFlagInclude: 16}, 5, 0},
	} {
		cfg := newTestConfig(t, treatment, control)
		cfg.Filters = c.filters
		counts, err := NewCountReadsPerBin(cfg, nil).Run()
		require.NoError(t, err, "[%d]", i)
		assert.Equal(t, c.count, counts.At(c.bin, 1), "[%d]", i)
	}
}

func TestCountReadsPerBinFragmentLength(t *testing.T) {
	treatment, control := testBams(t)
	cfg := newTestConfig(t, treatment, control)
	cfg.FragmentLength = 200
	counts, err := NewCountReadsPerBin(cfg, nil).Run()
	require.NoError(t, err)
	assert.Equal(t, 4.0, counts.At(2, 0))
	assert.Equal(t, 1.0, counts.At(3, 0))
	assert.Equal(t, 1.0, counts.At(5, 0))
	assert.Equal(t, 1.0, counts.At(6, 0))
	// reverse read at 700 extended upstream to 550
	assert.Equal(t, 4.0, counts.At(5, 1))
	assert.Equal(t, 4.0, counts.At(6, 1))
	assert.Equal(t, 3.0, counts.At(7, 1))
}

func TestCountReadsPerBinRegion(t *testing.T) {
	treatment, control := testBams(t)
	cfg := newTestConfig(t, treatment, control)
	cfg.Region = config.Region{Chrom: "chr2"}
	counter := NewCountReadsPerBin(cfg, nil)
	counts, err := counter.Run()
	require.NoError(t, err)
	rows, _ := counts.Dims()
	assert.Equal(t, 16, rows)
	for _, b := range counter.Bins() {
		assert.Equal(t, "chr2", b.Chrom)
	}
	assert.Equal(t, 4.0, counts.Sum())

	cfg.Region = config.Region{Chrom: "chr1", Start: 400, End: 700}
	counter = NewCountReadsPerBin(cfg, nil)
	counts, err = counter.Run()
	require.NoError(t, err)
	assert.Equal(t, Bin{"chr1", 400, 500}, counter.Bins()[0])
	assert.Equal(t, 1.0, counts.At(0, 0))

	cfg.Region = config.Region{Chrom: "chrM"}
	_, err = NewCountReadsPerBin(cfg, nil).Run()
	assert.Error(t, err)
}

func TestCountReadsPerBinBlackList(t *testing.T) {
	treatment, control := testBams(t)
	cfg := newTestConfig(t, treatment, control)
	bed := filepath.Join(t.TempDir(), "blacklist.bed")
	require.NoError(t, ioutil.WriteFile(bed, []byte("chr1\t0\t150\n"), 0644))
	blacklist, err := annotation.CreateIndex(bed)
	require.NoError(t, err)

	counter := NewCountReadsPerBin(cfg, blacklist)
	counts, err := counter.Run()
	require.NoError(t, err)
	rows, _ := counts.Dims()
	assert.Equal(t, 13, rows)
	assert.Equal(t, Bin{"chr1", 200, 300}, counter.Bins()[0])
	assert.Equal(t, 2.0, floats.Sum(counts.Col(0)))
}

func TestCountReadsPerBinMissingIndex(t *testing.T) {
	dir := t.TempDir()
	f := writeBam(t, dir, "noindex.bam", testRefs, []testRead{{ref: 0, pos: 10, length: 50, mapQ: 30}}, true)
	cfg := newTestConfig(t, f)
	_, err := NewCountReadsPerBin(cfg, nil).Run()
	assert.Error(t, err)
}

func TestCountReadsPerBinCommonReferences(t *testing.T) {
	treatment, _ := testBams(t)
	other := writeBam(t, t.TempDir(), "other.bam", []testRef{{"chr1", 1000}, {"chr2", 600}}, []testRead{
		{ref: 0, pos: 10, length: 50, mapQ: 30},
	}, false)
	cfg := newTestConfig(t, treatment, other)
	counter := NewCountReadsPerBin(cfg, nil)
	counts, err := counter.Run()
	require.NoError(t, err)
	for _, b := range counter.Bins() {
		assert.Equal(t, "chr1", b.Chrom, "chr2 lengths differ")
	}
	assert.Equal(t, 1.0, counts.At(0, 1))
}
