package bamfingerprint

import (
	"sync"
	"time"

	"github.com/guigolab/bamfingerprint/annotation"
	"github.com/guigolab/bamfingerprint/config"
	"github.com/guigolab/bamfingerprint/sam"
	"github.com/guigolab/bamfingerprint/stats"
	"github.com/guigolab/bamfingerprint/utils"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxBinsPerJob = 500

// Bin is a half-open genomic window used as sampling unit.
type Bin struct {
	Chrom      string
	Start, End int
}

// interval is a sampled stretch of a chromosome.
type interval struct {
	chrom      string
	start, end int
}

type job struct {
	first int
	bins  []Bin
}

// CountReadsPerBin samples bins along the genome and counts, for each BAM
// file, the reads whose fragment overlaps each bin.
type CountReadsPerBin struct {
	BamFiles        []string
	BinSize         int
	NumberOfSamples int
	FragmentLength  int
	Region          config.Region
	BlackList       *annotation.RtreeMap
	Cpu             int
	config.Filters

	bins []Bin
}

// NewCountReadsPerBin returns a counter for the files and options of cfg.
// blacklist may be nil.
func NewCountReadsPerBin(cfg *config.Config, blacklist *annotation.RtreeMap) *CountReadsPerBin {
	return &CountReadsPerBin{
		BamFiles:        cfg.BamFiles,
		BinSize:         cfg.BinSize,
		NumberOfSamples: cfg.NumberOfSamples,
		FragmentLength:  cfg.FragmentLength,
		Region:          cfg.Region,
		BlackList:       blacklist,
		Cpu:             utils.Max(cfg.Cpu, 1),
		Filters:         cfg.Filters,
	}
}

// Bins returns the bins sampled by the last call to Run, in genomic order.
func (c *CountReadsPerBin) Bins() []Bin {
	return c.bins
}

// Run samples the bins and returns the count matrix, one row per bin in
// genomic order and one column per BAM file.
func (c *CountReadsPerBin) Run() (*stats.CountMatrix, error) {
	if len(c.BamFiles) == 0 {
		return nil, config.ErrNoBamFiles
	}
	intervals, err := c.intervals()
	if err != nil {
		return nil, err
	}
	c.bins = c.sample(intervals)
	nFiles := len(c.BamFiles)
	if len(c.bins) == 0 {
		log.Warn("No bins sampled")
		return stats.NewCountMatrix(0, nFiles, nil), nil
	}

	start := time.Now()
	data := make([]float64, len(c.bins)*nFiles)
	jobs := c.jobs()
	workers := utils.Min(c.Cpu, len(jobs))
	if workers < c.Cpu {
		log.WithFields(log.Fields{
			"Jobs": len(jobs),
		}).Debugf("Limiting the number of workers to the number of jobs")
	}

	in := make(chan job, len(jobs))
	for _, j := range jobs {
		in <- j
	}
	close(in)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		firstEr error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := c.worker(id, in, data); err != nil {
				mu.Lock()
				if firstEr == nil {
					firstEr = err
				}
				mu.Unlock()
			}
		}(i + 1)
	}
	wg.Wait()
	if firstEr != nil {
		return nil, firstEr
	}
	log.Infof("Counted reads in %d bins of %d files in %v", len(c.bins), nFiles, time.Since(start))
	return stats.NewCountMatrix(len(c.bins), nFiles, data), nil
}

// worker counts the reads of every job it receives and stores them in the rows of data.
// It keeps consuming jobs after an error so that the producer never blocks.
func (c *CountReadsPerBin) worker(id int, in <-chan job, data []float64) error {
	logger := log.WithFields(log.Fields{
		"worker": id,
	})
	logger.Debug("Starting")

	readers := make([]*sam.Reader, 0, len(c.BamFiles))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	var err error
	for _, f := range c.BamFiles {
		var r *sam.Reader
		r, err = sam.NewReader(f, 1)
		if err != nil {
			break
		}
		readers = append(readers, r)
	}

	nFiles := len(c.BamFiles)
	for j := range in {
		if err != nil {
			continue
		}
		for k, bin := range j.bins {
			row := (j.first + k) * nFiles
			for f, r := range readers {
				var n int
				n, err = c.count(r, bin)
				if err != nil {
					break
				}
				data[row+f] = float64(n)
			}
			if err != nil {
				break
			}
		}
		logger.WithFields(log.Fields{
			"Reference": j.bins[0].Chrom,
			"Bins":      len(j.bins),
		}).Debug("Job done")
	}
	logger.Debug("Done")
	return err
}

// count returns the number of reads of r whose fragment overlaps bin.
func (c *CountReadsPerBin) count(r *sam.Reader, bin Bin) (int, error) {
	ext := utils.Max(c.FragmentLength, 0)
	qStart := utils.Max(bin.Start-ext, 0)
	qEnd := bin.End + ext
	if ref := r.Ref(bin.Chrom); ref != nil && qEnd > ref.Len() {
		qEnd = ref.Len()
	}
	it, err := r.Fetch(bin.Chrom, qStart, qEnd)
	if err != nil {
		return 0, err
	}
	var seen map[sam.DuplicateKey]struct{}
	if c.IgnoreDuplicates {
		seen = make(map[sam.DuplicateKey]struct{})
	}
	n := 0
	for it.Next() {
		rec := it.Record()
		if !rec.Passes(c.Filters) {
			continue
		}
		start, end := rec.Fragment(c.FragmentLength, c.ExtendPairedEnds, c.CenterReads)
		if end <= bin.Start || start >= bin.End {
			continue
		}
		if seen != nil {
			k := rec.DuplicateKey()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
		}
		n++
	}
	if err := it.Close(); err != nil {
		return 0, errors.Wrapf(err, "%s: reading %s:%d-%d", r.FileName, bin.Chrom, qStart, qEnd)
	}
	return n, nil
}

// intervals returns the stretches to sample: the chromosomes shared by all BAM
// files with the same length, or the requested region.
func (c *CountReadsPerBin) intervals() ([]interval, error) {
	var common []interval
	lengths := make(map[string]int)
	for i, f := range c.BamFiles {
		r, err := sam.NewReader(f, 1)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			for _, ref := range r.Refs {
				common = append(common, interval{ref.Name(), 0, ref.Len()})
				lengths[ref.Name()] = ref.Len()
			}
		} else {
			kept := common[:0]
			for _, iv := range common {
				ref := r.Ref(iv.chrom)
				if ref == nil || ref.Len() != lengths[iv.chrom] {
					log.WithFields(log.Fields{
						"Reference": iv.chrom,
						"File":      f,
					}).Warn("Reference missing or with a different length, skipping")
					continue
				}
				kept = append(kept, iv)
			}
			common = kept
		}
		r.Close()
	}

	if c.Region.IsZero() {
		return common, nil
	}
	for _, iv := range common {
		if iv.chrom != c.Region.Chrom {
			continue
		}
		if c.Region.End > 0 {
			iv.start = utils.Min(c.Region.Start, iv.end)
			iv.end = utils.Min(c.Region.End, iv.end)
		}
		return []interval{iv}, nil
	}
	return nil, errors.Errorf("region %s not found in all bam files", c.Region)
}

// sample places a bin every step bases so that about NumberOfSamples bins
// cover the intervals. Bins are clipped at the interval end and bins
// overlapping the blacklist are dropped.
func (c *CountReadsPerBin) sample(intervals []interval) []Bin {
	genomeSize := 0
	for _, iv := range intervals {
		genomeSize += iv.end - iv.start
	}
	step := utils.Max(genomeSize/c.NumberOfSamples, 1)
	log.WithFields(log.Fields{
		"GenomeSize": genomeSize,
		"Step":       step,
		"BinSize":    c.BinSize,
	}).Info("Sampling bins")

	var bins []Bin
	skipped := 0
	for _, iv := range intervals {
		for pos := iv.start; pos < iv.end; pos += step {
			end := utils.Min(pos+c.BinSize, iv.end)
			if c.BlackList != nil && c.BlackList.Overlaps(iv.chrom, pos, end) {
				skipped++
				continue
			}
			bins = append(bins, Bin{iv.chrom, pos, end})
		}
	}
	if skipped > 0 {
		log.Infof("Skipped %d bins overlapping blacklisted regions", skipped)
	}
	return bins
}

func (c *CountReadsPerBin) jobs() []job {
	size := (len(c.bins) + c.Cpu - 1) / c.Cpu
	size = utils.Max(utils.Min(size, maxBinsPerJob), 1)
	var jobs []job
	for first := 0; first < len(c.bins); {
		last := first + 1
		// jobs do not span chromosomes
		for last < len(c.bins) && last-first < size && c.bins[last].Chrom == c.bins[first].Chrom {
			last++
		}
		jobs = append(jobs, job{first, c.bins[first:last]})
		first = last
	}
	return jobs
}
