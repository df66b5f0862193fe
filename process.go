// Package bamfingerprint samples read coverage of indexed BAM files and computes fingerprint curves.
package bamfingerprint

import (
	"time"

	"github.com/guigolab/bamfingerprint/annotation"
	"github.com/guigolab/bamfingerprint/chart"
	"github.com/guigolab/bamfingerprint/config"
	"github.com/guigolab/bamfingerprint/stats"
	"github.com/guigolab/bamfingerprint/utils"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func init() {
	log.SetLevel(log.WarnLevel)
}

// ErrNoReads is returned when the sampled bins contain no reads in any file.
var ErrNoReads = errors.New("check that the min mapping quality is not overly high and that the chromosome names between bam files are consistent")

// Counter produces a bin count matrix.
type Counter interface {
	Run() (*stats.CountMatrix, error)
}

// Result holds the count matrix, after the optional zero-row filtering, and the fingerprint curves.
type Result struct {
	Labels []string
	Counts *stats.CountMatrix
	Curves []*stats.Curve
}

// Process validates cfg, counts the reads of its BAM files and computes their fingerprints.
func Process(cfg *config.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var blacklist *annotation.RtreeMap
	if cfg.BlackList != "" {
		log.Infof("Creating index for %s", cfg.BlackList)
		start := time.Now()
		var err error
		blacklist, err = annotation.CreateIndex(cfg.BlackList)
		if err != nil {
			return nil, err
		}
		log.Infof("Index done in %v", time.Since(start))
	}
	return process(cfg, NewCountReadsPerBin(cfg, blacklist))
}

func process(cfg *config.Config, counter Counter) (*Result, error) {
	start := time.Now()
	log.Infof("Sampling %d files", len(cfg.BamFiles))
	counts, err := counter.Run()
	if err != nil {
		return nil, err
	}
	rows, _ := counts.Dims()
	if counts.Sum() == 0 {
		return nil, errors.Wrapf(ErrNoReads, "no reads were found in %d regions sampled", rows)
	}
	if cfg.SkipZeros {
		counts = counts.RemoveZeroRows()
		n, _ := counts.Dims()
		log.Infof("Removed %d bins without reads in all files", rows-n)
	}
	curves, err := stats.Fingerprint(counts, cfg.Labels)
	if err != nil {
		return nil, err
	}
	log.Infof("Fingerprints done in %v", time.Since(start))
	return &Result{cfg.Labels, counts, curves}, nil
}

// WriteOutput saves the plot and, if requested, the raw counts and the quality metrics.
func WriteOutput(cfg *config.Config, res *Result) error {
	if err := chart.Save(res.Curves, cfg.PlotTitle, cfg.PlotFileFormat, cfg.PlotFile); err != nil {
		return err
	}
	log.Infof("Plot written to %s", cfg.PlotFile)

	if cfg.OutRawCounts != "" {
		if err := writeTo(cfg.OutRawCounts, func(w *utils.Writer) error {
			return res.Counts.WriteRaw(w, res.Labels)
		}); err != nil {
			return errors.Wrap(err, "writing raw counts")
		}
	}
	if cfg.OutQualityMetrics != "" {
		if err := writeTo(cfg.OutQualityMetrics, func(w *utils.Writer) error {
			return stats.WriteQualityMetrics(w, stats.CalculateAll(res.Curves))
		}); err != nil {
			return errors.Wrap(err, "writing quality metrics")
		}
	}
	return nil
}

func writeTo(output string, write func(*utils.Writer) error) error {
	w, err := utils.NewWriter(output)
	if err != nil {
		return err
	}
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
