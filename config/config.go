// Package config holds the options of a fingerprint run.
package config

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Default values of the sampling options.
const (
	DefaultBinSize         = 500
	DefaultFragmentLength  = 200
	DefaultNumberOfSamples = 500000
)

// PlotFormats lists the accepted image formats.
var PlotFormats = []string{"png", "pdf", "svg", "eps", "emf"}

var (
	// ErrLabelMismatch is returned when the number of labels differs from the number of BAM files.
	ErrLabelMismatch = errors.New("the number of labels does not match the number of bam files")
	// ErrNoBamFiles is returned when no input file was given.
	ErrNoBamFiles = errors.New("no bam files specified")
	// ErrPlotFormatUnsupported is returned for listed plot formats the renderer cannot produce.
	ErrPlotFormatUnsupported = errors.New("plot format not supported by the renderer")
)

// DefaultPlotFormat is used when the plot file has no extension and no format is given.
const DefaultPlotFormat = "png"

// unsupportedPlotFormats are accepted names that cannot be rendered.
var unsupportedPlotFormats = map[string]bool{
	"emf": true,
}

// Region represents a genomic interval. An End of zero means the whole chromosome.
type Region struct {
	Chrom      string
	Start, End int
}

// IsZero reports whether r is unset.
func (r Region) IsZero() bool {
	return r.Chrom == ""
}

func (r Region) String() string {
	if r.End == 0 {
		return r.Chrom
	}
	return r.Chrom + ":" + strconv.Itoa(r.Start) + ":" + strconv.Itoa(r.End)
}

// ParseRegion parses a region given as chr, chr:start:end or chr:start-end.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Region{}, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	switch len(fields) {
	case 1:
		return Region{Chrom: fields[0]}, nil
	case 3:
		start, err := strconv.Atoi(strings.Replace(fields[1], ",", "", -1))
		if err != nil {
			return Region{}, errors.Wrapf(err, "invalid region start in %q", s)
		}
		end, err := strconv.Atoi(strings.Replace(fields[2], ",", "", -1))
		if err != nil {
			return Region{}, errors.Wrapf(err, "invalid region end in %q", s)
		}
		if start < 0 || end <= start {
			return Region{}, errors.Errorf("invalid region interval %q", s)
		}
		return Region{fields[0], start, end}, nil
	}
	return Region{}, errors.Errorf("invalid region %q", s)
}

// Filters holds the read filtering options handed to the counter.
type Filters struct {
	MinMappingQuality     int
	IgnoreDuplicates      bool
	SamFlagInclude        int
	SamFlagExclude        int
	DoNotExtendPairedEnds bool
	ExtendPairedEnds      bool
	CenterReads           bool
}

// Config represents the options of a fingerprint run.
type Config struct {
	BamFiles        []string
	Labels          []string
	BinSize         int
	FragmentLength  int
	NumberOfSamples int
	Region          Region
	BlackList       string
	Cpu             int
	Filters

	PlotFile          string
	PlotFileFormat    string
	PlotTitle         string
	OutRawCounts      string
	OutQualityMetrics string
	SkipZeros         bool
}

// NewConfig returns a Config for the given BAM files with default sampling options.
func NewConfig(bamFiles []string, plotFile string) *Config {
	return &Config{
		BamFiles:        bamFiles,
		BinSize:         DefaultBinSize,
		FragmentLength:  DefaultFragmentLength,
		NumberOfSamples: DefaultNumberOfSamples,
		Cpu:             runtime.NumCPU(),
		PlotFile:        plotFile,
	}
}

// Validate checks the options and resolves the derived ones. Labels default
// to the BAM file names and ExtendPairedEnds is set to the negation of
// DoNotExtendPairedEnds.
func (c *Config) Validate() error {
	if len(c.BamFiles) == 0 {
		return ErrNoBamFiles
	}
	if len(c.Labels) > 0 && len(c.Labels) != len(c.BamFiles) {
		return errors.Wrapf(ErrLabelMismatch, "%d labels for %d files", len(c.Labels), len(c.BamFiles))
	}
	if len(c.Labels) == 0 {
		c.Labels = append([]string(nil), c.BamFiles...)
	}
	c.ExtendPairedEnds = !c.DoNotExtendPairedEnds

	if c.BinSize <= 0 {
		return errors.Errorf("bin size must be positive, got %d", c.BinSize)
	}
	if c.NumberOfSamples <= 0 {
		return errors.Errorf("number of samples must be positive, got %d", c.NumberOfSamples)
	}
	if c.Cpu < 1 {
		c.Cpu = 1
	}
	if c.PlotFile == "" {
		return errors.New("no plot file specified")
	}
	format, err := c.plotFormat()
	if err != nil {
		return err
	}
	c.PlotFileFormat = format
	return nil
}

// plotFormat returns the explicit plot format, or the one implied by the plot
// file extension. Files without extension default to png.
func (c *Config) plotFormat() (string, error) {
	format := strings.ToLower(c.PlotFileFormat)
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(c.PlotFile), "."))
		if format == "" {
			format = DefaultPlotFormat
		}
	}
	for _, f := range PlotFormats {
		if f != format {
			continue
		}
		if unsupportedPlotFormats[format] {
			return "", errors.Wrapf(ErrPlotFormatUnsupported, "%s, choose another format", format)
		}
		return format, nil
	}
	if c.PlotFileFormat != "" {
		return "", errors.Errorf("invalid plot file format %q, choose from %s", c.PlotFileFormat, strings.Join(PlotFormats, ", "))
	}
	return "", errors.Errorf("cannot infer the image format of %q, choose from %s", c.PlotFile, strings.Join(PlotFormats, ", "))
}
