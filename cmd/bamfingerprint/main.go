package main

import (
	"fmt"
	"runtime"

	"github.com/guigolab/bamfingerprint"
	"github.com/guigolab/bamfingerprint/config"
	"github.com/guigolab/bamfingerprint/utils"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var (
	cfg              = config.NewConfig(nil, "")
	region, loglevel string
)

func run(cmd *cobra.Command, args []string) (err error) {
	level, err := log.ParseLevel(loglevel)
	if err != nil {
		return
	}
	log.SetLevel(level)

	cfg.BamFiles = append(cfg.BamFiles, args...)
	if cfg.Region, err = config.ParseRegion(region); err != nil {
		return
	}

	logger := log.WithFields(log.Fields{
		"version":   version,
		"commit":    commit,
		"buildTime": date,
	})
	logger.Infof("Running %s", cmd.Use)
	log.Infof("Using %v out of %v logical CPUs", cfg.Cpu, runtime.NumCPU())
	res, err := bamfingerprint.Process(cfg)
	if err != nil {
		return
	}
	return bamfingerprint.WriteOutput(cfg, res)
}

func setFingerprintFlags(c *cobra.Command) {
	f := c.PersistentFlags()
	f.StringSliceVarP(&cfg.BamFiles, "bamfiles", "b", nil, "indexed bam files (required)")
	f.StringSliceVarP(&cfg.Labels, "labels", "l", nil, "labels of the bam files in the plot, defaults to the file names")
	f.IntVarP(&cfg.BinSize, "binSize", "", config.DefaultBinSize, "length in bases of the sampled bins")
	f.IntVarP(&cfg.FragmentLength, "fragmentLength", "f", config.DefaultFragmentLength, "length in bases to which single-end reads are extended")
	f.IntVarP(&cfg.NumberOfSamples, "numberOfSamples", "n", config.DefaultNumberOfSamples, "number of bins sampled along the genome")
	f.StringVarP(&cfg.PlotFile, "plotFile", "", "", "output image file (required)")
	f.StringVarP(&cfg.PlotFileFormat, "plotFileFormat", "", "", "image format, overrides the plot file extension")
	f.StringVarP(&cfg.PlotTitle, "plotTitle", "T", "", "title of the plot")
	f.StringVarP(&cfg.OutRawCounts, "outRawCounts", "", "", "output file for the raw counts per bin")
	f.StringVarP(&cfg.OutQualityMetrics, "outQualityMetrics", "", "", "output file for the quality metrics of each sample")
	f.BoolVarP(&cfg.SkipZeros, "skipZeros", "", false, "skip bins without reads in all files")
	f.StringVarP(&region, "region", "r", "", "restrict sampling to chr, chr:start:end or chr:start-end")
	f.StringVarP(&cfg.BlackList, "blackListFileName", "", "", "BED file of regions to exclude from sampling")
	f.IntVarP(&cfg.MinMappingQuality, "minMappingQuality", "", 0, "skip reads with a lower mapping quality")
	f.BoolVarP(&cfg.IgnoreDuplicates, "ignoreDuplicates", "", false, "count reads with the same start, strand and mate start once")
	f.IntVarP(&cfg.SamFlagInclude, "samFlagInclude", "", 0, "only count reads with all these SAM flag bits set")
	f.IntVarP(&cfg.SamFlagExclude, "samFlagExclude", "", 0, "skip reads with any of these SAM flag bits set")
	f.BoolVarP(&cfg.DoNotExtendPairedEnds, "doNotExtendPairedEnds", "", false, "do not use the template of proper pairs as fragment")
	f.BoolVarP(&cfg.CenterReads, "centerReads", "", false, "center the fragment on the middle of the read")
	f.IntVarP(&cfg.Cpu, "numberOfProcessors", "p", runtime.NumCPU(), "number of cpus to be used")
	f.StringVarP(&loglevel, "loglevel", "", "warn", "logging level")
	c.MarkPersistentFlagRequired("bamfiles")
	c.MarkPersistentFlagRequired("plotFile")

	c.SetVersionTemplate(`{{with .Name}}{{printf "== %s ==\n" .}}{{end}}{{printf "%s\n" .Version}}`)
}

// labelMismatch reports whether err is a label/file count mismatch, which is
// printed to stdout and ends the run with status 0.
func labelMismatch(err error) bool {
	return err != nil && errors.Cause(err) == config.ErrLabelMismatch
}

func buildVersion(version, commit, date string) string {
	var result = fmt.Sprintf("version: %s", version)
	if commit != "" {
		result = fmt.Sprintf("%s\ncommit: %s", result, commit)
	}
	if date != "" {
		result = fmt.Sprintf("%s\nbuilt at: %s", result, date)
	}
	return result
}

func main() {
	var rootCmd = &cobra.Command{
		Use:           "bamfingerprint",
		Short:         "Sequencing depth fingerprints",
		Long:          "bamfingerprint - plot the cumulative read coverage of sampled bins for one or more bam files",
		RunE:          run,
		Version:       buildVersion(version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setFingerprintFlags(rootCmd)

	err := rootCmd.Execute()
	if labelMismatch(err) {
		fmt.Println(err)
		return
	}
	utils.Check(err)
}
