// Command gitfilter runs a filter command over all blobs of a Git
// repository's history that match a set of path rules, producing a new
// repository with the filtered history. The filter command receives a
// blob on stdin and is expected to write the replacement blob to stdout.
package main

import (
	"bytes"
	"context"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rcowham/gitstitch/blobfilter"
	"github.com/rcowham/gitstitch/config"
	"github.com/rcowham/gitstitch/fastexport"
	"github.com/rcowham/gitstitch/hosttool"
)

func main() {
	var (
		configFile = kingpin.Flag(
			"config",
			"Config file with filter_rules describing what to filter.",
		).Default("gitfilter.yaml").Short('c').String()
		input = kingpin.Arg(
			"input",
			"Path to the source Git repository.",
		).Required().String()
		output = kingpin.Arg(
			"output",
			"Path to the filtered Git repository to create.",
		).Required().String()
		branch = kingpin.Flag(
			"branch",
			"Main branch to reset in the output repository.",
		).Default(config.DefaultBranch).Short('b').String()
		workers = kingpin.Flag(
			"workers",
			"Number of concurrent filter jobs.",
		).Default("0").Int()
		debug = kingpin.Flag(
			"debug",
			"Enable debug-level logging.",
		).Bool()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version("gitfilter").Author("gitstitch contributors")
	kingpin.CommandLine.Help = "Runs a filter command over every matching blob in a Git repository's history.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}

	maxWorkers := *workers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	if err := run(context.Background(), logger, cfg, *input, *output, *branch, maxWorkers); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logrus.Logger, cfg *config.Config, inputDir, outputDir, branch string, maxWorkers int) error {
	logger.Infof("exporting %s", inputDir)
	raw, err := hosttool.FastExport(ctx, inputDir, false)
	if err != nil {
		return err
	}
	seq, err := fastexport.Parse(raw)
	if err != nil {
		return errors.Wrap(err, "parsing export")
	}
	if err := fastexport.Validate(seq); err != nil {
		return errors.Wrap(err, "validating export")
	}

	nameFilter := buildNameFilter(cfg.FilterRules)
	blobFilter := buildBlobFilter(cfg.FilterRules)

	driver := blobfilter.NewDriver(maxWorkers, logger)
	defer driver.Close()

	logger.Infof("filtering blobs")
	filtered, err := driver.Run(seq, nameFilter, 0, blobFilter)
	if err != nil {
		return errors.Wrap(err, "filtering blobs")
	}

	logger.Infof("importing result into %s", outputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outputDir)
	}
	if err := hosttool.Init(ctx, outputDir); err != nil {
		return err
	}
	if err := hosttool.FastImport(ctx, outputDir, bytes.NewReader(filtered.Serialize())); err != nil {
		return err
	}
	return hosttool.ResetHard(ctx, outputDir, branch)
}

// buildNameFilter matches a path against every rule's extension list: a
// blob is a filter candidate if any rule's extension list matches its
// path (case-insensitive dotted-suffix match; an empty list matches all
// paths).
func buildNameFilter(rules []config.FilterRule) blobfilter.NameFilter {
	return func(path string) bool {
		for i := range rules {
			if rules[i].MatchesPath(path) {
				return true
			}
		}
		return false
	}
}

// buildBlobFilter dispatches a blob to the first rule whose extension
// list matches its path, honoring that rule's own size limit, and running
// its command with the blob on stdin and the filtered blob read from
// stdout.
func buildBlobFilter(rules []config.FilterRule) blobfilter.BlobFilter {
	return func(path string, blob []byte) ([]byte, error) {
		for i := range rules {
			r := &rules[i]
			if !r.MatchesPath(path) {
				continue
			}
			if r.MaxBytes > 0 && len(blob) > r.MaxBytes {
				return blob, nil
			}
			return runFilterCommand(r, path, blob)
		}
		return blob, nil
	}
}

func runFilterCommand(r *config.FilterRule, path string, blob []byte) ([]byte, error) {
	argv, err := r.SplitForFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "splitting filter command for %q", path)
	}
	return hosttool.RunFilter(argv, blob)
}
