// Command gitstitch generates a new repository whose history interleaves
// one or more secondary repositories into a main repository, ordered by
// commit date, each secondary moved into its own subdirectory and its
// refs disambiguated by name.
package main

import (
	"bytes"
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rcowham/gitstitch/config"
	"github.com/rcowham/gitstitch/fastexport"
	"github.com/rcowham/gitstitch/gitlog"
	"github.com/rcowham/gitstitch/hosttool"
	"github.com/rcowham/gitstitch/interleave"
	"github.com/rcowham/gitstitch/rewrite"
)

const programName = "gitstitch"

// ErrSubmoduleConflict is returned when more than one repository in a
// stitch carries its own .gitmodules, a configuration this driver does
// not know how to merge.
var ErrSubmoduleConflict = errors.New("gitstitch: more than one repository carries a .gitmodules file")

func main() {
	var (
		configFile = kingpin.Flag(
			"config",
			"Config file describing the main and secondary repositories.",
		).Default("gitstitch.yaml").Short('c').String()
		output = kingpin.Flag(
			"output",
			"Output directory for the stitched repository.",
		).Short('o').Required().String()
		noSubdirs = kingpin.Flag(
			"no-subdirs",
			"Do not move secondary repositories into their own subdirectory.",
		).Bool()
		showOriginalOIDs = kingpin.Flag(
			"show-original-ids",
			"Pass --show-original-ids to git fast-export.",
		).Bool()
		debug = kingpin.Flag(
			"debug",
			"Enable debug-level logging.",
		).Bool()
		profileCPU = kingpin.Flag(
			"profile",
			"Write a CPU profile for this run.",
		).Bool()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(programName).Author("gitstitch contributors")
	kingpin.CommandLine.Help = "Stitches the linear histories of two or more Git repositories together.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	if *profileCPU {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg, err := config.LoadFile(*configFile)
	if err != nil {
		logger.Errorf("loading config: %v", err)
		os.Exit(1)
	}

	if err := run(context.Background(), logger, cfg, *output, !*noSubdirs, *showOriginalOIDs); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logrus.Logger, cfg *config.Config, outputDir string, moveToSubdirs, showOriginalOIDs bool) error {
	logger.Infof("exporting main repository %s", cfg.Main.Path)
	mainSeq, foundSubmodules, err := exportAndPrefix(ctx, cfg.Main, moveToSubdirs, showOriginalOIDs)
	if err != nil {
		return err
	}
	mainSeq = rewrite.CanonicalizeRefs(mainSeq)

	haveSubmodules := foundSubmodules

	for _, spec := range cfg.Secondary {
		logger.Infof("exporting secondary repository %s (%s)", spec.Name, spec.Path)
		secSeq, foundSub, err := exportAndPrefix(ctx, spec, moveToSubdirs, showOriginalOIDs)
		if err != nil {
			return err
		}
		if foundSub {
			if haveSubmodules {
				return ErrSubmoduleConflict
			}
			haveSubmodules = true
		}

		logger.Infof("merging %s into the stitched history", spec.Name)
		mainSeq, err = stitch(mainSeq, secSeq, cfg.Main.Branch, spec)
		if err != nil {
			return errors.Wrapf(err, "merging %s", spec.Name)
		}
	}

	logger.Infof("importing result into %s", outputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outputDir)
	}
	if err := hosttool.Init(ctx, outputDir); err != nil {
		return err
	}
	stream := mainSeq.Serialize()
	if err := hosttool.FastImport(ctx, outputDir, bytes.NewReader(stream)); err != nil {
		return err
	}
	return hosttool.ResetHard(ctx, outputDir, cfg.Main.Branch)
}

// exportAndPrefix exports spec's repository and, if moveToSubdirs is set,
// prefixes every path by the repository's name.
func exportAndPrefix(ctx context.Context, spec config.RepoSpec, moveToSubdirs, showOriginalOIDs bool) (fastexport.Sequence, bool, error) {
	raw, err := hosttool.FastExport(ctx, spec.Path, showOriginalOIDs)
	if err != nil {
		return nil, false, err
	}
	seq, err := fastexport.Parse(raw)
	if err != nil {
		return nil, false, errors.Wrapf(err, "parsing export of %s", spec.Path)
	}
	if err := fastexport.Validate(seq); err != nil {
		return nil, false, errors.Wrapf(err, "validating export of %s", spec.Path)
	}
	if !moveToSubdirs {
		return seq, false, nil
	}
	prefix := []byte(spec.Name + "/")
	out, foundSubmodules, err := rewrite.Paths(seq, prefix)
	if err != nil {
		return nil, false, errors.Wrapf(err, "rewriting paths for %s", spec.Name)
	}
	return out, foundSubmodules, nil
}

// stitch renumbers secondary's marks above main's, extracts both
// branches' logs, disambiguates secondary's refs and splices the two
// sequences together.
func stitch(mainSeq, secondary fastexport.Sequence, mainBranch string, spec config.RepoSpec) (fastexport.Sequence, error) {
	delta := mainSeq.MaxMark()
	secondary = rewrite.RenumberMarks(secondary, delta)

	mainLog, err := gitlog.Extract(mainSeq, mainBranch, 0)
	if err != nil {
		return nil, errors.Wrap(err, "extracting main branch log")
	}
	secLog, err := gitlog.Extract(secondary, spec.Branch, 1)
	if err != nil {
		return nil, errors.Wrap(err, "extracting secondary branch log")
	}

	secondary = rewrite.CanonicalizeRefs(secondary)
	secondary = rewrite.DisambiguateRefs(secondary, []byte("-"+spec.Name))

	return interleave.Interleave(mainSeq, secondary, mainLog, secLog)
}
