// Command gitsubmodule builds a single repository that tracks one or more
// source repositories as submodules, replaying each source's first-parent
// history as a sequence of submodule-pointer-bump commits interleaved in
// commit-date order.
package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rcowham/gitstitch/config"
	"github.com/rcowham/gitstitch/hosttool"
)

func main() {
	var (
		output = kingpin.Flag(
			"output",
			"Output directory for the new repository.",
		).Short('o').Required().String()
		branch = kingpin.Flag(
			"branch",
			"Main branch name, used both to read source history and as the output branch.",
		).Default(config.DefaultBranch).Short('b').String()
		debug = kingpin.Flag(
			"debug",
			"Enable debug-level logging.",
		).Bool()
		sourceRepos = kingpin.Arg(
			"sourcerepo",
			"URL of a source repository to add as a submodule.",
		).Required().Strings()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version("gitsubmodule").Author("gitstitch contributors")
	kingpin.CommandLine.Help = "Creates a repository with one or more submodules, replaying each source's history.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	if err := run(context.Background(), logger, *output, *branch, *sourceRepos); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// sourceRepo tracks one source repository's clone URL and whether its
// `git submodule add` has already run in the output repository.
type sourceRepo struct {
	url   string
	added bool
}

// logEntry is one first-parent commit of a source repository, tagged with
// the repository it came from so it can be replayed as a submodule bump.
type logEntry struct {
	name    string
	sha     string
	time    int64
	subject string
}

func run(ctx context.Context, logger *logrus.Logger, outputDir, branch string, urls []string) error {
	workRoot, err := os.MkdirTemp("", "gitsubmodule-")
	if err != nil {
		return errors.Wrap(err, "creating work directory")
	}
	defer os.RemoveAll(workRoot)

	repos := make(map[string]*sourceRepo)
	var combined []logEntry

	for _, url := range urls {
		name := extractRepoName(url)
		if _, exists := repos[name]; exists {
			return errors.Errorf("duplicate submodule name %q derived from %q", name, url)
		}
		repos[name] = &sourceRepo{url: url}

		repoPath := filepath.Join(workRoot, name)
		logger.Infof("cloning %s", url)
		if err := hosttool.Clone(ctx, url, repoPath); err != nil {
			return err
		}

		entries, err := hosttool.FirstParentLog(ctx, repoPath, branch)
		if err != nil {
			return err
		}
		next := make([]logEntry, len(entries))
		for i, e := range entries {
			next[i] = logEntry{name: name, sha: e.Hash, time: e.Time, subject: e.Subject}
		}
		combined = combineLogs(combined, next)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outputDir)
	}
	if err := hosttool.Init(ctx, outputDir); err != nil {
		return err
	}
	if err := hosttool.CheckoutNewBranch(ctx, outputDir, branch); err != nil {
		return err
	}

	for _, e := range combined {
		repo := repos[e.name]
		if !repo.added {
			logger.Infof("adding submodule %s", e.name)
			if err := hosttool.SubmoduleAdd(ctx, outputDir, repo.url, e.name); err != nil {
				return err
			}
			repo.added = true
		}

		repoPath := filepath.Join(outputDir, e.name)
		logger.Infof("updating %s to %s", e.name, e.sha)
		if err := hosttool.Checkout(ctx, repoPath, e.sha); err != nil {
			return err
		}
		if err := hosttool.Add(ctx, outputDir, e.name); err != nil {
			return err
		}
		commitTime := time.Unix(e.time, 0)
		message := e.name + ": " + e.subject
		if err := hosttool.CommitWithDates(ctx, outputDir, message, commitTime, commitTime); err != nil {
			return err
		}
	}
	return nil
}

// combineLogs merges two per-repository logs in commit-date order,
// preferring the second log's commit on a tie so that repos passed later
// on the command line break ties the same way the entries were folded in.
func combineLogs(a, b []logEntry) []logEntry {
	combined := make([]logEntry, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].time < b[j].time {
			combined = append(combined, a[i])
			i++
		} else {
			combined = append(combined, b[j])
			j++
		}
	}
	combined = append(combined, a[i:]...)
	combined = append(combined, b[j:]...)
	return combined
}

// extractRepoName derives a submodule directory name from a clone URL,
// stripping any leading host/path prefix and trailing ".git" suffix.
func extractRepoName(url string) string {
	colonPos := strings.LastIndexByte(url, ':')
	slashPos := strings.LastIndexByte(url, '/')
	dotPos := strings.LastIndexByte(url, '.')

	nameStart := colonPos
	if slashPos > colonPos {
		nameStart = slashPos
	}
	nameEnd := len(url)
	if dotPos > nameStart {
		nameEnd = dotPos
	}
	return url[nameStart+1 : nameEnd]
}
