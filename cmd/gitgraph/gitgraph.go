// Command gitgraph renders the commit graph of a git fast-export stream
// as a Graphviz dot file, optionally squashing linear runs down to the
// branch points and merges.
package main

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/rcowham/gitstitch/fastexport"
)

const defaultUser = "unknown"

type graphOptions struct {
	exportFile  string
	graphFile   string
	firstCommit int
	lastCommit  int
	maxCommits  int
	squash      bool
}

// commitNode is one parsed commit, enriched with the graph-building state
// (child/merge counts, assigned branch, optional dot node) needed to decide
// which commits get a node of their own once squash is in play.
type commitNode struct {
	mark         int
	ref          string
	user         string
	from         int
	hasFrom      bool
	merges       []int
	branch       string
	label        string
	parentBranch string
	childCount   int
	mergeCount   int
	hasNode      bool
	gNode        dot.Node
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func userFromEmail(email string) string {
	if email == "" {
		return defaultUser
	}
	parts := strings.SplitN(email, "@", 2)
	if parts[0] != "" {
		return parts[0]
	}
	return defaultUser
}

// committerEmail pulls the "<...>" address out of a raw author/committer/
// tagger command line.
func committerEmail(raw []byte) string {
	lt := bytes.IndexByte(raw, '<')
	gt := bytes.IndexByte(raw, '>')
	if lt < 0 || gt < 0 || gt < lt {
		return ""
	}
	return string(raw[lt+1 : gt])
}

func newCommitNode(mark int, ref, email string) *commitNode {
	n := &commitNode{mark: mark, ref: ref, user: userFromEmail(email)}
	n.branch = strings.Replace(ref, "refs/heads/", "", 1)
	if hasPrefix(n.branch, "refs/tags") || hasPrefix(n.branch, "refs/remote") {
		n.branch = ""
	}
	n.label = fmt.Sprintf("Commit: %d %s", n.mark, n.branch)
	return n
}

// graphBuilder walks a parsed fastexport.Sequence once, collecting one
// commitNode per mark, then lays out the dot graph from the result.
type graphBuilder struct {
	logger  *logrus.Logger
	opts    graphOptions
	commits map[int]*commitNode
	graph   *dot.Graph
}

func newGraphBuilder(logger *logrus.Logger, opts graphOptions) *graphBuilder {
	return &graphBuilder{logger: logger, opts: opts, commits: make(map[int]*commitNode)}
}

// parseCommits scans seq for commit blocks: a 'commit' command followed by
// an optional mark, optional original-oid, required committer, the message
// data, an optional from and zero or more merges.
func (b *graphBuilder) parseCommits(seq fastexport.Sequence) {
	for i := 0; i < len(seq); i++ {
		cmd := seq[i]
		if cmd.Verb != fastexport.VerbCommit {
			continue
		}
		ref, _ := cmd.Ref()
		k := i + 1
		var mark int
		if k < len(seq) {
			if m, ok := seq[k].Mark(); ok {
				mark = m
				k++
			}
		}
		if k < len(seq) && seq[k].Verb == fastexport.VerbOriginalOID {
			k++
		}
		if k < len(seq) && seq[k].Verb == fastexport.VerbAuthor {
			k++
		}
		var email string
		if k < len(seq) && seq[k].Verb == fastexport.VerbCommitter {
			email = committerEmail(seq[k].Raw)
			k++
		}

		node := newCommitNode(mark, string(ref), email)
		if mark != 0 {
			b.commits[mark] = node
		}

		if k < len(seq) && seq[k].Verb == fastexport.VerbData {
			k++
		}
		if k < len(seq) && seq[k].Verb == fastexport.VerbFrom {
			if from, ok := seq[k].From(); ok {
				node.from = from
				node.hasFrom = true
			}
			k++
		}
		for k < len(seq) && seq[k].Verb == fastexport.VerbMerge {
			if m, ok := seq[k].Merge(); ok {
				node.merges = append(node.merges, m)
			}
			k++
		}

		if node.hasFrom {
			if parent, ok := b.commits[node.from]; ok {
				parent.childCount++
				if node.branch == "" {
					node.branch = parent.branch
				}
				node.parentBranch = parent.branch
			}
		} else {
			node.branch = "main"
		}
		for _, m := range node.merges {
			if mergeFrom, ok := b.commits[m]; ok {
				mergeFrom.mergeCount++
			}
		}

		if b.opts.maxCommits != 0 && len(b.commits) >= b.opts.maxCommits {
			return
		}
	}
}

// buildGraph walks the parsed commits in mark order and creates dot nodes
// and edges, optionally skipping runs of linear commits when squash is set.
func (b *graphBuilder) buildGraph() {
	keys := make([]int, 0, len(b.commits))
	for k := range b.commits {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	lastBranchCommit := make(map[string]int)
	branchSkipCount := make(map[string]int)

	for _, k := range keys {
		cmt := b.commits[k]
		if b.opts.firstCommit != 0 && cmt.mark < b.opts.firstCommit {
			continue
		}
		if b.opts.lastCommit != 0 && cmt.mark > b.opts.lastCommit {
			continue
		}
		if b.opts.squash &&
			cmt.branch == cmt.parentBranch &&
			len(cmt.merges) == 0 &&
			cmt.mergeCount == 0 &&
			cmt.childCount <= 1 &&
			cmt.mark != b.opts.firstCommit &&
			cmt.mark != b.opts.lastCommit {
			branchSkipCount[cmt.branch]++
			continue
		}
		if pid, ok := lastBranchCommit[cmt.branch]; ok {
			cmt.from, cmt.hasFrom = pid, true
		}
		cmt.gNode = b.graph.Node(cmt.label)
		cmt.hasNode = true
		b.createGraphEdges(cmt, branchSkipCount[cmt.branch])
		lastBranchCommit[cmt.branch] = cmt.mark
		branchSkipCount[cmt.branch] = 0
	}
}

func (b *graphBuilder) createGraphEdges(cmt *commitNode, skipCount int) {
	if cmt.hasFrom {
		if parent, ok := b.commits[cmt.from]; ok {
			parent.gNode = b.graph.Node(parent.label)
			label := "p"
			if skipCount > 0 {
				label = fmt.Sprintf("p%d", skipCount)
			}
			b.graph.Edge(parent.gNode, cmt.gNode, label)
		}
	}
	for _, m := range cmt.merges {
		if mergeFrom, ok := b.commits[m]; ok {
			mergeFrom.gNode = b.graph.Node(mergeFrom.label)
			b.graph.Edge(mergeFrom.gNode, cmt.gNode, "m")
		}
	}
}

func main() {
	var (
		gitexport = kingpin.Arg(
			"gitexport",
			"git fast-export file to process.",
		).Required().String()
		maxCommits = kingpin.Flag(
			"max.commits",
			"Max no of commits to process (default 0 means all).",
		).Default("0").Short('m').Int()
		outputGraph = kingpin.Flag(
			"output",
			"Graphviz dot file to write the commit graph to.",
		).Short('o').Required().String()
		outputImage = kingpin.Flag(
			"output.image",
			"Optional PNG file to render the graph to, alongside the dot file.",
		).String()
		graphFirstCommit = kingpin.Flag(
			"first.commit",
			"Mark of the first commit to include (default 0 means all).",
		).Default("0").Short('f').Int()
		graphLastCommit = kingpin.Flag(
			"last.commit",
			"Mark of the last commit to include (default 0 means all).",
		).Default("0").Short('l').Int()
		squash = kingpin.Flag(
			"squash",
			"Squash linear runs of commits, leaving only branch points and merges.",
		).Short('s').Bool()
		debug = kingpin.Flag(
			"debug",
			"Enable debug-level logging.",
		).Bool()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version("gitgraph").Author("gitstitch contributors")
	kingpin.CommandLine.Help = "Renders the commit graph of a git fast-export stream as a Graphviz dot file.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	opts := graphOptions{
		exportFile:  *gitexport,
		graphFile:   *outputGraph,
		maxCommits:  *maxCommits,
		firstCommit: *graphFirstCommit,
		lastCommit:  *graphLastCommit,
		squash:      *squash,
	}
	logger.Infof("options: %+v", opts)
	logger.Infof("os: %s/%s", runtime.GOOS, runtime.GOARCH)

	start := time.Now()
	raw, err := os.ReadFile(opts.exportFile)
	if err != nil {
		logger.Errorf("reading %s: %v", opts.exportFile, err)
		os.Exit(1)
	}
	seq, err := fastexport.Parse(raw)
	if err != nil {
		logger.Errorf("parsing %s: %v", opts.exportFile, err)
		os.Exit(1)
	}

	b := newGraphBuilder(logger, opts)
	b.graph = dot.NewGraph(dot.Directed)
	b.parseCommits(seq)
	b.buildGraph()

	f, err := os.OpenFile(opts.graphFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		logger.Errorf("writing %s: %v", opts.graphFile, err)
		os.Exit(1)
	}
	defer f.Close()
	dotSrc := b.graph.String()
	if _, err := f.WriteString(dotSrc); err != nil {
		logger.Errorf("writing %s: %v", opts.graphFile, err)
		os.Exit(1)
	}

	if *outputImage != "" {
		if err := renderImage(dotSrc, *outputImage); err != nil {
			logger.Errorf("rendering %s: %v", *outputImage, err)
			os.Exit(1)
		}
	}
	logger.Infof("wrote %s in %s", opts.graphFile, time.Since(start))
}

// renderImage rasterizes dot source to a PNG file using the bundled
// Graphviz layout engine, sparing callers a system `dot` binary.
func renderImage(dotSrc, path string) error {
	gv := graphviz.New()
	graph, err := graphviz.ParseBytes([]byte(dotSrc))
	if err != nil {
		return err
	}
	defer graph.Close()
	return gv.RenderFilename(graph, graphviz.PNG, path)
}
