// Package blobfilter runs a blob-rewriting filter over the 'data' blobs a
// fast-export stream's 'M' commands reference, dispatching the matching
// blobs to a worker pool and splicing the results back in deterministically,
// independent of completion order.
package blobfilter

import (
	"sync"
	"sync/atomic"

	"github.com/alitto/pond"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rcowham/gitstitch/fastexport"
)

// NameFilter reports whether the file at path should be dispatched to the
// blob filter.
type NameFilter func(path string) bool

// BlobFilter transforms a single blob's payload. path is the repository
// path the blob was found under (for filters whose behavior depends on
// file extension or name).
type BlobFilter func(path string, blob []byte) ([]byte, error)

// Job is one unit of filter work: the index into the sequence of the
// 'data' command to rewrite, and the path it was matched under.
type Job struct {
	DataIdx int
	Path    string
}

// Driver dispatches blob filter jobs to a bounded worker pool.
type Driver struct {
	Pool   *pond.WorkerPool
	Logger *logrus.Logger
}

// NewDriver builds a Driver backed by a pond worker pool sized to
// maxWorkers. A nil logger disables progress logging.
func NewDriver(maxWorkers int, logger *logrus.Logger) *Driver {
	return &Driver{
		Pool:   pond.New(maxWorkers, 0, pond.MinWorkers(maxWorkers)),
		Logger: logger,
	}
}

// Close stops the underlying worker pool, waiting for any in-flight jobs.
func (d *Driver) Close() {
	d.Pool.StopAndWait()
}

// indexBlobMarks builds a mark -> data-command-index map from every
// 'blob'/'mark'/'data' triple in seq.
func indexBlobMarks(seq fastexport.Sequence) (map[int]int, error) {
	marks := make(map[int]int)
	for i, c := range seq {
		if c.Verb != fastexport.VerbBlob {
			continue
		}
		if i+2 >= len(seq) {
			continue
		}
		mark, ok := seq[i+1].Mark()
		if !ok {
			continue
		}
		if seq[i+2].Verb != fastexport.VerbData {
			continue
		}
		marks[mark] = i + 2
	}
	return marks, nil
}

// SelectJobs finds every 'M' command whose path passes nameFilter and
// whose blob is no larger than maxSizeBytes (0 means unlimited), and
// returns one Job per distinct data command, in stream order. A path
// seen twice for the same blob keeps the first name, matching the
// original filter tool's behavior.
func SelectJobs(seq fastexport.Sequence, nameFilter NameFilter, maxSizeBytes int) ([]Job, error) {
	markToDataIdx, err := indexBlobMarks(seq)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var jobs []Job
	for _, c := range seq {
		if c.Verb != fastexport.VerbFileModify {
			continue
		}
		_, dataref, path, ok := c.FileModify()
		if !ok {
			continue
		}
		if !nameFilter(string(path)) {
			continue
		}
		mark, isMark := fastexport.ParseMarkToken(dataref)
		if !isMark {
			// Modifies an existing object id directly; nothing to filter.
			continue
		}
		dataIdx, found := markToDataIdx[mark]
		if !found {
			return nil, errors.Wrapf(ErrDanglingDataRef, "path %q mark %d", path, mark)
		}
		if seen[dataIdx] {
			continue
		}
		if maxSizeBytes > 0 {
			if n, ok := seq[dataIdx].DataLen(); ok && n > maxSizeBytes {
				continue
			}
		}
		seen[dataIdx] = true
		jobs = append(jobs, Job{DataIdx: dataIdx, Path: string(path)})
	}
	return jobs, nil
}

// Run selects filter jobs with SelectJobs and runs filter over every
// matching blob concurrently on the driver's worker pool, returning a new
// sequence with the filtered payloads spliced in. The original payload is
// dropped from the result as soon as its job is dispatched, so memory use
// tracks only the jobs still in flight plus whatever the caller still
// holds a reference to.
func (d *Driver) Run(seq fastexport.Sequence, nameFilter NameFilter, maxSizeBytes int, filter BlobFilter) (fastexport.Sequence, error) {
	jobs, err := SelectJobs(seq, nameFilter, maxSizeBytes)
	if err != nil {
		return nil, err
	}

	out := make(fastexport.Sequence, len(seq))
	copy(out, seq)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var done int32
	total := int32(len(jobs))

	for _, job := range jobs {
		job := job
		payload := out[job.DataIdx].DataPayload()
		out[job.DataIdx] = fastexport.Command{}

		wg.Add(1)
		d.Pool.Submit(func() {
			defer wg.Done()
			if d.Logger != nil && d.Logger.IsLevelEnabled(logrus.DebugLevel) {
				if kind := SniffDescription(payload); kind != "unknown" {
					d.Logger.Debugf("blobfilter: %q looks like %s", job.Path, kind)
				}
			}
			filtered, ferr := filter(job.Path, payload)
			n := atomic.AddInt32(&done, 1)
			if d.Logger != nil {
				d.Logger.Debugf("blobfilter: %d/%d %s", n, total, job.Path)
			}
			if ferr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(ferr, "filtering blob for %q", job.Path)
				}
				mu.Unlock()
				return
			}
			out[job.DataIdx] = fastexport.NewData(filtered)
		})
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
