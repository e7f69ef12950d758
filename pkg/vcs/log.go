package vcs

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/oneconcern/refstore/pkg/core/status"
)

const (
	defaultPageSize = 50
	fieldSep        = "\x1f"
	recordSep       = "\x1e"
)

// Commit describes one entry of the history
type Commit struct {
	Revision  string    `json:"revision" yaml:"revision"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Message   string    `json:"message" yaml:"message"`
}

// Short revision id
func (c Commit) Short() string {
	if len(c.Revision) > 8 {
		return c.Revision[:8]
	}
	return c.Revision
}

// History iterates lazily over the commits of a revision touching some paths, most recent first.
//
// Commits are fetched by pages. A History may be restarted with Reset.
//
//	h := git.Log(path, "HEAD", "content/docs")
//	for h.Next(ctx) {
//		c := h.Commit()
//	}
//	err := h.Err()
type History struct {
	git      *Git
	path     string
	ref      string
	paths    []string
	pageSize int

	skip    int
	page    []Commit
	current Commit
	done    bool
	err     error
}

// Log returns the history of ref (HEAD when empty), limited to the commits touching paths
func (g *Git) Log(path, ref string, paths ...string) *History {
	if ref == "" {
		ref = "HEAD"
	}
	return &History{
		git:      g,
		path:     path,
		ref:      ref,
		paths:    paths,
		pageSize: defaultPageSize,
	}
}

// PageSize sets the number of commits fetched at once
func (h *History) PageSize(n int) *History {
	if n > 0 {
		h.pageSize = n
	}
	return h
}

// Next advances to the next commit. It returns false when the history is exhausted or an error occurred.
func (h *History) Next(ctx context.Context) bool {
	if h.err != nil {
		return false
	}
	if len(h.page) == 0 {
		if h.done {
			return false
		}
		if err := h.fetch(ctx); err != nil {
			h.err = err
			return false
		}
		if len(h.page) == 0 {
			return false
		}
	}
	h.current, h.page = h.page[0], h.page[1:]
	return true
}

// Commit returns the current commit
func (h *History) Commit() Commit {
	return h.current
}

// Err returns the error that stopped the iteration, if any
func (h *History) Err() error {
	return h.err
}

// Reset restarts the iteration from the most recent commit
func (h *History) Reset() {
	h.skip = 0
	h.page = nil
	h.current = Commit{}
	h.done = false
	h.err = nil
}

// All collects the remaining commits
func (h *History) All(ctx context.Context) ([]Commit, error) {
	res := make([]Commit, 0, h.pageSize)
	for h.Next(ctx) {
		res = append(res, h.Commit())
	}
	return res, h.Err()
}

func (h *History) fetch(ctx context.Context) error {
	if h.ref == "HEAD" && !h.git.HasCommits(ctx, h.path) {
		h.done = true
		return nil
	}
	args := []string{
		"log",
		"--format=%H" + fieldSep + "%aI" + fieldSep + "%s" + recordSep,
		"--skip=" + strconv.Itoa(h.skip),
		"--max-count=" + strconv.Itoa(h.pageSize),
		h.ref,
		"--",
	}
	args = append(args, h.paths...)
	out, err := h.git.run(ctx, h.path, args...)
	if err != nil {
		return err
	}
	commits, err := parseLog(out)
	if err != nil {
		return err
	}
	h.skip += len(commits)
	h.page = commits
	if len(commits) < h.pageSize {
		h.done = true
	}
	return nil
}

func parseLog(out string) ([]Commit, error) {
	records := strings.Split(out, recordSep)
	commits := make([]Commit, 0, len(records))
	for _, record := range records {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 3)
		if len(fields) != 3 {
			return nil, status.ErrVersionControlFailed.Wrapf("unexpected log record %q", record)
		}
		ts, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return nil, status.ErrVersionControlFailed.Wrapf("unexpected log timestamp %q: %v", fields[1], err)
		}
		commits = append(commits, Commit{
			Revision:  fields[0],
			Timestamp: ts,
			Message:   fields[2],
		})
	}
	return commits, nil
}
