package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
	"go.uber.org/zap"
)

// File is a file read from a historical revision
type File struct {
	// Path relative to the snapshot's subpath, with forward slashes
	Path    string
	Mode    string
	Content []byte
}

// Snapshot is the content of a subtree as it existed at some revision
type Snapshot struct {
	Revision string
	Files    []File
}

// Paths returns the relative paths of all files in the snapshot
func (s *Snapshot) Paths() []string {
	res := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		res = append(res, f.Path)
	}
	return res
}

type treeEntry struct {
	mode string
	kind string
	id   string
	path string
}

// Snapshot reads the files under subpath as they existed at revision.
//
// The content is looked up in the object database: the working tree and
// the index of the repository are left untouched.
// An unknown revision, or a subpath absent at that revision, is reported
// as status.ErrPinNotFound.
func (g *Git) Snapshot(ctx context.Context, repoPath, revision, subpath string) (*Snapshot, error) {
	commit, err := g.ResolveRevision(ctx, repoPath, revision)
	if err != nil {
		return nil, err
	}
	subpath = strings.Trim(path.Clean("/"+subpath), "/")

	args := []string{"ls-tree", "-r", "-z", "--full-tree", commit}
	if subpath != "" {
		args = append(args, "--", subpath)
	}
	out, err := g.exec(ctx, repoPath, args...)
	if err != nil {
		return nil, status.ErrVersionControlFailed.Wrap(err)
	}

	entries := make([]treeEntry, 0, 100)
	var found bool
	for _, record := range bytes.Split(out, []byte{0}) {
		if len(record) == 0 {
			continue
		}
		found = true
		entry, err := parseTreeEntry(string(record))
		if err != nil {
			return nil, err
		}
		if entry.kind != "blob" || entry.mode == "120000" {
			// submodules and symbolic links are not content
			g.logger.Debug("skipping tree entry", zap.String("path", entry.path), zap.String("mode", entry.mode))
			continue
		}
		rel := entry.path
		if subpath != "" {
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, subpath), "/")
			if rel == "" {
				// subpath designates a single file
				rel = path.Base(entry.path)
			}
		}
		entry.path = rel
		entries = append(entries, entry)
	}

	if !found && subpath != "" {
		return nil, status.ErrPinNotFound.For("path", subpath).Wrapf("absent at revision %s", revision)
	}

	snap := &Snapshot{Revision: commit, Files: make([]File, 0, len(entries))}
	if len(entries) == 0 {
		return snap, nil
	}

	blobs, err := g.catBlobs(ctx, repoPath, entries)
	if err != nil {
		return nil, err
	}
	for i, entry := range entries {
		snap.Files = append(snap.Files, File{Path: entry.path, Mode: entry.mode, Content: blobs[i]})
	}
	return snap, nil
}

// parseTreeEntry parses "<mode> SP <type> SP <object> TAB <path>"
func parseTreeEntry(record string) (treeEntry, error) {
	tab := strings.IndexByte(record, '\t')
	if tab < 0 {
		return treeEntry{}, status.ErrVersionControlFailed.Wrapf("unexpected tree entry %q", record)
	}
	meta := strings.Fields(record[:tab])
	if len(meta) != 3 {
		return treeEntry{}, status.ErrVersionControlFailed.Wrapf("unexpected tree entry %q", record)
	}
	return treeEntry{mode: meta[0], kind: meta[1], id: meta[2], path: record[tab+1:]}, nil
}

// catBlobs reads blobs in one cat-file --batch session
func (g *Git) catBlobs(ctx context.Context, repoPath string, entries []treeEntry) ([][]byte, error) {
	var stderr bytes.Buffer
	cmd := g.command(ctx, repoPath, "cat-file", "--batch")
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, status.ErrVersionControlFailed.Wrap(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, status.ErrVersionControlFailed.Wrap(err)
	}
	if err = cmd.Start(); err != nil {
		return nil, status.ErrVersionControlFailed.Wrap(err)
	}

	writeErr := make(chan error, 1)
	go func() {
		w := bufio.NewWriter(stdin)
		var werr error
		for _, entry := range entries {
			if _, werr = w.WriteString(entry.id + "\n"); werr != nil {
				break
			}
		}
		if werr == nil {
			werr = w.Flush()
		}
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		writeErr <- werr
	}()

	blobs := make([][]byte, 0, len(entries))
	r := bufio.NewReader(stdout)
	var readErr error
	for range entries {
		var blob []byte
		if blob, readErr = readBatchObject(r); readErr != nil {
			break
		}
		blobs = append(blobs, blob)
	}
	if readErr != nil {
		// drain, so that the writer and the process may terminate
		_, _ = io.Copy(io.Discard, r)
	}

	werr := <-writeErr
	waitErr := cmd.Wait()
	switch {
	case readErr != nil:
		return nil, status.ErrVersionControlFailed.Wrapf("reading objects: %v", readErr)
	case werr != nil:
		return nil, status.ErrVersionControlFailed.Wrapf("requesting objects: %v", werr)
	case waitErr != nil:
		return nil, status.ErrVersionControlFailed.Wrap(&CommandError{
			Args:   []string{"cat-file", "--batch"},
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    waitErr,
		})
	}
	return blobs, nil
}

// readBatchObject reads "<id> SP <type> SP <size> LF <content> LF"
func readBatchObject(r *bufio.Reader) ([]byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(header)
	if len(fields) == 2 && fields[1] == "missing" {
		return nil, fmt.Errorf("object %s is missing", fields[0])
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("unexpected object header %q", header)
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unexpected object size in %q: %v", header, err)
	}
	content := make([]byte, size)
	if _, err = io.ReadFull(r, content); err != nil {
		return nil, err
	}
	if _, err = r.ReadByte(); err != nil {
		return nil, err
	}
	return content, nil
}
