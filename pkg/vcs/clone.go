package vcs

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/oneconcern/refstore/pkg/core/status"
	"go.uber.org/zap"
)

var commitLike = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// CloneShallow clones url into dest, at ref (a branch or tag, or a commit id) with the given depth.
//
// Fetch failures are reported as status.ErrSourceFetchFailed.
func (g *Git) CloneShallow(ctx context.Context, url, dest, ref string, depth int) error {
	if depth < 1 {
		depth = 1
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return status.ErrSourceFetchFailed.Wrap(err)
	}

	args := []string{"-c", allowFileProtocol, "clone", "--quiet", "--depth", strconv.Itoa(depth), "--single-branch"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, "--", url, dest)
	_, err := g.exec(ctx, "", args...)
	if err == nil {
		return nil
	}
	if ref == "" || !commitLike.MatchString(ref) {
		return status.ErrSourceFetchFailed.For("url", url).Wrap(err)
	}

	// --branch does not accept commit ids: fetch that commit alone
	g.logger.Debug("retrying clone at commit", zap.String("url", url), zap.String("ref", ref))
	_ = os.RemoveAll(dest)
	if err := g.fetchCommit(ctx, url, dest, ref, depth); err != nil {
		_ = os.RemoveAll(dest)
		return status.ErrSourceFetchFailed.For("url", url).Wrap(err)
	}
	return nil
}

func (g *Git) fetchCommit(ctx context.Context, url, dest, commit string, depth int) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", url},
		{"-c", allowFileProtocol, "fetch", "--quiet", "--depth", strconv.Itoa(depth), "origin", commit},
		{"-c", "advice.detachedHead=false", "checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := g.exec(ctx, dest, args...); err != nil {
			return err
		}
	}
	return nil
}

// StripGitDir removes the .git directory of a clone, turning it into plain files
func (g *Git) StripGitDir(path string) error {
	if err := os.RemoveAll(filepath.Join(path, ".git")); err != nil {
		return status.ErrSourceFetchFailed.Wrap(err)
	}
	return nil
}
