package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
)

// file:// URLs are used for registries living on the local file system
const allowFileProtocol = "protocol.file.allow=always"

// SubmoduleAdd registers the repository at url as a submodule at subpath
func (g *Git) SubmoduleAdd(ctx context.Context, repoPath, url, subpath string) error {
	_, err := g.exec(ctx, repoPath, "-c", allowFileProtocol, "submodule", "add", "--quiet", "--", url, filepath.ToSlash(subpath))
	if err != nil {
		return status.ErrSourceFetchFailed.For("registry", url).Wrap(err)
	}
	return nil
}

// SubmoduleUpdate pulls the latest commit of the submodule at subpath, or of all submodules when subpath is empty
func (g *Git) SubmoduleUpdate(ctx context.Context, repoPath, subpath string) error {
	args := []string{"-c", allowFileProtocol, "submodule", "update", "--init", "--remote", "--quiet"}
	if subpath != "" {
		args = append(args, "--", filepath.ToSlash(subpath))
	}
	if _, err := g.exec(ctx, repoPath, args...); err != nil {
		return status.ErrSourceFetchFailed.For("registry", subpath).Wrap(err)
	}
	return nil
}

// IsSubmodule tells if subpath is registered as a submodule, in .gitmodules or in the index
func (g *Git) IsSubmodule(ctx context.Context, repoPath, subpath string) bool {
	return g.submoduleName(ctx, repoPath, subpath) != "" || g.isTracked(ctx, repoPath, subpath)
}

// SubmoduleRemove deinitializes and removes the submodule at subpath, staging the removal.
//
// Every step checks whether it still has something to do, so that a removal
// interrupted half-way may be retried.
func (g *Git) SubmoduleRemove(ctx context.Context, repoPath, subpath string) error {
	subpath = filepath.ToSlash(filepath.Clean(subpath))
	name := g.submoduleName(ctx, repoPath, subpath)

	if name != "" {
		if _, err := g.run(ctx, repoPath, "submodule", "deinit", "--force", "--quiet", "--", subpath); err != nil && g.isTracked(ctx, repoPath, subpath) {
			return err
		}
	}

	if g.isTracked(ctx, repoPath, subpath) {
		if _, err := g.run(ctx, repoPath, "rm", "--force", "--quiet", "--", subpath); err != nil {
			return err
		}
	} else if name != "" {
		// the index entry is gone, but not the .gitmodules section
		if _, err := g.run(ctx, repoPath, "config", "--file", ".gitmodules", "--remove-section", "submodule."+name); err != nil {
			return err
		}
		if _, err := g.run(ctx, repoPath, "add", "--", ".gitmodules"); err != nil {
			return err
		}
	}

	for _, leftover := range []string{
		filepath.Join(repoPath, ".git", "modules", filepath.FromSlash(subpath)),
		filepath.Join(repoPath, filepath.FromSlash(subpath)),
	} {
		if err := os.RemoveAll(leftover); err != nil {
			return status.ErrVersionControlFailed.Wrap(err)
		}
	}
	return nil
}

// submoduleName returns the name of the submodule declared at subpath in .gitmodules, if any
func (g *Git) submoduleName(ctx context.Context, repoPath, subpath string) string {
	if _, err := os.Stat(filepath.Join(repoPath, ".gitmodules")); err != nil {
		return ""
	}
	out, err := g.exec(ctx, repoPath, "config", "--file", ".gitmodules", "--get-regexp", `^submodule\..*\.path$`)
	if err != nil {
		return ""
	}
	for _, line := range splitLines(string(out)) {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[1] != subpath {
			continue
		}
		key := fields[0]
		return strings.TrimSuffix(strings.TrimPrefix(key, "submodule."), ".path")
	}
	return ""
}

func (g *Git) isTracked(ctx context.Context, repoPath, subpath string) bool {
	out, err := g.exec(ctx, repoPath, "ls-files", "--stage", "--", subpath)
	return err == nil && strings.TrimSpace(string(out)) != ""
}
