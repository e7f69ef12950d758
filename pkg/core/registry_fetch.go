package core

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	"go.uber.org/zap"
)

// normalizeSource checks a source descriptor and infers the kind of reference it yields
func (r *Registry) normalizeSource(name string, source model.Source) (model.Source, model.ReferenceKind, error) {
	switch source.Type {
	case model.SourceGit:
		if source.URL == "" {
			return source, "", status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrapf("missing git url")
		}
		if source.Ref == "" {
			source.Ref = r.defaultBranch
		}
		if source.Subpath != "" {
			sub := path.Clean(filepath.ToSlash(source.Subpath))
			if sub == ".." || path.IsAbs(sub) || strings.HasPrefix(sub, "../") {
				return source, "", status.ErrInvalidPath.For("subpath", source.Subpath)
			}
			if sub == "." {
				sub = ""
			}
			source.Subpath = sub
		}
		return source, model.KindGitRepo, nil

	case model.SourceLocal, "":
		source.Type = model.SourceLocal
		if source.Path == "" {
			return source, "", status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrapf("missing source path")
		}
		abs, err := filepath.Abs(source.Path)
		if err != nil {
			return source, "", status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
		}
		source.Path = abs
		fi, err := os.Stat(abs)
		if err != nil {
			return source, "", status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
		}
		if fi.IsDir() {
			return source, model.KindDirectory, nil
		}
		return source, model.KindFile, nil

	default:
		return source, "", status.ErrSourceFetchFailed.For(model.EntityReference, name).
			Wrapf("unsupported source type %q", source.Type)
	}
}

// stage fetches the content of a reference into a new directory of the staging area
func (r *Registry) stage(ctx context.Context, name string, kind model.ReferenceKind, source model.Source) (string, error) {
	staged, err := r.stagingPath()
	if err != nil {
		return "", err
	}
	r.logger.Debug("fetching content", zap.String("reference", name), zap.Stringer("source", source), zap.String("staging", staged))

	if source.Type == model.SourceGit {
		err = r.fetchGit(ctx, source, staged)
	} else {
		err = r.fetchLocal(ctx, kind, source.Path, staged)
	}
	if err != nil {
		return staged, status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
	}
	return staged, nil
}

func (r *Registry) fetchLocal(ctx context.Context, kind model.ReferenceKind, source, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	target := localfs.New(rootedFs(dest))

	if kind == model.KindFile {
		src := localfs.New(rootedFs(filepath.Dir(source)))
		base := filepath.Base(source)
		return copyKey(ctx, src, base, target, base)
	}

	src := localfs.New(rootedFs(source))
	keys, err := contentKeys(ctx, src)
	if err != nil {
		return err
	}
	return copyKeys(ctx, src, keys, target, "")
}

// fetchGit clones a git source, then moves the requested subpath of the clone into dest
func (r *Registry) fetchGit(ctx context.Context, source model.Source, dest string) error {
	clone, err := r.stagingPath()
	if err != nil {
		return err
	}
	defer func() {
		_ = os.RemoveAll(clone)
	}()

	if err = r.git.CloneShallow(ctx, source.URL, clone, source.Ref, r.depth); err != nil {
		return err
	}
	if err = r.git.StripGitDir(clone); err != nil {
		return err
	}

	selected := filepath.Join(clone, filepath.FromSlash(source.Subpath))
	fi, err := os.Stat(selected)
	if err != nil {
		return status.ErrNotFound.For("subpath", source.Subpath).Wrapf("in %s", source.URL)
	}
	if fi.IsDir() {
		return os.Rename(selected, dest)
	}
	if err = os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.Rename(selected, filepath.Join(dest, fi.Name()))
}
