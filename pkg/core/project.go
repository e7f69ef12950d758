package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	storagestatus "github.com/oneconcern/refstore/pkg/storage/status"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Project owns a manifest selecting references and bundles, and the output directory
// where the selected content is synced.
type Project struct {
	root     string
	repo     *Repository
	logger   *zap.Logger
	store    storage.Store
	manifest *model.Manifest
}

func newProject(root string, repo *Repository, opts []Option) *Project {
	s := defaultSettings()
	for _, apply := range opts {
		apply(&s)
	}
	return &Project{
		root:   root,
		repo:   repo,
		logger: s.logger.With(zap.String("project", root)),
		store:  localfs.NewAtomic(rootedFs(root)),
	}
}

// InitProject creates the manifest of a project.
//
// When gitignore is set, the output directory is appended to the .gitignore file of the project.
func InitProject(ctx context.Context, dir string, repo *Repository, gitignore bool, opts ...Option) (*Project, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, status.ErrInvalidPath.For("project", dir).Wrap(err)
	}
	if exists(filepath.Join(root, model.ManifestFile)) {
		return nil, status.ErrManifestExists.For("project", root)
	}
	if err = os.MkdirAll(root, 0o755); err != nil {
		return nil, status.ErrInvalidPath.For("project", dir).Wrap(err)
	}

	p := newProject(root, repo, opts)
	p.manifest = model.NewManifest(gitignore)
	if err = p.save(ctx); err != nil {
		return nil, err
	}
	if gitignore {
		if err = ensureLines(filepath.Join(root, ".gitignore"), model.OutputDir+"/"); err != nil {
			return nil, status.ErrInvalidPath.For("project", dir).Wrap(err)
		}
	}
	p.logger.Info("initialized project")
	return p, nil
}

// OpenProject finds the manifest in start or its closest parent, and loads it
func OpenProject(ctx context.Context, start string, repo *Repository, opts ...Option) (*Project, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, status.ErrInvalidPath.For("project", start).Wrap(err)
	}
	for {
		if exists(filepath.Join(dir, model.ManifestFile)) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, status.ErrManifestNotFound.For("project", start)
		}
		dir = parent
	}

	p := newProject(dir, repo, opts)
	if err = p.load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) load(ctx context.Context) error {
	buf, err := storage.ReadAll(ctx, p.store, model.ManifestFile)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return status.ErrManifestNotFound.For("project", p.root)
		}
		return err
	}
	m := model.NewManifest(false)
	if err = toml.Unmarshal(buf, m); err != nil {
		return status.ErrInvalidConfig.For("manifest", filepath.Join(p.root, model.ManifestFile)).Wrap(err)
	}
	m.Normalize()
	p.manifest = m
	return nil
}

func (p *Project) save(ctx context.Context) error {
	buf, err := toml.Marshal(p.manifest)
	if err != nil {
		return err
	}
	return p.store.Put(ctx, model.ManifestFile, bytes.NewReader(buf), storage.OverWrite)
}

// Root directory of the project
func (p *Project) Root() string {
	return p.root
}

// OutputRoot is the directory receiving synced content
func (p *Project) OutputRoot() string {
	return filepath.Join(p.root, model.OutputDir)
}

// Manifest of the project
func (p *Project) Manifest() model.Manifest {
	return *p.manifest
}

// Add an entry to the manifest: a reference with its filters, pin and destination,
// or a bundle with the filters inherited by its members.
//
// The name must resolve in the repository, and must not already be in the manifest.
func (p *Project) Add(ctx context.Context, name string, entry model.ManifestEntry, isBundle bool) error {
	entity := model.EntityReference
	if isBundle {
		entity = model.EntityBundle
	}
	if err := model.ValidateName(entity, name); err != nil {
		return err
	}
	if err := entry.Filter().Validate(); err != nil {
		return status.ErrInvalidConfig.For(model.EntityManifestEntry, name).Wrap(err)
	}

	if isBundle {
		if entry.Path != "" || entry.Version != "" {
			return status.ErrInvalidConfig.For(model.EntityManifestEntry, name).Wrapf("bundles only accept filters")
		}
		if p.manifest.HasBundle(name) {
			return status.ErrAlreadyExists.For(model.EntityManifestEntry, name)
		}
		if _, _, err := p.repo.ResolveBundle(name); err != nil {
			return err
		}
		p.manifest.AddBundle(name, entry.Filter())
	} else {
		if _, ok := p.manifest.References[name]; ok {
			return status.ErrAlreadyExists.For(model.EntityManifestEntry, name)
		}
		if !model.ValidDestination(entry.Path) {
			return status.ErrInvalidPath.For(model.EntityManifestEntry, name).Wrapf("destination %q escapes %s", entry.Path, model.OutputDir)
		}
		_, registry, err := p.repo.ResolveReference(name)
		if err != nil {
			return err
		}
		if pin := entry.Pin(); pin != "" {
			if _, err = registry.ResolveContentPin(ctx, name, pin); err != nil {
				if errors.Is(err, status.ErrPinNotFound) {
					return status.ErrPinNotFound.For(model.EntityManifestEntry, name).Wrap(err)
				}
				return err
			}
		}
		p.manifest.References[name] = entry
	}

	if err := p.save(ctx); err != nil {
		return err
	}
	p.logger.Info("added manifest entry", zap.String(entity, name))
	return nil
}

// Remove an entry from the manifest. With purge, the synced content of the entry is deleted
// from the output directory, unless it is still claimed by another entry.
//
// The registry is not modified.
func (p *Project) Remove(ctx context.Context, name string, purge bool) error {
	entry, explicit := p.manifest.References[name]
	bundle := p.manifest.HasBundle(name)
	if !explicit && !bundle {
		return status.ErrNotFound.For(model.EntityManifestEntry, name)
	}

	var targets []string
	if explicit {
		targets = append(targets, entry.Destination(name))
	} else {
		before, _ := p.resolve(ctx)
		for _, job := range before {
			if job.Origin == name {
				targets = append(targets, job.Destination)
			}
		}
	}

	if explicit {
		delete(p.manifest.References, name)
	} else {
		p.manifest.RemoveBundle(name)
	}
	if err := p.save(ctx); err != nil {
		return err
	}
	p.logger.Info("removed manifest entry", zap.String(model.EntityManifestEntry, name), zap.Bool("purge", purge))
	if !purge {
		return nil
	}

	after, _ := p.resolve(ctx)
	claimed := make([]string, 0, len(after))
	for _, job := range after {
		claimed = append(claimed, job.Destination)
	}
	out := p.output()
	for _, target := range targets {
		if claimsAny(target, claimed) {
			p.logger.Debug("keeping claimed destination", zap.String("destination", target))
			continue
		}
		if err := out.DeletePrefix(ctx, target); err != nil {
			return err
		}
		p.logger.Info("purged destination", zap.String("destination", target))
	}
	return nil
}

// output returns the store over the output directory
func (p *Project) output() storage.Store {
	return localfs.NewAtomic(p.outputFs())
}

func (p *Project) outputFs() afero.Fs {
	return rootedFs(p.OutputRoot())
}
