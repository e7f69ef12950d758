package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/vcs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	msgInitRepository = "Initialize refstore repository"
)

// Repository composes the local registry with the remote registries fetched in its data directory.
//
// Names resolve against the local registry first, then against remote registries by lexicographic
// order of their names.
type Repository struct {
	root     string
	git      *vcs.Git
	logger   *zap.Logger
	settings Settings
	config   model.Config

	local    *Registry
	remotes  []*Registry
	failures error
}

// OpenRepository opens the repository held in a data directory, initializing it when needed.
//
// Opening is idempotent. Remote registries that fail to load are skipped: see LoadFailures.
func OpenRepository(ctx context.Context, dataDir string, opts ...Option) (*Repository, error) {
	s := newSettings(opts)
	s.name = model.LocalRegistry
	s.readOnly = false

	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, status.ErrInvalidPath.For("data directory", dataDir).Wrap(err)
	}
	if err = os.MkdirAll(root, 0o755); err != nil {
		return nil, status.ErrInvalidPath.For("data directory", dataDir).Wrap(err)
	}

	if !s.hasConfig {
		cfg, err := LoadConfig(root)
		if err != nil {
			return nil, err
		}
		s.config = cfg
	}

	local, err := initRegistry(ctx, root, msgInitRepository, []string{model.ConfigFile}, s)
	if err != nil {
		return nil, err
	}

	r := &Repository{
		root:     root,
		git:      s.git,
		logger:   s.logger,
		settings: s,
		config:   s.config,
		local:    local,
	}
	r.loadRemotes(ctx)
	return r, nil
}

func (r *Repository) loadRemotes(ctx context.Context) {
	r.remotes = nil
	r.failures = nil
	dir := filepath.Join(r.root, model.RegistriesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			r.failures = multierr.Append(r.failures, err)
		}
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		registry, err := r.openRemote(ctx, entry.Name())
		if err != nil {
			r.logger.Warn("skipping remote registry", zap.String("registry", entry.Name()), zap.Error(err))
			r.failures = multierr.Append(r.failures, err)
			continue
		}
		r.remotes = append(r.remotes, registry)
	}
	sort.Slice(r.remotes, func(i, j int) bool { return r.remotes[i].Name() < r.remotes[j].Name() })
}

func (r *Repository) openRemote(ctx context.Context, name string) (*Registry, error) {
	s := r.settings
	s.name = name
	s.readOnly = true
	registry := newRegistry(r.remotePath(name), s)
	if err := registry.load(ctx); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *Repository) remotePath(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(model.GetPathToRegistry(name)))
}

// Root is the data directory of the repository
func (r *Repository) Root() string {
	return r.root
}

// Config in use by the repository
func (r *Repository) Config() model.Config {
	return r.config
}

// Local registry
func (r *Repository) Local() *Registry {
	return r.local
}

// LoadFailures reports the remote registries that could not be loaded, or nil
func (r *Repository) LoadFailures() error {
	return r.failures
}

// Registry returns a loaded registry by name: "local" or the name of a remote registry
func (r *Repository) Registry(name string) (*Registry, error) {
	if name == "" || name == model.LocalRegistry {
		return r.local, nil
	}
	for _, remote := range r.remotes {
		if remote.Name() == name {
			return remote, nil
		}
	}
	return nil, status.ErrNotFound.For(model.EntityRegistry, name)
}

// inPrecedence returns the registries in resolution order
func (r *Repository) inPrecedence() []*Registry {
	res := make([]*Registry, 0, len(r.remotes)+1)
	res = append(res, r.local)
	return append(res, r.remotes...)
}

// RegistryInfo describes a loaded registry
type RegistryInfo struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	URL        string `json:"url,omitempty"`
	ReadOnly   bool   `json:"read_only"`
	References int    `json:"references"`
	Bundles    int    `json:"bundles"`
}

// Registries describes the loaded registries, in precedence order
func (r *Repository) Registries() []RegistryInfo {
	urls := make(map[string]string, len(r.config.Registries))
	for _, remote := range r.config.Registries {
		urls[remote.Name] = remote.URL
	}
	res := make([]RegistryInfo, 0, len(r.remotes)+1)
	for _, registry := range r.inPrecedence() {
		refs, bundles := registry.Counts()
		res = append(res, RegistryInfo{
			Name:       registry.Name(),
			Path:       registry.Root(),
			URL:        urls[registry.Name()],
			ReadOnly:   registry.ReadOnly(),
			References: refs,
			Bundles:    bundles,
		})
	}
	return res
}

// RegistryAdd fetches a remote registry as a submodule of the data directory, and records it
func (r *Repository) RegistryAdd(ctx context.Context, name, url string) (*Registry, error) {
	if err := model.ValidateRegistryName(name); err != nil {
		return nil, err
	}
	if _, err := r.Registry(name); err == nil || exists(r.remotePath(name)) {
		return nil, status.ErrAlreadyExists.For(model.EntityRegistry, name)
	}

	subpath := model.GetPathToRegistry(name)
	if err := r.git.SubmoduleAdd(ctx, r.root, url, subpath); err != nil {
		_ = r.git.SubmoduleRemove(ctx, r.root, subpath)
		return nil, err
	}
	remote, err := r.openRemote(ctx, name)
	if err != nil {
		// not a registry: undo the submodule
		_ = r.git.SubmoduleRemove(ctx, r.root, subpath)
		return nil, err
	}

	previous := r.config
	cfg := r.config
	cfg.Registries = append([]model.RemoteRegistry(nil), r.config.Registries...)
	cfg.TrackRegistry(name, url)
	if err = r.saveConfig(ctx, cfg); err != nil {
		_ = r.git.SubmoduleRemove(ctx, r.root, subpath)
		return nil, err
	}
	if _, err = r.git.Commit(ctx, r.root, fmt.Sprintf("Add registry: %s", name)); err != nil {
		_ = r.git.SubmoduleRemove(ctx, r.root, subpath)
		_ = r.saveConfig(ctx, previous)
		return nil, err
	}

	r.remotes = append(r.remotes, remote)
	sort.Slice(r.remotes, func(i, j int) bool { return r.remotes[i].Name() < r.remotes[j].Name() })
	r.logger.Info("added registry", zap.String("registry", name), zap.String("url", url))
	return remote, nil
}

// RegistryUpdate pulls the latest state of a remote registry, or of all remote registries when name is empty
func (r *Repository) RegistryUpdate(ctx context.Context, name string) error {
	subpath := ""
	message := "Update all registries"
	if name != "" {
		if _, err := r.Registry(name); err != nil || name == model.LocalRegistry {
			return status.ErrNotFound.For(model.EntityRegistry, name)
		}
		subpath = model.GetPathToRegistry(name)
		message = fmt.Sprintf("Update registry: %s", name)
	} else if len(r.remotes) == 0 {
		return nil
	}

	if err := r.git.SubmoduleUpdate(ctx, r.root, subpath); err != nil {
		return err
	}
	if _, err := r.git.Commit(ctx, r.root, message); err != nil {
		return err
	}
	r.loadRemotes(ctx)
	r.logger.Info("updated registries", zap.String("registry", name))
	return nil
}

// RegistryRemove deinitializes and removes a remote registry.
//
// A removal interrupted half-way may be retried.
func (r *Repository) RegistryRemove(ctx context.Context, name string, confirmed bool) error {
	if err := model.ValidateRegistryName(name); err != nil {
		return err
	}
	subpath := model.GetPathToRegistry(name)
	_, loadErr := r.Registry(name)
	if loadErr != nil && !exists(r.remotePath(name)) && !r.git.IsSubmodule(ctx, r.root, subpath) {
		return status.ErrNotFound.For(model.EntityRegistry, name)
	}
	if !confirmed {
		return status.ErrNotConfirmed.For(model.EntityRegistry, name)
	}

	if err := r.git.SubmoduleRemove(ctx, r.root, subpath); err != nil {
		return err
	}
	cfg := r.config
	cfg.Registries = append([]model.RemoteRegistry(nil), r.config.Registries...)
	cfg.UntrackRegistry(name)
	if err := r.saveConfig(ctx, cfg); err != nil {
		return err
	}
	if _, err := r.git.Commit(ctx, r.root, fmt.Sprintf("Remove registry: %s", name)); err != nil {
		return err
	}

	kept := r.remotes[:0]
	for _, remote := range r.remotes {
		if remote.Name() != name {
			kept = append(kept, remote)
		}
	}
	r.remotes = kept
	r.logger.Info("removed registry", zap.String("registry", name))
	return nil
}

// RegistryInit scaffolds a new registry, independent from this repository, at path
func (r *Repository) RegistryInit(ctx context.Context, path string) (*Registry, error) {
	return InitRegistry(ctx, path, WithLogger(r.logger), WithGit(r.git), WithConfig(r.config), RegistryName(filepath.Base(path)))
}

// Push copies a reference of the local registry into the registry at targetPath
func (r *Repository) Push(ctx context.Context, name, targetPath string, overwrite bool) error {
	target, err := OpenRegistry(ctx, targetPath,
		WithLogger(r.logger), WithGit(r.git), WithConfig(r.config), RegistryName(filepath.Base(targetPath)),
	)
	if err != nil {
		return err
	}
	return r.local.Push(ctx, name, target, overwrite)
}
