package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	storagestatus "github.com/oneconcern/refstore/pkg/storage/status"
	"github.com/oneconcern/refstore/pkg/vcs"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const (
	msgInitRegistry = "Initialize registry"
)

// Registry owns one index of references and bundles, and the content cache of these references.
//
// Every mutation writes the index and commits. Read-only registries (i.e. remote registries)
// refuse mutations with status.ErrReadOnly.
type Registry struct {
	name          string
	root          string
	readOnly      bool
	depth         int
	defaultBranch string

	git    *vcs.Git
	logger *zap.Logger
	store  storage.Store
	index  *model.Index
}

func newRegistry(root string, s Settings) *Registry {
	return &Registry{
		name:          s.name,
		root:          root,
		readOnly:      s.readOnly,
		depth:         s.config.Depth(),
		defaultBranch: s.config.DefaultBranch,
		git:           s.git,
		logger:        s.logger.With(zap.String("registry", s.name)),
		store:         localfs.NewAtomic(rootedFs(root)),
	}
}

// OpenRegistry loads an existing registry
func OpenRegistry(ctx context.Context, root string, opts ...Option) (*Registry, error) {
	s := newSettings(opts)
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, status.ErrInvalidPath.For(model.EntityRegistry, s.name).Wrap(err)
	}
	r := newRegistry(abs, s)
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// InitRegistry scaffolds a new registry, with an empty index, that may be published on its own.
//
// Initializing an existing registry is a no-op.
func InitRegistry(ctx context.Context, root string, opts ...Option) (*Registry, error) {
	s := newSettings(opts)
	s.readOnly = false
	if s.name == model.LocalRegistry {
		s.name = filepath.Base(root)
	}
	return initRegistry(ctx, root, msgInitRegistry, nil, s)
}

func initRegistry(ctx context.Context, root, message string, ignored []string, s Settings) (*Registry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, status.ErrInvalidPath.For(model.EntityRegistry, s.name).Wrap(err)
	}
	if err = os.MkdirAll(abs, 0o755); err != nil {
		return nil, status.ErrInvalidPath.For(model.EntityRegistry, s.name).Wrap(err)
	}
	// an existing registry is only loaded: its working tree is never committed here
	fresh := !s.git.IsRepo(abs) || !s.git.HasCommits(ctx, abs) || !exists(filepath.Join(abs, model.IndexFile))
	if err = s.git.Init(ctx, abs); err != nil {
		return nil, err
	}
	if !fresh {
		r := newRegistry(abs, s)
		if err = r.load(ctx); err != nil {
			return nil, err
		}
		return r, nil
	}

	ignored = append([]string{model.StagingDir + "/", localfs.StageName + "/"}, ignored...)
	if err = ensureLines(filepath.Join(abs, ".gitignore"), ignored...); err != nil {
		return nil, status.ErrInvalidPath.For(model.EntityRegistry, s.name).Wrap(err)
	}

	r := newRegistry(abs, s)
	if exists(filepath.Join(abs, model.IndexFile)) {
		if err = r.load(ctx); err != nil {
			return nil, err
		}
	} else {
		r.index = model.NewIndex()
		if err = r.saveIndex(ctx); err != nil {
			return nil, err
		}
	}

	committed, err := r.git.Commit(ctx, abs, message, model.ContentDir)
	if err != nil {
		if !r.git.HasCommits(ctx, abs) {
			return nil, err
		}
		// another process initialized the repository concurrently
		r.logger.Warn("initial commit skipped", zap.Error(err))
	}
	if committed {
		r.logger.Info("initialized registry", zap.String("path", abs))
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	buf, err := storage.ReadAll(ctx, r.store, model.IndexFile)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return status.ErrNotFound.For(model.EntityRegistry, r.name).Wrapf("no %s in %s", model.IndexFile, r.root)
		}
		return err
	}
	index := model.NewIndex()
	if err = yaml.Unmarshal(buf, index); err != nil {
		return fmt.Errorf("parsing index of registry %q: %w", r.name, err)
	}
	index.Normalize()
	r.index = index
	return nil
}

func (r *Registry) saveIndex(ctx context.Context) error {
	buf, err := yaml.Marshal(r.index)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, model.IndexFile, bytes.NewReader(buf), storage.OverWrite)
}

func (r *Registry) writable() error {
	if r.readOnly {
		return status.ErrReadOnly.For(model.EntityRegistry, r.name)
	}
	return nil
}

// mutate applies a change to the index, then persists and commits it.
//
// The in-memory and on-disk index are restored if any step fails.
func (r *Registry) mutate(ctx context.Context, message string, apply func(*model.Index) error) error {
	if err := r.writable(); err != nil {
		return err
	}
	previous := r.index.Clone()
	if err := apply(r.index); err != nil {
		r.index = previous
		return err
	}
	if err := r.saveIndex(ctx); err != nil {
		r.index = previous
		_ = r.saveIndex(ctx)
		return err
	}
	if _, err := r.git.Commit(ctx, r.root, message, model.ContentDir); err != nil {
		r.index = previous
		_ = r.saveIndex(ctx)
		return err
	}
	return nil
}

// Name of the registry: "local", or the name of a remote registry
func (r *Registry) Name() string {
	return r.name
}

// Root directory of the registry
func (r *Registry) Root() string {
	return r.root
}

// ReadOnly tells if the registry refuses mutations
func (r *Registry) ReadOnly() bool {
	return r.readOnly
}

// Get a reference by name
func (r *Registry) Get(name string) (model.Reference, error) {
	ref, ok := r.index.References[name]
	if !ok {
		return model.Reference{}, status.ErrNotFound.For(model.EntityReference, name)
	}
	return ref, nil
}

// Bundle gets a bundle by name
func (r *Registry) Bundle(name string) (model.Bundle, error) {
	b, ok := r.index.Bundles[name]
	if !ok {
		return model.Bundle{}, status.ErrNotFound.For(model.EntityBundle, name)
	}
	return b, nil
}

// Has tells if the name is taken by a reference or a bundle
func (r *Registry) Has(name string) bool {
	return r.index.Has(name)
}

// List references matching the filter, sorted by name
func (r *Registry) List(filter ListFilter) model.References {
	res := make(model.References, 0, len(r.index.References))
	for _, name := range r.index.ReferenceNames() {
		ref := r.index.References[name]
		if filter.Matches(ref) {
			res = append(res, ref)
		}
	}
	return res
}

// Bundles lists bundles, sorted by name, optionally restricted to a tag
func (r *Registry) Bundles(tag string) model.Bundles {
	res := make(model.Bundles, 0, len(r.index.Bundles))
	for _, name := range r.index.BundleNames() {
		b := r.index.Bundles[name]
		if tag == "" || b.HasTag(tag) {
			res = append(res, b)
		}
	}
	return res
}

// Counts of references and bundles
func (r *Registry) Counts() (references int, bundles int) {
	return len(r.index.References), len(r.index.Bundles)
}

// FindDependents returns the sorted names of the bundles with this member
func (r *Registry) FindDependents(name string) []string {
	var res []string
	for _, bundleName := range r.index.BundleNames() {
		if r.index.Bundles[bundleName].HasMember(name) {
			res = append(res, bundleName)
		}
	}
	return res
}

// ContentPath returns the absolute path to the cached content of a reference
func (r *Registry) ContentPath(name string) string {
	return filepath.Join(r.root, filepath.FromSlash(model.GetPathToContent(name)))
}

func (r *Registry) contentStore(name string) storage.Store {
	return localfs.New(rootedFs(r.ContentPath(name)))
}

// Files lists the cached files of a reference, relative to its content root
func (r *Registry) Files(ctx context.Context, name string) ([]string, error) {
	if _, err := r.Get(name); err != nil {
		return nil, err
	}
	return contentKeys(ctx, r.contentStore(name))
}

// ReadFile returns the content of one cached file of a reference
func (r *Registry) ReadFile(ctx context.Context, name, file string) ([]byte, error) {
	if _, err := r.Get(name); err != nil {
		return nil, err
	}
	p := path.Clean(filepath.ToSlash(file))
	if p == "." || p == ".." || path.IsAbs(p) || strings.HasPrefix(p, "../") {
		return nil, status.ErrInvalidPath.For("file", file)
	}
	buf, err := storage.ReadAll(ctx, r.contentStore(name), p)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotExists) {
			return nil, status.ErrNotFound.For("file", file).Wrapf("in reference %q", name)
		}
		return nil, err
	}
	return buf, nil
}

// Add a reference: its content is fetched into the cache, then the index is committed.
//
// The kind of the reference is inferred from the source. A git source without ref
// uses the configured default branch.
func (r *Registry) Add(ctx context.Context, name string, source model.Source, opts ...model.ReferenceOption) (model.Reference, error) {
	if err := r.writable(); err != nil {
		return model.Reference{}, err
	}
	if err := model.ValidateName(model.EntityReference, name); err != nil {
		return model.Reference{}, err
	}
	if _, ok := r.index.Bundles[name]; ok {
		return model.Reference{}, status.ErrAlreadyExists.For(model.EntityReference, name).Wrapf("a bundle has this name")
	}
	if _, ok := r.index.References[name]; ok {
		return model.Reference{}, status.ErrAlreadyExists.For(model.EntityReference, name)
	}

	source, kind, err := r.normalizeSource(name, source)
	if err != nil {
		return model.Reference{}, err
	}
	ref := model.NewReference(name, kind, source, opts...)
	if err = r.refresh(ctx, &ref, fmt.Sprintf("Add reference: %s", name)); err != nil {
		return model.Reference{}, err
	}
	r.logger.Info("added reference", zap.String("reference", name), zap.Stringer("source", ref.Source))
	return ref, nil
}

// Update re-fetches the content of a reference from its recorded source.
//
// Git references are cloned again at their recorded ref.
func (r *Registry) Update(ctx context.Context, name string) (model.Reference, error) {
	if err := r.writable(); err != nil {
		return model.Reference{}, err
	}
	ref, err := r.Get(name)
	if err != nil {
		return model.Reference{}, err
	}
	source, kind, err := r.normalizeSource(name, ref.Source)
	if err != nil {
		return model.Reference{}, err
	}
	ref.Source = source
	ref.Kind = kind
	ref.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if err = r.refresh(ctx, &ref, fmt.Sprintf("Update reference: %s", name)); err != nil {
		return model.Reference{}, err
	}
	r.logger.Info("updated reference", zap.String("reference", name))
	return ref, nil
}

// UpdateAll updates every reference. Failures do not stop the other updates and are reported together.
func (r *Registry) UpdateAll(ctx context.Context) ([]model.Reference, error) {
	if err := r.writable(); err != nil {
		return nil, err
	}
	var (
		updated []model.Reference
		errs    error
	)
	for _, name := range r.index.ReferenceNames() {
		ref, err := r.Update(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		updated = append(updated, ref)
	}
	return updated, errs
}

// refresh fetches the content of a reference, then swaps it into the cache and commits the index
func (r *Registry) refresh(ctx context.Context, ref *model.Reference, message string) error {
	staged, err := r.stage(ctx, ref.Name, ref.Kind, ref.Source)
	defer func() {
		_ = os.RemoveAll(staged)
	}()
	if err != nil {
		return err
	}
	if ref.Checksum, err = treeDigest(ctx, staged); err != nil {
		return status.ErrSourceFetchFailed.For(model.EntityReference, ref.Name).Wrap(err)
	}

	swap, err := r.installContent(ref.Name, staged)
	if err != nil {
		return err
	}
	updated := *ref
	if err = r.mutate(ctx, message, func(x *model.Index) error {
		x.References[updated.Name] = updated
		return nil
	}); err != nil {
		swap.rollback()
		return err
	}
	swap.done()
	return nil
}

// Remove a reference and its cached content.
//
// Callers confirm the removal beforehand. References still listed by a bundle may not be removed.
func (r *Registry) Remove(ctx context.Context, name string, confirmed bool) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, err := r.Get(name); err != nil {
		return err
	}
	if !confirmed {
		return status.ErrNotConfirmed.For(model.EntityReference, name)
	}
	if dependents := r.FindDependents(name); len(dependents) > 0 {
		return status.ErrDependentExists.For(model.EntityReference, name).
			Wrapf("listed by bundles %s", strings.Join(dependents, ", "))
	}

	swap, err := r.installContent(name, "")
	if err != nil {
		return err
	}
	if err = r.mutate(ctx, fmt.Sprintf("Remove reference: %s", name), func(x *model.Index) error {
		delete(x.References, name)
		return nil
	}); err != nil {
		swap.rollback()
		return err
	}
	swap.done()
	r.logger.Info("removed reference", zap.String("reference", name))
	return nil
}

// Push copies a reference, with its cached content, into another registry.
//
// The reference is kept in this registry. An existing reference in the target is only
// replaced when overwrite is set.
func (r *Registry) Push(ctx context.Context, name string, target *Registry, overwrite bool) error {
	if err := target.writable(); err != nil {
		return err
	}
	ref, err := r.Get(name)
	if err != nil {
		return err
	}
	if target.root == r.root {
		return status.ErrAlreadyExists.For(model.EntityReference, name).Wrapf("cannot push a registry onto itself")
	}
	if _, ok := target.index.Bundles[name]; ok {
		return status.ErrAlreadyExists.For(model.EntityReference, name).Wrapf("a bundle of registry %q has this name", target.name)
	}
	if _, ok := target.index.References[name]; ok && !overwrite {
		return status.ErrAlreadyExists.For(model.EntityReference, name).Wrapf("in registry %q", target.name)
	}

	staged, err := target.stagingPath()
	defer func() {
		_ = os.RemoveAll(staged)
	}()
	if err != nil {
		return err
	}
	src := r.contentStore(name)
	keys, err := contentKeys(ctx, src)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(staged, 0o755); err != nil {
		return status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
	}
	if err = copyKeys(ctx, src, keys, localfs.New(rootedFs(staged)), ""); err != nil {
		return status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
	}

	swap, err := target.installContent(name, staged)
	if err != nil {
		return err
	}
	if err = target.mutate(ctx, fmt.Sprintf("Push reference: %s", name), func(x *model.Index) error {
		x.References[name] = ref
		return nil
	}); err != nil {
		swap.rollback()
		return err
	}
	swap.done()
	r.logger.Info("pushed reference", zap.String("reference", name), zap.String("target", target.root))
	return nil
}

// Tag the current state of the registry: annotated when a message is given
func (r *Registry) Tag(ctx context.Context, name, message string) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := r.git.Tag(ctx, r.root, name, message); err != nil {
		return err
	}
	r.logger.Info("tagged registry", zap.String("tag", name))
	return nil
}

// Tags of the registry, most recent first
func (r *Registry) Tags(ctx context.Context) ([]string, error) {
	return r.git.ListTags(ctx, r.root)
}

// History returns the commits that touched the content or the index entry of a reference, most recent first
func (r *Registry) History(ctx context.Context, name string) ([]vcs.Commit, error) {
	contentPath := model.GetPathToContent(name)
	touched := make(map[string]struct{})
	h := r.git.Log(r.root, "", contentPath)
	for h.Next(ctx) {
		touched[h.Commit().Revision] = struct{}{}
	}
	if err := h.Err(); err != nil {
		return nil, err
	}

	var res []vcs.Commit
	h = r.git.Log(r.root, "", model.IndexFile, contentPath)
	for h.Next(ctx) {
		c := h.Commit()
		if _, ok := touched[c.Revision]; ok || mentionsReference(c.Message, name) {
			res = append(res, c)
		}
	}
	if err := h.Err(); err != nil {
		return nil, err
	}
	if len(res) == 0 {
		if _, err := r.Get(name); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func mentionsReference(message, name string) bool {
	subject := strings.SplitN(message, "\n", 2)[0]
	return strings.HasSuffix(subject, " reference: "+name)
}

// LastRevision returns the most recent commit touching the cached content of a reference
func (r *Registry) LastRevision(ctx context.Context, name string) (string, error) {
	return r.git.LastRevision(ctx, r.root, model.GetPathToContent(name))
}

// ResolvePin resolves a tag or commit of this registry to a commit id
func (r *Registry) ResolvePin(ctx context.Context, pin string) (string, error) {
	return r.git.ResolveRevision(ctx, r.root, pin)
}

// ResolveContentPin resolves a pin to a commit id, and verifies the reference had content at that commit
func (r *Registry) ResolveContentPin(ctx context.Context, name, pin string) (string, error) {
	revision, err := r.ResolvePin(ctx, pin)
	if err != nil {
		return "", err
	}
	ok, err := r.git.HasPath(ctx, r.root, revision, model.GetPathToContent(name))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", status.ErrPinNotFound.For(model.EntityReference, name).Wrapf("no content at %s", pin)
	}
	return revision, nil
}

// Snapshot returns the cached content of a reference as it existed at some revision.
//
// The working tree of the registry is not modified.
func (r *Registry) Snapshot(ctx context.Context, name, revision string) (*vcs.Snapshot, error) {
	return r.git.Snapshot(ctx, r.root, revision, model.GetPathToContent(name))
}

// BundleCreate creates a bundle. Members need not exist yet.
func (r *Registry) BundleCreate(ctx context.Context, name string, members []string, opts ...model.BundleOption) (model.Bundle, error) {
	if err := r.writable(); err != nil {
		return model.Bundle{}, err
	}
	if err := model.ValidateName(model.EntityBundle, name); err != nil {
		return model.Bundle{}, err
	}
	for _, member := range members {
		if err := model.ValidateName(model.EntityReference, member); err != nil {
			return model.Bundle{}, err
		}
	}
	if _, ok := r.index.References[name]; ok {
		return model.Bundle{}, status.ErrAlreadyExists.For(model.EntityBundle, name).Wrapf("a reference has this name")
	}
	if _, ok := r.index.Bundles[name]; ok {
		return model.Bundle{}, status.ErrAlreadyExists.For(model.EntityBundle, name)
	}

	b := model.NewBundle(name, members, opts...)
	if err := r.mutate(ctx, fmt.Sprintf("Add bundle: %s", name), func(x *model.Index) error {
		x.Bundles[name] = b
		return nil
	}); err != nil {
		return model.Bundle{}, err
	}
	r.logger.Info("created bundle", zap.String("bundle", name), zap.Strings("references", b.References))
	return b, nil
}

// BundleUpdate changes the members or the metadata of a bundle
func (r *Registry) BundleUpdate(ctx context.Context, name string, changes ...BundleChange) (model.Bundle, error) {
	if err := r.writable(); err != nil {
		return model.Bundle{}, err
	}
	b, err := r.Bundle(name)
	if err != nil {
		return model.Bundle{}, err
	}
	b.References = append([]string(nil), b.References...)
	for _, apply := range changes {
		if err = apply(&b); err != nil {
			return model.Bundle{}, err
		}
	}
	b.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	if err = r.mutate(ctx, fmt.Sprintf("Update bundle: %s", name), func(x *model.Index) error {
		x.Bundles[name] = b
		return nil
	}); err != nil {
		return model.Bundle{}, err
	}
	r.logger.Info("updated bundle", zap.String("bundle", name), zap.Strings("references", b.References))
	return b, nil
}

// BundleRemove removes a bundle. Its members are kept.
func (r *Registry) BundleRemove(ctx context.Context, name string) error {
	if err := r.writable(); err != nil {
		return err
	}
	if _, err := r.Bundle(name); err != nil {
		return err
	}
	if err := r.mutate(ctx, fmt.Sprintf("Remove bundle: %s", name), func(x *model.Index) error {
		delete(x.Bundles, name)
		return nil
	}); err != nil {
		return err
	}
	r.logger.Info("removed bundle", zap.String("bundle", name))
	return nil
}

// stagingPath returns a fresh location in the staging area
func (r *Registry) stagingPath() (string, error) {
	staging := filepath.Join(r.root, model.StagingDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", status.ErrSourceFetchFailed.Wrap(err)
	}
	return filepath.Join(staging, uuid.NewString()), nil
}

// contentSwap replaces the cached content of a reference, keeping the previous
// content aside until the change is committed.
type contentSwap struct {
	target string
	backup string
}

// installContent moves staged content into the cache. An empty staged path only moves
// the current content aside.
func (r *Registry) installContent(name, staged string) (*contentSwap, error) {
	swap := &contentSwap{target: r.ContentPath(name)}
	if exists(swap.target) {
		backup, err := r.stagingPath()
		if err != nil {
			return nil, err
		}
		if err = os.Rename(swap.target, backup); err != nil {
			return nil, status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
		}
		swap.backup = backup
	}
	if staged == "" {
		return swap, nil
	}
	if err := os.MkdirAll(filepath.Dir(swap.target), 0o755); err != nil {
		swap.rollback()
		return nil, status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
	}
	if err := os.Rename(staged, swap.target); err != nil {
		swap.rollback()
		return nil, status.ErrSourceFetchFailed.For(model.EntityReference, name).Wrap(err)
	}
	return swap, nil
}

func (s *contentSwap) rollback() {
	_ = os.RemoveAll(s.target)
	if s.backup != "" {
		_ = os.Rename(s.backup, s.target)
	}
}

func (s *contentSwap) done() {
	if s.backup != "" {
		_ = os.RemoveAll(s.backup)
	}
}

// BundleChange modifies a bundle on update
type BundleChange func(*model.Bundle) error

// AddBundleMembers adds references to a bundle
func AddBundleMembers(names ...string) BundleChange {
	return func(b *model.Bundle) error {
		for _, name := range names {
			if err := model.ValidateName(model.EntityReference, name); err != nil {
				return err
			}
		}
		b.AddMembers(names...)
		return nil
	}
}

// RemoveBundleMembers removes references from a bundle
func RemoveBundleMembers(names ...string) BundleChange {
	return func(b *model.Bundle) error {
		b.RemoveMembers(names...)
		return nil
	}
}

// SetBundleDescription replaces the description of a bundle
func SetBundleDescription(description string) BundleChange {
	return func(b *model.Bundle) error {
		b.Description = description
		return nil
	}
}

// SetBundleTags replaces the tags of a bundle
func SetBundleTags(tags []string) BundleChange {
	return func(b *model.Bundle) error {
		model.BundleTags(tags)(b)
		return nil
	}
}
