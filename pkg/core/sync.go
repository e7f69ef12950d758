package core

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/storage"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SyncState tells what a sync did for a job
type SyncState string

// Outcomes of a sync
const (
	SyncStateSynced SyncState = "synced"
	SyncStateFresh  SyncState = "fresh"
)

// SyncResult reports the sync of one job
type SyncResult struct {
	Job     Job       `json:"job"`
	State   SyncState `json:"state"`
	Written int       `json:"written"`
	Removed int       `json:"removed"`
}

// syncPlan compares the expected content of a job with the content of its destination
type syncPlan struct {
	job    Job
	source storage.Store
	nested []string
	exists bool

	// digests by path relative to the destination
	expected map[string]string
	actual   map[string]string
}

func (s *syncPlan) fresh() bool {
	if !s.exists || len(s.expected) != len(s.actual) {
		return false
	}
	for key, digest := range s.expected {
		if s.actual[key] != digest {
			return false
		}
	}
	return true
}

// Sync materializes the content of the manifest under the output directory.
//
// With an empty name, all entries are synced, and the sync fails if any entry fails to resolve.
// Otherwise, name selects an entry, or a bundle of the manifest.
//
// Destinations already holding the expected content are skipped, unless force is set.
// Files of a destination no longer selected are removed.
func (p *Project) Sync(ctx context.Context, name string, force bool) ([]SyncResult, error) {
	jobs, failures := p.resolve(ctx)
	selected, err := p.selectJobs(name, jobs, failures)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(p.OutputRoot(), 0o755); err != nil {
		return nil, status.ErrInvalidPath.For("output", p.OutputRoot()).Wrap(err)
	}

	out := p.output()
	fs := p.outputFs()
	results := make([]SyncResult, 0, len(selected))
	for _, job := range selected {
		plan, err := p.plan(ctx, job, jobs, out)
		if err != nil {
			return results, err
		}
		result, err := p.execute(ctx, plan, out, fs, force)
		if err != nil {
			return results, err
		}
		p.logger.Info("synced reference",
			zap.String("reference", job.Name),
			zap.String("destination", job.Destination),
			zap.String("state", string(result.State)),
			zap.Int("written", result.Written),
			zap.Int("removed", result.Removed),
		)
		results = append(results, result)
	}
	return results, nil
}

// selectJobs returns the jobs to sync for a name of the manifest, or all jobs
func (p *Project) selectJobs(name string, jobs []Job, failures map[string]error) ([]Job, error) {
	if name == "" {
		if len(failures) > 0 {
			return nil, resolutionError(failures)
		}
		return jobs, nil
	}

	for _, job := range jobs {
		if job.Name == name {
			return []Job{job}, nil
		}
	}

	if p.manifest.HasBundle(name) {
		if err, ok := failures[name]; ok {
			return nil, resolutionError(map[string]error{name: err})
		}
		bundle, _, err := p.repo.ResolveBundle(name)
		if err != nil {
			return nil, resolutionError(map[string]error{name: err})
		}
		memberFailures := make(map[string]error)
		var selected []Job
		for _, job := range jobs {
			if bundle.HasMember(job.Name) {
				selected = append(selected, job)
			}
		}
		for _, member := range bundle.References {
			if err, ok := failures[member]; ok {
				memberFailures[member] = err
			}
		}
		if len(memberFailures) > 0 {
			return nil, resolutionError(memberFailures)
		}
		return selected, nil
	}

	if err, ok := failures[name]; ok {
		return nil, resolutionError(map[string]error{name: err})
	}
	return nil, status.ErrNotFound.For(model.EntityManifestEntry, name)
}

// source returns the content of a job: the cached content of the reference,
// or a snapshot of it at the pinned revision
func (p *Project) source(ctx context.Context, job Job) (storage.Store, error) {
	registry, err := p.repo.Registry(job.Registry)
	if err != nil {
		return nil, err
	}
	if !job.IsPinned() {
		return registry.contentStore(job.Name), nil
	}

	snapshot, err := registry.Snapshot(ctx, job.Name, job.Revision)
	if err != nil {
		if errors.Is(err, status.ErrPinNotFound) {
			return nil, status.ErrPinNotFound.For(model.EntityManifestEntry, job.Name).Wrap(err)
		}
		return nil, err
	}
	store := localfs.New(afero.NewMemMapFs())
	for _, file := range snapshot.Files {
		if err = store.Put(ctx, file.Path, bytes.NewReader(file.Content), storage.OverWrite); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (p *Project) plan(ctx context.Context, job Job, jobs []Job, out storage.Store) (*syncPlan, error) {
	source, err := p.source(ctx, job)
	if err != nil {
		return nil, err
	}
	plan := &syncPlan{
		job:    job,
		source: source,
		nested: nestedDestinations(job, jobs),
		exists: isDir(filepath.Join(p.OutputRoot(), filepath.FromSlash(job.Destination))),
	}

	keys, err := contentKeys(ctx, source)
	if err != nil {
		return nil, err
	}
	selected := make([]string, 0, len(keys))
	for _, key := range job.Filter.Apply(keys) {
		if !inAny(key, plan.nested) {
			selected = append(selected, key)
		}
	}
	if plan.expected, err = digestKeys(ctx, source, selected); err != nil {
		return nil, err
	}

	existing, err := out.KeysPrefix(ctx, job.Destination)
	if err != nil {
		return nil, err
	}
	plan.actual = make(map[string]string, len(existing))
	for _, key := range existing {
		rel, ok := under(key, job.Destination)
		if !ok || inAny(rel, plan.nested) {
			continue
		}
		digests, err := digestKeys(ctx, out, []string{key})
		if err != nil {
			return nil, err
		}
		plan.actual[rel] = digests[key]
	}
	return plan, nil
}

func (p *Project) execute(ctx context.Context, plan *syncPlan, out storage.Store, fs afero.Fs, force bool) (SyncResult, error) {
	result := SyncResult{Job: plan.job, State: SyncStateFresh}
	if !force && plan.fresh() {
		return result, nil
	}
	result.State = SyncStateSynced
	dest := plan.job.Destination

	for rel := range plan.actual {
		if _, ok := plan.expected[rel]; ok {
			continue
		}
		if err := out.Delete(ctx, path.Join(dest, rel)); err != nil {
			return result, err
		}
		result.Removed++
	}
	for rel, digest := range plan.expected {
		if !force && plan.actual[rel] == digest {
			continue
		}
		if err := copyKey(ctx, plan.source, rel, out, path.Join(dest, rel)); err != nil {
			return result, err
		}
		result.Written++
	}
	if err := fs.MkdirAll(filepath.FromSlash(dest), 0o755); err != nil {
		return result, status.ErrInvalidPath.For("destination", dest).Wrap(err)
	}
	return result, nil
}
