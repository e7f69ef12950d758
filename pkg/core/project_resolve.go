package core

import (
	"context"
	"sort"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/model"
	"go.uber.org/multierr"
)

// Job is a resolved unit of sync: one reference, with the filter, pin and destination in effect
type Job struct {
	// Name of the reference
	Name string `json:"name"`
	// Registry the reference resolved in
	Registry string       `json:"registry"`
	Filter   model.Filter `json:"filter"`
	// Pin is the tag or commit the content is fixed to, and Revision the commit it resolved to
	Pin         string `json:"pin,omitempty"`
	Revision    string `json:"revision,omitempty"`
	Destination string `json:"destination"`
	// Origin is the bundle the job was expanded from, empty for explicit entries
	Origin string `json:"origin,omitempty"`
}

// IsPinned tells if the content of the job comes from a historical revision
func (j Job) IsPinned() bool {
	return j.Pin != ""
}

// ResolveAllReferences resolves the manifest into sync jobs, sorted by reference name.
//
// Bundles are expanded into one job per member, inheriting the filters of the bundle.
// Explicit entries replace bundle-derived jobs with the same name. If any entry fails
// to resolve, no job is returned and the error enumerates every failure.
func (p *Project) ResolveAllReferences(ctx context.Context) ([]Job, error) {
	jobs, failures := p.resolve(ctx)
	if len(failures) > 0 {
		return nil, resolutionError(failures)
	}
	return jobs, nil
}

// resolutionError reports all failures, by entry name
func resolutionError(failures map[string]error) error {
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs error
	for _, name := range names {
		errs = multierr.Append(errs, failures[name])
	}
	return status.ErrResolutionFailed.Wrap(errs)
}

// resolve the manifest, returning the jobs that resolved and the failures of the others, by entry name
func (p *Project) resolve(ctx context.Context) ([]Job, map[string]error) {
	jobs := make(map[string]Job)
	failures := make(map[string]error)

	for _, bundleName := range p.manifest.Bundles {
		bundle, _, err := p.repo.ResolveBundle(bundleName)
		if err != nil {
			failures[bundleName] = err
			continue
		}
		filter := p.manifest.BundleFilter(bundleName)
		for _, member := range bundle.References {
			if _, ok := jobs[member]; ok {
				// the first bundle listing a member wins
				continue
			}
			if _, ok := failures[member]; ok {
				continue
			}
			_, registry, err := p.repo.ResolveReference(member)
			if err != nil {
				failures[member] = status.ErrNotFound.For(model.EntityReference, member).Wrapf("member of bundle %q", bundleName)
				continue
			}
			jobs[member] = Job{
				Name:        member,
				Registry:    registry.Name(),
				Filter:      filter,
				Destination: member,
				Origin:      bundleName,
			}
		}
	}

	for _, name := range p.manifest.ReferenceNames() {
		entry := p.manifest.References[name]
		delete(jobs, name)
		delete(failures, name)

		_, registry, err := p.repo.ResolveReference(name)
		if err != nil {
			failures[name] = err
			continue
		}
		if !model.ValidDestination(entry.Path) {
			failures[name] = status.ErrInvalidPath.For(model.EntityManifestEntry, name).Wrapf("destination %q escapes %s", entry.Path, model.OutputDir)
			continue
		}
		job := Job{
			Name:        name,
			Registry:    registry.Name(),
			Filter:      entry.Filter(),
			Destination: entry.Destination(name),
		}
		if pin := entry.Pin(); pin != "" {
			revision, err := registry.ResolveContentPin(ctx, name, pin)
			if err != nil {
				failures[name] = status.ErrPinNotFound.For(model.EntityManifestEntry, name).Wrap(err)
				continue
			}
			job.Pin = pin
			job.Revision = revision
		}
		jobs[name] = job
	}

	res := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		res = append(res, job)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	// two jobs may not write to the same destination
	kept := res[:0]
	byDestination := make(map[string]string, len(res))
	for _, job := range res {
		if other, ok := byDestination[job.Destination]; ok {
			failures[job.Name] = status.ErrAlreadyExists.For(model.EntityManifestEntry, job.Name).
				Wrapf("destination %q is already used by %q", job.Destination, other)
			continue
		}
		byDestination[job.Destination] = job.Name
		kept = append(kept, job)
	}
	return kept, failures
}

// nestedDestinations returns the destinations of other jobs located under the destination of a job,
// relative to that destination
func nestedDestinations(job Job, jobs []Job) []string {
	var res []string
	for _, other := range jobs {
		if rel, ok := under(other.Destination, job.Destination); ok && other.Name != job.Name {
			res = append(res, rel)
		}
	}
	return res
}

// under tells if p is located strictly under dir, and returns its relative path
func under(p, dir string) (string, bool) {
	if !strings.HasPrefix(p, dir+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, dir+"/"), true
}

// claimsAny tells if removing dir would remove one of the destinations
func claimsAny(dir string, destinations []string) bool {
	for _, d := range destinations {
		if d == dir {
			return true
		}
		if _, ok := under(d, dir); ok {
			return true
		}
	}
	return false
}

// inAny tells if a relative path is located in one of the directories
func inAny(p string, dirs []string) bool {
	for _, dir := range dirs {
		if p == dir {
			return true
		}
		if _, ok := under(p, dir); ok {
			return true
		}
	}
	return false
}
