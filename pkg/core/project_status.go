package core

import (
	"context"
	"os"
	"sort"

	"github.com/oneconcern/refstore/pkg/storage/localfs"
	"github.com/spf13/afero"
)

// EntryState classifies an entry of the manifest against the content of the output directory
type EntryState string

// States reported by Status
const (
	StateInSync     EntryState = "in-sync"
	StateStale      EntryState = "stale"
	StateMissing    EntryState = "missing"
	StateUnresolved EntryState = "unresolved"
	StateOrphaned   EntryState = "orphaned"
)

// EntryStatus reports the state of one entry
type EntryStatus struct {
	Name        string     `json:"name"`
	State       EntryState `json:"state"`
	Registry    string     `json:"registry,omitempty"`
	Destination string     `json:"destination"`
	Origin      string     `json:"origin,omitempty"`
	Pin         string     `json:"pin,omitempty"`
	Revision    string     `json:"revision,omitempty"`
	Expected    int        `json:"expected"`
	Actual      int        `json:"actual"`
	Error       string     `json:"error,omitempty"`
}

// Status compares the manifest with the content of the output directory. It performs no writes.
//
// Resolved entries are in-sync, stale or missing. Entries failing to resolve are unresolved.
// Top-level directories of the output directory that no entry claims are orphaned.
func (p *Project) Status(ctx context.Context) ([]EntryStatus, error) {
	jobs, failures := p.resolve(ctx)
	out := p.output()

	res := make([]EntryStatus, 0, len(jobs)+len(failures))
	claimed := make([]string, 0, len(jobs)+len(failures))
	for _, job := range jobs {
		claimed = append(claimed, job.Destination)
		plan, err := p.plan(ctx, job, jobs, out)
		if err != nil {
			return nil, err
		}
		entry := EntryStatus{
			Name:        job.Name,
			Registry:    job.Registry,
			Destination: job.Destination,
			Origin:      job.Origin,
			Pin:         job.Pin,
			Revision:    job.Revision,
			Expected:    len(plan.expected),
			Actual:      len(plan.actual),
		}
		switch {
		case !plan.exists:
			entry.State = StateMissing
		case plan.fresh():
			entry.State = StateInSync
		default:
			entry.State = StateStale
		}
		if entry.Revision == "" {
			if registry, err := p.repo.Registry(job.Registry); err == nil {
				entry.Revision, _ = registry.LastRevision(ctx, job.Name)
			}
		}
		res = append(res, entry)
	}

	for name, err := range failures {
		dest := name
		if entry, ok := p.manifest.References[name]; ok {
			dest = entry.Destination(name)
		}
		claimed = append(claimed, dest)
		res = append(res, EntryStatus{
			Name:        name,
			State:       StateUnresolved,
			Destination: dest,
			Error:       err.Error(),
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })

	orphans, err := p.orphans(claimed)
	if err != nil {
		return nil, err
	}
	return append(res, orphans...), nil
}

// orphans lists the top-level entries of the output directory claimed by no destination
func (p *Project) orphans(claimed []string) ([]EntryStatus, error) {
	entries, err := afero.ReadDir(p.outputFs(), ".")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var res []EntryStatus
	for _, entry := range entries {
		name := entry.Name()
		if name == localfs.StageName || claimsAny(name, claimed) {
			continue
		}
		res = append(res, EntryStatus{
			Name:        name,
			State:       StateOrphaned,
			Destination: name,
		})
	}
	return res, nil
}

// Counts of entries by state
func Counts(statuses []EntryStatus) map[EntryState]int {
	counts := make(map[EntryState]int, 5)
	for _, s := range statuses {
		counts[s.State]++
	}
	return counts
}
