package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncStates(results []SyncResult) map[string]SyncState {
	res := make(map[string]SyncState, len(results))
	for _, r := range results {
		res[r.Job.Name] = r.State
	}
	return res
}

func statusStates(statuses []EntryStatus) map[string]EntryState {
	res := make(map[string]EntryState, len(statuses))
	for _, s := range statuses {
		res[s.Name] = s.State
	}
	return res
}

func TestSyncIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a", "sub/b.md": "b"})
	f.addDir("lib", map[string]string{"lib.go": "package lib"})
	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "docs", model.ManifestEntry{}, false))
	require.NoError(t, p.Add(f.ctx, "lib", model.ManifestEntry{Path: "third_party/lib"}, false))

	statuses, err := p.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]EntryState{"docs": StateMissing, "lib": StateMissing}, statusStates(statuses))

	results, err := p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]SyncState{"docs": SyncStateSynced, "lib": SyncStateSynced}, syncStates(results))
	first := readTree(t, p.OutputRoot())
	assert.Equal(t, map[string]string{
		"docs/a.md":              "a",
		"docs/sub/b.md":          "b",
		"third_party/lib/lib.go": "package lib",
	}, first)

	results, err = p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]SyncState{"docs": SyncStateFresh, "lib": SyncStateFresh}, syncStates(results))
	for _, r := range results {
		assert.Zero(t, r.Written)
		assert.Zero(t, r.Removed)
	}
	assert.Equal(t, first, readTree(t, p.OutputRoot()))

	statuses, err = p.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]EntryState{"docs": StateInSync, "lib": StateInSync}, statusStates(statuses))
	for _, s := range statuses {
		assert.NotEmpty(t, s.Revision)
	}

	t.Run("force rewrites everything", func(t *testing.T) {
		results, err := p.Sync(f.ctx, "docs", true)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, SyncStateSynced, results[0].State)
		assert.Equal(t, 2, results[0].Written)
		assert.Equal(t, first, readTree(t, p.OutputRoot()))
	})

	t.Run("registry updates make entries stale", func(t *testing.T) {
		writeFile(t, f.sourceDir("docs"), "a.md", "a, updated")
		_, err := f.repo.Local().Update(f.ctx, "docs")
		require.NoError(t, err)

		statuses, err := p.Status(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, StateStale, statusStates(statuses)["docs"])

		results, err := p.Sync(f.ctx, "", false)
		require.NoError(t, err)
		assert.Equal(t, map[string]SyncState{"docs": SyncStateSynced, "lib": SyncStateFresh}, syncStates(results))
		assert.Equal(t, "a, updated", readTree(t, p.OutputRoot())["docs/a.md"])
	})

	t.Run("local edits make entries stale", func(t *testing.T) {
		writeFile(t, p.OutputRoot(), "stray/extra.go", "package stray")
		writeFile(t, p.OutputRoot(), "third_party/lib/lib.go", "edited")
		writeFile(t, p.OutputRoot(), ".cache/left.txt", "left over")
		require.NoError(t, os.MkdirAll(filepath.Join(p.OutputRoot(), ".put-stage"), 0o755))

		statuses, err := p.Status(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]EntryState{
			"docs":   StateInSync,
			"lib":    StateStale,
			"stray":  StateOrphaned,
			".cache": StateOrphaned,
		}, statusStates(statuses))
		require.NoError(t, os.RemoveAll(filepath.Join(p.OutputRoot(), ".cache")))

		results, err := p.Sync(f.ctx, "lib", false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 1, results[0].Written)
		assert.Equal(t, "package lib", readTree(t, p.OutputRoot())["third_party/lib/lib.go"])
	})
}

func TestSyncFilter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("crate", map[string]string{
		"a.rs":            "fn a() {}",
		"b.rs":            "fn b() {}",
		"src/nested.rs":   "fn n() {}",
		"docs/x.md":       "docs",
		"tests/a_test.rs": "test",
	})
	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "crate", model.ManifestEntry{Include: []string{"*.rs"}, Exclude: []string{"tests"}}, false))

	_, err := p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"crate/a.rs", "crate/b.rs", "crate/src/nested.rs"}, keysOf(readTree(t, p.OutputRoot())))

	// narrowing the filter removes the files no longer selected
	require.NoError(t, p.Remove(f.ctx, "crate", false))
	require.NoError(t, p.Add(f.ctx, "crate", model.ManifestEntry{Include: []string{"a.rs"}}, false))
	statuses, err := p.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateStale, statusStates(statuses)["crate"])

	results, err := p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Removed)
	assert.Zero(t, results[0].Written)
	assert.Equal(t, []string{"crate/a.rs"}, keysOf(readTree(t, p.OutputRoot())))

	t.Run("filter selecting nothing", func(t *testing.T) {
		require.NoError(t, p.Remove(f.ctx, "crate", false))
		require.NoError(t, p.Add(f.ctx, "crate", model.ManifestEntry{Include: []string{"*.py"}}, false))
		_, err := p.Sync(f.ctx, "", false)
		require.NoError(t, err)
		assert.Empty(t, readTree(t, p.OutputRoot()))
		assert.DirExists(t, filepath.Join(p.OutputRoot(), "crate"))

		statuses, err := p.Status(f.ctx)
		require.NoError(t, err)
		assert.Equal(t, StateInSync, statusStates(statuses)["crate"])
	})
}

func TestSyncPinned(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "v1", "gone.md": "removed in v2"})
	require.NoError(t, f.repo.Local().Tag(f.ctx, "v1", "first version"))
	require.NoError(t, os.Remove(filepath.Join(f.sourceDir("docs"), "gone.md")))
	writeFile(t, f.sourceDir("docs"), "a.md", "v2")
	writeFile(t, f.sourceDir("docs"), "new.md", "added in v2")
	_, err := f.repo.Local().Update(f.ctx, "docs")
	require.NoError(t, err)
	cacheBefore := readTree(t, f.repo.Local().ContentPath("docs"))

	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "docs", model.ManifestEntry{Version: "v1"}, false))

	jobs, err := p.ResolveAllReferences(f.ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.True(t, jobs[0].IsPinned())
	tagged, err := f.repo.Local().ResolvePin(f.ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, tagged, jobs[0].Revision)

	_, err = p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"docs/a.md": "v1", "docs/gone.md": "removed in v2"}, readTree(t, p.OutputRoot()))
	assert.Equal(t, cacheBefore, readTree(t, f.repo.Local().ContentPath("docs")), "the registry working tree is untouched")
	assert.Empty(t, gitOutput(t, f.repo.Root(), "status", "--porcelain"))

	statuses, err := p.Status(f.ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StateInSync, statuses[0].State)
	assert.Equal(t, "v1", statuses[0].Pin)
	assert.Equal(t, tagged, statuses[0].Revision)

	// unpinning syncs the latest content
	require.NoError(t, p.Remove(f.ctx, "docs", false))
	require.NoError(t, p.Add(f.ctx, "docs", model.ManifestEntry{}, false))
	_, err = p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"docs/a.md": "v2", "docs/new.md": "added in v2"}, readTree(t, p.OutputRoot()))
}

func TestSyncPinBeforeReference(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a"})
	require.NoError(t, f.repo.Local().Tag(f.ctx, "v0", ""))
	f.addDir("late", map[string]string{"l.md": "added after v0"})

	p := f.newProject()
	err := p.Add(f.ctx, "late", model.ManifestEntry{Version: "v0"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrPinNotFound))
	assert.Contains(t, err.Error(), `manifest entry "late"`)
	assert.True(t, p.Manifest().IsEmpty())

	dir := t.TempDir()
	writeFile(t, dir, model.ManifestFile, `version = 1

[references.late]
version = "v0"
`)
	edited, err := OpenProject(f.ctx, dir, f.repo)
	require.NoError(t, err)

	for _, name := range []string{"", "late"} {
		_, err = edited.Sync(f.ctx, name, false)
		require.Errorf(t, err, "sync %q", name)
		assert.True(t, errors.Is(err, status.ErrResolutionFailed))
		assert.True(t, errors.Is(err, status.ErrPinNotFound))
		assert.Contains(t, err.Error(), `manifest entry "late"`)
	}
	assert.NoDirExists(t, filepath.Join(edited.OutputRoot(), "late"))

	statuses, err := edited.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, StateUnresolved, statusStates(statuses)["late"])

	t.Run("snapshot without content", func(t *testing.T) {
		revision, err := f.repo.Local().ResolvePin(f.ctx, "v0")
		require.NoError(t, err)
		job := Job{Name: "late", Registry: model.LocalRegistry, Destination: "late", Pin: "v0", Revision: revision}
		_, err = edited.source(f.ctx, job)
		assert.True(t, errors.Is(err, status.ErrPinNotFound))
		assert.Contains(t, err.Error(), `manifest entry "late"`)
	})
}

func TestReservedNames(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	source := filepath.Join(t.TempDir(), "src")
	writeTree(t, source, map[string]string{"a.md": "a"})

	for _, name := range []string{".put-stage", ".git"} {
		_, err := f.repo.Local().Add(f.ctx, name, model.LocalSource(source))
		assert.Truef(t, errors.Is(err, status.ErrInvalidName), "%s: %v", name, err)
	}

	f.addDir("docs", map[string]string{"a.md": "a"})
	p := f.newProject()
	err := p.Add(f.ctx, "docs", model.ManifestEntry{Path: ".put-stage/docs"}, false)
	assert.True(t, errors.Is(err, status.ErrInvalidPath))
}

func TestSyncPinnedKeepsIgnoredFiles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("build", map[string]string{".gitignore": "*.log\n", "build.log": "log", "keep.md": "kept"})
	require.NoError(t, f.repo.Local().Tag(f.ctx, "v1", ""))

	cached, err := f.repo.Local().Files(f.ctx, "build")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{".gitignore", "build.log", "keep.md"}, cached)

	snapshot, err := f.repo.Local().Snapshot(f.ctx, "build", "v1")
	require.NoError(t, err)
	assert.ElementsMatch(t, cached, snapshot.Paths())

	pinned := f.newProject()
	require.NoError(t, pinned.Add(f.ctx, "build", model.ManifestEntry{Version: "v1"}, false))
	_, err = pinned.Sync(f.ctx, "", false)
	require.NoError(t, err)
	latest := f.newProject()
	require.NoError(t, latest.Add(f.ctx, "build", model.ManifestEntry{}, false))
	_, err = latest.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, readTree(t, latest.OutputRoot()), readTree(t, pinned.OutputRoot()))
}

func TestSyncSelection(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("a", map[string]string{"a.md": "a"})
	f.addDir("b", map[string]string{"b.md": "b"})
	f.addDir("c", map[string]string{"c.md": "c"})
	_, err := f.repo.Local().BundleCreate(f.ctx, "ab", []string{"a", "b"})
	require.NoError(t, err)
	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "ab", model.ManifestEntry{}, true))
	require.NoError(t, p.Add(f.ctx, "c", model.ManifestEntry{}, false))

	results, err := p.Sync(f.ctx, "c", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]SyncState{"c": SyncStateSynced}, syncStates(results))

	results, err = p.Sync(f.ctx, "ab", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]SyncState{"a": SyncStateSynced, "b": SyncStateSynced}, syncStates(results))

	results, err = p.Sync(f.ctx, "b", false)
	require.NoError(t, err, "members of listed bundles may be synced by name")
	assert.Equal(t, map[string]SyncState{"b": SyncStateFresh}, syncStates(results))

	_, err = p.Sync(f.ctx, "nowhere", false)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	t.Run("unresolved entries", func(t *testing.T) {
		_, err := f.repo.Local().BundleUpdate(f.ctx, "ab", AddBundleMembers("ghost"))
		require.NoError(t, err)

		_, err = p.Sync(f.ctx, "", false)
		assert.True(t, errors.Is(err, status.ErrResolutionFailed))
		_, err = p.Sync(f.ctx, "ab", false)
		assert.True(t, errors.Is(err, status.ErrResolutionFailed))

		results, err := p.Sync(f.ctx, "c", false)
		require.NoError(t, err, "resolved entries may still be synced by name")
		assert.Equal(t, map[string]SyncState{"c": SyncStateFresh}, syncStates(results))
	})
}

func TestSyncNestedDestinations(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("outer", map[string]string{"README.md": "outer", "inner/stale.md": "shadowed by the inner reference"})
	f.addDir("inner", map[string]string{"lib.go": "inner"})
	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "outer", model.ManifestEntry{Path: "lib"}, false))
	require.NoError(t, p.Add(f.ctx, "inner", model.ManifestEntry{Path: "lib/inner"}, false))

	_, err := p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lib/README.md": "outer", "lib/inner/lib.go": "inner"}, readTree(t, p.OutputRoot()))

	results, err := p.Sync(f.ctx, "", false)
	require.NoError(t, err)
	assert.Equal(t, map[string]SyncState{"inner": SyncStateFresh, "outer": SyncStateFresh}, syncStates(results))

	statuses, err := p.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]EntryState{"inner": StateInSync, "outer": StateInSync}, statusStates(statuses))

	t.Run("duplicate destinations", func(t *testing.T) {
		f.addDir("clash", map[string]string{"x.md": "x"})
		require.NoError(t, p.Add(f.ctx, "clash", model.ManifestEntry{Path: "lib"}, false))
		_, err := p.Sync(f.ctx, "", false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrResolutionFailed))
		assert.Contains(t, err.Error(), `destination "lib" is already used by "clash"`)
	})
}

func TestSyncRemovePurge(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("a", map[string]string{"a.md": "a"})
	f.addDir("b", map[string]string{"b.md": "b"})
	f.addDir("c", map[string]string{"c.md": "c"})
	_, err := f.repo.Local().BundleCreate(f.ctx, "ab", []string{"a", "b"})
	require.NoError(t, err)
	p := f.newProject()
	require.NoError(t, p.Add(f.ctx, "ab", model.ManifestEntry{}, true))
	require.NoError(t, p.Add(f.ctx, "b", model.ManifestEntry{}, false))
	require.NoError(t, p.Add(f.ctx, "c", model.ManifestEntry{}, false))
	_, err = p.Sync(f.ctx, "", false)
	require.NoError(t, err)

	// b is still listed explicitly: only a is purged
	require.NoError(t, p.Remove(f.ctx, "ab", true))
	assert.NoDirExists(t, filepath.Join(p.OutputRoot(), "a"))
	assert.DirExists(t, filepath.Join(p.OutputRoot(), "b"))

	require.NoError(t, p.Remove(f.ctx, "b", true))
	assert.NoDirExists(t, filepath.Join(p.OutputRoot(), "b"))

	require.NoError(t, p.Remove(f.ctx, "c", false))
	assert.DirExists(t, filepath.Join(p.OutputRoot(), "c"), "content is kept without purge")

	statuses, err := p.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]EntryState{"c": StateOrphaned}, statusStates(statuses))

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.repo.Local().Get(name)
		assert.NoError(t, err, "the registry is left untouched")
	}
}
