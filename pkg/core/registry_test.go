package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/refstore/internal/rand"
	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/errors"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRegistryAddResolve(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// a git repository to fetch from
	upstream := filepath.Join(t.TempDir(), "upstream")
	require.NoError(t, f.git.Init(f.ctx, upstream))
	writeTree(t, upstream, map[string]string{
		"README.md":        "# upstream\n",
		"docs/guide.md":    "guide\n",
		"docs/api/ref.md":  "api\n",
		"src/main.go":      "package main\n",
		"docs/images/x.md": "x\n",
	})
	_, err := f.git.Commit(f.ctx, upstream, "upstream")
	require.NoError(t, err)

	single := filepath.Join(f.src, "single", "notes.txt")
	writeFile(t, filepath.Dir(single), "notes.txt", "some notes\n")
	tree := filepath.Join(f.src, "tree")
	writeTree(t, tree, map[string]string{"a.md": "a\n", "sub/b.md": "b\n", ".git/HEAD": "ignored\n"})

	for _, toPin := range []struct {
		Name          string
		Source        model.Source
		ExpectedKind  model.ReferenceKind
		ExpectedFiles []string
	}{
		{
			Name:          "notes",
			Source:        model.LocalSource(single),
			ExpectedKind:  model.KindFile,
			ExpectedFiles: []string{"notes.txt"},
		},
		{
			Name:          "tree",
			Source:        model.LocalSource(tree),
			ExpectedKind:  model.KindDirectory,
			ExpectedFiles: []string{"a.md", "sub/b.md"},
		},
		{
			Name:          "upstream",
			Source:        model.GitSource("file://"+upstream, "", ""),
			ExpectedKind:  model.KindGitRepo,
			ExpectedFiles: []string{"README.md", "docs/api/ref.md", "docs/guide.md", "docs/images/x.md", "src/main.go"},
		},
		{
			Name:          "upstream-docs",
			Source:        model.GitSource("file://"+upstream, "", "docs"),
			ExpectedKind:  model.KindGitRepo,
			ExpectedFiles: []string{"api/ref.md", "guide.md", "images/x.md"},
		},
	} {
		tc := toPin
		t.Run(tc.Name, func(t *testing.T) {
			ref, err := f.repo.Local().Add(f.ctx, tc.Name, tc.Source,
				model.ReferenceDescription("about "+tc.Name),
				model.ReferenceTags([]string{"test", tc.Name}),
			)
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedKind, ref.Kind)
			assert.NotEmpty(t, ref.Checksum)

			resolved, err := f.repo.Resolve(tc.Name)
			require.NoError(t, err)
			require.Equal(t, ResolvedReference, resolved.Kind)
			assert.Equal(t, model.LocalRegistry, resolved.Registry)
			require.NotNil(t, resolved.Reference)
			assert.Equal(t, ref.Kind, resolved.Reference.Kind)
			assert.Equal(t, ref.Source, resolved.Reference.Source)
			assert.Equal(t, "about "+tc.Name, resolved.Reference.Description)
			assert.ElementsMatch(t, []string{"test", tc.Name}, resolved.Reference.Tags)

			files, err := f.repo.Local().Files(f.ctx, tc.Name)
			require.NoError(t, err)
			assert.Equal(t, tc.ExpectedFiles, files)
		})
	}

	t.Run("persisted", func(t *testing.T) {
		f.reopen()
		for _, name := range []string{"notes", "tree", "upstream", "upstream-docs"} {
			_, err := f.repo.Local().Get(name)
			assert.NoError(t, err, name)
		}
		assert.Empty(t, gitOutput(t, f.repo.Root(), "status", "--porcelain"), "every mutation is committed")
	})
}

func TestRegistryAddInvalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	dir := filepath.Join(f.src, "valid")
	writeTree(t, dir, map[string]string{"a.md": "a"})
	head, err := f.git.HeadRevision(f.ctx, f.repo.Root())
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "a/b", "with space", "semi;colon", "ü"} {
		_, err := f.repo.Local().Add(f.ctx, name, model.LocalSource(dir))
		require.Errorf(t, err, "name %q", name)
		assert.Truef(t, errors.Is(err, status.ErrInvalidName), "name %q: %v", name, err)
	}

	_, err = f.repo.Local().Add(f.ctx, "missing", model.LocalSource(filepath.Join(f.src, "nowhere")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrSourceFetchFailed))
	assert.Contains(t, err.Error(), `reference "missing"`)

	_, err = f.repo.Local().Add(f.ctx, "badgit", model.GitSource("file://"+filepath.Join(f.src, "nowhere"), "", ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrSourceFetchFailed))

	after, err := f.git.HeadRevision(f.ctx, f.repo.Root())
	require.NoError(t, err)
	assert.Equal(t, head, after, "failed additions do not commit")
	assert.Empty(t, f.repo.Local().List(ListFilter{}))
	entries, _ := os.ReadDir(filepath.Join(f.repo.Root(), model.StagingDir))
	assert.Empty(t, entries, "staging area is cleaned up")
}

func TestRegistryAddDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	original := f.addDir("docs", map[string]string{"a.md": "first"})
	head, err := f.git.HeadRevision(f.ctx, f.repo.Root())
	require.NoError(t, err)

	other := filepath.Join(f.src, "other")
	writeTree(t, other, map[string]string{"b.md": "second"})
	_, err = f.repo.Local().Add(f.ctx, "docs", model.LocalSource(other))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))

	after, err := f.git.HeadRevision(f.ctx, f.repo.Root())
	require.NoError(t, err)
	assert.Equal(t, head, after)
	ref, err := f.repo.Local().Get("docs")
	require.NoError(t, err)
	assert.Equal(t, original, ref)
	assert.Equal(t, map[string]string{"a.md": "first"}, readTree(t, f.repo.Local().ContentPath("docs")))
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a"})
	local := f.repo.Local()

	err := local.Remove(f.ctx, "docs", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotConfirmed))

	require.NoError(t, local.Remove(f.ctx, "docs", true))
	_, err = f.repo.Resolve("docs")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
	assert.NoDirExists(t, local.ContentPath("docs"))

	err = local.Remove(f.ctx, "docs", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	f.reopen()
	_, err = f.repo.Local().Get("docs")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestRegistryRemoveDependent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a"})
	local := f.repo.Local()
	_, err := local.BundleCreate(f.ctx, "stack", []string{"docs"})
	require.NoError(t, err)

	assert.Equal(t, []string{"stack"}, local.FindDependents("docs"))
	err = local.Remove(f.ctx, "docs", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDependentExists))
	assert.Contains(t, err.Error(), "stack")
	assert.DirExists(t, local.ContentPath("docs"))

	_, err = local.BundleUpdate(f.ctx, "stack", RemoveBundleMembers("docs"))
	require.NoError(t, err)
	require.NoError(t, local.Remove(f.ctx, "docs", true))
}

func TestRegistryUpdate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	before := f.addDir("docs", map[string]string{"a.md": "a", "old.md": "old"})
	f.addDir("other", map[string]string{"b.md": "b"})

	require.NoError(t, os.Remove(filepath.Join(f.sourceDir("docs"), "old.md")))
	writeFile(t, f.sourceDir("docs"), "a.md", "a, updated")
	writeFile(t, f.sourceDir("docs"), "new/c.md", "c")

	after, err := f.repo.Local().Update(f.ctx, "docs")
	require.NoError(t, err)
	assert.NotEqual(t, before.Checksum, after.Checksum)
	assert.Equal(t, before.AddedAt, after.AddedAt)
	assert.Equal(t,
		map[string]string{"a.md": "a, updated", "new/c.md": "c"},
		readTree(t, f.repo.Local().ContentPath("docs")),
	)

	_, err = f.repo.Local().Update(f.ctx, "nowhere")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	require.NoError(t, os.RemoveAll(f.sourceDir("other")))
	updated, err := f.repo.Local().UpdateAll(f.ctx)
	require.Error(t, err, "the source of other is gone")
	assert.True(t, errors.Is(err, status.ErrSourceFetchFailed))
	require.Len(t, updated, 1)
	assert.Equal(t, "docs", updated[0].Name)
	assert.Equal(t, map[string]string{"b.md": "b"}, readTree(t, f.repo.Local().ContentPath("other")), "failed update keeps the cache")
}

func TestRegistryPush(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a", "sub/b.md": "b"})
	targetPath := filepath.Join(t.TempDir(), "published")
	_, err := f.repo.RegistryInit(f.ctx, targetPath)
	require.NoError(t, err)

	require.NoError(t, f.repo.Push(f.ctx, "docs", targetPath, false))

	target, err := OpenRegistry(f.ctx, targetPath, WithGit(f.git))
	require.NoError(t, err)
	pushed, err := target.Get("docs")
	require.NoError(t, err)
	local, err := f.repo.Local().Get("docs")
	require.NoError(t, err)
	assert.Equal(t, local, pushed)
	assert.Equal(t, readTree(t, f.repo.Local().ContentPath("docs")), readTree(t, target.ContentPath("docs")))
	assert.Equal(t, "Push reference: docs", gitOutput(t, targetPath, "log", "-1", "--format=%s"))

	err = f.repo.Push(f.ctx, "docs", targetPath, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))
	require.NoError(t, f.repo.Push(f.ctx, "docs", targetPath, true))

	err = f.repo.Push(f.ctx, "nowhere", targetPath, false)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestRegistryReadOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	root := f.newRemote("remote", map[string]map[string]string{"docs": {"a.md": "a"}})

	remote, err := OpenRegistry(f.ctx, root, RegistryName("remote"), ReadOnly(true), WithGit(f.git))
	require.NoError(t, err)
	assert.True(t, remote.ReadOnly())

	dir := filepath.Join(f.src, "x")
	writeTree(t, dir, map[string]string{"x.md": "x"})
	checks := map[string]error{}
	_, checks["add"] = remote.Add(f.ctx, "x", model.LocalSource(dir))
	_, checks["update"] = remote.Update(f.ctx, "docs")
	checks["remove"] = remote.Remove(f.ctx, "docs", true)
	_, checks["bundle"] = remote.BundleCreate(f.ctx, "b", nil)
	checks["tag"] = remote.Tag(f.ctx, "v1", "")
	checks["push"] = f.repo.Local().Push(f.ctx, "docs", remote, true)
	for op, err := range checks {
		require.Errorf(t, err, op)
		assert.Truef(t, errors.Is(err, status.ErrReadOnly), "%s: %v", op, err)
	}

	// reads are allowed
	files, err := remote.Files(f.ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, files)
}

func TestRegistryBundles(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	local := f.repo.Local()
	f.addDir("docs", map[string]string{"a.md": "a"})

	b, err := local.BundleCreate(f.ctx, "stack", []string{"docs", "not-yet"},
		model.BundleDescription("a stack"), model.BundleTags([]string{"web"}))
	require.NoError(t, err, "members need not exist yet")
	assert.Equal(t, []string{"docs", "not-yet"}, b.References)

	_, err = local.BundleCreate(f.ctx, "stack", nil)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))
	_, err = local.BundleCreate(f.ctx, "docs", nil)
	assert.True(t, errors.Is(err, status.ErrAlreadyExists), "bundles and references share names")
	_, err = local.Add(f.ctx, "stack", model.LocalSource(f.sourceDir("docs")))
	assert.True(t, errors.Is(err, status.ErrAlreadyExists), "references and bundles share names")
	_, err = local.BundleCreate(f.ctx, "bad name", nil)
	assert.True(t, errors.Is(err, status.ErrInvalidName))

	b, err = local.BundleUpdate(f.ctx, "stack",
		AddBundleMembers("extra"), RemoveBundleMembers("not-yet"), SetBundleDescription("updated"))
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "extra"}, b.References)
	assert.Equal(t, "updated", b.Description)

	_, err = local.BundleUpdate(f.ctx, "stack", AddBundleMembers("../x"))
	assert.True(t, errors.Is(err, status.ErrInvalidName))
	_, err = local.BundleUpdate(f.ctx, "nowhere")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	assert.Len(t, local.Bundles(""), 1)
	assert.Len(t, local.Bundles("web"), 1)
	assert.Empty(t, local.Bundles("other"))

	resolved, err := f.repo.Resolve("stack")
	require.NoError(t, err)
	assert.True(t, resolved.IsBundle())
	assert.Equal(t, []string{"docs", "extra"}, resolved.Bundle.References)

	require.NoError(t, local.BundleRemove(f.ctx, "stack"))
	assert.True(t, errors.Is(local.BundleRemove(f.ctx, "stack"), status.ErrNotFound))
	_, err = local.Get("docs")
	assert.NoError(t, err, "members outlive their bundle")
}

func TestRegistryReadFile(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.addDir("docs", map[string]string{"a.md": "a", "sub/b.md": "b"})
	local := f.repo.Local()

	content, err := local.ReadFile(f.ctx, "docs", "sub/b.md")
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))

	for _, p := range []string{"../index.yaml", "../../x", "/etc/passwd", "."} {
		_, err = local.ReadFile(f.ctx, "docs", p)
		assert.Truef(t, errors.Is(err, status.ErrInvalidPath), "%s: %v", p, err)
	}
	_, err = local.ReadFile(f.ctx, "docs", "nope.md")
	assert.True(t, errors.Is(err, status.ErrNotFound))
	_, err = local.ReadFile(f.ctx, "nowhere", "a.md")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestRegistryHistoryAndTags(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	local := f.repo.Local()
	f.addDir("docs", map[string]string{"a.md": "a"})
	f.addDir("other", map[string]string{"b.md": "b"})
	require.NoError(t, local.Tag(f.ctx, "v1", "first release"))
	require.NoError(t, local.Tag(f.ctx, "snapshot", ""))

	writeFile(t, f.sourceDir("docs"), "a.md", "a2")
	_, err := local.Update(f.ctx, "docs")
	require.NoError(t, err)

	history, err := f.repo.Versions(f.ctx, "docs")
	require.NoError(t, err)
	messages := make([]string, 0, len(history))
	for _, c := range history {
		messages = append(messages, c.Message)
	}
	assert.Equal(t, []string{"Update reference: docs", "Add reference: docs"}, messages)

	tags, err := local.Tags(f.ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "snapshot"}, tags)
	err = local.Tag(f.ctx, "v1", "")
	assert.True(t, errors.Is(err, status.ErrAlreadyExists))

	_, err = f.repo.Versions(f.ctx, "nowhere")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func TestRegistryDefaultBranch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	upstream := filepath.Join(t.TempDir(), "upstream")
	g := vcs.New(vcs.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, g.Init(ctx, upstream))
	writeTree(t, upstream, map[string]string{"main.md": "on the default branch"})
	_, err := g.Commit(ctx, upstream, "main")
	require.NoError(t, err)
	gitOutput(t, upstream, "checkout", "-q", "-b", "feature")
	writeTree(t, upstream, map[string]string{"feature.md": "on a feature branch"})
	_, err = g.Commit(ctx, upstream, "feature")
	require.NoError(t, err)

	cfg := model.DefaultConfig()
	cfg.DefaultBranch = "feature"
	repo, err := OpenRepository(ctx, filepath.Join(t.TempDir(), "data"), WithGit(g), WithConfig(cfg))
	require.NoError(t, err)

	ref, err := repo.Local().Add(ctx, "up", model.GitSource("file://"+upstream, "", ""))
	require.NoError(t, err)
	assert.Equal(t, "feature", ref.Source.Ref)
	files, err := repo.Local().Files(ctx, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"feature.md", "main.md"}, files)
}

func TestRegistryInitIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	root := filepath.Join(t.TempDir(), rand.Name("registry"))

	first, err := InitRegistry(f.ctx, root, WithGit(f.git))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), first.Name())
	head, err := f.git.HeadRevision(f.ctx, root)
	require.NoError(t, err)

	_, err = InitRegistry(f.ctx, root, WithGit(f.git))
	require.NoError(t, err)
	again, err := f.git.HeadRevision(f.ctx, root)
	require.NoError(t, err)
	assert.Equal(t, head, again)
	assert.FileExists(t, filepath.Join(root, model.IndexFile))

	_, err = OpenRegistry(f.ctx, t.TempDir(), WithGit(f.git))
	assert.True(t, errors.Is(err, status.ErrNotFound), "a directory without index is not a registry")
}
