package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleMembers(t *testing.T) {
	t.Parallel()

	b := NewBundle("stack", []string{"zeta", "alpha", "alpha", ""},
		BundleDescription("a stack"),
		BundleTags([]string{"rust", " rust", "go"}),
	)
	assert.Equal(t, []string{"alpha", "zeta"}, b.References)
	assert.Equal(t, []string{"go", "rust"}, b.Tags)
	assert.Equal(t, "a stack", b.Description)
	assert.True(t, b.HasMember("zeta"))
	assert.False(t, b.HasMember("beta"))
	assert.True(t, b.HasTag("RUST"))

	b.AddMembers("beta", "zeta")
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, b.References)

	b.RemoveMembers("alpha", "missing")
	assert.Equal(t, []string{"beta", "zeta"}, b.References)
}

func TestIndexNamespaces(t *testing.T) {
	t.Parallel()

	x := NewIndex()
	x.References["b"] = NewReference("b", KindFile, LocalSource("/tmp/b"))
	x.References["a"] = NewReference("a", KindDirectory, LocalSource("/tmp/a"))
	x.Bundles["s"] = NewBundle("s", []string{"a"})

	assert.True(t, x.Has("a"))
	assert.True(t, x.Has("s"))
	assert.False(t, x.Has("c"))
	assert.Equal(t, []string{"a", "b"}, x.ReferenceNames())
	assert.Equal(t, []string{"s"}, x.BundleNames())

	c := x.Clone()
	bundle := c.Bundles["s"]
	bundle.AddMembers("b")
	c.Bundles["s"] = bundle
	assert.Equal(t, []string{"a"}, x.Bundles["s"].References, "clone must not share member slices")

	sparse := &Index{}
	sparse.Normalize()
	assert.Equal(t, IndexVersion, sparse.Version)
	assert.NotNil(t, sparse.References)
	assert.NotNil(t, sparse.Bundles)
}

func TestManifestBundles(t *testing.T) {
	t.Parallel()

	m := NewManifest(true)
	m.AddBundle("web", Filter{})
	m.AddBundle("cli", Filter{Include: []string{"*.md"}})
	m.AddBundle("web", Filter{})

	assert.Equal(t, []string{"cli", "web"}, m.Bundles)
	assert.Equal(t, []string{"*.md"}, m.BundleFilter("cli").Include)
	assert.True(t, m.BundleFilter("web").IsEmpty())

	assert.True(t, m.RemoveBundle("cli"))
	assert.False(t, m.RemoveBundle("cli"))
	assert.Nil(t, m.BundleFilters)
	assert.Equal(t, []string{"web"}, m.Bundles)
	assert.False(t, m.IsEmpty())
}

func TestManifestQueriesOnCopies(t *testing.T) {
	t.Parallel()

	current := func() Manifest {
		m := NewManifest(false)
		m.AddBundle("web", Filter{Include: []string{"*.md"}})
		m.References["docs"] = ManifestEntry{Version: "v1"}
		return *m
	}

	assert.False(t, current().IsEmpty())
	assert.True(t, current().HasBundle("web"))
	assert.False(t, current().HasBundle("docs"))
	assert.Equal(t, []string{"*.md"}, current().BundleFilter("web").Include)
	assert.Equal(t, []string{"docs"}, current().ReferenceNames())
	assert.True(t, Manifest{}.IsEmpty())
	assert.True(t, Manifest{}.BundleFilter("web").IsEmpty())
}

func TestManifestEntryDestination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "docs", ManifestEntry{}.Destination("docs"))
	assert.Equal(t, "vendor/docs", ManifestEntry{Path: "vendor//docs/"}.Destination("docs"))

	assert.True(t, ValidDestination(""))
	assert.True(t, ValidDestination("a/b"))
	assert.False(t, ValidDestination("../escape"))
	assert.False(t, ValidDestination("/abs"))
	assert.False(t, ValidDestination("."))
	assert.False(t, ValidDestination("a/../.."))
	assert.False(t, ValidDestination(".put-stage"))
	assert.False(t, ValidDestination("./.put-stage/docs"))
	assert.True(t, ValidDestination("docs/.put-stage"))
	assert.True(t, ValidDestination(".hidden/docs"))
}

func TestParseReferenceKind(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]ReferenceKind{
		"file":      KindFile,
		"dir":       KindDirectory,
		"Directory": KindDirectory,
		"git":       KindGitRepo,
		"git_repo":  KindGitRepo,
	} {
		got, err := ParseReferenceKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseReferenceKind("tarball")
	assert.Error(t, err)
}

func TestSourceString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/tmp/x", LocalSource("/tmp/x").String())
	assert.Equal(t, "https://example.com/r.git (ref: main) [docs]",
		GitSource("https://example.com/r.git", "main", "docs").String())
}
