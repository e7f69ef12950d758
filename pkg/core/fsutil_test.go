package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/refstore/internal/rand"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureLines(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), ".gitignore")

	require.NoError(t, ensureLines(file, "a/", "b/"))
	require.NoError(t, ensureLines(file, "b/", "c/"))
	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "a/\nb/\nc/\n", string(content))

	require.NoError(t, os.WriteFile(file, []byte("kept"), 0o600))
	require.NoError(t, ensureLines(file, "kept", "d/"))
	content, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "kept\nd/\n", string(content))
}

func TestIsBinary(t *testing.T) {
	t.Parallel()
	assert.False(t, isBinary(nil))
	assert.False(t, isBinary(rand.Text(20)))
	assert.True(t, isBinary(rand.Binary(32)))

	late := append([]byte(rand.LetterString(9*1024)), 0)
	assert.False(t, isBinary(late), "only the first 8KiB are sniffed")
}

func TestTreeSize(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "tree")
	count, size, err := treeSize(root)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, size)

	writeTree(t, root, map[string]string{"a": "12", "b/c": "345", ".git/config": "ignored"})
	count, size, err = treeSize(root)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.EqualValues(t, 5, size)
}

func TestClaimsAny(t *testing.T) {
	t.Parallel()
	for _, toPin := range []struct {
		Dir          string
		Destinations []string
		Expected     bool
	}{
		{Dir: "docs", Destinations: []string{"docs"}, Expected: true},
		{Dir: "vendor", Destinations: []string{"vendor/lib"}, Expected: true},
		{Dir: "vendor/lib", Destinations: []string{"vendor"}, Expected: false},
		{Dir: "doc", Destinations: []string{"docs"}, Expected: false},
		{Dir: "docs", Destinations: nil, Expected: false},
	} {
		tc := toPin
		assert.Equalf(t, tc.Expected, claimsAny(tc.Dir, tc.Destinations), "%s in %v", tc.Dir, tc.Destinations)
	}
}
