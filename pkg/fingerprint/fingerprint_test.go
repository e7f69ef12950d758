package fingerprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderMatchesBytes(t *testing.T) {
	t.Parallel()

	content := bytes.Repeat([]byte("refstore"), 10000)
	d, err := Reader(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, Bytes(content), d)
	assert.Len(t, d, 2*DefaultSize)

	assert.NotEqual(t, Bytes([]byte("a")), Bytes([]byte("b")))
}

func TestSize(t *testing.T) {
	t.Parallel()

	assert.Len(t, New(Size(64)).Bytes([]byte("x")), 128)
	assert.Len(t, New(Size(0)).Bytes([]byte("x")), 2*DefaultSize)
	assert.Len(t, New(Size(99)).Bytes([]byte("x")), 2*DefaultSize)

	d, err := New(BufferSize(3)).Reader(strings.NewReader("abcdefgh"))
	require.NoError(t, err)
	assert.Equal(t, Bytes([]byte("abcdefgh")), d)
}

func TestTree(t *testing.T) {
	t.Parallel()

	a := map[string]string{"a.md": Bytes([]byte("a")), "docs/b.md": Bytes([]byte("b"))}
	b := map[string]string{"docs/b.md": Bytes([]byte("b")), "a.md": Bytes([]byte("a"))}
	assert.Equal(t, Tree(a), Tree(b))

	renamed := map[string]string{"c.md": Bytes([]byte("a")), "docs/b.md": Bytes([]byte("b"))}
	assert.NotEqual(t, Tree(a), Tree(renamed))
	assert.NotEqual(t, Tree(a), Tree(map[string]string{}))
}
