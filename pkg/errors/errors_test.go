package errors

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestDerivedKeepsSentinel(t *testing.T) {
	t.Parallel()

	sentinel := New("not found")
	cause := stderr.New("no such file")

	derived := sentinel.For("reference", "docs").Wrap(cause)

	assert.True(t, Is(derived, sentinel))
	assert.True(t, Is(derived, cause))
	assert.Equal(t, `reference "docs": not found: no such file`, derived.Error())
	assert.Equal(t, "not found", sentinel.Error(), "sentinel must not be mutated")
	assert.Nil(t, sentinel.Unwrap())
	assert.Same(t, sentinel, derived.Kind())
}

func TestDistinctKinds(t *testing.T) {
	t.Parallel()

	a := New("a")
	b := New("b")

	assert.False(t, Is(a.Wrap(b), New("b")))
	assert.True(t, Is(a.Wrap(b), b))
	assert.False(t, Is(a.For("bundle", "x"), b))
}

func TestAs(t *testing.T) {
	t.Parallel()

	sentinel := New("resolution failed")
	err := fmt.Errorf("sync: %w", sentinel.Wrapf("%d entries", 2))

	var target *Error
	require.True(t, As(err, &target))
	assert.Same(t, sentinel, target.Kind())
	assert.Equal(t, "resolution failed: 2 entries", target.Error())
	assert.EqualError(t, Unwrap(target), "2 entries")
}
