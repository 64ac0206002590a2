package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InternsEqualLists(t *testing.T) {
	reg := NewRegistry()
	a, err := New(Allow, []string{"_tcp"})
	require.NoError(t, err)
	b, err := New(Allow, []string{"_tcp"})
	require.NoError(t, err)

	ia := reg.Intern(a)
	ib := reg.Intern(b)
	assert.Same(t, ia, ib, "two content-equal lists must intern to the same pointer")
}

func TestRegistry_InternNilIsNil(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, reg.Intern(nil))
}

func TestRegistry_DistinctListsStayDistinct(t *testing.T) {
	reg := NewRegistry()
	a, _ := New(Allow, []string{"_tcp"})
	b, _ := New(Deny, []string{"_tcp"})
	ia := reg.Intern(a)
	ib := reg.Intern(b)
	assert.NotSame(t, ia, ib)
}

func TestElideIfEqual(t *testing.T) {
	global, _ := New(Allow, []string{"_tcp"})
	dup, _ := New(Allow, []string{"_tcp"})
	distinct, _ := New(Deny, []string{"_udp"})

	assert.Nil(t, ElideIfEqual(global, dup))
	assert.Same(t, distinct, ElideIfEqual(global, distinct))
	assert.Nil(t, ElideIfEqual(global, nil))
}
