package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EncodesLengthPrefixedLabels(t *testing.T) {
	mn, err := Parse("_ipp._tcp")
	require.NoError(t, err)
	assert.Equal(t, []byte{4, '_', 'i', 'p', 'p', 4, '_', 't', 'c', 'p'}, mn.Bytes())
}

func TestParse_TrimsLeadingAndTrailingDots(t *testing.T) {
	mn, err := Parse(".local.")
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 'l', 'o', 'c', 'a', 'l'}, mn.Bytes())
}

func TestParse_RejectsEmptyLabel(t *testing.T) {
	_, err := Parse("_ipp..local")
	assert.Error(t, err)
}

func TestParse_RejectsOverlongLabel(t *testing.T) {
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	_, err := Parse(string(long))
	assert.Error(t, err)
}

func TestParse_RejectsEmptyFragment(t *testing.T) {
	_, err := Parse("...")
	assert.Error(t, err)
}

func TestMatchName_ContainsIn(t *testing.T) {
	mn, err := Parse("_tcp.local")
	require.NoError(t, err)

	name := []byte{6, 'O', 'f', 'f', 'i', 'c', 'e', 4, '_', 'i', 'p', 'p', 4, '_', 't', 'c', 'p', 5, 'l', 'o', 'c', 'a', 'l', 0}
	assert.True(t, mn.ContainsIn(name))

	other, err := Parse("_udp.local")
	require.NoError(t, err)
	assert.False(t, other.ContainsIn(name))
}

func TestMatchName_EqualAndLess(t *testing.T) {
	a, _ := Parse("aaa")
	b, _ := Parse("bbb")
	aAgain, _ := Parse("aaa")
	assert.True(t, a.Equal(aAgain))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
}
