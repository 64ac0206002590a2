package wire

import (
	"testing"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAndCheck(t *testing.T, buf []byte, at int, want ...string) {
	t.Helper()
	var n domain.Name
	_, err := DecodeName(buf, at, &n)
	require.NoError(t, err)
	require.Equal(t, len(want), n.Labels)
	for i, w := range want {
		assert.Equal(t, w, string(n.LabelSpan(i)[1:]))
	}
}

func TestDictionary_CompressesRepeatAndSuffix(t *testing.T) {
	buf := make([]byte, 512)
	d := newDictionary()

	first := buildName("Office", "_ipp", "_tcp", "local")
	pos := dnsHeaderSize
	end1, err := d.encodeName(buf, pos, &first)
	require.NoError(t, err)
	firstLen := end1 - pos
	decodeAndCheck(t, buf, pos, "Office", "_ipp", "_tcp", "local")

	// An identical name should now collapse to a single 2-byte pointer.
	dup := buildName("Office", "_ipp", "_tcp", "local")
	pos2 := end1
	end2, err := d.encodeName(buf, pos2, &dup)
	require.NoError(t, err)
	assert.Equal(t, 2, end2-pos2, "fully duplicate name should encode as a bare pointer")
	decodeAndCheck(t, buf, pos2, "Office", "_ipp", "_tcp", "local")

	// A name sharing only the "_tcp.local" suffix should be shorter than
	// the first (uncompressed) encoding but longer than the pure pointer.
	suffixShared := buildName("Printer", "_lpr", "_tcp", "local")
	pos3 := end2
	end3, err := d.encodeName(buf, pos3, &suffixShared)
	require.NoError(t, err)
	sharedLen := end3 - pos3
	assert.Less(t, sharedLen, firstLen)
	assert.Greater(t, sharedLen, 2)
	decodeAndCheck(t, buf, pos3, "Printer", "_lpr", "_tcp", "local")
}

func TestDictionary_RootOnlyName(t *testing.T) {
	buf := make([]byte, 16)
	d := newDictionary()
	var empty domain.Name
	next, err := d.encodeName(buf, 0, &empty)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.Equal(t, byte(0), buf[0])
}

func TestDictionary_ResetClearsLearnedPointers(t *testing.T) {
	buf := make([]byte, 512)
	d := newDictionary()

	n := buildName("Office", "_ipp", "_tcp", "local")
	end1, err := d.encodeName(buf, dnsHeaderSize, &n)
	require.NoError(t, err)
	firstLen := end1 - dnsHeaderSize

	d.Reset()
	n2 := buildName("Office", "_ipp", "_tcp", "local")
	end2, err := d.encodeName(buf, dnsHeaderSize, &n2)
	require.NoError(t, err)
	assert.Equal(t, firstLen, end2-dnsHeaderSize, "a reset dictionary must not remember pointers from a previous packet")
}

func TestDictionary_ManyChildrenTriggersBloomAccel(t *testing.T) {
	buf := make([]byte, 4096)
	d := newDictionary()
	pos := dnsHeaderSize
	for i := 0; i < childBloomThreshold+4; i++ {
		n := buildName(string(rune('a'+i)), "_tcp", "local")
		var err error
		pos, err = d.encodeName(buf, pos, &n)
		require.NoError(t, err)
	}
	localIdx := d.findRootChild([]byte{5, 'l', 'o', 'c', 'a', 'l'})
	require.NotEqual(t, -1, localIdx)
	tcpIdx := d.findChildOf(localIdx, []byte{4, '_', 't', 'c', 'p'})
	require.NotEqual(t, -1, tcpIdx)
	assert.NotNil(t, d.entries[tcpIdx].accel)
}
