package wire

import (
	"testing"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeName_Uncompressed(t *testing.T) {
	buf := make([]byte, 64)
	end := appendRawName(buf, dnsHeaderSize, "_ipp", "_tcp", "local")

	var n domain.Name
	next, err := DecodeName(buf, dnsHeaderSize, &n)
	require.NoError(t, err)
	assert.Equal(t, end, next)
	assert.Equal(t, 3, n.Labels)
	assert.Equal(t, "_ipp", string(n.LabelSpan(0)[1:]))
	assert.Equal(t, "_tcp", string(n.LabelSpan(1)[1:]))
	assert.Equal(t, "local", string(n.LabelSpan(2)[1:]))
}

func TestDecodeName_FollowsPointerAndStopsAtOwnOffset(t *testing.T) {
	buf := make([]byte, 64)
	tailStart := dnsHeaderSize
	tailEnd := appendRawName(buf, tailStart, "_tcp", "local")

	// A second name at tailEnd: "Office" followed by a pointer back to tailStart.
	pos := tailEnd
	buf[pos] = 6
	copy(buf[pos+1:], "Office")
	pos += 7
	putUint16(buf, pos, pointerFlag|uint16(tailStart))
	nextExpected := pos + 2

	var n domain.Name
	next, err := DecodeName(buf, tailEnd, &n)
	require.NoError(t, err)
	assert.Equal(t, nextExpected, next)
	require.Equal(t, 3, n.Labels)
	assert.Equal(t, "Office", string(n.LabelSpan(0)[1:]))
	assert.Equal(t, "_tcp", string(n.LabelSpan(1)[1:]))
	assert.Equal(t, "local", string(n.LabelSpan(2)[1:]))
}

func TestDecodeName_RejectsForwardPointer(t *testing.T) {
	buf := make([]byte, 32)
	// A pointer at the header boundary targeting something ahead of itself.
	putUint16(buf, dnsHeaderSize, pointerFlag|uint16(dnsHeaderSize+10))
	var n domain.Name
	_, err := DecodeName(buf, dnsHeaderSize, &n)
	assert.ErrorIs(t, err, errBadPointer)
}

func TestDecodeName_RejectsPointerIntoHeader(t *testing.T) {
	buf := make([]byte, 32)
	putUint16(buf, dnsHeaderSize, pointerFlag|5)
	var n domain.Name
	_, err := DecodeName(buf, dnsHeaderSize, &n)
	assert.ErrorIs(t, err, errBadPointer)
}

func TestDecodeName_RejectsCycle(t *testing.T) {
	buf := make([]byte, 32)
	// A pointer that targets its own offset, the shortest possible cycle;
	// it is not a strictly backward jump, so the first hop must fail.
	putUint16(buf, dnsHeaderSize, pointerFlag|uint16(dnsHeaderSize))
	var n domain.Name
	_, err := DecodeName(buf, dnsHeaderSize, &n)
	assert.ErrorIs(t, err, errBadPointer)
}

func TestDecodeName_RejectsOverrun(t *testing.T) {
	buf := make([]byte, dnsHeaderSize+2)
	buf[dnsHeaderSize] = 10 // claims a 10-byte label with no room for it
	var n domain.Name
	_, err := DecodeName(buf, dnsHeaderSize, &n)
	assert.ErrorIs(t, err, errLabelOverrun)
}
