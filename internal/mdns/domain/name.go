package domain

// MaxLabels and MaxNameLength bound a decoded name: a total label
// count of 128 and a total encoded length of 256 bytes including the
// zero-length terminator.
const (
	MaxLabels     = 128
	MaxNameLength = 256
)

// Name is the canonical in-memory form of a parsed wire name: a
// contiguous, uncompressed label sequence terminated by a zero-length
// byte, along with a per-label offset table for top-down label access.
//
// Bytes holds the wire-form encoding (length-prefixed labels + terminator).
// Offsets[i] is the byte offset of the start of label i in Bytes.
type Name struct {
	Bytes   [MaxNameLength]byte
	Len     int
	Offsets [MaxLabels]int
	Labels  int
}

// Reset clears the name for reuse.
func (n *Name) Reset() {
	n.Len = 0
	n.Labels = 0
}

// Wire returns the valid encoded prefix of the name.
func (n *Name) Wire() []byte {
	return n.Bytes[:n.Len]
}

// LabelSpan returns the length-prefixed bytes of label i (its length
// byte plus its content), as they appear in Bytes.
func (n *Name) LabelSpan(i int) []byte {
	start := n.Offsets[i]
	return n.Bytes[start : start+1+int(n.Bytes[start])]
}

// EndOffset returns the byte offset one past the end of label i within
// Bytes (the offset at which label i+1, or the terminator, begins).
func (n *Name) EndOffset(i int) int {
	start := n.Offsets[i]
	return start + 1 + int(n.Bytes[start])
}

// CopyFrom overwrites n with the contents of other. Used when a decoded
// name must outlive the scratch slot it was decoded into (e.g. an RDATA
// name captured for later re-encoding).
func (n *Name) CopyFrom(other *Name) {
	n.Len = other.Len
	n.Labels = other.Labels
	copy(n.Bytes[:n.Len], other.Bytes[:other.Len])
	copy(n.Offsets[:n.Labels], other.Offsets[:other.Labels])
}
