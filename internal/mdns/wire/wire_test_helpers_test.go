package wire

import "github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"

// buildName constructs a domain.Name from labels given most-specific
// first, e.g. buildName("Office", "_ipp", "_tcp", "local").
func buildName(labels ...string) domain.Name {
	var n domain.Name
	off := 0
	for i, l := range labels {
		n.Offsets[i] = off
		n.Bytes[off] = byte(len(l))
		copy(n.Bytes[off+1:], l)
		off += 1 + len(l)
	}
	n.Bytes[off] = 0
	n.Len = off + 1
	n.Labels = len(labels)
	return n
}

// appendRawName writes labels (most-specific first) verbatim, no
// compression, and returns the buffer position after the terminator.
func appendRawName(buf []byte, pos int, labels ...string) int {
	for _, l := range labels {
		buf[pos] = byte(len(l))
		copy(buf[pos+1:], l)
		pos += 1 + len(l)
	}
	buf[pos] = 0
	return pos + 1
}

func putUint16(buf []byte, off int, v uint16) {
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
}

func putUint32(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
}
