package wire

import (
	"errors"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
)

const dnsHeaderSize = 12

var (
	errNameOffsetOOB  = errors.New("wire: name offset out of bounds")
	errBadPointer     = errors.New("wire: compression pointer out of bounds or non-backward")
	errBadLabelLength = errors.New("wire: label length byte invalid")
	errLabelOverrun   = errors.New("wire: label runs past end of packet")
	errNameTooLong    = errors.New("wire: decoded name exceeds 256 bytes")
	errTooManyLabels  = errors.New("wire: decoded name exceeds 128 labels")
	errTooManyJumps   = errors.New("wire: compression pointer chain too long")
	errBufferFull     = errors.New("wire: outbound buffer exhausted")
)

// DecodeName decodes the name starting at offset in buf into out,
// following compression pointers as needed. It returns the offset
// immediately following the name as it appears at the call site: the
// byte after the terminating zero if the name was written literally,
// or the byte after the first two-byte pointer if the name was fully
// or partially compressed at its starting offset. Compression chains
// are followed to reconstruct the labels, but every pointer must
// target strictly less than its own byte offset and no lower than the
// header, which makes the chain a strictly decreasing sequence and
// rules out both forward references and cycles.
func DecodeName(buf []byte, offset int, out *domain.Name) (int, error) {
	out.Reset()
	pos := offset
	next := -1
	jumps := 0
	for {
		if pos >= len(buf) {
			return 0, errNameOffsetOOB
		}
		b := buf[pos]
		switch {
		case b&0xC0 == 0xC0:
			if pos+2 > len(buf) {
				return 0, errNameOffsetOOB
			}
			target := (int(b&0x3F) << 8) | int(buf[pos+1])
			if target < dnsHeaderSize || target >= pos {
				return 0, errBadPointer
			}
			if next == -1 {
				next = pos + 2
			}
			jumps++
			if jumps > domain.MaxLabels {
				return 0, errTooManyJumps
			}
			pos = target
		case b == 0:
			if out.Len+1 > domain.MaxNameLength {
				return 0, errNameTooLong
			}
			out.Bytes[out.Len] = 0
			out.Len++
			pos++
			if next == -1 {
				next = pos
			}
			return next, nil
		case b&0xC0 != 0:
			return 0, errBadLabelLength
		default:
			labelLen := int(b)
			if pos+1+labelLen > len(buf) {
				return 0, errLabelOverrun
			}
			if out.Labels+1 > domain.MaxLabels {
				return 0, errTooManyLabels
			}
			if out.Len+1+labelLen+1 > domain.MaxNameLength {
				return 0, errNameTooLong
			}
			out.Offsets[out.Labels] = out.Len
			out.Bytes[out.Len] = b
			copy(out.Bytes[out.Len+1:out.Len+1+labelLen], buf[pos+1:pos+1+labelLen])
			out.Len += 1 + labelLen
			out.Labels++
			pos += 1 + labelLen
		}
	}
}

// encodeName writes name into dst at offset with compression against d,
// returning the offset immediately following the encoded name.
//
// The walk starts from the label closest to the root and moves toward
// the most specific label, looking each one up (or inserting it) as a
// child of the previous match. As long as a matched label already
// carries a pointer recorded earlier in this same packet, the walk
// keeps going deeper hoping for a longer match; the moment it reaches
// the innermost label with a still-valid match, the whole name is a
// duplicate of one already on the wire and collapses to a single
// two-byte pointer. The moment a label is new, or matched but not yet
// written anywhere in this packet, matching stops: everything from
// that label inward is copied into the packet verbatim in one shot,
// every label copied is stamped with the wire offset it now lives at,
// and the name is closed with a pointer back to the last label that
// really was already on the wire (or a bare terminator if there was
// no such ancestor).
func (d *dictionary) encodeName(dst []byte, offset int, name *domain.Name) (int, error) {
	if name.Labels == 0 {
		if offset+1 > len(dst) {
			return 0, errBufferFull
		}
		dst[offset] = 0
		return offset + 1, nil
	}

	const rootIdx = -1
	parent := rootIdx
	remaining := name.Labels
	nameIdx := 0
	child := -1

	for remaining > 0 {
		remaining--
		nameIdx = remaining
		label := name.LabelSpan(nameIdx)

		child = d.lookupOrAdd(parent, label)

		if d.pointer(child) == 0 {
			break
		}
		if remaining == 0 {
			p := d.pointer(child)
			if offset+2 > len(dst) {
				return 0, errBufferFull
			}
			dst[offset] = byte(p >> 8)
			dst[offset+1] = byte(p)
			return offset + 2, nil
		}
		parent = child
	}

	ancestor := parent

	copyLen := name.EndOffset(nameIdx)
	if offset+copyLen > len(dst) {
		return 0, errBufferFull
	}
	copy(dst[offset:offset+copyLen], name.Bytes[:copyLen])
	d.setPointer(child, offset+name.Offsets[nameIdx])

	for remaining > 0 {
		remaining--
		parent = child
		nameIdx = remaining
		label := name.LabelSpan(nameIdx)
		child = d.lookupOrAdd(parent, label)
		d.setPointer(child, offset+name.Offsets[nameIdx])
	}

	offset += copyLen
	ancestorPointer := d.ancestorPointer(ancestor)
	if ancestorPointer != 0 {
		if offset+2 > len(dst) {
			return 0, errBufferFull
		}
		dst[offset] = byte(ancestorPointer >> 8)
		dst[offset+1] = byte(ancestorPointer)
		offset += 2
	} else {
		if offset+1 > len(dst) {
			return 0, errBufferFull
		}
		dst[offset] = 0
		offset++
	}
	return offset, nil
}

// lookupOrAdd finds label under parent (root when parent is -1),
// inserting it as a new child if it isn't already there.
func (d *dictionary) lookupOrAdd(parent int, label []byte) int {
	if parent == -1 {
		if idx := d.findRootChild(label); idx != -1 {
			return idx
		}
		return d.addRootChild(label)
	}
	if idx := d.findChildOf(parent, label); idx != -1 {
		return idx
	}
	return d.addChild(parent, label)
}

// ancestorPointer returns idx's recorded pointer, treating the virtual
// root (-1) as always unset.
func (d *dictionary) ancestorPointer(idx int) uint16 {
	if idx == -1 {
		return 0
	}
	return d.pointer(idx)
}
