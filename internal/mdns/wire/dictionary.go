package wire

import "bytes"

// pointerFlag marks the top two bits of a compression pointer, per
// RFC 1035 §4.1.4.
const pointerFlag = 0xC000

// seedLocal and seedTCP are the fixed logical seed every outbound packet's
// dictionary starts from: "local" as a child of root, and "_tcp" as a
// child of "local". Neither carries an emitted-pointer value until
// this packet actually writes it somewhere. Label bytes are stored
// length-prefixed, the same form domain.Name.LabelSpan returns, so
// they compare directly against a name being encoded.
var seedLocal = []byte("\x05local")
var seedTCP = []byte("\x04_tcp")

// dictEntry is one arena slot: the label bytes it represents, the
// contiguous arena range holding its own children, and the
// wire-ready back-pointer value once this label has been written into
// the current outbound packet.
type dictEntry struct {
	label      []byte
	childFirst int
	childCount int
	childCap   int
	pointer    uint16
	accel      *childAccel
}

// dictionary is the per-packet name-compression dictionary: an arena
// of dictEntry plus a virtual root kept outside the arena, whose
// children range inside the arena is tracked by rootFirst/rootCount/rootCap.
type dictionary struct {
	entries []dictEntry
	n       int

	rootFirst int
	rootCount int
	rootCap   int
	rootAccel *childAccel
}

const seedArenaMultiplier = 16
const seedEntryCount = 2

// newDictionary allocates a dictionary sized at 16x the seed and resets
// it to the initial seed state. The backing arena's length always
// equals its capacity: growth (ensureCapacity) reallocates and copies
// rather than reslicing, so an index computed anywhere in this package
// is always safe to use once returned.
func newDictionary() *dictionary {
	d := &dictionary{entries: make([]dictEntry, seedEntryCount*seedArenaMultiplier)}
	d.Reset()
	return d
}

// Reset restores the dictionary to exactly the logical seed
// (root→local→_tcp, no emitted pointers) without shrinking the
// underlying arena.
func (d *dictionary) Reset() {
	if len(d.entries) < seedEntryCount*seedArenaMultiplier {
		d.entries = make([]dictEntry, seedEntryCount*seedArenaMultiplier)
	} else {
		for i := range d.entries {
			d.entries[i] = dictEntry{}
		}
	}
	d.entries[0] = dictEntry{label: seedTCP, childFirst: -1, childCount: 0, childCap: 0}
	d.entries[1] = dictEntry{label: seedLocal, childFirst: 0, childCount: 1, childCap: 1}
	d.n = seedEntryCount
	d.rootFirst = 1
	d.rootCount = 1
	d.rootCap = 1
	d.rootAccel = nil
}

// ensureCapacity grows the backing arena (multiplicatively) so that at
// least want entries are addressable, without disturbing existing
// indices: growth always extends the array, never shifts it.
func (d *dictionary) ensureCapacity(want int) {
	if len(d.entries) >= want {
		return
	}
	newLen := len(d.entries)
	if newLen == 0 {
		newLen = seedEntryCount * seedArenaMultiplier
	}
	for newLen < want {
		newLen *= 2
	}
	grown := make([]dictEntry, newLen)
	copy(grown, d.entries)
	d.entries = grown
}

// findChild scans [first, first+count) for label, consulting accel as a
// negative pre-check first. Returns the arena index, or -1.
func (d *dictionary) findChild(first, count int, accel *childAccel, label []byte) int {
	if count == 0 {
		return -1
	}
	if !accel.mightContain(label) {
		return -1
	}
	for i := first; i < first+count; i++ {
		if bytes.Equal(d.entries[i].label, label) {
			return i
		}
	}
	return -1
}

// relocate moves a range of `count` existing children to a fresh,
// larger range at the end of the arena, growing the arena first so no
// index computed here goes stale mid-move. Returns the new first index
// and new capacity.
func (d *dictionary) relocate(oldFirst, count, oldCap int) (newFirst, newCap int) {
	newCap = oldCap * 2
	if newCap == 0 {
		newCap = 2
	}
	d.ensureCapacity(d.n + newCap)
	newFirst = d.n
	// count is 0 the first time a previously childless node grows its
	// range; oldFirst is still the -1 sentinel then, so skip the copy
	// rather than slice with a negative index.
	if count > 0 {
		copy(d.entries[newFirst:newFirst+count], d.entries[oldFirst:oldFirst+count])
	}
	// Reserve the whole padded range, not just the moved count, so the
	// next relocation elsewhere in the arena never allocates into this
	// node's still-empty growth slots.
	d.n = newFirst + newCap
	for i := newFirst + count; i < newFirst+newCap; i++ {
		d.entries[i] = dictEntry{}
	}
	return newFirst, newCap
}

// addRootChild inserts label as a new child of root and returns its
// arena index. Caller must have already established via findChild that
// no equal child exists.
func (d *dictionary) addRootChild(label []byte) int {
	if d.rootCount == d.rootCap {
		newFirst, newCap := d.relocate(d.rootFirst, d.rootCount, d.rootCap)
		d.rootFirst, d.rootCap = newFirst, newCap
		d.rootAccel = nil // rebuilt lazily below once threshold is crossed
	}
	d.ensureCapacity(d.rootFirst + d.rootCount + 1)
	idx := d.rootFirst + d.rootCount
	d.entries[idx] = dictEntry{label: label, childFirst: -1}
	d.rootCount++
	if d.rootCount >= childBloomThreshold {
		if d.rootAccel == nil {
			d.rootAccel = newChildAccel(d.rootCount)
			for i := d.rootFirst; i < d.rootFirst+d.rootCount; i++ {
				d.rootAccel.add(d.entries[i].label)
			}
		} else {
			d.rootAccel.add(label)
		}
	}
	return idx
}

// addChild inserts label as a new child of the node at parentIdx and
// returns its arena index.
func (d *dictionary) addChild(parentIdx int, label []byte) int {
	p := d.entries[parentIdx]
	if p.childCount == p.childCap {
		newFirst, newCap := d.relocate(p.childFirst, p.childCount, p.childCap)
		p.childFirst, p.childCap = newFirst, newCap
		p.accel = nil
	}
	d.ensureCapacity(p.childFirst + p.childCount + 1)
	idx := p.childFirst + p.childCount
	d.entries[idx] = dictEntry{label: label, childFirst: -1}
	p.childCount++
	if p.childCount >= childBloomThreshold {
		if p.accel == nil {
			p.accel = newChildAccel(p.childCount)
			for i := p.childFirst; i < p.childFirst+p.childCount; i++ {
				p.accel.add(d.entries[i].label)
			}
		} else {
			p.accel.add(label)
		}
	}
	d.entries[parentIdx] = p
	return idx
}

// findRootChild looks up label among root's children.
func (d *dictionary) findRootChild(label []byte) int {
	return d.findChild(d.rootFirst, d.rootCount, d.rootAccel, label)
}

// findChildOf looks up label among parentIdx's children.
func (d *dictionary) findChildOf(parentIdx int, label []byte) int {
	p := &d.entries[parentIdx]
	return d.findChild(p.childFirst, p.childCount, p.accel, label)
}

// pointer returns the entry's emitted back-pointer value (0 if unset).
func (d *dictionary) pointer(idx int) uint16 {
	return d.entries[idx].pointer
}

// setPointer records that idx's label has been written to the outbound
// buffer at wire offset off.
func (d *dictionary) setPointer(idx int, off int) {
	d.entries[idx].pointer = pointerFlag | uint16(off&0x3FFF)
}
