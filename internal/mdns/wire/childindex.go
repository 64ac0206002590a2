package wire

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// childBloomThreshold is the number of children a dictionary node must
// accumulate before it grows a Bloom pre-filter. Below this a linear
// scan over the children range is already cheap enough that building
// and maintaining a filter would only add overhead.
const childBloomThreshold = 8

// childAccel is an optional negative pre-check over a dictionary node's
// children, sized with the standard Bloom filter sizing formula. It is
// never the source of truth: mightContain returning true still requires
// the caller to fall through to the exact scan over the children range:
// a false positive only costs a wasted scan, never a wrong answer.
type childAccel struct {
	bf *bitsbloom.BloomFilter
}

// bloomSize returns (m bits, k hashes) for n items at false-positive
// rate p, using the standard formulas.
func bloomSize(n uint64, p float64) (uint, uint) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.05
	}
	// m = -(n * ln p) / (ln 2)^2 ; k = (m/n) * ln 2
	ln2 := math.Ln2
	m := uint(math.Ceil(-float64(n) * math.Log(p) / (ln2 * ln2)))
	if m == 0 {
		m = 1
	}
	k := uint(math.Max(1, math.Round(float64(m)/float64(n)*ln2)))
	return m, k
}

func newChildAccel(expectedChildren int) *childAccel {
	m, k := bloomSize(uint64(expectedChildren), 0.05)
	return &childAccel{bf: bitsbloom.New(m, k)}
}

func (a *childAccel) add(label []byte) {
	if a == nil {
		return
	}
	a.bf.Add(label)
}

// mightContain returns false only when label is definitely absent from
// the children this accelerator has observed.
func (a *childAccel) mightContain(label []byte) bool {
	if a == nil {
		return true
	}
	return a.bf.Test(label)
}
