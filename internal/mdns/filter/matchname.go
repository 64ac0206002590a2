// Package filter implements the match-name and filter-list model used to
// admit or reject records and queries by domain-name fragment, per the
// bridge's filtering rules.
package filter

import (
	"bytes"
	"fmt"
	"strings"
)

// MatchName is an immutable, heap-allocated filter pattern: a
// length-prefixed label sequence identical in layout to a wire-form
// name, but without a terminating zero byte. It is created once at
// configuration time and shared by reference thereafter.
type MatchName struct {
	bytes []byte
}

// Bytes returns the length-prefixed label sequence.
func (m *MatchName) Bytes() []byte {
	return m.bytes
}

// Parse turns a dotted domain-name fragment (e.g. "_ipp._tcp") into a
// MatchName. Each dot-separated component becomes one length-prefixed
// label; a leading/trailing empty component (from a leading/trailing
// dot) is skipped rather than encoded as a zero-length label, since a
// match name carries no terminator.
func Parse(fragment string) (*MatchName, error) {
	fragment = strings.Trim(fragment, ".")
	if fragment == "" {
		return nil, fmt.Errorf("filter: empty match name")
	}
	labels := strings.Split(fragment, ".")
	var buf bytes.Buffer
	for _, l := range labels {
		if len(l) == 0 {
			return nil, fmt.Errorf("filter: empty label in %q", fragment)
		}
		if len(l) > 63 {
			return nil, fmt.Errorf("filter: label %q exceeds 63 bytes", l)
		}
		buf.WriteByte(byte(len(l)))
		buf.WriteString(l)
	}
	return &MatchName{bytes: buf.Bytes()}, nil
}

// Equal reports whether two match names carry identical label bytes.
func (m *MatchName) Equal(other *MatchName) bool {
	return bytes.Equal(m.bytes, other.bytes)
}

// Less orders match names lexicographically by their raw label bytes.
// Used to produce the sorted, deterministic order required at
// construction time.
func (m *MatchName) Less(other *MatchName) bool {
	return bytes.Compare(m.bytes, other.bytes) < 0
}

// ContainsIn reports whether m's bytes appear as a contiguous
// subsequence of name's raw length-prefixed label bytes. Matching is
// case-sensitive and operates purely on bytes: a search pattern that
// itself begins with a valid length byte only ever lines up with real
// label boundaries in practice, since every label in name carries its
// own length prefix.
func (m *MatchName) ContainsIn(name []byte) bool {
	return bytes.Contains(name, m.bytes)
}
