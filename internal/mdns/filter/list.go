package filter

import (
	"fmt"
	"sort"
)

// Mode selects allow-listing or deny-listing semantics for a List.
type Mode int

const (
	Deny Mode = iota
	Allow
)

func (m Mode) String() string {
	if m == Allow {
		return "allow"
	}
	return "deny"
}

// List is a sorted, deduplicated set of match names plus an
// allow-or-deny mode. Lists are built once at configuration time and
// never mutated afterward; workers read them without synchronization.
type List struct {
	Mode  Mode
	Names []*MatchName
}

// New parses fragments into match names, sorts them, drops duplicates,
// and returns the resulting List. An empty fragment list is rejected:
// callers should pass a nil *List instead of an empty one.
func New(mode Mode, fragments []string) (*List, error) {
	if len(fragments) == 0 {
		return nil, fmt.Errorf("filter: list requires at least one match name")
	}
	names := make([]*MatchName, 0, len(fragments))
	for _, f := range fragments {
		mn, err := Parse(f)
		if err != nil {
			return nil, err
		}
		names = append(names, mn)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Less(names[j]) })
	deduped := names[:0]
	for i, mn := range names {
		if i > 0 && mn.Equal(deduped[len(deduped)-1]) {
			continue
		}
		deduped = append(deduped, mn)
	}
	return &List{Mode: mode, Names: deduped}, nil
}

// Admits reports whether name is kept by this filter list: under Allow
// mode, at least one match name must appear as a contiguous
// subsequence of name; under Deny mode, none may.
func (l *List) Admits(name []byte) bool {
	for _, mn := range l.Names {
		if mn.ContainsIn(name) {
			return l.Mode == Allow
		}
	}
	return l.Mode == Deny
}

// Equal reports whether two lists share the same mode, count, and
// ordered match-name byte contents. Used both to elide a per-interface
// inbound filter that duplicates the global filter, and to intern
// equal outbound filter lists to a single shared instance.
func (l *List) Equal(other *List) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil {
		return false
	}
	if l.Mode != other.Mode || len(l.Names) != len(other.Names) {
		return false
	}
	for i := range l.Names {
		if !l.Names[i].Equal(other.Names[i]) {
			return false
		}
	}
	return true
}

// Admit is a package-level convenience for the "no filter" case: a nil
// *List admits everything.
func Admit(l *List, name []byte) bool {
	if l == nil {
		return true
	}
	return l.Admits(name)
}
