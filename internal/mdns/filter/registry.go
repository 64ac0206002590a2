package filter

// Registry interns filter lists by content equality so that two
// interfaces configured with the same outbound filter end up sharing a
// single *List by pointer identity. This is what lets the bridge loop
// invoke the encoder once per distinct outbound filter variant rather
// than once per peer.
//
// A Registry is only ever used during configuration; nothing on the
// packet hot path touches it.
type Registry struct {
	entries []*List
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Intern returns l unchanged if l is nil, or the canonical instance for
// lists equal to l (registering l as canonical the first time an
// equivalent list is seen).
func (r *Registry) Intern(l *List) *List {
	if l == nil {
		return nil
	}
	for _, existing := range r.entries {
		if existing.Equal(l) {
			return existing
		}
	}
	r.entries = append(r.entries, l)
	return l
}

// ElideIfEqual returns nil if inbound duplicates global (the global
// filter already covers it), otherwise returns inbound unchanged.
func ElideIfEqual(global, inbound *List) *List {
	if inbound != nil && inbound.Equal(global) {
		return nil
	}
	return inbound
}
