package domain

import (
	"net"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
)

// Family identifies an address family a worker bridges.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Endpoint is the interface the bridge core needs from a bound
// multicast datagram socket. Construction and socket options live in
// gateways/socket.
type Endpoint interface {
	// Send transmits b to the family's mDNS multicast group, routed out
	// this endpoint's own bound interface.
	Send(b []byte) error

	// ReadFrom reads one datagram arriving on this endpoint.
	ReadFrom(buf []byte) (n int, from *net.UDPAddr, err error)

	// Fd returns the underlying socket descriptor, for registration with
	// a readiness notifier.
	Fd() (int, error)

	// Close releases the socket.
	Close() error
}

// Interface is one bridged network interface: a symbolic name, an
// opaque OS index, per-family enablement, per-family bound endpoints,
// optional inbound/outbound filters, and the per-family fan-out tables
// computed by topology.Build.
type Interface struct {
	Name  string
	Index int

	// DisabledV4/DisabledV6 mark a family as unusable on this interface,
	// either because it was configured off or because fewer than two
	// interfaces ended up enabled for that family.
	DisabledV4 bool
	DisabledV6 bool

	EndpointV4 Endpoint
	EndpointV6 Endpoint

	// GlobalFilter is the daemon-wide inbound filter, shared by every
	// interface regardless of elision: InboundFilter may be nil'd out
	// when it duplicates GlobalFilter, but the decode path still needs
	// both to decide whether inbound filtering actually happened.
	GlobalFilter *filter.List

	InboundFilter  *filter.List
	OutboundFilter *filter.List

	// Peers, PeerNoFilterCount, and PeerFilterVariants are populated by
	// topology.Build once per family and never mutated after startup.
	Peers             [2][]*Interface
	PeerNoFilterCount [2]int
	PeerFilterVariants [2][]*filter.List
}

// Enabled reports whether this interface participates in family f.
func (ifc *Interface) Enabled(f Family) bool {
	if f == FamilyIPv6 {
		return !ifc.DisabledV6
	}
	return !ifc.DisabledV4
}

// EndpointFor returns the bound endpoint for family f.
func (ifc *Interface) EndpointFor(f Family) Endpoint {
	if f == FamilyIPv6 {
		return ifc.EndpointV6
	}
	return ifc.EndpointV4
}
