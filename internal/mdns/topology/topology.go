// Package topology computes the per-family peer fan-out tables for a
// set of configured interfaces: which interfaces are enabled per
// family, which peers each interface fans out to, and the distinct
// outbound filter variants those peers present.
package topology

import (
	"fmt"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
)

// Spec describes one interface as handed down from configuration: its
// symbolic name, OS index, whether each family is administratively
// enabled, and its optional inbound/outbound filters.
type Spec struct {
	Name           string
	Index          int
	EnableV4       bool
	EnableV6       bool
	InboundFilter  *filter.List
	OutboundFilter *filter.List
	EndpointV4     domain.Endpoint
	EndpointV6     domain.Endpoint
}

// Build turns a set of interface specs plus an optional global filter
// into fully populated *domain.Interface records: it elides
// per-interface inbound filters that duplicate the global filter,
// interns equal outbound filters to a single shared instance, disables
// a family on every interface when fewer than two interfaces enable it,
// and computes each interface's peers/peerNoFilterCount/peerFilterVariants.
//
// Startup is fatal (a non-nil error) unless at least one family ends up
// with two or more enabled interfaces.
func Build(specs []Spec, global *filter.List) ([]*domain.Interface, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("topology: no interfaces configured")
	}
	seen := make(map[string]bool, len(specs))
	reg := filter.NewRegistry()
	ifaces := make([]*domain.Interface, 0, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return nil, fmt.Errorf("topology: duplicate interface %q", s.Name)
		}
		seen[s.Name] = true
		ifc := &domain.Interface{
			Name:           s.Name,
			Index:          s.Index,
			DisabledV4:     !s.EnableV4,
			DisabledV6:     !s.EnableV6,
			EndpointV4:     s.EndpointV4,
			EndpointV6:     s.EndpointV6,
			GlobalFilter:   global,
			InboundFilter:  filter.ElideIfEqual(global, s.InboundFilter),
			OutboundFilter: reg.Intern(s.OutboundFilter),
		}
		ifaces = append(ifaces, ifc)
	}

	for _, fam := range []domain.Family{domain.FamilyIPv4, domain.FamilyIPv6} {
		enabledCount := 0
		for _, ifc := range ifaces {
			if ifc.Enabled(fam) {
				enabledCount++
			}
		}
		if enabledCount < 2 {
			for _, ifc := range ifaces {
				disableFamily(ifc, fam)
			}
			continue
		}
		for _, ifc := range ifaces {
			if !ifc.Enabled(fam) {
				continue
			}
			buildFanOut(ifc, ifaces, fam)
		}
	}

	if !anyFamilyBridged(ifaces) {
		return nil, fmt.Errorf("topology: no address family has two or more enabled interfaces")
	}
	return ifaces, nil
}

func disableFamily(ifc *domain.Interface, fam domain.Family) {
	if fam == domain.FamilyIPv6 {
		ifc.DisabledV6 = true
	} else {
		ifc.DisabledV4 = true
	}
}

func anyFamilyBridged(ifaces []*domain.Interface) bool {
	for _, fam := range []domain.Family{domain.FamilyIPv4, domain.FamilyIPv6} {
		count := 0
		for _, ifc := range ifaces {
			if ifc.Enabled(fam) {
				count++
			}
		}
		if count >= 2 {
			return true
		}
	}
	return false
}

func buildFanOut(ifc *domain.Interface, all []*domain.Interface, fam domain.Family) {
	idx := int(fam)
	var peers []*domain.Interface
	var variants []*filter.List
	noFilterCount := 0
	for _, other := range all {
		if other == ifc || !other.Enabled(fam) {
			continue
		}
		peers = append(peers, other)
		if other.OutboundFilter == nil {
			noFilterCount++
			continue
		}
		if !containsVariant(variants, other.OutboundFilter) {
			variants = append(variants, other.OutboundFilter)
		}
	}
	ifc.Peers[idx] = peers
	ifc.PeerNoFilterCount[idx] = noFilterCount
	ifc.PeerFilterVariants[idx] = variants
}

func containsVariant(variants []*filter.List, l *filter.List) bool {
	for _, v := range variants {
		if v == l {
			return true
		}
	}
	return false
}
