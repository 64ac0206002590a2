package domain

import "fmt"

// RRType represents a DNS resource record type, as carried on the wire.
type RRType uint16

// Resource record and query types the bridge forwards. Values match the
// IANA DNS Parameters registry.
const (
	RRTypeA     RRType = 1
	RRTypeCNAME RRType = 5
	RRTypePTR   RRType = 12
	RRTypeHINFO RRType = 13
	RRTypeTXT   RRType = 16
	RRTypeAAAA  RRType = 28
	RRTypeSRV   RRType = 33
	RRTypeDNAME RRType = 39
	RRTypeOPT   RRType = 41
	RRTypeNSEC  RRType = 47
	RRTypeSVCB  RRType = 64
	RRTypeHTTPS RRType = 65
	RRTypeANY   RRType = 255 // query type only
)

// String returns the textual representation of t, or "UNKNOWN(<value>)"
// for any type outside the supported set.
func (t RRType) String() string {
	switch t {
	case RRTypeA:
		return "A"
	case RRTypeCNAME:
		return "CNAME"
	case RRTypePTR:
		return "PTR"
	case RRTypeHINFO:
		return "HINFO"
	case RRTypeTXT:
		return "TXT"
	case RRTypeAAAA:
		return "AAAA"
	case RRTypeSRV:
		return "SRV"
	case RRTypeDNAME:
		return "DNAME"
	case RRTypeOPT:
		return "OPT"
	case RRTypeNSEC:
		return "NSEC"
	case RRTypeSVCB:
		return "SVCB"
	case RRTypeHTTPS:
		return "HTTPS"
	case RRTypeANY:
		return "ANY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint16(t))
	}
}

// RDATAKind classifies how a type's RDATA must be decoded/encoded and
// which name (if any) is the filter target for that record.
type RDATAKind int

const (
	// RDATANameOnly: RDATA is entirely a compressed name (PTR, CNAME, DNAME).
	// Filter target: the RDATA name.
	RDATANameOnly RDATAKind = iota
	// RDATASRV: 6-byte priority/weight/port prefix, then a name filling the
	// rest of RDATA. Filter target: the owner name.
	RDATASRV
	// RDATAOpaque: opaque bytes, copied verbatim. Filter target: the owner
	// name (TXT, HINFO, SVCB, HTTPS) or none (A, AAAA, OPT).
	RDATAOpaque
	// RDATANSEC: a name followed by a variable-length type bitmap. Not
	// filtered.
	RDATANSEC
)

// FilterTarget identifies which name of a record is tested against the
// configured filter lists.
type FilterTarget int

const (
	FilterNone     FilterTarget = iota // not filtered (A, AAAA, OPT, NSEC)
	FilterOwner                        // owner name (SRV, TXT, HINFO, SVCB, HTTPS, and SRV/TXT/SVCB/HTTPS/ANY queries)
	FilterRDATA                        // RDATA name (PTR, CNAME, DNAME)
)

// typeInfo describes the wire shape and filter target for a supported type.
type typeInfo struct {
	Kind   RDATAKind
	Target FilterTarget
}

var typeTable = map[RRType]typeInfo{
	RRTypePTR:   {Kind: RDATANameOnly, Target: FilterRDATA},
	RRTypeCNAME: {Kind: RDATANameOnly, Target: FilterRDATA},
	RRTypeDNAME: {Kind: RDATANameOnly, Target: FilterRDATA},
	RRTypeSRV:   {Kind: RDATASRV, Target: FilterOwner},
	RRTypeTXT:   {Kind: RDATAOpaque, Target: FilterOwner},
	RRTypeHINFO: {Kind: RDATAOpaque, Target: FilterOwner},
	RRTypeSVCB:  {Kind: RDATAOpaque, Target: FilterOwner},
	RRTypeHTTPS: {Kind: RDATAOpaque, Target: FilterOwner},
	RRTypeA:     {Kind: RDATAOpaque, Target: FilterNone},
	RRTypeAAAA:  {Kind: RDATAOpaque, Target: FilterNone},
	RRTypeOPT:   {Kind: RDATAOpaque, Target: FilterNone},
	RRTypeNSEC:  {Kind: RDATANSEC, Target: FilterNone},
}

// LookupType returns the wire/filter shape for t and whether t is
// supported on the hot path at all (queries of type ANY are handled
// separately by callers, since they carry no RDATA).
func LookupType(t RRType) (typeInfo, bool) {
	info, ok := typeTable[t]
	return info, ok
}

// queryFilterTarget lists the query types the bridge accepts and
// whether each is filtered on the owner name. This is a narrower set
// than the resource record types above: not every RDATA-bearing type
// makes sense as a bare query, so CNAME/DNAME/HINFO/NSEC queries are
// treated as unsupported rather than silently let through unfiltered.
var queryFilterTarget = map[RRType]FilterTarget{
	RRTypeA:     FilterNone,
	RRTypeAAAA:  FilterNone,
	RRTypePTR:   FilterNone,
	RRTypeOPT:   FilterNone,
	RRTypeSRV:   FilterOwner,
	RRTypeTXT:   FilterOwner,
	RRTypeSVCB:  FilterOwner,
	RRTypeHTTPS: FilterOwner,
	RRTypeANY:   FilterOwner,
}

// IsSupportedQueryType reports whether t may appear in a query section.
func IsSupportedQueryType(t RRType) bool {
	_, ok := queryFilterTarget[t]
	return ok
}

// QueryFilterTarget returns the filter target for a supported query
// type. Callers must check IsSupportedQueryType first.
func QueryFilterTarget(t RRType) FilterTarget {
	return queryFilterTarget[t]
}
