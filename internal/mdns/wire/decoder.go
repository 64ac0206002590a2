package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
)

// Hard caps on the number of queries and resource records a single
// packet may carry, matched against QDCOUNT/ANCOUNT/NSCOUNT/ARCOUNT
// before any scratch space is grown. A legitimate mDNS message never
// gets close to these; they exist to bound how much work a single
// malicious or corrupt datagram can force.
const (
	MaxQueryCount    = 1498
	MaxResourceCount = 749
)

const (
	queryHeaderSize = 4  // type + class
	rrHeaderSize    = 10 // type + class + ttl + rdlength
)

var (
	errPacketTooShort  = errors.New("wire: packet shorter than a dns header")
	errTooManyQueries  = errors.New("wire: query count exceeds cap")
	errTooManyRecords  = errors.New("wire: resource record count exceeds cap")
	errMalformedQuery  = errors.New("wire: query section truncated")
	errMalformedRecord = errors.New("wire: resource record section truncated")
	errBadRDataLen     = errors.New("wire: rdata length invalid or truncated")
	errRDataNameOff    = errors.New("wire: rdata name does not end where rdata does")
	errTrailingBytes   = errors.New("wire: decoded length does not match packet length")
)

// unsupportedTypeError is appended to Decoder.Warnings when a query or
// record carries a type the bridge does not know how to handle. It is
// not a malformed-packet error: decoding continues, the entry is
// dropped, and the caller decides whether to log it.
type unsupportedTypeError struct {
	kind string // "query" or record section name
	t    domain.RRType
}

func (e *unsupportedTypeError) Error() string {
	return fmt.Sprintf("wire: unsupported type %s in %s", e.t, e.kind)
}

// Decoder holds the reusable scratch state for decoding inbound
// packets. It is not safe for concurrent use; each worker owns one.
type Decoder struct {
	msg domain.Message

	// scratch used while resolving an RDATA name for filtering, so a
	// dropped record never disturbs msg's already-accepted entries.
	rdataScratch domain.Name

	// Warnings collects non-fatal decode notices (unsupported types)
	// produced by the most recent DecodePacket call, for the caller to
	// log at its own discretion.
	Warnings []error

	// InboundFiltered reports whether the global or interface inbound
	// filter actually dropped a query or record during the most recent
	// DecodePacket call. It stays false when both filters are nil, or
	// when every entry they saw was admitted. Entries dropped for an
	// unsupported type do not set it.
	InboundFiltered bool
}

// NewDecoder returns a Decoder with its scratch state ready for use.
func NewDecoder() *Decoder {
	return &Decoder{
		msg: domain.Message{
			Queries: make([]domain.Query, 0, 25),
			RR:      make([]domain.ResourceRecord, 0, 50),
		},
	}
}

// DecodePacket decodes buf, applying inbound filtering from both global
// and iface (either may be nil; nil admits everything). An entry
// survives only if both filters admit it, matching allowed_inbound's
// global-then-interface check. The returned *domain.Message aliases
// the Decoder's internal scratch state and is only valid until the
// next DecodePacket call. A non-nil error means the packet was
// malformed and must be dropped outright; a nil error with an empty
// message means every entry was filtered out and the packet should be
// silently dropped.
func (d *Decoder) DecodePacket(buf []byte, global, iface *filter.List) (*domain.Message, error) {
	d.msg.Reset()
	d.Warnings = d.Warnings[:0]
	d.InboundFiltered = false

	if len(buf) < dnsHeaderSize {
		return nil, errPacketTooShort
	}
	d.msg.TransactionID = binary.BigEndian.Uint16(buf[0:2])
	d.msg.Flags = binary.BigEndian.Uint16(buf[2:4])
	qdCount := binary.BigEndian.Uint16(buf[4:6])
	anCount := binary.BigEndian.Uint16(buf[6:8])
	nsCount := binary.BigEndian.Uint16(buf[8:10])
	arCount := binary.BigEndian.Uint16(buf[10:12])

	if int(qdCount) > MaxQueryCount {
		return nil, errTooManyQueries
	}
	total := int(anCount) + int(nsCount) + int(arCount)
	if total > MaxResourceCount {
		return nil, errTooManyRecords
	}

	pos := dnsHeaderSize
	var err error

	pos, err = d.decodeQueries(buf, pos, int(qdCount), global, iface)
	if err != nil {
		return nil, err
	}

	pos, err = d.decodeRRs(buf, pos, int(anCount), global, iface)
	if err != nil {
		return nil, err
	}
	d.msg.AnswerLen = len(d.msg.RR)

	pos, err = d.decodeRRs(buf, pos, int(nsCount), global, iface)
	if err != nil {
		return nil, err
	}
	d.msg.NSLen = len(d.msg.RR) - d.msg.AnswerLen

	pos, err = d.decodeRRs(buf, pos, int(arCount), global, iface)
	if err != nil {
		return nil, err
	}
	d.msg.AdditLen = len(d.msg.RR) - d.msg.AnswerLen - d.msg.NSLen

	if pos != len(buf) {
		return nil, errTrailingBytes
	}

	return &d.msg, nil
}

func (d *Decoder) decodeQueries(buf []byte, pos, count int, global, iface *filter.List) (int, error) {
	for i := 0; i < count; i++ {
		var owner domain.Name
		next, err := DecodeName(buf, pos, &owner)
		if err != nil {
			return 0, err
		}
		if next+queryHeaderSize > len(buf) {
			return 0, errMalformedQuery
		}
		qtype := domain.RRType(binary.BigEndian.Uint16(buf[next : next+2]))
		headerOff := next
		pos = next + queryHeaderSize

		if !domain.IsSupportedQueryType(qtype) {
			d.Warnings = append(d.Warnings, &unsupportedTypeError{kind: "query", t: qtype})
			continue
		}

		allowed := true
		if domain.QueryFilterTarget(qtype) == domain.FilterOwner {
			allowed = filter.Admit(global, owner.Wire()) && filter.Admit(iface, owner.Wire())
		}
		if !allowed {
			d.InboundFiltered = true
			continue
		}

		d.msg.Queries = append(d.msg.Queries, domain.Query{Owner: owner, Type: qtype, HeaderOff: headerOff})
	}
	return pos, nil
}

func (d *Decoder) decodeRRs(buf []byte, pos, count int, global, iface *filter.List) (int, error) {
	for i := 0; i < count; i++ {
		var owner domain.Name
		next, err := DecodeName(buf, pos, &owner)
		if err != nil {
			return 0, err
		}
		if next+rrHeaderSize > len(buf) {
			return 0, errMalformedRecord
		}
		rtype := domain.RRType(binary.BigEndian.Uint16(buf[next : next+2]))
		headerOff := next
		rdataOff := next + rrHeaderSize
		rdataLen := int(binary.BigEndian.Uint16(buf[next+8 : next+10]))
		if rdataLen == 0 || rdataOff+rdataLen > len(buf) {
			return 0, errBadRDataLen
		}
		pos = rdataOff + rdataLen

		info, ok := domain.LookupType(rtype)
		if !ok {
			d.Warnings = append(d.Warnings, &unsupportedTypeError{kind: "resource record", t: rtype})
			continue
		}

		var rdataName domain.Name
		hasRDataName := false
		secondaryLen := 0
		allowed := true

		switch info.Target {
		case domain.FilterOwner:
			allowed = filter.Admit(global, owner.Wire()) && filter.Admit(iface, owner.Wire())
		case domain.FilterRDATA:
			end, err := DecodeName(buf, rdataOff, &d.rdataScratch)
			if err != nil {
				return 0, err
			}
			if end != rdataOff+rdataLen {
				return 0, errRDataNameOff
			}
			rdataName.CopyFrom(&d.rdataScratch)
			hasRDataName = true
			allowed = filter.Admit(global, rdataName.Wire()) && filter.Admit(iface, rdataName.Wire())
		}

		if allowed {
			switch info.Kind {
			case domain.RDATASRV:
				secondaryLen = 6
				end, err := DecodeName(buf, rdataOff+secondaryLen, &d.rdataScratch)
				if err != nil {
					return 0, err
				}
				if end != rdataOff+rdataLen {
					return 0, errRDataNameOff
				}
				rdataName.CopyFrom(&d.rdataScratch)
				hasRDataName = true
			case domain.RDATANSEC:
				end, err := DecodeName(buf, rdataOff, &d.rdataScratch)
				if err != nil {
					return 0, err
				}
				if end > rdataOff+rdataLen {
					return 0, errRDataNameOff
				}
				rdataName.CopyFrom(&d.rdataScratch)
				hasRDataName = true
				secondaryLen = rdataOff + rdataLen - end
			}
		}

		if !allowed {
			d.InboundFiltered = true
			continue
		}

		d.msg.RR = append(d.msg.RR, domain.ResourceRecord{
			Owner:        owner,
			Type:         rtype,
			HeaderOff:    headerOff,
			RDataOff:     rdataOff,
			RDataLen:     rdataLen,
			RDataName:    rdataName,
			HasRDataName: hasRDataName,
			SecondaryLen: secondaryLen,
		})
	}
	return pos, nil
}
