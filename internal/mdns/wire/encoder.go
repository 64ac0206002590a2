package wire

import (
	"encoding/binary"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
)

// Encoder holds the reusable per-worker compression dictionary used to
// re-encode a decoded message for one outbound peer or filter variant.
// It is not safe for concurrent use; each worker owns one.
type Encoder struct {
	dict *dictionary
}

// NewEncoder returns an Encoder with a freshly seeded dictionary.
func NewEncoder() *Encoder {
	return &Encoder{dict: newDictionary()}
}

// EncodePacket re-encodes msg into dst, applying outbound filtering
// from f (nil admits everything) and copying header/RDATA bytes that
// carry no name straight from src, the original received packet msg
// was decoded from. It returns the number of bytes written, or (0,
// nil) if outbound filtering dropped every query and record: callers
// must treat that as "do not send," not as an encoding failure.
func (e *Encoder) EncodePacket(dst, src []byte, msg *domain.Message, f *filter.List) (int, error) {
	e.dict.Reset()
	pos := dnsHeaderSize

	qCount, err := e.encodeQueries(dst, src, &pos, msg.Queries, f)
	if err != nil {
		return 0, err
	}
	anCount, err := e.encodeRRs(dst, src, &pos, msg.Answers(), f)
	if err != nil {
		return 0, err
	}
	nsCount, err := e.encodeRRs(dst, src, &pos, msg.Authority(), f)
	if err != nil {
		return 0, err
	}
	arCount, err := e.encodeRRs(dst, src, &pos, msg.Additional(), f)
	if err != nil {
		return 0, err
	}

	if qCount == 0 && anCount == 0 && nsCount == 0 && arCount == 0 {
		return 0, nil
	}

	binary.BigEndian.PutUint16(dst[0:2], msg.TransactionID)
	binary.BigEndian.PutUint16(dst[2:4], msg.Flags)
	binary.BigEndian.PutUint16(dst[4:6], uint16(qCount))
	binary.BigEndian.PutUint16(dst[6:8], uint16(anCount))
	binary.BigEndian.PutUint16(dst[8:10], uint16(nsCount))
	binary.BigEndian.PutUint16(dst[10:12], uint16(arCount))
	return pos, nil
}

func (e *Encoder) encodeQueries(dst, src []byte, pos *int, queries []domain.Query, f *filter.List) (int, error) {
	count := 0
	for i := range queries {
		q := &queries[i]
		if domain.QueryFilterTarget(q.Type) == domain.FilterOwner && !filter.Admit(f, q.Owner.Wire()) {
			continue
		}
		next, err := e.dict.encodeName(dst, *pos, &q.Owner)
		if err != nil {
			return 0, err
		}
		if next+queryHeaderSize > len(dst) {
			return 0, errBufferFull
		}
		copy(dst[next:next+queryHeaderSize], src[q.HeaderOff:q.HeaderOff+queryHeaderSize])
		*pos = next + queryHeaderSize
		count++
	}
	return count, nil
}

func (e *Encoder) encodeRRs(dst, src []byte, pos *int, rrs []domain.ResourceRecord, f *filter.List) (int, error) {
	const rrFixedHeaderSize = 8 // type + class + ttl, copied verbatim; rdlength is recomputed
	count := 0
	for i := range rrs {
		rr := &rrs[i]
		info, ok := domain.LookupType(rr.Type)
		if !ok {
			continue
		}

		allowed := true
		switch info.Target {
		case domain.FilterOwner:
			allowed = filter.Admit(f, rr.Owner.Wire())
		case domain.FilterRDATA:
			allowed = filter.Admit(f, rr.RDataName.Wire())
		}
		if !allowed {
			continue
		}

		next, err := e.dict.encodeName(dst, *pos, &rr.Owner)
		if err != nil {
			return 0, err
		}
		if next+rrHeaderSize > len(dst) {
			return 0, errBufferFull
		}
		copy(dst[next:next+rrFixedHeaderSize], src[rr.HeaderOff:rr.HeaderOff+rrFixedHeaderSize])
		rdlenOff := next + rrFixedHeaderSize
		p := next + rrHeaderSize

		switch info.Kind {
		case domain.RDATANameOnly:
			p, err = e.dict.encodeName(dst, p, &rr.RDataName)
		case domain.RDATASRV:
			p, err = copyThenEncodeName(e.dict, dst, src, p, rr.RDataOff, rr.SecondaryLen, &rr.RDataName)
		case domain.RDATAOpaque:
			if p+rr.RDataLen > len(dst) {
				err = errBufferFull
			} else {
				copy(dst[p:p+rr.RDataLen], src[rr.RDataOff:rr.RDataOff+rr.RDataLen])
				p += rr.RDataLen
			}
		case domain.RDATANSEC:
			p, err = e.dict.encodeName(dst, p, &rr.RDataName)
			if err == nil {
				secStart := rr.RDataOff + rr.RDataLen - rr.SecondaryLen
				if p+rr.SecondaryLen > len(dst) {
					err = errBufferFull
				} else {
					copy(dst[p:p+rr.SecondaryLen], src[secStart:secStart+rr.SecondaryLen])
					p += rr.SecondaryLen
				}
			}
		}
		if err != nil {
			return 0, err
		}

		binary.BigEndian.PutUint16(dst[rdlenOff:rdlenOff+2], uint16(p-(next+rrHeaderSize)))
		*pos = p
		count++
	}
	return count, nil
}

// copyThenEncodeName copies secondaryLen bytes verbatim from src at
// srcOff before encoding name at p, used for SRV's priority/weight/port
// prefix ahead of its target name.
func copyThenEncodeName(d *dictionary, dst, src []byte, p, srcOff, secondaryLen int, name *domain.Name) (int, error) {
	if p+secondaryLen > len(dst) {
		return 0, errBufferFull
	}
	copy(dst[p:p+secondaryLen], src[srcOff:srcOff+secondaryLen])
	return d.encodeName(dst, p+secondaryLen, name)
}
