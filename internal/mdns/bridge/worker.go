// Package bridge owns the per-address-family event loop: receive one
// datagram, decode it with inbound filtering, and fan it back out to
// every peer interface of that family, re-encoding once per distinct
// outbound filter variant.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/common/log"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/gateways/notify"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/wire"
)

// maxPacketSize is the largest UDP datagram this bridge will read or
// write. mDNS messages may legally use IP fragmentation up to 9000
// bytes; ordinary traffic is far smaller, but the buffers are sized
// for the worst case once, at startup, rather than grown mid-run.
const maxPacketSize = 9000

// Worker owns one address family's receive buffer, send buffer,
// decoder, encoder, and the set of interfaces it bridges between. It is
// not safe for concurrent use — each family runs exactly one Worker
// goroutine.
type Worker struct {
	Family     domain.Family
	Interfaces []*domain.Interface

	notifier         notify.Notifier
	decoder          *wire.Decoder
	encoder          *wire.Encoder
	logger           log.Logger
	warnUnsupported  bool
	filteringEnabled bool

	recvBuf []byte
	sendBuf []byte
}

// New builds a Worker for family over interfaces enabled for it,
// registering each interface's bound endpoint with a fresh notifier.
// Every interface passed in must be Enabled(family) and have a non-nil
// endpoint for it; New does not filter the slice itself. When
// filteringEnabled is false, dispatch skips decoding entirely and
// forwards every received datagram unexamined.
func New(family domain.Family, interfaces []*domain.Interface, logger log.Logger, warnUnsupported, filteringEnabled bool) (*Worker, error) {
	if len(interfaces) < 2 {
		return nil, fmt.Errorf("bridge: %s worker requires at least two interfaces", family)
	}
	n, err := notify.New()
	if err != nil {
		return nil, fmt.Errorf("bridge: %s worker: %w", family, err)
	}
	w := &Worker{
		Family:           family,
		Interfaces:       interfaces,
		notifier:         n,
		decoder:          wire.NewDecoder(),
		encoder:          wire.NewEncoder(),
		logger:           logger,
		warnUnsupported:  warnUnsupported,
		filteringEnabled: filteringEnabled,
		recvBuf:          make([]byte, maxPacketSize),
		sendBuf:          make([]byte, maxPacketSize),
	}
	for _, ifc := range interfaces {
		ep := ifc.EndpointFor(family)
		fd, err := ep.Fd()
		if err != nil {
			return nil, fmt.Errorf("bridge: %s worker: interface %s: %w", family, ifc.Name, err)
		}
		if err := n.Add(fd, ifc); err != nil {
			return nil, fmt.Errorf("bridge: %s worker: interface %s: %w", family, ifc.Name, err)
		}
	}
	return w, nil
}

// Run services readiness events until ctx is canceled. It never returns
// a nil error before ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	defer w.notifier.Close()
	for {
		ready, err := w.notifier.Wait(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("bridge: %s worker: %w", w.Family, err)
		}
		ifc, ok := ready.Tag.(*domain.Interface)
		if !ok {
			continue
		}
		w.handleReadable(ifc)
	}
}

// handleReadable drains one datagram from ifc's endpoint and dispatches
// it. Read errors and malformed packets are logged and dropped; they
// never stop the worker.
func (w *Worker) handleReadable(ifc *domain.Interface) {
	ep := ifc.EndpointFor(w.Family)
	n, from, err := ep.ReadFrom(w.recvBuf)
	if err != nil {
		w.logger.Warn(map[string]any{
			"family":    w.Family.String(),
			"interface": ifc.Name,
			"error":     err.Error(),
		}, "mdns: read failed")
		return
	}
	w.dispatch(ifc, w.recvBuf[:n], from)
}

// dispatch runs the fixed pipeline: when filtering is disabled, forward
// the received bytes unexamined to every peer; otherwise decode with
// the global and ifc's own inbound filters, then fan out to peers with
// no outbound filter (raw bytes if nothing was filtered inbound,
// re-encoded verbatim otherwise), then to each distinct outbound
// filter variant among the remaining peers (encoded once per variant).
func (w *Worker) dispatch(ifc *domain.Interface, pkt []byte, from *net.UDPAddr) {
	idx := int(w.Family)
	peers := ifc.Peers[idx]
	if len(peers) == 0 {
		return
	}

	if !w.filteringEnabled {
		w.sendRaw(pkt, peers, func(*domain.Interface) bool { return true })
		return
	}

	msg, err := w.decoder.DecodePacket(pkt, ifc.GlobalFilter, ifc.InboundFilter)
	if err != nil {
		w.logger.Debug(map[string]any{
			"family":    w.Family.String(),
			"interface": ifc.Name,
			"source":    from.String(),
			"error":     err.Error(),
		}, "mdns: dropping malformed packet")
		return
	}
	if w.warnUnsupported {
		for _, warning := range w.decoder.Warnings {
			w.logger.Warn(map[string]any{
				"family":    w.Family.String(),
				"interface": ifc.Name,
			}, warning.Error())
		}
	}
	if len(msg.Queries) == 0 && len(msg.RR) == 0 {
		return
	}

	if ifc.PeerNoFilterCount[idx] > 0 {
		matchNoFilter := func(p *domain.Interface) bool { return p.OutboundFilter == nil }
		if w.decoder.InboundFiltered {
			w.encodeAndSend(pkt, msg, nil, peers, matchNoFilter)
		} else {
			w.sendRaw(pkt, peers, matchNoFilter)
		}
	}
	for _, variant := range ifc.PeerFilterVariants[idx] {
		v := variant
		w.encodeAndSend(pkt, msg, v, peers, func(p *domain.Interface) bool {
			return p.OutboundFilter == v
		})
	}
}

// sendRaw forwards pkt verbatim to every peer for which match reports
// true, used when nothing was filtered out of the inbound packet so
// re-encoding would only reproduce the same bytes.
func (w *Worker) sendRaw(pkt []byte, peers []*domain.Interface, match func(*domain.Interface) bool) {
	for _, peer := range peers {
		if !match(peer) {
			continue
		}
		if err := peer.EndpointFor(w.Family).Send(pkt); err != nil {
			w.logger.Warn(map[string]any{
				"family":    w.Family.String(),
				"interface": peer.Name,
				"error":     err.Error(),
			}, "mdns: send failed")
		}
	}
}

// encodeAndSend re-encodes msg once under outboundFilter and sends the
// result to every peer for which match reports true. A nil outbound
// length (nothing survived filtering) is not an error: it just means
// no peer in this group receives anything.
func (w *Worker) encodeAndSend(src []byte, msg *domain.Message, outboundFilter *filter.List, peers []*domain.Interface, match func(*domain.Interface) bool) {
	n, err := w.encoder.EncodePacket(w.sendBuf, src, msg, outboundFilter)
	if err != nil {
		w.logger.Warn(map[string]any{
			"family": w.Family.String(),
			"error":  err.Error(),
		}, "mdns: encode failed")
		return
	}
	if n == 0 {
		return
	}
	out := w.sendBuf[:n]
	for _, peer := range peers {
		if !match(peer) {
			continue
		}
		if err := peer.EndpointFor(w.Family).Send(out); err != nil {
			w.logger.Warn(map[string]any{
				"family":    w.Family.String(),
				"interface": peer.Name,
				"error":     err.Error(),
			}, "mdns: send failed")
		}
	}
}
