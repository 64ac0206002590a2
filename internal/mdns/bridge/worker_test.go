package bridge

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/common/log"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/filter"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/gateways/notify"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/topology"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint is an in-memory domain.Endpoint double: sends are
// recorded, reads are served from a preloaded queue.
type fakeEndpoint struct {
	fd        int
	sent      [][]byte
	recvQueue [][]byte
}

func (f *fakeEndpoint) Send(b []byte) error {
	cp := append([]byte(nil), b...)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeEndpoint) ReadFrom(buf []byte) (int, *net.UDPAddr, error) {
	if len(f.recvQueue) == 0 {
		return 0, nil, io.EOF
	}
	pkt := f.recvQueue[0]
	f.recvQueue = f.recvQueue[1:]
	n := copy(buf, pkt)
	return n, &net.UDPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5353}, nil
}

func (f *fakeEndpoint) Fd() (int, error) { return f.fd, nil }
func (f *fakeEndpoint) Close() error     { return nil }

// buildQueryPacket returns a minimal one-question mDNS query for name,
// e.g. "Office._ipp._tcp.local".
func buildQueryPacket(labels []string, qtype domain.RRType) []byte {
	buf := make([]byte, 512)
	binary.BigEndian.PutUint16(buf[4:6], 1) // qdcount
	pos := 12
	for _, l := range labels {
		buf[pos] = byte(len(l))
		copy(buf[pos+1:], l)
		pos += 1 + len(l)
	}
	buf[pos] = 0
	pos++
	binary.BigEndian.PutUint16(buf[pos:pos+2], uint16(qtype))
	binary.BigEndian.PutUint16(buf[pos+2:pos+4], 1)
	pos += 4
	return buf[:pos]
}

func newTestWorker(ifaces []*domain.Interface) *Worker {
	return &Worker{
		Family:           domain.FamilyIPv4,
		Interfaces:       ifaces,
		decoder:          wire.NewDecoder(),
		encoder:          wire.NewEncoder(),
		logger:           log.NewNoopLogger(),
		filteringEnabled: true,
		recvBuf:          make([]byte, maxPacketSize),
		sendBuf:          make([]byte, maxPacketSize),
	}
}

func TestWorker_FansOutToUnfilteredPeer(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
	}, nil)
	require.NoError(t, err)

	epA.recvQueue = append(epA.recvQueue, buildQueryPacket([]string{"Office", "_ipp", "_tcp", "local"}, domain.RRTypeA))

	w := newTestWorker(ifaces)
	w.handleReadable(ifaces[0])

	require.Len(t, epB.sent, 1)
	require.Empty(t, epA.sent, "a packet must never be echoed back to the interface it arrived on")
}

func TestWorker_FilteringDisabledForwardsRawBytes(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	epC := &fakeEndpoint{fd: 12}
	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
		{Name: "eth2", Index: 3, EnableV4: true, EndpointV4: epC},
	}, nil)
	require.NoError(t, err)

	pkt := buildQueryPacket([]string{"Office", "_ipp", "_tcp", "local"}, domain.RRTypeA)
	epA.recvQueue = append(epA.recvQueue, pkt)

	w := newTestWorker(ifaces)
	w.filteringEnabled = false
	w.handleReadable(ifaces[0])

	require.Len(t, epB.sent, 1)
	require.Len(t, epC.sent, 1)
	assert.Equal(t, pkt, epB.sent[0], "egress bytes must equal ingress bytes when filtering is disabled")
	assert.Equal(t, pkt, epC.sent[0])
}

func TestWorker_NoFilterPeerGetsRawBytesWhenNothingWasFiltered(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
	}, nil)
	require.NoError(t, err)

	pkt := buildQueryPacket([]string{"Office", "_ipp", "_tcp", "local"}, domain.RRTypeA)
	epA.recvQueue = append(epA.recvQueue, pkt)

	w := newTestWorker(ifaces)
	w.handleReadable(ifaces[0])

	require.Len(t, epB.sent, 1)
	assert.Equal(t, pkt, epB.sent[0], "no filter admitted or rejected anything, so bytes must pass through unchanged")
}

func TestWorker_CombinesGlobalAndInterfaceInboundFilters(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	global, err := filter.New(filter.Allow, []string{"_ipp._tcp.local"})
	require.NoError(t, err)

	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
	}, global)
	require.NoError(t, err)

	ipp := buildQueryPacket([]string{"Office", "_ipp", "_tcp", "local"}, domain.RRTypeSRV)
	ssh := buildQueryPacket([]string{"Laptop", "_ssh", "_tcp", "local"}, domain.RRTypeSRV)
	epA.recvQueue = append(epA.recvQueue, ipp)

	w := newTestWorker(ifaces)
	w.handleReadable(ifaces[0])
	require.Len(t, epB.sent, 1, "global allow-list admits _ipp")

	epB.sent = nil
	epA.recvQueue = append(epA.recvQueue, ssh)
	w.handleReadable(ifaces[0])
	assert.Empty(t, epB.sent, "global allow-list for _ipp must drop an _ssh query even with no interface-level filter")
}

func TestWorker_AppliesPerVariantOutboundFilter(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	deny, err := filter.New(filter.Deny, []string{"_ipp._tcp.local"})
	require.NoError(t, err)

	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB, OutboundFilter: deny},
	}, nil)
	require.NoError(t, err)

	epA.recvQueue = append(epA.recvQueue, buildQueryPacket([]string{"Office", "_ipp", "_tcp", "local"}, domain.RRTypeSRV))

	w := newTestWorker(ifaces)
	w.handleReadable(ifaces[0])

	assert.Empty(t, epB.sent, "eth1's deny filter should have dropped the only query")
}

func TestWorker_DropsMalformedPacketWithoutPanicking(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
	}, nil)
	require.NoError(t, err)

	epA.recvQueue = append(epA.recvQueue, []byte{0x01, 0x02})

	w := newTestWorker(ifaces)
	assert.NotPanics(t, func() { w.handleReadable(ifaces[0]) })
	assert.Empty(t, epB.sent)
}

// fakeNotifier replays a fixed sequence of readiness events, then blocks
// on ctx.Done() to let Run's caller cancel cleanly.
type fakeNotifier struct {
	events []notify.Ready
}

func (n *fakeNotifier) Add(int, interface{}) error { return nil }
func (n *fakeNotifier) Remove(int) error           { return nil }
func (n *fakeNotifier) Close() error               { return nil }

func (n *fakeNotifier) Wait(ctx context.Context) (notify.Ready, error) {
	if len(n.events) > 0 {
		r := n.events[0]
		n.events = n.events[1:]
		return r, nil
	}
	<-ctx.Done()
	return notify.Ready{}, ctx.Err()
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	epA := &fakeEndpoint{fd: 10}
	epB := &fakeEndpoint{fd: 11}
	ifaces, err := topology.Build([]topology.Spec{
		{Name: "eth0", Index: 1, EnableV4: true, EndpointV4: epA},
		{Name: "eth1", Index: 2, EnableV4: true, EndpointV4: epB},
	}, nil)
	require.NoError(t, err)
	epA.recvQueue = append(epA.recvQueue, buildQueryPacket([]string{"Printer", "_ipp", "_tcp", "local"}, domain.RRTypeA))

	w := newTestWorker(ifaces)
	w.notifier = &fakeNotifier{events: []notify.Ready{{Tag: ifaces[0]}}}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = w.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, epB.sent, 1)
}
