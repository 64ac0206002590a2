// Package socket binds the multicast UDP sockets the bridge sends and
// receives mDNS traffic on. Each bridged interface gets its own bound
// socket per address family — scoped to that interface with
// SO_BINDTODEVICE and IP_MULTICAST_IF/IPV6_MULTICAST_IF — rather than
// one socket shared across interfaces, so a receive can never be
// mistaken for having arrived on the wrong interface.
package socket

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// Port is the mDNS well-known UDP port (RFC 6762 §3).
const Port = 5353

// GroupV4 and GroupV6 are the mDNS multicast group addresses.
var (
	GroupV4 = net.IPv4(224, 0, 0, 251)
	GroupV6 = net.ParseIP("ff02::fb")
)

// controlBindDevice returns a net.ListenConfig.Control function that
// sets SO_REUSEADDR and SO_REUSEPORT (so every interface's socket can
// share port 5353) and, when ifaceName is non-empty, SO_BINDTODEVICE
// (so only traffic arriving on that interface reaches this socket).
func controlBindDevice(ifaceName string) func(network, address string, c syscall.RawConn) error {
	return func(_, _ string, c syscall.RawConn) error {
		var sockErr error
		if err := c.Control(func(fd uintptr) {
			if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); sockErr != nil {
				return
			}
			if sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); sockErr != nil {
				return
			}
			if ifaceName != "" {
				sockErr = unix.BindToDevice(int(fd), ifaceName)
			}
		}); err != nil {
			return err
		}
		return sockErr
	}
}

// V4 is one interface's bound IPv4 mDNS socket. It implements
// domain.Endpoint.
type V4 struct {
	pc   *ipv4.PacketConn
	conn net.PacketConn
	dst  *net.UDPAddr
}

// OpenV4 binds, joins the mDNS group, and pins the multicast interface
// for iface's IPv4 side.
func OpenV4(iface *net.Interface) (*V4, error) {
	lc := net.ListenConfig{Control: controlBindDevice(iface.Name)}
	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", Port))
	if err != nil {
		return nil, fmt.Errorf("socket: listen udp4 on %s: %w", iface.Name, err)
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: GroupV4}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("socket: join ipv4 group on %s: %w", iface.Name, err)
	}
	if err := pc.SetMulticastInterface(iface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("socket: set multicast interface %s: %w", iface.Name, err)
	}
	_ = pc.SetMulticastTTL(255)
	_ = pc.SetMulticastLoopback(false)
	return &V4{pc: pc, conn: conn, dst: &net.UDPAddr{IP: GroupV4, Port: Port}}, nil
}

// Send implements domain.Endpoint.
func (s *V4) Send(b []byte) error {
	_, err := s.pc.WriteTo(b, nil, s.dst)
	return err
}

// ReadFrom reads one datagram into buf.
func (s *V4) ReadFrom(buf []byte) (n int, from *net.UDPAddr, err error) {
	n, _, addr, err := s.pc.ReadFrom(buf)
	if err != nil {
		return 0, nil, err
	}
	from, _ = addr.(*net.UDPAddr)
	return n, from, nil
}

// Fd returns the underlying socket descriptor, for registration with a
// readiness notifier.
func (s *V4) Fd() (int, error) {
	return sysFd(s.conn)
}

// Close releases the socket.
func (s *V4) Close() error {
	return s.conn.Close()
}

// V6 is one interface's bound IPv6 mDNS socket. It implements
// domain.Endpoint.
type V6 struct {
	pc   *ipv6.PacketConn
	conn net.PacketConn
	dst  *net.UDPAddr
}

// OpenV6 binds, joins the mDNS group, and pins the multicast interface
// for iface's IPv6 side.
func OpenV6(iface *net.Interface) (*V6, error) {
	lc := net.ListenConfig{Control: controlBindDevice(iface.Name)}
	conn, err := lc.ListenPacket(context.Background(), "udp6", fmt.Sprintf(":%d", Port))
	if err != nil {
		return nil, fmt.Errorf("socket: listen udp6 on %s: %w", iface.Name, err)
	}
	pc := ipv6.NewPacketConn(conn)
	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: GroupV6}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("socket: join ipv6 group on %s: %w", iface.Name, err)
	}
	if err := pc.SetMulticastInterface(iface); err != nil {
		conn.Close()
		return nil, fmt.Errorf("socket: set multicast interface %s: %w", iface.Name, err)
	}
	_ = pc.SetMulticastHopLimit(255)
	_ = pc.SetMulticastLoopback(false)
	return &V6{pc: pc, conn: conn, dst: &net.UDPAddr{IP: GroupV6, Port: Port, Zone: iface.Name}}, nil
}

// Send implements domain.Endpoint.
func (s *V6) Send(b []byte) error {
	_, err := s.pc.WriteTo(b, nil, s.dst)
	return err
}

// ReadFrom reads one datagram into buf.
func (s *V6) ReadFrom(buf []byte) (n int, from *net.UDPAddr, err error) {
	n, _, addr, err := s.pc.ReadFrom(buf)
	if err != nil {
		return 0, nil, err
	}
	from, _ = addr.(*net.UDPAddr)
	return n, from, nil
}

// Fd returns the underlying socket descriptor, for registration with a
// readiness notifier.
func (s *V6) Fd() (int, error) {
	return sysFd(s.conn)
}

// Close releases the socket.
func (s *V6) Close() error {
	return s.conn.Close()
}

// sysFd extracts the raw file descriptor behind a net.PacketConn.
func sysFd(conn net.PacketConn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("socket: connection does not expose a raw descriptor")
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd int
	if err := rc.Control(func(f uintptr) { fd = int(f) }); err != nil {
		return 0, err
	}
	return fd, nil
}

// ListMulticastInterfaces returns every up, multicast-capable system
// interface. The daemon itself does not call it: its configuration
// always names the interfaces to bridge.
func ListMulticastInterfaces() ([]net.Interface, error) {
	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.Interface
	for _, ifi := range all {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		out = append(out, ifi)
	}
	return out, nil
}
