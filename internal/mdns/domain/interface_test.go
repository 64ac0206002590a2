package domain

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubEndpoint struct{}

func (stubEndpoint) Send([]byte) error { return nil }
func (stubEndpoint) ReadFrom([]byte) (int, *net.UDPAddr, error) {
	return 0, nil, nil
}
func (stubEndpoint) Fd() (int, error) { return 0, nil }
func (stubEndpoint) Close() error     { return nil }

func TestFamily_String(t *testing.T) {
	assert.Equal(t, "ipv4", FamilyIPv4.String())
	assert.Equal(t, "ipv6", FamilyIPv6.String())
}

func TestInterface_EnabledAndEndpointFor(t *testing.T) {
	epV4 := stubEndpoint{}
	epV6 := stubEndpoint{}
	ifc := &Interface{
		Name:       "eth0",
		DisabledV6: true,
		EndpointV4: epV4,
		EndpointV6: epV6,
	}
	assert.True(t, ifc.Enabled(FamilyIPv4))
	assert.False(t, ifc.Enabled(FamilyIPv6))
	assert.Equal(t, Endpoint(epV4), ifc.EndpointFor(FamilyIPv4))
	assert.Equal(t, Endpoint(epV6), ifc.EndpointFor(FamilyIPv6))
}
