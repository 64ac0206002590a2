package socket

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenV4_RejectsUnknownInterface(t *testing.T) {
	fake := &net.Interface{Name: "definitely-not-a-real-interface-xyz"}
	_, err := OpenV4(fake)
	assert.Error(t, err)
}

func TestOpenV6_RejectsUnknownInterface(t *testing.T) {
	fake := &net.Interface{Name: "definitely-not-a-real-interface-xyz"}
	_, err := OpenV6(fake)
	assert.Error(t, err)
}

func TestListMulticastInterfaces_ReturnsNoError(t *testing.T) {
	ifaces, err := ListMulticastInterfaces()
	require.NoError(t, err)
	for _, ifc := range ifaces {
		assert.NotZero(t, ifc.Flags&net.FlagUp)
		assert.NotZero(t, ifc.Flags&net.FlagMulticast)
	}
}
