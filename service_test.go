package xtray

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceTracksIcons(t *testing.T) {
	d, a, socket, client := newTestSocket(t)
	require.NoError(t, d.ChangeProperty(client, a.NetWMName, a.UTF8String, 8, []byte("Network")))

	s := NewService(nil)

	s.IconAdded(socket)
	assert.Equal(t, []uint32{uint32(client)}, s.Windows())

	name, dbusErr := s.GetName(uint32(client))
	require.Nil(t, dbusErr)
	assert.Equal(t, "Network", name)

	_, dbusErr = s.GetName(1234)
	assert.NotNil(t, dbusErr)

	s.MessageSent(socket, "hello", 1, time.Second)
	s.MessageCancelled(socket, 1)

	// Window of the socket is cleared before IconRemoved.
	socket.forget()
	s.IconRemoved(socket)
	assert.Empty(t, s.Windows())

	s.SetManaged(true)
	s.LostSelection()
	assert.False(t, s.managed)
}

func TestServiceGetNameWithoutTitle(t *testing.T) {
	_, _, socket, client := newTestSocket(t)

	s := NewService(nil)
	s.IconAdded(socket)

	_, dbusErr := s.GetName(uint32(client))
	assert.NotNil(t, dbusErr)
}
