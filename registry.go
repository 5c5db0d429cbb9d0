package xtray

import (
	"slices"

	"github.com/jezek/xgb/xproto"
)

// SocketRegistry maps client windows to the sockets they are embedded into.
//
// The registry does not own sockets: removing an entry never destroys the
// socket itself.
type SocketRegistry struct {
	sockets map[xproto.Window]*Socket
}

// NewSocketRegistry returns an empty [SocketRegistry].
func NewSocketRegistry() *SocketRegistry {
	return &SocketRegistry{
		sockets: make(map[xproto.Window]*Socket),
	}
}

// Insert registers socket for window, replacing any previous entry.
func (r *SocketRegistry) Insert(window xproto.Window, socket *Socket) {
	r.sockets[window] = socket
}

// Remove deletes the entry of window and returns the socket it held.
func (r *SocketRegistry) Remove(window xproto.Window) (*Socket, bool) {
	socket, exists := r.sockets[window]
	if !exists {
		return nil, false
	}

	delete(r.sockets, window)
	return socket, true
}

// Lookup returns socket registered for window.
func (r *SocketRegistry) Lookup(window xproto.Window) (*Socket, bool) {
	socket, exists := r.sockets[window]
	return socket, exists
}

// Len returns number of registered sockets.
func (r *SocketRegistry) Len() int {
	return len(r.sockets)
}

// Windows returns registered client windows in ascending order.
func (r *SocketRegistry) Windows() []xproto.Window {
	windows := make([]xproto.Window, 0, len(r.sockets))

	for window := range r.sockets {
		windows = append(windows, window)
	}

	slices.Sort(windows)
	return windows
}
