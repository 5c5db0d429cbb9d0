package xtray

import (
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
)

// dockHandler turns dock requests into embedded sockets.
type dockHandler struct {
	display  Display
	log      zerolog.Logger
	atoms    *atoms
	root     xproto.Window
	registry *SocketRegistry
	notifier *notifier

	// managed reports whether the manager still owns the selection. Listeners
	// may unmanage from inside a callback.
	managed func() bool
}

// handle docks window.
func (h *dockHandler) handle(window xproto.Window) {
	log := h.log.With().Uint32("window", uint32(window)).Logger()

	if window == xproto.WindowNone {
		log.Debug().Msg("ignoring dock request without window")
		return
	}

	if _, exists := h.registry.Lookup(window); exists {
		log.Debug().Msg("ignoring dock request of docked window")
		return
	}

	socket := newSocket(h.display, h.atoms, window)

	// The host attaches the socket while handling IconAdded.
	h.notifier.iconAdded(socket)

	if !h.managed() {
		log.Debug().Msg("tray was unmanaged while adding icon")
		h.abort(socket)
		return
	}

	if !socket.realized() {
		log.Info().Msg("icon was not attached to a live window, dropping it")
		h.abort(socket)
		return
	}

	if err := socket.embed(); err != nil {
		log.Debug().Err(err).Msg("embedding failed")
	}

	if !h.display.WindowExists(window) {
		log.Info().Msg("icon window disappeared while docking")
		h.abort(socket)
		return
	}

	h.registry.Insert(window, socket)
	socket.requestSize(1, 1)

	log.Debug().Uint32("container", uint32(socket.Container())).Msg("icon docked")
}

// abort drops a socket that was announced but never registered.
func (h *dockHandler) abort(socket *Socket) {
	socket.embedded = false
	h.notifier.iconRemoved(socket)

	if err := socket.destroy(); err != nil {
		h.log.Debug().Err(err).Msg("failed to destroy socket")
	}
}

// plugRemoved tears down the socket of window after the client left it.
func (h *dockHandler) plugRemoved(window xproto.Window) bool {
	socket, exists := h.registry.Remove(window)
	if !exists {
		return false
	}

	h.log.Debug().Uint32("window", uint32(window)).Msg("icon removed")
	h.teardown(socket)

	return true
}

// undock moves window out of its socket and tears the socket down.
func (h *dockHandler) undock(window xproto.Window) bool {
	socket, exists := h.registry.Remove(window)
	if !exists {
		return false
	}

	if err := socket.unembed(h.root); err != nil {
		h.log.Debug().Err(err).Uint32("window", uint32(window)).Msg("failed to unembed icon")
	}

	h.teardown(socket)

	return true
}

// undockAll undocks every registered window.
func (h *dockHandler) undockAll() {
	for _, window := range h.registry.Windows() {
		h.undock(window)
	}
}

// teardown finishes removal of a socket that was taken out of the registry.
func (h *dockHandler) teardown(socket *Socket) {
	socket.forget()
	h.notifier.iconRemoved(socket)

	if err := socket.destroy(); err != nil {
		h.log.Debug().Err(err).Msg("failed to destroy socket")
	}
}
