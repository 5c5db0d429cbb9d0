package cli

import (
	"fmt"
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
	"github.com/shelepuginivan/xtray"
)

// hostSlots is the number of icon slots in the host window.
const hostSlots = 64

// offscreenHost keeps docked icons in an override-redirect window placed
// outside of the visible screen area.
type offscreenHost struct {
	display     xtray.Display
	log         zerolog.Logger
	window      xproto.Window
	size        uint16
	orientation xtray.Orientation
	slots       map[*xtray.Socket]int
}

func newOffscreenHost(d xtray.Display, root xproto.Window, size uint16, orientation xtray.Orientation, log zerolog.Logger) (*offscreenHost, error) {
	width, height := size*hostSlots, size
	if orientation == xtray.OrientationVertical {
		width, height = size, size*hostSlots
	}

	window, err := d.CreateWindow(
		root,
		-10000, -10000, width, height,
		xproto.WindowClassInputOutput,
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{1, xproto.EventMaskStructureNotify},
	)
	if err != nil {
		return nil, fmt.Errorf("create host window: %w", err)
	}

	if err := d.MapWindow(window); err != nil {
		d.DestroyWindow(window)
		return nil, fmt.Errorf("map host window: %w", err)
	}

	return &offscreenHost{
		display:     d,
		log:         log,
		window:      window,
		size:        size,
		orientation: orientation,
		slots:       make(map[*xtray.Socket]int),
	}, nil
}

func (h *offscreenHost) close() {
	if err := h.display.DestroyWindow(h.window); err != nil {
		h.log.Debug().Err(err).Msg("failed to destroy host window")
	}
}

// freeSlot returns the lowest unused slot.
func (h *offscreenHost) freeSlot() int {
	used := make(map[int]bool, len(h.slots))
	for _, slot := range h.slots {
		used[slot] = true
	}

	slot := 0
	for used[slot] {
		slot++
	}

	return slot
}

func (h *offscreenHost) IconAdded(socket *xtray.Socket) {
	slot := h.freeSlot()
	offset := int16(slot * int(h.size))

	x, y := offset, int16(0)
	if h.orientation == xtray.OrientationVertical {
		x, y = 0, offset
	}

	if err := socket.Attach(h.window, x, y, h.size, h.size); err != nil {
		h.log.Warn().Err(err).Uint32("window", uint32(socket.Window())).Msg("failed to attach icon")
		return
	}

	h.slots[socket] = slot
}

func (h *offscreenHost) IconRemoved(socket *xtray.Socket) {
	delete(h.slots, socket)
}

func (h *offscreenHost) MessageSent(*xtray.Socket, string, uint32, time.Duration) {}

func (h *offscreenHost) MessageCancelled(*xtray.Socket, uint32) {}

func (h *offscreenHost) LostSelection() {}

// logListener logs tray events.
func logListener(log zerolog.Logger) xtray.Listener {
	return xtray.ListenerFuncs{
		OnIconAdded: func(socket *xtray.Socket) {
			log.Info().Uint32("window", uint32(socket.Window())).Msg("icon added")
		},
		OnIconRemoved: func(socket *xtray.Socket) {
			log.Info().Uint32("container", uint32(socket.Container())).Msg("icon removed")
		},
		OnMessageSent: func(socket *xtray.Socket, text string, id uint32, timeout time.Duration) {
			title, _ := socket.Title()
			log.Info().
				Uint32("window", uint32(socket.Window())).
				Str("title", title).
				Uint32("id", id).
				Dur("timeout", timeout).
				Str("text", text).
				Msg("balloon message")
		},
		OnMessageCancelled: func(socket *xtray.Socket, id uint32) {
			log.Info().Uint32("window", uint32(socket.Window())).Uint32("id", id).Msg("balloon message cancelled")
		},
		OnLostSelection: func() {
			log.Warn().Msg("another tray manager took over the selection")
		},
	}
}
