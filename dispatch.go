package xtray

import (
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
)

// System tray opcodes.
const (
	OpcodeRequestDock   = 0
	OpcodeBeginMessage  = 1
	OpcodeCancelMessage = 2
)

// dispatcher routes X events received by the owner window.
type dispatcher struct {
	log      zerolog.Logger
	atoms    *atoms
	owner    xproto.Window
	docks    *dockHandler
	messages *reassembler
	registry *SocketRegistry

	// lost is called when the selection was taken by another client.
	lost func()
}

// dispatch handles ev and reports whether it was consumed.
func (d *dispatcher) dispatch(ev xgb.Event) bool {
	switch e := ev.(type) {
	case xproto.ClientMessageEvent:
		return d.clientMessage(e)

	case xproto.SelectionClearEvent:
		if e.Owner != d.owner || e.Selection != d.atoms.Selection {
			return false
		}

		d.log.Info().Uint32("owner", uint32(e.Owner)).Msg("tray selection lost")
		d.lost()
		return true

	case xproto.DestroyNotifyEvent:
		return d.docks.plugRemoved(e.Window)

	case xproto.ReparentNotifyEvent:
		socket, exists := d.registry.Lookup(e.Window)
		if !exists || e.Parent == socket.Container() {
			return false
		}

		return d.docks.plugRemoved(e.Window)
	}

	return false
}

func (d *dispatcher) clientMessage(ev xproto.ClientMessageEvent) bool {
	switch ev.Type {
	case d.atoms.Opcode:
		return d.opcode(ev)

	case d.atoms.MessageData:
		if ev.Format != 8 {
			d.log.Debug().Uint8("format", ev.Format).Msg("ignoring message data of wrong format")
			return true
		}

		d.messages.data(ev.Window, ev.Data.Data8)
		return true
	}

	return false
}

// opcode handles _NET_SYSTEM_TRAY_OPCODE messages:
//
//	[<timestamp>, <opcode>, <arg2>, <arg3>, <arg4>]
func (d *dispatcher) opcode(ev xproto.ClientMessageEvent) bool {
	data := ev.Data.Data32
	if ev.Format != 32 || len(data) < 5 {
		d.log.Debug().Uint8("format", ev.Format).Msg("ignoring malformed opcode message")
		return false
	}

	switch data[1] {
	case OpcodeRequestDock:
		d.docks.handle(xproto.Window(data[2]))

	case OpcodeBeginMessage:
		timeout := time.Duration(data[2]) * time.Millisecond
		d.messages.begin(ev.Window, data[4], data[3], timeout)

	case OpcodeCancelMessage:
		d.messages.cancel(ev.Window, data[2])

	default:
		d.log.Debug().Uint32("opcode", data[1]).Msg("ignoring unknown opcode")
		return false
	}

	return true
}
