package xtray

import (
	"time"

	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
)

// MessageFragmentSize is the number of bytes carried by one
// _NET_SYSTEM_TRAY_MESSAGE_DATA event.
const MessageFragmentSize = 20

// MaxMessageLength is the longest balloon message accepted from a client.
const MaxMessageLength = 64 * 1024

// pendingMessage is a balloon message that is still being received.
type pendingMessage struct {
	window    xproto.Window
	id        uint32
	length    uint32
	remaining uint32
	timeout   time.Duration
	buf       []byte
}

// reassembler collects message fragments.
//
// Data frames carry no message id, so fragments are matched by sender window
// only: a client may have at most one message in flight.
type reassembler struct {
	log      zerolog.Logger
	registry *SocketRegistry
	notifier *notifier

	// Most recently started message first.
	pending []*pendingMessage
}

func newReassembler(log zerolog.Logger, registry *SocketRegistry, n *notifier) *reassembler {
	return &reassembler{
		log:      log,
		registry: registry,
		notifier: n,
	}
}

// begin starts a message of length bytes, replacing a message with the same
// window and id.
func (r *reassembler) begin(window xproto.Window, id, length uint32, timeout time.Duration) {
	if idx := r.indexOf(window, id); idx >= 0 {
		r.log.Debug().
			Uint32("window", uint32(window)).
			Uint32("id", id).
			Msg("message restarted, dropping previous fragments")
		r.take(idx)
	}

	if length > MaxMessageLength {
		r.log.Warn().
			Uint32("window", uint32(window)).
			Uint32("id", id).
			Uint32("length", length).
			Msg("ignoring oversized message")
		return
	}

	msg := &pendingMessage{
		window:    window,
		id:        id,
		length:    length,
		remaining: length,
		timeout:   timeout,
		buf:       make([]byte, length),
	}

	// No data frame follows an empty message.
	if length == 0 {
		r.complete(msg)
		return
	}

	r.pending = append([]*pendingMessage{msg}, r.pending...)
}

// data appends a fragment to the message of window.
func (r *reassembler) data(window xproto.Window, payload []byte) {
	idx := r.indexOfWindow(window)
	if idx < 0 {
		r.log.Debug().Uint32("window", uint32(window)).Msg("message data without pending message")
		return
	}

	msg := r.pending[idx]

	n := min(msg.remaining, MessageFragmentSize, uint32(len(payload)))
	offset := msg.length - msg.remaining
	copy(msg.buf[offset:offset+n], payload[:n])
	msg.remaining -= n

	if msg.remaining == 0 {
		r.complete(r.take(idx))
	}
}

// cancel reports cancellation of message id. Fragments of a message in flight
// are kept.
func (r *reassembler) cancel(window xproto.Window, id uint32) {
	socket, exists := r.registry.Lookup(window)
	if !exists {
		return
	}

	r.notifier.messageCancelled(socket, id)
}

// reset drops all pending messages.
func (r *reassembler) reset() {
	r.pending = nil
}

// complete delivers msg. Messages from windows without a socket are dropped.
func (r *reassembler) complete(msg *pendingMessage) {
	socket, exists := r.registry.Lookup(msg.window)
	if !exists {
		r.log.Debug().
			Uint32("window", uint32(msg.window)).
			Uint32("id", msg.id).
			Msg("dropping message from unknown icon")
		return
	}

	r.notifier.messageSent(socket, string(msg.buf), msg.id, msg.timeout)
}

// take removes the pending message at idx and returns it.
func (r *reassembler) take(idx int) *pendingMessage {
	msg := r.pending[idx]
	r.pending = append(r.pending[:idx:idx], r.pending[idx+1:]...)

	return msg
}

func (r *reassembler) indexOf(window xproto.Window, id uint32) int {
	for idx, msg := range r.pending {
		if msg.window == window && msg.id == id {
			return idx
		}
	}

	return -1
}

func (r *reassembler) indexOfWindow(window xproto.Window) int {
	for idx, msg := range r.pending {
		if msg.window == window {
			return idx
		}
	}

	return -1
}
