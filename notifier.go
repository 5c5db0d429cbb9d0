package xtray

import "time"

// Listener receives tray events.
//
// Events are delivered synchronously on the goroutine that dispatches X
// events, in the order they happen. IconAdded of a socket always precedes
// any message event that refers to it. After IconRemoved the socket is being
// torn down: receivers must not attach, resize or read it anymore.
type Listener interface {
	// IconAdded is called when a client requests to dock. The host must
	// attach socket into a live window with [Socket.Attach] before returning,
	// otherwise the icon is dropped.
	IconAdded(socket *Socket)

	// IconRemoved is called when an icon is removed from the tray.
	IconRemoved(socket *Socket)

	// MessageSent is called when a balloon message was fully received.
	MessageSent(socket *Socket, text string, id uint32, timeout time.Duration)

	// MessageCancelled is called when a client cancels a balloon message.
	MessageCancelled(socket *Socket, id uint32)

	// LostSelection is called when another client takes over the tray
	// selection.
	LostSelection()
}

// ListenerFuncs is a [Listener] built from optional callbacks. Nil callbacks
// are skipped.
type ListenerFuncs struct {
	OnIconAdded        func(socket *Socket)
	OnIconRemoved      func(socket *Socket)
	OnMessageSent      func(socket *Socket, text string, id uint32, timeout time.Duration)
	OnMessageCancelled func(socket *Socket, id uint32)
	OnLostSelection    func()
}

func (f ListenerFuncs) IconAdded(socket *Socket) {
	if f.OnIconAdded != nil {
		f.OnIconAdded(socket)
	}
}

func (f ListenerFuncs) IconRemoved(socket *Socket) {
	if f.OnIconRemoved != nil {
		f.OnIconRemoved(socket)
	}
}

func (f ListenerFuncs) MessageSent(socket *Socket, text string, id uint32, timeout time.Duration) {
	if f.OnMessageSent != nil {
		f.OnMessageSent(socket, text, id, timeout)
	}
}

func (f ListenerFuncs) MessageCancelled(socket *Socket, id uint32) {
	if f.OnMessageCancelled != nil {
		f.OnMessageCancelled(socket, id)
	}
}

func (f ListenerFuncs) LostSelection() {
	if f.OnLostSelection != nil {
		f.OnLostSelection()
	}
}

type listenerEntry struct {
	id       uint64
	listener Listener
}

// notifier fans events out to listeners in registration order.
type notifier struct {
	nextID    uint64
	listeners []listenerEntry
}

func (n *notifier) add(l Listener) func() {
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry{id: id, listener: l})

	return func() {
		for idx, entry := range n.listeners {
			if entry.id == id {
				n.listeners = append(n.listeners[:idx:idx], n.listeners[idx+1:]...)
				return
			}
		}
	}
}

// each calls fn for listeners registered at the time of the call, so that
// listeners may add or remove listeners from inside a callback.
func (n *notifier) each(fn func(Listener)) {
	listeners := n.listeners

	for _, entry := range listeners {
		fn(entry.listener)
	}
}

func (n *notifier) iconAdded(s *Socket) {
	n.each(func(l Listener) { l.IconAdded(s) })
}

func (n *notifier) iconRemoved(s *Socket) {
	n.each(func(l Listener) { l.IconRemoved(s) })
}

func (n *notifier) messageSent(s *Socket, text string, id uint32, timeout time.Duration) {
	n.each(func(l Listener) { l.MessageSent(s, text, id, timeout) })
}

func (n *notifier) messageCancelled(s *Socket, id uint32) {
	n.each(func(l Listener) { l.MessageCancelled(s, id) })
}

func (n *notifier) lostSelection() {
	n.each(func(l Listener) { l.LostSelection() })
}
