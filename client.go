package xtray

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

// Message is a balloon message received by [Client].
type Message struct {
	// Window of the icon that sent the message.
	Window uint32

	// Text of the message.
	Text string

	// Identifier of the message, unique per icon.
	ID uint32

	// How long the message should be shown. Zero means until dismissed.
	Timeout time.Duration
}

// Client keeps track of tray icons exported by a [Service] running in
// another process.
type Client struct {
	closed             bool
	conn               *dbus.Conn
	object             dbus.BusObject
	icons              []uint32
	signals            chan *dbus.Signal
	mu                 sync.RWMutex
	onIconAdded        func(window uint32)
	onIconRemoved      func(window uint32)
	onMessage          func(msg *Message)
	onMessageCancelled func(window, id uint32)
	onLostSelection    func()
}

// NewClient returns a new [Client].
func NewClient(conn *dbus.Conn) *Client {
	c := &Client{
		closed:             false,
		conn:               conn,
		signals:            make(chan *dbus.Signal, 64),
		onIconAdded:        func(uint32) {},
		onIconRemoved:      func(uint32) {},
		onMessage:          func(*Message) {},
		onMessageCancelled: func(uint32, uint32) {},
		onLostSelection:    func() {},
	}

	if conn != nil {
		c.object = conn.Object(ServiceName, ServicePath)
	}

	return c
}

// Listen queries icons that are already docked and subscribes to signals of
// the service.
//
// This method should be called after the callbacks were set.
//
// If Listen is called after [Client.Close], an error is returned.
func (c *Client) Listen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("listen: client is closed")
	}

	if err := c.conn.AddMatchSignal(
		dbus.WithMatchInterface(ServiceInterface),
		dbus.WithMatchObjectPath(ServicePath),
	); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	c.conn.Signal(c.signals)

	go func() {
		for signal := range c.signals {
			c.handleSignal(signal)
		}
	}()

	c.getInitialIcons()

	return nil
}

// Close unsubscribes from signals.
//
// Client cannot be reused after Close was called.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	if err := c.conn.RemoveMatchSignal(
		dbus.WithMatchInterface(ServiceInterface),
		dbus.WithMatchObjectPath(ServicePath),
	); err != nil {
		return err
	}

	c.conn.RemoveSignal(c.signals)
	close(c.signals)

	c.closed = true

	return nil
}

// Icons returns windows of docked icons.
func (c *Client) Icons() []uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.icons)
}

// Name returns title of the icon embedded from window.
func (c *Client) Name(window uint32) (string, error) {
	var name string

	if err := c.object.Call(ServiceInterface+".GetName", 0, window).Store(&name); err != nil {
		return "", fmt.Errorf("get name of %d: %w", window, err)
	}

	return name, nil
}

// OnIconAdded sets callback that runs whenever an icon is docked.
func (c *Client) OnIconAdded(callback func(window uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onIconAdded = callback
}

// OnIconRemoved sets callback that runs whenever an icon is removed.
func (c *Client) OnIconRemoved(callback func(window uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onIconRemoved = callback
}

// OnMessage sets callback that runs whenever an icon sends a balloon message.
func (c *Client) OnMessage(callback func(msg *Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onMessage = callback
}

// OnMessageCancelled sets callback that runs whenever an icon cancels a
// balloon message.
func (c *Client) OnMessageCancelled(callback func(window, id uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onMessageCancelled = callback
}

// OnLostSelection sets callback that runs when the tray manager loses its
// selection.
func (c *Client) OnLostSelection(callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onLostSelection = callback
}

// getInitialIcons reads the Icons property of the service.
func (c *Client) getInitialIcons() {
	variant, err := c.object.GetProperty(ServiceInterface + ".Icons")
	if err != nil {
		return
	}

	icons, ok := variant.Value().([]uint32)
	if !ok {
		return
	}

	for _, window := range icons {
		if slices.Contains(c.icons, window) {
			continue
		}

		c.icons = append(c.icons, window)
		c.onIconAdded(window)
	}
}

// handleSignal handles signals of the service interface.
func (c *Client) handleSignal(signal *dbus.Signal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch signal.Name {
	case ServiceInterface + ".IconAdded":
		window, err := windowFromSignal(signal)
		if err != nil || slices.Contains(c.icons, window) {
			return
		}

		c.icons = append(c.icons, window)
		c.onIconAdded(window)

	case ServiceInterface + ".IconRemoved":
		window, err := windowFromSignal(signal)
		if err != nil {
			return
		}

		idx := slices.Index(c.icons, window)
		if idx < 0 {
			return
		}

		c.icons = slices.Delete(c.icons, idx, idx+1)
		c.onIconRemoved(window)

	case ServiceInterface + ".MessageSent":
		msg, err := messageFromSignal(signal)
		if err != nil {
			return
		}

		c.onMessage(msg)

	case ServiceInterface + ".MessageCancelled":
		window, err := windowFromSignal(signal)
		if err != nil || len(signal.Body) < 2 {
			return
		}

		id, ok := signal.Body[1].(uint32)
		if !ok {
			return
		}

		c.onMessageCancelled(window, id)

	case ServiceInterface + ".LostSelection":
		c.icons = nil
		c.onLostSelection()
	}
}

// windowFromSignal retrieves window of the icon from the first argument of a
// signal.
func windowFromSignal(signal *dbus.Signal) (uint32, error) {
	if len(signal.Body) < 1 {
		return 0, fmt.Errorf("signal body is empty")
	}

	window, ok := signal.Body[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("invalid format of signal body")
	}

	return window, nil
}

// messageFromSignal retrieves [Message] from the MessageSent signal.
//
// Format of signal body is as follows
//
//	[<window>, <text>, <id>, <timeout>]
//
// Where timeout is in milliseconds.
func messageFromSignal(signal *dbus.Signal) (*Message, error) {
	if len(signal.Body) != 4 {
		return nil, fmt.Errorf("invalid message: expected 4 arguments, got %d", len(signal.Body))
	}

	window, ok := signal.Body[0].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid message window")
	}

	text, ok := signal.Body[1].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message text")
	}

	id, ok := signal.Body[2].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid message id")
	}

	timeout, ok := signal.Body[3].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid message timeout")
	}

	return &Message{
		Window:  window,
		Text:    text,
		ID:      id,
		Timeout: time.Duration(timeout) * time.Millisecond,
	}, nil
}
