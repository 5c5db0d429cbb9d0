// Package x11 implements [xtray.Display] on top of an xgb connection.
package x11

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
	"github.com/shelepuginivan/xtray"
)

// timestampProperty is changed on a window to obtain a server timestamp.
const timestampProperty = "_XTRAY_TIMESTAMP_PROP"

// ErrClosed is returned by [Conn.NextEvent] once the connection is closed.
var ErrClosed = errors.New("x11: connection closed")

var _ xtray.Display = (*Conn)(nil)

// Conn is a connection to an X server.
//
// Events are read by a single background goroutine and handed out by
// [Conn.NextEvent]. [Conn.ServerTime] consumes events while it waits for its
// own PropertyNotify, keeping the others for NextEvent, so both must be
// called from the same goroutine.
type Conn struct {
	conn    *xgb.Conn
	log     zerolog.Logger
	events  chan xgb.Event
	backlog []xgb.Event

	mu    sync.Mutex
	atoms map[string]xproto.Atom
}

// Dial connects to display. Empty display means $DISPLAY.
func Dial(display string, log zerolog.Logger) (*Conn, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect X11: %w", err)
	}

	return newConn(conn, log), nil
}

func newConn(conn *xgb.Conn, log zerolog.Logger) *Conn {
	c := &Conn{
		conn:   conn,
		log:    log,
		events: make(chan xgb.Event, 64),
		atoms:  make(map[string]xproto.Atom),
	}

	go c.pump()

	return c
}

// pump forwards events until the connection is closed.
func (c *Conn) pump() {
	defer close(c.events)

	for {
		ev, xerr := c.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}

		// Asynchronous errors of unchecked requests, e.g. BadWindow from a
		// client that went away.
		if xerr != nil {
			c.log.Debug().Str("error", xerr.Error()).Msg("X error")
			continue
		}

		c.events <- ev
	}
}

// Close closes the connection.
func (c *Conn) Close() {
	c.conn.Close()
}

// NextEvent returns the next event, waiting until one arrives or ctx is done.
func (c *Conn) NextEvent(ctx context.Context) (xgb.Event, error) {
	if len(c.backlog) > 0 {
		ev := c.backlog[0]
		c.backlog = c.backlog[1:]
		return ev, nil
	}

	select {
	case ev, ok := <-c.events:
		if !ok {
			return nil, ErrClosed
		}
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Screen(num int) (*xproto.ScreenInfo, error) {
	setup := xproto.Setup(c.conn)

	if num < 0 || num >= len(setup.Roots) {
		return nil, fmt.Errorf("screen %d does not exist", num)
	}

	return &setup.Roots[num], nil
}

// DefaultScreen returns number of the default screen of the connection.
func (c *Conn) DefaultScreen() int {
	return c.conn.DefaultScreen
}

// InternAtom interns name. Atoms are cached for the lifetime of the
// connection.
func (c *Conn) InternAtom(name string) (xproto.Atom, error) {
	c.mu.Lock()
	atom, cached := c.atoms[name]
	c.mu.Unlock()

	if cached {
		return atom, nil
	}

	reply, err := xproto.InternAtom(c.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}

	c.mu.Lock()
	c.atoms[name] = reply.Atom
	c.mu.Unlock()

	return reply.Atom, nil
}

func (c *Conn) CreateWindow(parent xproto.Window, x, y int16, width, height uint16, class uint16, mask uint32, values []uint32) (xproto.Window, error) {
	win, err := xproto.NewWindowId(c.conn)
	if err != nil {
		return 0, fmt.Errorf("new window id: %w", err)
	}

	err = xproto.CreateWindowChecked(
		c.conn,
		0,
		win,
		parent,
		x, y, width, height,
		0,
		class,
		0,
		mask,
		values,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}

	return win, nil
}

func (c *Conn) DestroyWindow(win xproto.Window) error {
	return xproto.DestroyWindowChecked(c.conn, win).Check()
}

func (c *Conn) MapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(c.conn, win).Check()
}

func (c *Conn) ReparentWindow(win, parent xproto.Window, x, y int16) error {
	return xproto.ReparentWindowChecked(c.conn, win, parent, x, y).Check()
}

func (c *Conn) ResizeWindow(win xproto.Window, width, height uint16) error {
	return xproto.ConfigureWindowChecked(
		c.conn,
		win,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)},
	).Check()
}

func (c *Conn) ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) error {
	return xproto.ChangeWindowAttributesChecked(c.conn, win, mask, values).Check()
}

func (c *Conn) ChangeSaveSet(mode byte, win xproto.Window) error {
	return xproto.ChangeSaveSetChecked(c.conn, mode, win).Check()
}

func (c *Conn) ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) error {
	units := uint32(len(data))
	if format > 8 {
		units /= uint32(format / 8)
	}

	return xproto.ChangePropertyChecked(c.conn, xproto.PropModeReplace, win, property, typ, format, units, data).Check()
}

func (c *Conn) GetProperty(win xproto.Window, property, typ xproto.Atom, length uint32) (*xproto.GetPropertyReply, error) {
	return xproto.GetProperty(c.conn, false, win, property, typ, 0, length).Reply()
}

func (c *Conn) SetSelectionOwner(owner xproto.Window, selection xproto.Atom, time xproto.Timestamp) error {
	return xproto.SetSelectionOwnerChecked(c.conn, owner, selection, time).Check()
}

func (c *Conn) SelectionOwner(selection xproto.Atom) (xproto.Window, error) {
	reply, err := xproto.GetSelectionOwner(c.conn, selection).Reply()
	if err != nil {
		return xproto.WindowNone, err
	}

	return reply.Owner, nil
}

func (c *Conn) SendEvent(dest xproto.Window, mask uint32, ev xproto.ClientMessageEvent) error {
	return xproto.SendEventChecked(c.conn, false, dest, mask, string(ev.Bytes())).Check()
}

// ServerTime appends zero bytes to a property of win and waits for the
// resulting PropertyNotify, which carries the server time.
func (c *Conn) ServerTime(win xproto.Window) (xproto.Timestamp, error) {
	atom, err := c.InternAtom(timestampProperty)
	if err != nil {
		return 0, err
	}

	err = xproto.ChangePropertyChecked(c.conn, xproto.PropModeAppend, win, atom, xproto.AtomString, 8, 0, nil).Check()
	if err != nil {
		return 0, fmt.Errorf("change timestamp property: %w", err)
	}

	for {
		ev, ok := <-c.events
		if !ok {
			return 0, ErrClosed
		}

		notify, isNotify := ev.(xproto.PropertyNotifyEvent)
		if isNotify && notify.Window == win && notify.Atom == atom {
			return notify.Time, nil
		}

		c.backlog = append(c.backlog, ev)
	}
}

func (c *Conn) WindowExists(win xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.conn, win).Reply()
	return err == nil
}
