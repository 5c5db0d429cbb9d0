package xtray

import (
	"context"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Display is the subset of the X protocol used by the tray manager.
//
// Implementations are not required to be safe for concurrent use, except for
// [Display.GetProperty] and [Display.WindowExists], which may be called by
// [Service] from D-Bus goroutines.
type Display interface {
	// Screen returns information about screen num.
	Screen(num int) (*xproto.ScreenInfo, error)

	// InternAtom returns the atom named name, creating it if necessary.
	InternAtom(name string) (xproto.Atom, error)

	// CreateWindow creates a window of the given class with a CopyFromParent
	// depth and visual. Values must be ordered by mask bit.
	CreateWindow(parent xproto.Window, x, y int16, width, height uint16, class uint16, mask uint32, values []uint32) (xproto.Window, error)
	DestroyWindow(win xproto.Window) error
	MapWindow(win xproto.Window) error
	ReparentWindow(win, parent xproto.Window, x, y int16) error
	ResizeWindow(win xproto.Window, width, height uint16) error
	ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) error

	// ChangeSaveSet inserts win into (or deletes it from) the save set of the
	// connection, depending on mode.
	ChangeSaveSet(mode byte, win xproto.Window) error

	// ChangeProperty replaces property of win.
	ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) error

	// GetProperty reads up to length 32-bit units of property.
	GetProperty(win xproto.Window, property, typ xproto.Atom, length uint32) (*xproto.GetPropertyReply, error)

	SetSelectionOwner(owner xproto.Window, selection xproto.Atom, time xproto.Timestamp) error

	// SelectionOwner performs a round trip and returns the current owner of
	// selection, or [xproto.WindowNone].
	SelectionOwner(selection xproto.Atom) (xproto.Window, error)

	// SendEvent delivers a client message to dest.
	SendEvent(dest xproto.Window, mask uint32, ev xproto.ClientMessageEvent) error

	// ServerTime returns a timestamp obtained from the server by a property
	// change on win. The window must select PropertyChange events.
	ServerTime(win xproto.Window) (xproto.Timestamp, error)

	// WindowExists reports whether win still exists. Errors are trapped and
	// reported as false.
	WindowExists(win xproto.Window) bool

	// NextEvent blocks until the next event arrives or ctx is done.
	NextEvent(ctx context.Context) (xgb.Event, error)
}
