package xtray

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"
)

// maxTitleLength limits title reads, in 32-bit units.
const maxTitleLength = 1024

const (
	containerEventMask = xproto.EventMaskStructureNotify | xproto.EventMaskExposure
	clientEventMask    = xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange
)

// Socket is the embedding handle of a docked tray icon.
//
// A socket is created by the manager when a client requests to dock and is
// handed to [Listener.IconAdded]. The host must attach it into a live window
// with [Socket.Attach] before IconAdded returns.
type Socket struct {
	display Display
	atoms   *atoms

	// Client window; zero once the plug was removed.
	window atomic.Uint32

	container xproto.Window
	parent    xproto.Window
	width     uint16
	height    uint16

	// Container uses a parent-relative background, so that icons with
	// transparent parts inherit the host background.
	inheritBackground bool

	minWidth  uint16
	minHeight uint16
	embedded  bool
	alive     bool
}

func newSocket(d Display, a *atoms, window xproto.Window) *Socket {
	s := &Socket{
		display:           d,
		atoms:             a,
		inheritBackground: true,
		alive:             true,
	}
	s.window.Store(uint32(window))

	return s
}

// Window returns the embedded client window. It returns 0 after the client
// was removed.
func (s *Socket) Window() xproto.Window {
	return xproto.Window(s.window.Load())
}

// Container returns the container window created by [Socket.Attach], or 0 if
// the socket is not attached.
func (s *Socket) Container() xproto.Window {
	return s.container
}

// Parent returns the host window the socket is attached to.
func (s *Socket) Parent() xproto.Window {
	return s.parent
}

// Alive reports whether the socket was not torn down yet.
func (s *Socket) Alive() bool {
	return s.alive
}

// Embedded reports whether the client window was reparented into the
// container.
func (s *Socket) Embedded() bool {
	return s.embedded
}

// Attach creates the container window of the socket as a mapped child of
// parent. Hosts call Attach from [Listener.IconAdded].
func (s *Socket) Attach(parent xproto.Window, x, y int16, width, height uint16) error {
	if !s.alive {
		return fmt.Errorf("attach: socket is destroyed")
	}

	if s.container != 0 {
		return fmt.Errorf("attach: socket is already attached to window %d", s.parent)
	}

	width, height = max(width, 1), max(height, 1)

	mask := uint32(xproto.CwEventMask)
	values := []uint32{containerEventMask}

	if s.inheritBackground {
		mask |= xproto.CwBackPixmap
		values = []uint32{xproto.BackPixmapParentRelative, containerEventMask}
	}

	container, err := s.display.CreateWindow(parent, x, y, width, height, xproto.WindowClassInputOutput, mask, values)
	if err != nil {
		return fmt.Errorf("attach: failed to create container: %w", err)
	}

	if err := s.display.MapWindow(container); err != nil {
		s.display.DestroyWindow(container)
		return fmt.Errorf("attach: failed to map container: %w", err)
	}

	s.container = container
	s.parent = parent
	s.width = width
	s.height = height

	return nil
}

// MinSize returns minimum size requested by the socket.
func (s *Socket) MinSize() (width, height uint16) {
	return s.minWidth, s.minHeight
}

// Resize changes size of the container and of the embedded client.
func (s *Socket) Resize(width, height uint16) error {
	if s.container == 0 {
		return fmt.Errorf("resize: socket is not attached")
	}

	width, height = max(width, s.minWidth, 1), max(height, s.minHeight, 1)

	if err := s.display.ResizeWindow(s.container, width, height); err != nil {
		return fmt.Errorf("resize: %w", err)
	}

	s.width = width
	s.height = height

	if s.embedded {
		if err := s.display.ResizeWindow(s.Window(), width, height); err != nil {
			return fmt.Errorf("resize client: %w", err)
		}
	}

	return nil
}

// Title returns the UTF-8 name (_NET_WM_NAME) of the embedded client.
//
// The second result is false if the property is absent, has a wrong encoding
// or is not valid UTF-8, or if the client window is gone.
func (s *Socket) Title() (string, bool) {
	window := s.Window()
	if window == 0 {
		return "", false
	}

	reply, err := s.display.GetProperty(window, s.atoms.NetWMName, s.atoms.UTF8String, maxTitleLength)
	if err != nil || reply == nil {
		return "", false
	}

	if reply.Type != s.atoms.UTF8String || reply.Format != 8 {
		return "", false
	}

	value := reply.Value
	if int(reply.ValueLen) < len(value) {
		value = value[:reply.ValueLen]
	}

	if !utf8.Valid(value) {
		return "", false
	}

	return string(value), true
}

// XEmbedInfo reads _XEMBED_INFO of the embedded client.
func (s *Socket) XEmbedInfo() (*XEmbedInfo, error) {
	window := s.Window()
	if window == 0 {
		return nil, fmt.Errorf("xembed info: client is gone")
	}

	reply, err := s.display.GetProperty(window, s.atoms.XEmbedInfo, s.atoms.XEmbedInfo, 2)
	if err != nil {
		return nil, fmt.Errorf("xembed info: %w", err)
	}

	return NewXEmbedInfoFromProperty(reply)
}

// realized reports whether the socket is attached into a live window.
func (s *Socket) realized() bool {
	return s.alive && s.container != 0 && s.display.WindowExists(s.container)
}

// requestSize records the minimum size of the socket.
func (s *Socket) requestSize(width, height uint16) {
	s.minWidth = width
	s.minHeight = height
}

// embed reparents the client into the container and performs the XEmbed
// handshake.
func (s *Socket) embed() error {
	window := s.Window()

	if err := s.display.ChangeWindowAttributes(window, xproto.CwEventMask, []uint32{clientEventMask}); err != nil {
		return fmt.Errorf("embed: failed to select client events: %w", err)
	}

	if err := s.display.ReparentWindow(window, s.container, 0, 0); err != nil {
		return fmt.Errorf("embed: failed to reparent client: %w", err)
	}

	// Keep the client alive if the host connection dies.
	if err := s.display.ChangeSaveSet(xproto.SetModeInsert, window); err != nil {
		return fmt.Errorf("embed: failed to change save set: %w", err)
	}

	s.embedded = true

	if err := s.display.ResizeWindow(window, s.width, s.height); err != nil {
		return fmt.Errorf("embed: failed to resize client: %w", err)
	}

	notify := xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   s.atoms.XEmbed,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(xproto.TimeCurrentTime),
			xembedEmbeddedNotify,
			0,
			uint32(s.container),
			XEmbedVersion,
		}),
	}

	if err := s.display.SendEvent(window, xproto.EventMaskNoEvent, notify); err != nil {
		return fmt.Errorf("embed: failed to send embedded notify: %w", err)
	}

	// Clients without _XEMBED_INFO are mapped unconditionally.
	info, err := s.XEmbedInfo()
	if err != nil || info.Mapped() {
		if err := s.display.MapWindow(window); err != nil {
			return fmt.Errorf("embed: failed to map client: %w", err)
		}
	}

	return nil
}

// unembed moves the client back to root, so that it survives destruction of
// the container.
func (s *Socket) unembed(root xproto.Window) error {
	if !s.embedded {
		return nil
	}

	s.embedded = false
	window := s.Window()

	if err := s.display.ReparentWindow(window, root, 0, 0); err != nil {
		return fmt.Errorf("unembed: failed to reparent client: %w", err)
	}

	if err := s.display.ChangeSaveSet(xproto.SetModeDelete, window); err != nil {
		return fmt.Errorf("unembed: failed to change save set: %w", err)
	}

	return nil
}

// forget clears the client window, so that nothing refers to it after the
// plug was removed.
func (s *Socket) forget() {
	s.window.Store(0)
	s.embedded = false
}

// destroy destroys the container. It is a no-op on a destroyed socket.
func (s *Socket) destroy() error {
	if !s.alive {
		return nil
	}

	s.alive = false

	if s.container == 0 {
		return nil
	}

	if err := s.display.DestroyWindow(s.container); err != nil {
		return fmt.Errorf("destroy container: %w", err)
	}

	return nil
}
