package xtray

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

const (
	ServiceName      = "io.github.shelepuginivan.XTray1"
	ServiceInterface = ServiceName
	ServicePath      = "/io/github/shelepuginivan/XTray1"
)

// Service exports tray state on D-Bus. It is a [Listener]: register it with
// [Manager.AddListener] to keep the export up to date.
//
// Interface io.github.shelepuginivan.XTray1 provides:
//   - method GetName(u window) -> s
//   - properties Icons (au) and Managed (b)
//   - signals IconAdded(u), IconRemoved(u), MessageSent(u, s, u, u),
//     MessageCancelled(u, u) and LostSelection()
type Service struct {
	closed  bool
	conn    *dbus.Conn
	mu      sync.Mutex
	icons   map[uint32]*Socket
	managed bool
}

// NewService returns a new [Service].
func NewService(conn *dbus.Conn) *Service {
	return &Service{
		closed: false,
		conn:   conn,
		icons:  make(map[uint32]*Socket),
	}
}

// Listen requests the service name on D-Bus and exports the service.
//
// If Listen is called after [Service.Close], an error is returned.
func (s *Service) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("listen: service is closed")
	}

	reply, err := s.conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("listen: failed to request name %s: %w", ServiceName, err)
	}

	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("listen: name %s already taken", ServiceName)
	}

	if err := s.conn.Export(s, ServicePath, ServiceInterface); err != nil {
		return fmt.Errorf("listen: failed to export %s: %w", ServiceInterface, err)
	}

	s.exportProperties()

	return nil
}

// Close releases name of the service from D-Bus.
//
// Service cannot be reused after Close was called.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if err := s.conn.Export(nil, ServicePath, ServiceInterface); err != nil {
		return err
	}

	_, err := s.conn.ReleaseName(ServiceName)
	return err
}

// GetName returns title of the icon embedded from window.
func (s *Service) GetName(window uint32) (string, *dbus.Error) {
	s.mu.Lock()
	socket, exists := s.icons[window]
	s.mu.Unlock()

	if !exists {
		return "", dbus.MakeFailedError(ErrUnknownIcon)
	}

	title, ok := socket.Title()
	if !ok {
		return "", dbus.MakeFailedError(fmt.Errorf("icon %d has no title", window))
	}

	return title, nil
}

// SetManaged updates the Managed property.
func (s *Service) SetManaged(managed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.managed = managed
	s.exportProperties()
}

// Windows returns windows of exported icons in ascending order.
func (s *Service) Windows() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.windows()
}

func (s *Service) IconAdded(socket *Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := uint32(socket.Window())
	s.icons[window] = socket

	s.emit("IconAdded", window)
	s.exportProperties()
}

func (s *Service) IconRemoved(socket *Socket) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Window of the socket is already cleared when the plug is removed.
	for window, icon := range s.icons {
		if icon != socket {
			continue
		}

		delete(s.icons, window)
		s.emit("IconRemoved", window)
		s.exportProperties()

		return
	}
}

func (s *Service) MessageSent(socket *Socket, text string, id uint32, timeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit("MessageSent", uint32(socket.Window()), text, id, uint32(timeout.Milliseconds()))
}

func (s *Service) MessageCancelled(socket *Socket, id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emit("MessageCancelled", uint32(socket.Window()), id)
}

func (s *Service) LostSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.managed = false
	s.emit("LostSelection")
	s.exportProperties()
}

func (s *Service) windows() []uint32 {
	windows := make([]uint32, 0, len(s.icons))

	for window := range s.icons {
		windows = append(windows, window)
	}

	slices.Sort(windows)
	return windows
}

// emit emits signal member of the service interface. Nothing is emitted
// before Listen or after Close.
func (s *Service) emit(member string, values ...any) {
	if s.conn == nil || s.closed {
		return
	}

	s.conn.Emit(ServicePath, ServiceInterface+"."+member, values...)
}

func (s *Service) exportProperties() {
	if s.conn == nil || s.closed {
		return
	}

	prop.Export(s.conn, ServicePath, prop.Map{
		ServiceInterface: map[string]*prop.Prop{
			"Icons": {
				Value:    s.windows(),
				Writable: false,
				Emit:     prop.EmitTrue,
			},
			"Managed": {
				Value:    s.managed,
				Writable: false,
				Emit:     prop.EmitTrue,
			},
		},
	})
}
