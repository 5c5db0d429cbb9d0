package xtray

import (
	"context"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog"
)

// Orientation is the preferred layout direction of icons, published in
// _NET_SYSTEM_TRAY_ORIENTATION.
type Orientation uint32

const (
	OrientationHorizontal Orientation = 0
	OrientationVertical   Orientation = 1
)

const ownerEventMask = xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange

// selection is the tray selection owned by a manager.
type selection struct {
	screen int
	atom   xproto.Atom
	owner  xproto.Window
	root   xproto.Window
	time   xproto.Timestamp
}

// Manager implements the tray manager side of the [System Tray Protocol]. It
// owns the tray selection of one screen at a time, docks icons and
// reassembles balloon messages.
//
// Manager is not safe for concurrent use: [Manager.Manage],
// [Manager.Unmanage], [Manager.HandleEvent] and [Manager.Undock] must be
// called from the goroutine that dispatches X events.
//
// [System Tray Protocol]: https://specifications.freedesktop.org/systemtray-spec/latest/
type Manager struct {
	display     Display
	log         zerolog.Logger
	notifier    *notifier
	registry    *SocketRegistry
	orientation Orientation

	// Set between Manage and Unmanage.
	selection  *selection
	atoms      *atoms
	docks      *dockHandler
	messages   *reassembler
	dispatcher *dispatcher
}

// NewManager returns a new [Manager] that uses display.
func NewManager(display Display, log zerolog.Logger) *Manager {
	return &Manager{
		display:     display,
		log:         log,
		notifier:    &notifier{},
		registry:    NewSocketRegistry(),
		orientation: OrientationHorizontal,
	}
}

// AddListener registers l and returns a function that unregisters it.
//
// Listeners should be added before [Manager.Manage] is called.
func (m *Manager) AddListener(l Listener) (remove func()) {
	return m.notifier.add(l)
}

// Registry returns registry of docked icons.
func (m *Manager) Registry() *SocketRegistry {
	return m.registry
}

// Managed reports whether the manager owns a tray selection.
func (m *Manager) Managed() bool {
	return m.selection != nil
}

// Owner returns the owner window of the tray selection, or
// [xproto.WindowNone] if the manager is not managing a screen.
func (m *Manager) Owner() xproto.Window {
	if m.selection == nil {
		return xproto.WindowNone
	}

	return m.selection.owner
}

// CheckRunning reports whether a tray manager owns the selection of screen.
func CheckRunning(d Display, screen int) (bool, error) {
	atom, err := d.InternAtom(SelectionName(screen))
	if err != nil {
		return false, fmt.Errorf("check running: %w", err)
	}

	owner, err := d.SelectionOwner(atom)
	if err != nil {
		return false, fmt.Errorf("check running: %w", err)
	}

	return owner != xproto.WindowNone, nil
}

// Manage acquires the tray selection of screen, announces the manager to
// clients and starts handling tray events.
//
// If another client wins the selection, [ErrSelectionOwned] is returned and
// nothing is announced.
func (m *Manager) Manage(screen int) error {
	if m.selection != nil {
		return fmt.Errorf("manage: %w", ErrAlreadyManaging)
	}

	info, err := m.display.Screen(screen)
	if err != nil {
		return fmt.Errorf("manage: %w", err)
	}

	root := info.Root

	owner, err := m.display.CreateWindow(root, -1, -1, 1, 1, xproto.WindowClassInputOnly, xproto.CwEventMask, []uint32{ownerEventMask})
	if err != nil {
		return fmt.Errorf("manage: failed to create owner window: %w", err)
	}

	sel, a, err := m.acquire(screen, root, owner)
	if err != nil {
		if err := m.display.DestroyWindow(owner); err != nil {
			m.log.Debug().Err(err).Msg("failed to destroy owner window")
		}

		return fmt.Errorf("manage: %w", err)
	}

	m.selection = sel
	m.atoms = a
	m.install()

	if err := m.publishOrientation(); err != nil {
		m.log.Warn().Err(err).Msg("failed to publish orientation")
	}

	m.log.Info().
		Int("screen", screen).
		Uint32("owner", uint32(owner)).
		Msg("managing system tray")

	return nil
}

// acquire claims the selection for owner, verifies ownership and broadcasts
// the MANAGER message.
func (m *Manager) acquire(screen int, root, owner xproto.Window) (*selection, *atoms, error) {
	a, err := internAtoms(m.display, screen)
	if err != nil {
		return nil, nil, err
	}

	timestamp, err := m.display.ServerTime(owner)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get server time: %w", err)
	}

	if err := m.display.SetSelectionOwner(owner, a.Selection, timestamp); err != nil {
		return nil, nil, fmt.Errorf("failed to set selection owner: %w", err)
	}

	current, err := m.display.SelectionOwner(a.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get selection owner: %w", err)
	}

	if current != owner {
		return nil, nil, ErrSelectionOwned
	}

	announce := xproto.ClientMessageEvent{
		Format: 32,
		Window: root,
		Type:   a.Manager,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(timestamp),
			uint32(a.Selection),
			uint32(owner),
			0,
			0,
		}),
	}

	if err := m.display.SendEvent(root, xproto.EventMaskStructureNotify, announce); err != nil {
		return nil, nil, fmt.Errorf("failed to broadcast manager message: %w", err)
	}

	return &selection{
		screen: screen,
		atom:   a.Selection,
		owner:  owner,
		root:   root,
		time:   timestamp,
	}, a, nil
}

// install creates handlers bound to the current selection.
func (m *Manager) install() {
	m.docks = &dockHandler{
		display:  m.display,
		log:      m.log,
		atoms:    m.atoms,
		root:     m.selection.root,
		registry: m.registry,
		notifier: m.notifier,
		managed:  m.Managed,
	}

	m.messages = newReassembler(m.log, m.registry, m.notifier)

	m.dispatcher = &dispatcher{
		log:      m.log,
		atoms:    m.atoms,
		owner:    m.selection.owner,
		docks:    m.docks,
		messages: m.messages,
		registry: m.registry,
		lost:     m.selectionLost,
	}
}

// Unmanage releases the tray selection, undocks all icons and destroys the
// owner window. It is a no-op if the manager is not managing a screen, and
// it may be called from a [Listener].
func (m *Manager) Unmanage() {
	sel := m.selection
	if sel == nil {
		return
	}

	docks, messages := m.docks, m.messages

	m.selection = nil
	m.dispatcher = nil
	m.docks = nil
	m.messages = nil

	current, err := m.display.SelectionOwner(sel.atom)
	if err != nil {
		m.log.Debug().Err(err).Msg("failed to get selection owner")
	}

	if err == nil && current == sel.owner {
		timestamp, err := m.display.ServerTime(sel.owner)
		if err != nil {
			m.log.Debug().Err(err).Msg("failed to get server time")
			timestamp = xproto.TimeCurrentTime
		}

		if err := m.display.SetSelectionOwner(xproto.WindowNone, sel.atom, timestamp); err != nil {
			m.log.Warn().Err(err).Msg("failed to release tray selection")
		}
	}

	messages.reset()
	docks.undockAll()

	if err := m.display.DestroyWindow(sel.owner); err != nil {
		m.log.Debug().Err(err).Msg("failed to destroy owner window")
	}

	m.log.Info().Int("screen", sel.screen).Msg("stopped managing system tray")
}

func (m *Manager) selectionLost() {
	m.notifier.lostSelection()
	m.Unmanage()
}

// HandleEvent dispatches ev and reports whether it was consumed by the tray.
// Events are ignored while the manager is not managing a screen.
func (m *Manager) HandleEvent(ev xgb.Event) bool {
	if m.dispatcher == nil {
		return false
	}

	return m.dispatcher.dispatch(ev)
}

// Run reads events from the display and dispatches them until ctx is done or
// the display fails.
func (m *Manager) Run(ctx context.Context) error {
	for {
		ev, err := m.display.NextEvent(ctx)
		if err != nil {
			return err
		}

		m.HandleEvent(ev)
	}
}

// Undock removes the icon of window from the tray and returns the client
// window to the root window.
func (m *Manager) Undock(window xproto.Window) error {
	if m.docks == nil {
		return fmt.Errorf("undock: %w", ErrNotManaging)
	}

	if !m.docks.undock(window) {
		return fmt.Errorf("undock: %w", ErrUnknownIcon)
	}

	return nil
}

// SetOrientation sets the preferred orientation of icons. It is published
// immediately when managing, and by every later [Manager.Manage].
func (m *Manager) SetOrientation(o Orientation) error {
	m.orientation = o

	if m.selection == nil {
		return nil
	}

	return m.publishOrientation()
}

func (m *Manager) publishOrientation() error {
	data := make([]byte, 4)
	xgb.Put32(data, uint32(m.orientation))

	if err := m.display.ChangeProperty(m.selection.owner, m.atoms.Orientation, xproto.AtomCardinal, 32, data); err != nil {
		return fmt.Errorf("set orientation: %w", err)
	}

	return nil
}
