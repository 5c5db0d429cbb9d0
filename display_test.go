package xtray

import (
	"context"
	"fmt"
	"io"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

type fakeWindow struct {
	parent    xproto.Window
	class     uint16
	mapped    bool
	width     uint16
	height    uint16
	eventMask uint32
	props     map[xproto.Atom]*xproto.GetPropertyReply
}

type sentEvent struct {
	dest xproto.Window
	mask uint32
	ev   xproto.ClientMessageEvent
}

// fakeDisplay is an in-memory X server.
type fakeDisplay struct {
	root       xproto.Window
	nextWindow xproto.Window
	nextAtom   xproto.Atom
	time       xproto.Timestamp
	windows    map[xproto.Window]*fakeWindow
	atoms      map[string]xproto.Atom
	selections map[xproto.Atom]xproto.Window
	saveSet    map[xproto.Window]bool
	sent       []sentEvent
	events     []xgb.Event

	// Wins every selection race when set.
	competitor xproto.Window

	// Called after a window was reparented.
	onReparent func(win, parent xproto.Window)
}

var _ Display = (*fakeDisplay)(nil)

func newFakeDisplay() *fakeDisplay {
	d := &fakeDisplay{
		root:       1,
		nextWindow: 100,
		nextAtom:   1000,
		time:       5000,
		windows:    make(map[xproto.Window]*fakeWindow),
		atoms:      make(map[string]xproto.Atom),
		selections: make(map[xproto.Atom]xproto.Window),
		saveSet:    make(map[xproto.Window]bool),
	}

	d.windows[d.root] = &fakeWindow{mapped: true, props: make(map[xproto.Atom]*xproto.GetPropertyReply)}

	return d
}

func (d *fakeDisplay) Screen(num int) (*xproto.ScreenInfo, error) {
	if num != 0 {
		return nil, fmt.Errorf("screen %d does not exist", num)
	}

	return &xproto.ScreenInfo{Root: d.root}, nil
}

func (d *fakeDisplay) InternAtom(name string) (xproto.Atom, error) {
	if atom, exists := d.atoms[name]; exists {
		return atom, nil
	}

	d.nextAtom++
	d.atoms[name] = d.nextAtom

	return d.nextAtom, nil
}

func (d *fakeDisplay) window(win xproto.Window) (*fakeWindow, error) {
	w, exists := d.windows[win]
	if !exists {
		return nil, fmt.Errorf("BadWindow %d", win)
	}

	return w, nil
}

func (d *fakeDisplay) CreateWindow(parent xproto.Window, x, y int16, width, height uint16, class uint16, mask uint32, values []uint32) (xproto.Window, error) {
	if _, err := d.window(parent); err != nil {
		return 0, err
	}

	d.nextWindow++
	w := &fakeWindow{
		parent: parent,
		class:  class,
		width:  width,
		height: height,
		props:  make(map[xproto.Atom]*xproto.GetPropertyReply),
	}

	if mask&xproto.CwEventMask != 0 && len(values) > 0 {
		w.eventMask = values[len(values)-1]
	}

	d.windows[d.nextWindow] = w

	return d.nextWindow, nil
}

// createClient creates a top-level window of another client.
func (d *fakeDisplay) createClient() xproto.Window {
	win, _ := d.CreateWindow(d.root, 0, 0, 16, 16, xproto.WindowClassInputOutput, 0, nil)
	return win
}

func (d *fakeDisplay) DestroyWindow(win xproto.Window) error {
	if _, err := d.window(win); err != nil {
		return err
	}

	for child, w := range d.windows {
		if w.parent == win && child != win {
			d.DestroyWindow(child)
		}
	}

	delete(d.windows, win)
	delete(d.saveSet, win)

	return nil
}

func (d *fakeDisplay) MapWindow(win xproto.Window) error {
	w, err := d.window(win)
	if err != nil {
		return err
	}

	w.mapped = true
	return nil
}

func (d *fakeDisplay) ReparentWindow(win, parent xproto.Window, x, y int16) error {
	w, err := d.window(win)
	if err != nil {
		return err
	}

	if _, err := d.window(parent); err != nil {
		return err
	}

	w.parent = parent

	if d.onReparent != nil {
		d.onReparent(win, parent)
	}

	return nil
}

func (d *fakeDisplay) ResizeWindow(win xproto.Window, width, height uint16) error {
	w, err := d.window(win)
	if err != nil {
		return err
	}

	w.width, w.height = width, height
	return nil
}

func (d *fakeDisplay) ChangeWindowAttributes(win xproto.Window, mask uint32, values []uint32) error {
	w, err := d.window(win)
	if err != nil {
		return err
	}

	if mask&xproto.CwEventMask != 0 && len(values) > 0 {
		w.eventMask = values[len(values)-1]
	}

	return nil
}

func (d *fakeDisplay) ChangeSaveSet(mode byte, win xproto.Window) error {
	if _, err := d.window(win); err != nil {
		return err
	}

	if mode == xproto.SetModeInsert {
		d.saveSet[win] = true
	} else {
		delete(d.saveSet, win)
	}

	return nil
}

func (d *fakeDisplay) ChangeProperty(win xproto.Window, property, typ xproto.Atom, format byte, data []byte) error {
	w, err := d.window(win)
	if err != nil {
		return err
	}

	w.props[property] = &xproto.GetPropertyReply{
		Format:   format,
		Type:     typ,
		ValueLen: uint32(len(data)) / uint32(format/8),
		Value:    data,
	}

	return nil
}

func (d *fakeDisplay) GetProperty(win xproto.Window, property, typ xproto.Atom, length uint32) (*xproto.GetPropertyReply, error) {
	w, err := d.window(win)
	if err != nil {
		return nil, err
	}

	reply, exists := w.props[property]
	if !exists {
		return &xproto.GetPropertyReply{Type: xproto.AtomNone}, nil
	}

	// Type mismatch returns the actual type without a value.
	if typ != xproto.GetPropertyTypeAny && typ != reply.Type {
		return &xproto.GetPropertyReply{Format: reply.Format, Type: reply.Type}, nil
	}

	return reply, nil
}

func (d *fakeDisplay) SetSelectionOwner(owner xproto.Window, selection xproto.Atom, time xproto.Timestamp) error {
	if d.competitor != 0 {
		d.selections[selection] = d.competitor
		return nil
	}

	if owner == xproto.WindowNone {
		delete(d.selections, selection)
		return nil
	}

	d.selections[selection] = owner
	return nil
}

func (d *fakeDisplay) SelectionOwner(selection xproto.Atom) (xproto.Window, error) {
	return d.selections[selection], nil
}

func (d *fakeDisplay) SendEvent(dest xproto.Window, mask uint32, ev xproto.ClientMessageEvent) error {
	if _, err := d.window(dest); err != nil {
		return err
	}

	d.sent = append(d.sent, sentEvent{dest: dest, mask: mask, ev: ev})
	return nil
}

func (d *fakeDisplay) ServerTime(win xproto.Window) (xproto.Timestamp, error) {
	if _, err := d.window(win); err != nil {
		return 0, err
	}

	d.time++
	return d.time, nil
}

func (d *fakeDisplay) WindowExists(win xproto.Window) bool {
	_, exists := d.windows[win]
	return exists
}

func (d *fakeDisplay) NextEvent(ctx context.Context) (xgb.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(d.events) == 0 {
		return nil, io.EOF
	}

	ev := d.events[0]
	d.events = d.events[1:]

	return ev, nil
}

// sentTo returns client messages sent to dest.
func (d *fakeDisplay) sentTo(dest xproto.Window) []sentEvent {
	var events []sentEvent

	for _, ev := range d.sent {
		if ev.dest == dest {
			events = append(events, ev)
		}
	}

	return events
}
