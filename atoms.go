package xtray

import (
	"fmt"

	"github.com/jezek/xgb/xproto"
)

const (
	atomManager          = "MANAGER"
	atomTrayOpcode       = "_NET_SYSTEM_TRAY_OPCODE"
	atomTrayMessageData  = "_NET_SYSTEM_TRAY_MESSAGE_DATA"
	atomTrayOrientation  = "_NET_SYSTEM_TRAY_ORIENTATION"
	atomXEmbed           = "_XEMBED"
	atomXEmbedInfo       = "_XEMBED_INFO"
	atomNetWMName        = "_NET_WM_NAME"
	atomUTF8String       = "UTF8_STRING"
	traySelectionPattern = "_NET_SYSTEM_TRAY_S%d"
)

// SelectionName returns name of the tray selection of screen, e.g.
// "_NET_SYSTEM_TRAY_S0".
func SelectionName(screen int) string {
	return fmt.Sprintf(traySelectionPattern, screen)
}

// atoms holds atoms interned by [Manager.Manage].
type atoms struct {
	Selection   xproto.Atom
	Manager     xproto.Atom
	Opcode      xproto.Atom
	MessageData xproto.Atom
	Orientation xproto.Atom
	XEmbed      xproto.Atom
	XEmbedInfo  xproto.Atom
	NetWMName   xproto.Atom
	UTF8String  xproto.Atom
}

func internAtoms(d Display, screen int) (*atoms, error) {
	names := []string{
		SelectionName(screen),
		atomManager,
		atomTrayOpcode,
		atomTrayMessageData,
		atomTrayOrientation,
		atomXEmbed,
		atomXEmbedInfo,
		atomNetWMName,
		atomUTF8String,
	}

	interned := make([]xproto.Atom, len(names))

	for idx, name := range names {
		atom, err := d.InternAtom(name)
		if err != nil {
			return nil, fmt.Errorf("intern atom %s: %w", name, err)
		}

		interned[idx] = atom
	}

	return &atoms{
		Selection:   interned[0],
		Manager:     interned[1],
		Opcode:      interned[2],
		MessageData: interned[3],
		Orientation: interned[4],
		XEmbed:      interned[5],
		XEmbedInfo:  interned[6],
		NetWMName:   interned[7],
		UTF8String:  interned[8],
	}, nil
}
