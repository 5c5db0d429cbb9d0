package xtray

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// XEmbed message sent to a client once it is reparented.
const xembedEmbeddedNotify = 0

// XEmbedVersion is the protocol version announced to embedded clients.
const XEmbedVersion = 0

// XEmbedFlagMapped is set in [XEmbedInfo.Flags] when the client wants to be
// mapped.
const XEmbedFlagMapped = 1 << 0

// XEmbedInfo represents the _XEMBED_INFO property of an embedded client.
type XEmbedInfo struct {
	Version uint32
	Flags   uint32
}

// Mapped reports whether the client requests to be mapped.
func (i *XEmbedInfo) Mapped() bool {
	return i.Flags&XEmbedFlagMapped != 0
}

// NewXEmbedInfoFromProperty returns a new [XEmbedInfo] from the reply of a
// _XEMBED_INFO property read.
//
// Format of the property is as follows
//
//	[<version>, <flags>]
//
// Where both elements are CARDINAL (format 32).
func NewXEmbedInfoFromProperty(reply *xproto.GetPropertyReply) (*XEmbedInfo, error) {
	if reply == nil || reply.Type == xproto.AtomNone {
		return nil, fmt.Errorf("property is not set")
	}

	if reply.Format != 32 {
		return nil, fmt.Errorf("invalid property format: expected 32, got %d", reply.Format)
	}

	if reply.ValueLen < 2 || len(reply.Value) < 8 {
		return nil, fmt.Errorf("invalid property length: expected 2 elements, got %d", reply.ValueLen)
	}

	return &XEmbedInfo{
		Version: xgb.Get32(reply.Value[0:]),
		Flags:   xgb.Get32(reply.Value[4:]),
	}, nil
}
