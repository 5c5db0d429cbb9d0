package xtray

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewXEmbedInfoFromProperty(t *testing.T) {
	tests := []struct {
		name    string
		reply   *xproto.GetPropertyReply
		want    *XEmbedInfo
		wantErr string
	}{
		{
			name:    "nil reply",
			wantErr: "not set",
		},
		{
			name:    "absent property",
			reply:   &xproto.GetPropertyReply{Type: xproto.AtomNone},
			wantErr: "not set",
		},
		{
			name:    "wrong format",
			reply:   &xproto.GetPropertyReply{Type: 1, Format: 8, ValueLen: 8, Value: make([]byte, 8)},
			wantErr: "invalid property format",
		},
		{
			name:    "too short",
			reply:   &xproto.GetPropertyReply{Type: 1, Format: 32, ValueLen: 1, Value: make([]byte, 4)},
			wantErr: "invalid property length",
		},
		{
			name:  "mapped",
			reply: &xproto.GetPropertyReply{Type: 1, Format: 32, ValueLen: 2, Value: []byte{0, 0, 0, 0, 1, 0, 0, 0}},
			want:  &XEmbedInfo{Version: 0, Flags: XEmbedFlagMapped},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := NewXEmbedInfoFromProperty(tc.reply)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, info)
			assert.True(t, info.Mapped())
		})
	}
}
