package xtray

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceSignal(member string, body ...any) *dbus.Signal {
	return &dbus.Signal{
		Path: ServicePath,
		Name: ServiceInterface + "." + member,
		Body: body,
	}
}

func TestMessageFromSignal(t *testing.T) {
	tests := []struct {
		name    string
		body    []any
		want    *Message
		wantErr string
	}{
		{
			name: "valid",
			body: []any{uint32(7), "Battery low", uint32(3), uint32(1500)},
			want: &Message{Window: 7, Text: "Battery low", ID: 3, Timeout: 1500 * time.Millisecond},
		},
		{
			name:    "missing arguments",
			body:    []any{uint32(7), "Battery low"},
			wantErr: "expected 4 arguments",
		},
		{
			name:    "invalid text",
			body:    []any{uint32(7), 12, uint32(3), uint32(1500)},
			wantErr: "invalid message text",
		},
		{
			name:    "invalid timeout",
			body:    []any{uint32(7), "Battery low", uint32(3), int32(1500)},
			wantErr: "invalid message timeout",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := messageFromSignal(serviceSignal("MessageSent", tc.body...))
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, msg)
		})
	}
}

func TestClientHandleSignal(t *testing.T) {
	c := NewClient(nil)

	var added, removed []uint32
	var messages []*Message
	var cancelled [][2]uint32
	lost := 0

	c.OnIconAdded(func(window uint32) { added = append(added, window) })
	c.OnIconRemoved(func(window uint32) { removed = append(removed, window) })
	c.OnMessage(func(msg *Message) { messages = append(messages, msg) })
	c.OnMessageCancelled(func(window, id uint32) { cancelled = append(cancelled, [2]uint32{window, id}) })
	c.OnLostSelection(func() { lost++ })

	c.handleSignal(serviceSignal("IconAdded", uint32(10)))
	c.handleSignal(serviceSignal("IconAdded", uint32(10)))
	c.handleSignal(serviceSignal("IconAdded", uint32(11)))
	c.handleSignal(serviceSignal("IconAdded", "not a window"))
	assert.Equal(t, []uint32{10, 11}, added)
	assert.Equal(t, []uint32{10, 11}, c.Icons())

	c.handleSignal(serviceSignal("IconRemoved", uint32(10)))
	c.handleSignal(serviceSignal("IconRemoved", uint32(99)))
	assert.Equal(t, []uint32{10}, removed)
	assert.Equal(t, []uint32{11}, c.Icons())

	c.handleSignal(serviceSignal("MessageSent", uint32(11), "hi", uint32(1), uint32(0)))
	c.handleSignal(serviceSignal("MessageCancelled", uint32(11), uint32(1)))
	require.Len(t, messages, 1)
	assert.Equal(t, "hi", messages[0].Text)
	assert.Equal(t, [][2]uint32{{11, 1}}, cancelled)

	c.handleSignal(serviceSignal("LostSelection"))
	assert.Equal(t, 1, lost)
	assert.Empty(t, c.Icons())

	c.handleSignal(&dbus.Signal{Name: "org.example.Other.IconAdded", Body: []any{uint32(12)}})
	assert.Equal(t, []uint32{10, 11}, added)
}
