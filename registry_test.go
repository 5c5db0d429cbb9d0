package xtray

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
)

func TestSocketRegistry(t *testing.T) {
	r := NewSocketRegistry()
	first, second := &Socket{}, &Socket{}

	_, exists := r.Lookup(10)
	assert.False(t, exists)

	r.Insert(10, first)
	r.Insert(5, second)

	socket, exists := r.Lookup(10)
	assert.True(t, exists)
	assert.Same(t, first, socket)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []xproto.Window{5, 10}, r.Windows())

	socket, exists = r.Remove(10)
	assert.True(t, exists)
	assert.Same(t, first, socket)

	_, exists = r.Remove(10)
	assert.False(t, exists)
	assert.Equal(t, []xproto.Window{5}, r.Windows())
}
