package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"peerlink/registry"
)

type item struct {
	name string
}

func TestTable(t *testing.T) {
	t.Run("given free label when inserted then get returns same instance", func(t *testing.T) {
		tbl := registry.NewTable[*item](registry.New(), registry.TableDataChannels)
		first := &item{name: "first"}
		require.NoError(t, tbl.Insert("chat", first))

		got, ok := tbl.Get("chat")
		assert.True(t, ok)
		assert.Same(t, first, got)
	})

	t.Run("given empty label when inserted then it is stored like any other", func(t *testing.T) {
		tbl := registry.NewTable[*item](registry.New(), registry.TableDataChannels)
		unnamed := &item{name: "unnamed"}
		require.NoError(t, tbl.Insert("", unnamed))
		require.NoError(t, tbl.Insert("chat", &item{name: "chat"}))

		got, ok := tbl.Get("")
		assert.True(t, ok)
		assert.Same(t, unnamed, got)
		assert.Equal(t, []string{"", "chat"}, tbl.Labels())
		assert.ErrorIs(t, tbl.Insert("", &item{}), registry.ErrExists)

		removed, err := tbl.Delete("")
		require.NoError(t, err)
		assert.Same(t, unnamed, removed)
		_, ok = tbl.Get("")
		assert.False(t, ok)
		assert.Equal(t, []string{"chat"}, tbl.Labels())
	})

	t.Run("given taken label when inserted then first instance is kept", func(t *testing.T) {
		tbl := registry.NewTable[*item](registry.New(), registry.TableDataChannels)
		first := &item{name: "first"}
		require.NoError(t, tbl.Insert("chat", first))

		err := tbl.Insert("chat", &item{name: "second"})
		assert.ErrorIs(t, err, registry.ErrExists)

		got, _ := tbl.Get("chat")
		assert.Same(t, first, got)
		assert.Equal(t, []string{"chat"}, tbl.Labels())
	})

	t.Run("given registered label when deleted then get returns absent", func(t *testing.T) {
		tbl := registry.NewTable[*item](registry.New(), registry.TableSendMedia)
		require.NoError(t, tbl.Insert("cam", &item{}))

		_, err := tbl.Delete("cam")
		require.NoError(t, err)
		_, ok := tbl.Get("cam")
		assert.False(t, ok)
	})

	t.Run("given absent label when deleted then registry is unchanged", func(t *testing.T) {
		tbl := registry.NewTable[*item](registry.New(), registry.TableSendMedia)
		require.NoError(t, tbl.Insert("cam", &item{}))

		_, err := tbl.Delete("mic")
		assert.ErrorIs(t, err, registry.ErrNotFound)
		assert.Equal(t, []string{"cam"}, tbl.Labels())
	})

	t.Run("given tables sharing a registry when same label used then tables are independent", func(t *testing.T) {
		r := registry.New()
		send := registry.NewTable[*item](r, registry.TableSendMedia)
		recv := registry.NewTable[*item](r, registry.TableReceiveMedia)
		require.NoError(t, send.Insert("stream", &item{name: "send"}))
		require.NoError(t, recv.Insert("stream", &item{name: "recv"}))

		s, _ := send.Get("stream")
		v, _ := recv.Get("stream")
		assert.Equal(t, "send", s.name)
		assert.Equal(t, "recv", v.name)
	})
}

func TestTableClear(t *testing.T) {
	tbl := registry.NewTable[*item](registry.New(), registry.TableDataChannels)
	require.NoError(t, tbl.Insert("b", &item{name: "b"}))
	require.NoError(t, tbl.Insert("a", &item{name: "a"}))
	assert.Equal(t, []string{"a", "b"}, tbl.Labels())

	removed := tbl.Clear()
	assert.Len(t, removed, 2)
	assert.Empty(t, tbl.Labels())
}
