package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_DeduplicatesByIDLastWriterWins(t *testing.T) {
	m := NewMap()

	m.Merge(map[string]Descriptor{
		"bg":   {ID: "bg", Src: "/assets/bg-v1.png", Type: "image"},
		"song": {ID: "song", Src: "/assets/song.mp3", Type: "audio"},
	})
	m.Merge(map[string]Descriptor{
		"bg": {ID: "bg", Src: "/assets/bg-v2.png", Type: "image"},
	})
	m.Merge(nil)

	require.Equal(t, 2, m.Len())
	values := m.Values()
	assert.Equal(t, "bg", values[0].ID)
	assert.Equal(t, "/assets/bg-v2.png", values[0].Src)
	assert.Equal(t, "song", values[1].ID)

	d, ok := m.Get("song")
	assert.True(t, ok)
	assert.Equal(t, "audio", d.Type)
}

func TestDescriptor_IsPlugin(t *testing.T) {
	assert.True(t, Descriptor{Type: TypePlugin}.IsPlugin())
	assert.False(t, Descriptor{Type: "image"}.IsPlugin())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	r.AddMedia(Descriptor{ID: "b", Src: "/b.png", Type: "image"})
	r.AddMedia(Descriptor{ID: "a", Src: "/a.mp3", Type: "audio"})
	r.AddMedia(Descriptor{ID: "a", Src: "/a2.mp3", Type: "audio"})
	r.AddMedia(Descriptor{Src: "/ignored.png"})

	assert.Equal(t, 2, r.Len())
	d, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "/a2.mp3", d.Src)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	r.Flush()
	assert.Zero(t, r.Len())
}
