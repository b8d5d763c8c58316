package media

import (
	"sort"

	gocache "github.com/patrickmn/go-cache"
)

// Registry is the asset registry documents register their non-plugin media
// with on import. Entries never expire.
type Registry struct {
	cache *gocache.Cache
}

// NewRegistry creates an empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// AddMedia registers d under its id, replacing any previous entry.
func (r *Registry) AddMedia(d Descriptor) {
	if d.ID == "" {
		return
	}
	r.cache.Set(d.ID, d, gocache.NoExpiration)
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return Descriptor{}, false
	}
	d, ok := v.(Descriptor)
	return d, ok
}

// All returns every registered descriptor ordered by id.
func (r *Registry) All() []Descriptor {
	items := r.cache.Items()
	out := make([]Descriptor, 0, len(items))
	for _, item := range items {
		if d, ok := item.Object.(Descriptor); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered descriptors.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Flush drops every registered descriptor.
func (r *Registry) Flush() {
	r.cache.Flush()
}

func sortedKeys(m map[string]Descriptor) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
