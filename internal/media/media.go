// Package media holds media descriptors, the per-export deduplicating media
// map and the asset registry.
package media

// TypePlugin is the descriptor type of plugin bundles in a document manifest.
const TypePlugin = "plugin"

// Descriptor describes one external asset or plugin bundle.
type Descriptor struct {
	ID      string `json:"id"`
	Ver     string `json:"ver,omitempty"`
	Src     string `json:"src"`
	Type    string `json:"type"`
	AssetID string `json:"assetId,omitempty"`
}

// IsPlugin reports whether the descriptor names a plugin bundle.
func (d Descriptor) IsPlugin() bool {
	return d.Type == TypePlugin
}

// Map accumulates descriptors keyed by media id. A later Add for an id
// replaces the earlier value but keeps its original position, so Values is
// deterministic for a given sequence of additions.
type Map struct {
	order []string
	byID  map[string]Descriptor
}

// NewMap creates an empty media map.
func NewMap() *Map {
	return &Map{byID: make(map[string]Descriptor)}
}

// Add records d under key.
func (m *Map) Add(key string, d Descriptor) {
	if _, ok := m.byID[key]; !ok {
		m.order = append(m.order, key)
	}
	m.byID[key] = d
}

// Merge adds every entry of media, visiting keys in sorted order.
func (m *Map) Merge(media map[string]Descriptor) {
	for _, key := range sortedKeys(media) {
		m.Add(key, media[key])
	}
}

// Get returns the descriptor stored under key.
func (m *Map) Get(key string) (Descriptor, bool) {
	d, ok := m.byID[key]
	return d, ok
}

// Len returns the number of distinct ids.
func (m *Map) Len() int {
	return len(m.order)
}

// Values returns the descriptors in first-insertion order.
func (m *Map) Values() []Descriptor {
	out := make([]Descriptor, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.byID[key])
	}
	return out
}
