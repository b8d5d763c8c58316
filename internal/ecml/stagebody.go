package ecml

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Well-known field names.
const (
	FieldID       = "id"
	FieldShortID  = "shortId"
	FieldVersion  = "ver"
	FieldZIndex   = "z-index"
	FieldPrevious = "previous"
	FieldNext     = "next"
	FieldAsset    = "asset"
	FieldAssetID  = "assetId"
)

// PluginBody is the serialized form of one plugin instance.
type PluginBody map[string]any

// ID returns the instance id stored in the body.
func (p PluginBody) ID() string {
	s, _ := p[FieldID].(string)
	return s
}

// ZIndex returns the stacking order stored in the body.
func (p PluginBody) ZIndex() (float64, bool) {
	return number(p[FieldZIndex])
}

// AssetRefs returns the asset ids the body references through its asset
// and assetId fields, in that order, without duplicates.
func (p PluginBody) AssetRefs() []string {
	var refs []string
	for _, field := range []string{FieldAsset, FieldAssetID} {
		id, _ := p[field].(string)
		if id == "" || (len(refs) > 0 && refs[0] == id) {
			continue
		}
		refs = append(refs, id)
	}
	return refs
}

// Clone returns a shallow copy of the body.
func (p PluginBody) Clone() PluginBody {
	out := make(PluginBody, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PluginEntry is one plugin body found in a stage body together with the
// key it was stored under.
type PluginEntry struct {
	Key  string
	Body PluginBody
}

// StageBody is the serialized form of a stage: scalar metadata fields plus,
// for every plugin key, one body or a list of bodies. Field order is kept.
type StageBody struct {
	keys   []string
	values map[string]any
}

// NewStageBody creates a stage body holding only id.
func NewStageBody(id string) *StageBody {
	sb := &StageBody{values: make(map[string]any)}
	sb.Set(FieldID, id)
	return sb
}

// ID returns the stage id.
func (sb *StageBody) ID() string {
	s, _ := sb.Get(FieldID)
	id, _ := s.(string)
	return id
}

// Set stores v under key. An existing key keeps its position.
func (sb *StageBody) Set(key string, v any) {
	if sb.values == nil {
		sb.values = make(map[string]any)
	}
	if _, ok := sb.values[key]; !ok {
		sb.keys = append(sb.keys, key)
	}
	sb.values[key] = v
}

// Get returns the value stored under key.
func (sb *StageBody) Get(key string) (any, bool) {
	v, ok := sb.values[key]
	return v, ok
}

// Delete removes key.
func (sb *StageBody) Delete(key string) {
	if _, ok := sb.values[key]; !ok {
		return
	}
	delete(sb.values, key)
	for i, k := range sb.keys {
		if k == key {
			sb.keys = append(sb.keys[:i], sb.keys[i+1:]...)
			break
		}
	}
}

// Append adds body to the list stored under key. A single body already
// stored under key becomes the first element of the list.
func (sb *StageBody) Append(key string, body PluginBody) {
	switch cur := sb.values[key].(type) {
	case []PluginBody:
		sb.Set(key, append(cur, body))
	case PluginBody:
		sb.Set(key, []PluginBody{cur, body})
	default:
		sb.Set(key, []PluginBody{body})
	}
}

// Keys returns the field names in order.
func (sb *StageBody) Keys() []string {
	out := make([]string, len(sb.keys))
	copy(out, sb.keys)
	return out
}

// Len returns the number of fields.
func (sb *StageBody) Len() int {
	return len(sb.keys)
}

// Plugins returns every plugin body in field order, expanding lists.
func (sb *StageBody) Plugins() []PluginEntry {
	var out []PluginEntry
	for _, key := range sb.keys {
		switch v := sb.values[key].(type) {
		case PluginBody:
			out = append(out, PluginEntry{Key: key, Body: v})
		case []PluginBody:
			for _, body := range v {
				out = append(out, PluginEntry{Key: key, Body: body})
			}
		}
	}
	return out
}

// Scalars returns the fields that do not hold plugin bodies, in order.
func (sb *StageBody) Scalars() []string {
	var out []string
	for _, key := range sb.keys {
		if !isPluginValue(sb.values[key]) {
			out = append(out, key)
		}
	}
	return out
}

// MarshalJSON writes the fields in order.
func (sb *StageBody) MarshalJSON() ([]byte, error) {
	buf := []byte("{}")
	var err error
	for _, key := range sb.keys {
		buf, err = sjson.SetBytes(buf, escapeKey(key), sb.values[key])
		if err != nil {
			return nil, fmt.Errorf("stage field %q: %w", key, err)
		}
	}
	return buf, nil
}

// UnmarshalJSON reads the fields in document order. Object values become
// PluginBody, arrays of objects become []PluginBody.
func (sb *StageBody) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidDocument
	}
	result := gjson.ParseBytes(data)
	if !result.IsObject() {
		return fmt.Errorf("%w: stage is not an object", ErrInvalidDocument)
	}
	sb.keys = nil
	sb.values = make(map[string]any)
	result.ForEach(func(key, value gjson.Result) bool {
		sb.Set(key.String(), fieldValue(value))
		return true
	})
	return nil
}

func fieldValue(value gjson.Result) any {
	switch {
	case value.IsObject():
		return pluginBody(value)
	case value.IsArray():
		items := value.Array()
		bodies := make([]PluginBody, 0, len(items))
		for _, item := range items {
			if !item.IsObject() {
				return value.Value()
			}
			bodies = append(bodies, pluginBody(item))
		}
		return bodies
	default:
		return value.Value()
	}
}

func pluginBody(value gjson.Result) PluginBody {
	m, _ := value.Value().(map[string]any)
	return PluginBody(m)
}

func isPluginValue(v any) bool {
	switch v.(type) {
	case PluginBody, []PluginBody:
		return true
	}
	return false
}

// escapeKey turns a field name into an sjson path addressing exactly that
// key: the leading colon forces an object key for numeric names and path
// syntax characters are escaped.
func escapeKey(key string) string {
	var b strings.Builder
	b.WriteByte(':')
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
