package ecml

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/stagehand/internal/media"
)

// Errors returned by Decode.
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrMissingTheme    = errors.New("document has no theme")
)

// Paths of the collections that may be stored as a bare value.
const (
	stagePath = "theme.stage"
	mediaPath = "theme.manifest.media"
)

// Document is the root of a persisted document.
type Document struct {
	Theme *Theme `json:"theme"`
}

// Theme holds the ordered stages and the media manifest.
type Theme struct {
	ID         string       `json:"id"`
	Version    float64      `json:"version"`
	StartStage string       `json:"startStage"`
	Stages     []*StageBody `json:"stage"`
	Manifest   Manifest     `json:"manifest"`
}

// Manifest lists the external assets and plugin bundles a document needs.
type Manifest struct {
	Media []media.Descriptor `json:"media"`
}

// NewDocument creates a document with an empty theme.
func NewDocument(id string, version float64) *Document {
	return &Document{
		Theme: &Theme{
			ID:       id,
			Version:  version,
			Stages:   []*StageBody{},
			Manifest: Manifest{Media: []media.Descriptor{}},
		},
	}
}

// HasMedia reports whether the manifest already lists id.
func (m *Manifest) HasMedia(id string) bool {
	for _, d := range m.Media {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Decode parses data into a Document. Stage and media collections stored as
// a single object are wrapped into one-element arrays.
func Decode(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	theme := gjson.GetBytes(data, "theme")
	if !theme.IsObject() {
		return nil, ErrMissingTheme
	}

	var err error
	for _, path := range []string{stagePath, mediaPath} {
		data, err = normalizeArray(data, path)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", path, err)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Theme.Stages == nil {
		doc.Theme.Stages = []*StageBody{}
	}
	if doc.Theme.Manifest.Media == nil {
		doc.Theme.Manifest.Media = []media.Descriptor{}
	}
	return &doc, nil
}

// Encode writes doc in canonical form.
func Encode(doc *Document) ([]byte, error) {
	if doc == nil || doc.Theme == nil {
		return nil, ErrMissingTheme
	}
	return json.Marshal(doc)
}

// EncodeIndent is like Encode but indents the output.
func EncodeIndent(doc *Document, indent string) ([]byte, error) {
	if doc == nil || doc.Theme == nil {
		return nil, ErrMissingTheme
	}
	return json.MarshalIndent(doc, "", indent)
}

func normalizeArray(data []byte, path string) ([]byte, error) {
	value := gjson.GetBytes(data, path)
	switch {
	case !value.Exists(), value.IsArray():
		return data, nil
	case value.Type == gjson.Null:
		return sjson.SetRawBytes(data, path, []byte("[]"))
	default:
		return sjson.SetRawBytes(data, path, []byte("["+value.Raw+"]"))
	}
}
