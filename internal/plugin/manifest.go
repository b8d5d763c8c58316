package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dshills/stagehand/internal/media"
)

// ManifestFile is the manifest file name inside a plugin bundle.
const ManifestFile = "manifest.json"

// Manifest describes a plugin's identity and entry point.
type Manifest struct {
	ID       string    `json:"id"`                // Fully qualified id (e.g., "org.ekstep.text")
	ShortID  string    `json:"shortId,omitempty"` // Key used in serialized stages
	Ver      string    `json:"ver"`               // Bundle version
	Type     string    `json:"type,omitempty"`    // Event type; defaults to ID
	Renderer *Renderer `json:"renderer,omitempty"`

	// Media every instance of the plugin depends on.
	Media []media.Descriptor `json:"media,omitempty"`

	// Internal: path to the bundle directory
	dir string
}

// Renderer names the entry point a player loads for the plugin.
type Renderer struct {
	Main string `json:"main"`
}

// Validation errors.
var (
	ErrMissingID      = errors.New("manifest: id is required")
	ErrInvalidID      = errors.New("manifest: id must be dotted alphanumeric")
	ErrMissingVersion = errors.New("manifest: ver is required")
	ErrInvalidVersion = errors.New("manifest: ver must be numeric dotted")
	ErrInvalidShortID = errors.New("manifest: shortId must be alphanumeric")
	ErrInvalidMain    = errors.New("manifest: renderer.main must be a relative path")
)

var (
	idPattern      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*(\.[A-Za-z0-9][A-Za-z0-9_-]*)*$`)
	shortIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	verPattern     = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)
)

// LoadManifest loads and validates a plugin manifest from a file.
func LoadManifest(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.dir = filepath.Dir(file)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Key returns the key instances are stored under in a stage body.
func (m *Manifest) Key() string {
	if m.ShortID != "" {
		return m.ShortID
	}
	return m.ID
}

// EventType returns the type used for type-scoped object events.
func (m *Manifest) EventType() string {
	if m.Type != "" {
		return m.Type
	}
	return m.ID
}

// HasRenderer reports whether the manifest declares a renderer entry point.
func (m *Manifest) HasRenderer() bool {
	return m.Renderer != nil && m.Renderer.Main != ""
}

// Dir returns the bundle directory the manifest was loaded from.
func (m *Manifest) Dir() string {
	return m.dir
}

// MainPath returns the filesystem path of the renderer entry point.
func (m *Manifest) MainPath() string {
	if !m.HasRenderer() {
		return ""
	}
	return filepath.Join(m.dir, filepath.FromSlash(m.Renderer.Main))
}

// Validate checks that the manifest is valid.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("%w: %s", ErrInvalidID, m.ID)
	}
	if m.ShortID != "" && !shortIDPattern.MatchString(m.ShortID) {
		return fmt.Errorf("%w: %s", ErrInvalidShortID, m.ShortID)
	}

	if m.Ver == "" {
		return ErrMissingVersion
	}
	if !verPattern.MatchString(m.Ver) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Ver)
	}

	if m.Renderer != nil && m.Renderer.Main != "" {
		main := m.Renderer.Main
		if path.IsAbs(main) || strings.HasPrefix(path.Clean(main), "..") {
			return fmt.Errorf("%w: %s", ErrInvalidMain, main)
		}
	}
	return nil
}
