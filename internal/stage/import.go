package stage

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dshills/stagehand/internal/ecml"
)

// stageKey is the plugin key of the stage wrapper in the core mapping.
const stageKey = "stage"

type pendingPlugin struct {
	key    string
	zIndex float64
	data   ecml.PluginBody
}

// FromDocument rebuilds the stages of doc. Plugin bundles and assets are
// requested before any stage is built. Each stage is loaded on its own
// surface; once the first stage has loaded, the event bridge is registered
// and that stage is selected. doc is not modified.
func (m *Manager) FromDocument(ctx context.Context, doc *ecml.Document) error {
	if doc == nil || doc.Theme == nil {
		return ecml.ErrMissingTheme
	}
	theme := doc.Theme
	if err := m.checkStageIDs(theme.Stages); err != nil {
		return err
	}

	for _, d := range theme.Manifest.Media {
		if d.IsPlugin() {
			m.plugins.LoadPlugin(ctx, d.ID, d.Ver)
			continue
		}
		if m.assets != nil {
			m.assets.AddMedia(d)
		}
	}

	for i, body := range theme.Stages {
		if body == nil {
			continue
		}
		st, err := m.buildStage(body)
		if err != nil {
			return err
		}
		load := st.Surface()
		count := m.instantiatePlugins(st, body)
		m.stages = append(m.stages, st)

		var done func()
		if i == 0 {
			id := st.ID()
			done = func() {
				if err := m.RegisterEvents(ctx); err != nil {
					m.log.Error("register events: %v", err)
					return
				}
				if err := m.publishSelect(ctx, id); err != nil {
					m.log.Error("select stage %s: %v", id, err)
				}
			}
		}
		st.DestroyOnLoad(count, load, done)
	}
	return nil
}

// checkStageIDs rejects bodies whose id repeats within bodies or names a
// stage already in the scene. Bodies without an id get a fresh one later.
func (m *Manager) checkStageIDs(bodies []*ecml.StageBody) error {
	seen := make(map[string]bool, len(bodies))
	for _, body := range bodies {
		if body == nil {
			continue
		}
		id := body.ID()
		if id == "" {
			continue
		}
		if seen[id] || m.find(id) != nil {
			return fmt.Errorf("import stage %q: %w", id, ErrDuplicateStage)
		}
		seen[id] = true
	}
	return nil
}

// buildStage instantiates the stage wrapper of body bound to a fresh load
// surface.
func (m *Manager) buildStage(body *ecml.StageBody) (*Stage, error) {
	scalars := ecml.PluginBody{}
	for _, k := range body.Scalars() {
		scalars[k], _ = body.Get(k)
	}

	inst, err := m.plugins.Instantiate(m.resolveKey(stageKey), scalars, nil)
	if err != nil {
		return nil, fmt.Errorf("import stage %q: %w", body.ID(), err)
	}
	st, ok := inst.(*Stage)
	if !ok {
		return nil, fmt.Errorf("import stage %q: %w", body.ID(), ErrNotAStage)
	}
	m.configure(st)
	st.SetSurface(m.newSurface(st.ID(), m.surfaceOpts))
	return st, nil
}

// instantiatePlugins creates the plugins of body on st in ascending z-index
// order and returns how many were created. Plugins without a z-index come
// last.
func (m *Manager) instantiatePlugins(st *Stage, body *ecml.StageBody) int {
	var pending []pendingPlugin
	for _, entry := range body.Plugins() {
		z, ok := entry.Body.ZIndex()
		if !ok {
			z = math.Inf(1)
		}
		pending = append(pending, pendingPlugin{key: entry.Key, zIndex: z, data: entry.Body})
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].zIndex < pending[j].zIndex
	})

	count := 0
	for _, p := range pending {
		if _, err := m.plugins.Instantiate(m.resolveKey(p.key), p.data, st); err != nil {
			m.log.WithField("plugin", p.key).Warn("stage %s: skip plugin: %v", st.ID(), err)
			continue
		}
		count++
	}
	return count
}
