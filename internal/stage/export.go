package stage

import (
	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
)

// ToDocument serializes every stage, in order, into a document. Navigation
// params are recomputed from the current order first.
func (m *Manager) ToDocument() (*ecml.Document, error) {
	if len(m.stages) == 0 {
		return nil, ErrEmptyScene
	}

	doc := ecml.NewDocument(m.themeID, m.themeVersion)
	doc.Theme.StartStage = m.stages[0].ID()
	m.setNavigationParams()

	mediaMap := media.NewMap()
	for _, st := range m.stages {
		body := st.Body()
		for _, child := range st.Children() {
			body.Append(child.Manifest().Key(), child.ToDocument())
			mediaMap.Merge(child.Media())
			m.updateManifest(&doc.Theme.Manifest, child.Manifest())
		}
		doc.Theme.Stages = append(doc.Theme.Stages, body)
	}

	for _, d := range mediaMap.Values() {
		mergeMedia(&doc.Theme.Manifest, d)
	}
	return doc, nil
}

// setNavigationParams links each stage to its neighbours.
func (m *Manager) setNavigationParams() {
	last := len(m.stages) - 1
	for i, st := range m.stages {
		if i > 0 {
			st.AddParam(ParamPrevious, m.stages[i-1].ID())
		} else {
			st.RemoveParam(ParamPrevious)
		}
		if i < last {
			st.AddParam(ParamNext, m.stages[i+1].ID())
		} else {
			st.RemoveParam(ParamNext)
		}
	}
}

// updateManifest lists the bundle of a non-core plugin once.
func (m *Manager) updateManifest(manifest *ecml.Manifest, pm *plugin.Manifest) {
	if !pm.HasRenderer() || m.isCore(pm) || manifest.HasMedia(pm.ID) {
		return
	}
	manifest.Media = append(manifest.Media, media.Descriptor{
		ID:   pm.ID,
		Ver:  pm.Ver,
		Src:  m.baseURL + m.resolveAsset(pm.ID, pm.Ver, pm.Renderer.Main),
		Type: media.TypePlugin,
	})
}

func (m *Manager) isCore(pm *plugin.Manifest) bool {
	return m.corePlugins[pm.ID] || (pm.ShortID != "" && m.corePlugins[pm.ShortID])
}

// mergeMedia replaces the entry with the id of d, or appends d.
func mergeMedia(manifest *ecml.Manifest, d media.Descriptor) {
	for i := range manifest.Media {
		if manifest.Media[i].ID == d.ID {
			manifest.Media[i] = d
			return
		}
	}
	manifest.Media = append(manifest.Media, d)
}
