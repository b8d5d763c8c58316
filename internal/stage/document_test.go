package stage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/surface"
)

const sampleDocument = `{
  "theme": {
    "id": "theme",
    "version": 0.2,
    "startStage": "s1",
    "stage": [
      {
        "id": "s1",
        "color": "#FFFFFF",
        "shape": [{"id": "a", "z-index": 3}, {"id": "b", "z-index": 1}],
        "org.ekstep.quiz": {"id": "q", "z-index": 2, "questions": 5}
      },
      {
        "id": "s2",
        "shape": {"id": "c", "z-index": 0},
        "org.ekstep.missing": {"id": "m", "z-index": 1}
      }
    ],
    "manifest": {
      "media": [
        {"id": "org.ekstep.quiz", "ver": "1.2", "src": "/quiz.js", "type": "plugin"},
        {"id": "org.ekstep.video", "ver": "1.0", "src": "/video.js", "type": "plugin"},
        {"id": "img1", "src": "/assets/a.png", "type": "image"}
      ]
    }
  }
}`

func childIDs(st *Stage) []string {
	var ids []string
	for _, c := range st.Children() {
		ids = append(ids, c.ID())
	}
	return ids
}

func TestToDocument_EmptyScene(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.ToDocument()
	assert.ErrorIs(t, err, ErrEmptyScene)
}

func TestToDocument_Navigation(t *testing.T) {
	f := newFixture(t)
	s1 := f.addStage(t, "s1")
	s1.AddParam(ParamPrevious, "stale")
	s2 := f.addStage(t, "s2")
	s3 := f.addStage(t, "s3")

	doc, err := f.mgr.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, "s1", doc.Theme.StartStage)
	assert.Equal(t, DefaultThemeID, doc.Theme.ID)
	assert.Equal(t, DefaultThemeVersion, doc.Theme.Version)
	require.Len(t, doc.Theme.Stages, 3)

	assert.Equal(t, map[string]string{"next": "s2"}, s1.Params())
	assert.Equal(t, map[string]string{"previous": "s1", "next": "s3"}, s2.Params())
	assert.Equal(t, map[string]string{"previous": "s2"}, s3.Params())

	_, ok := doc.Theme.Stages[0].Get(ParamPrevious)
	assert.False(t, ok)
	next, _ := doc.Theme.Stages[0].Get(ParamNext)
	assert.Equal(t, "s2", next)
}

func TestToDocument_GroupsChildrenByKey(t *testing.T) {
	f := newFixture(t)
	st := f.addStage(t, "s1")
	_, err := f.plugins.Instantiate("shape", ecml.PluginBody{"id": "a"}, st)
	require.NoError(t, err)
	_, err = f.plugins.Instantiate(quizID, ecml.PluginBody{"id": "q"}, st)
	require.NoError(t, err)
	_, err = f.plugins.Instantiate("shape", ecml.PluginBody{"id": "b"}, st)
	require.NoError(t, err)

	doc, err := f.mgr.ToDocument()
	require.NoError(t, err)

	body := doc.Theme.Stages[0]
	assert.Equal(t, []string{"id", "shape", quizID}, body.Keys())
	shapes, _ := body.Get("shape")
	require.IsType(t, []ecml.PluginBody{}, shapes)
	assert.Len(t, shapes, 2)
	quiz, _ := body.Get(quizID)
	require.IsType(t, []ecml.PluginBody{}, quiz)
	quizzes := quiz.([]ecml.PluginBody)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "q", quizzes[0].ID())
}

func TestToDocument_Manifest(t *testing.T) {
	f := newFixture(t)
	s1 := f.addStage(t, "s1", 0)
	for _, id := range []string{"q1", "q2"} {
		_, err := f.plugins.Instantiate(quizID, ecml.PluginBody{"id": id}, s1)
		require.NoError(t, err)
	}
	s2 := f.addStage(t, "s2")
	_, err := f.plugins.Instantiate(quizID, ecml.PluginBody{"id": "q3"}, s2)
	require.NoError(t, err)

	want := []media.Descriptor{
		{ID: quizID, Ver: "1.2", Src: "https://cdn.example.com/org.ekstep.quiz-1.2/renderer/plugin.js", Type: media.TypePlugin},
		{ID: "quiz_css", Ver: "1.2", Src: "/quiz.css", Type: "css"},
	}

	doc, err := f.mgr.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, want, doc.Theme.Manifest.Media)

	again, err := f.mgr.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, want, again.Theme.Manifest.Media)
}

func TestToDocument_CoreByShortID(t *testing.T) {
	f := newFixture(t, WithCorePlugins(PluginID, "quiz"))
	require.NoError(t, f.plugins.Register(&plugin.Manifest{
		ID: "org.ekstep.poll", ShortID: "quiz", Ver: "1.0",
		Renderer: &plugin.Renderer{Main: "poll.js"},
	}, plugin.NewBase))
	st := f.addStage(t, "s1")
	_, err := f.plugins.Instantiate("org.ekstep.poll", nil, st)
	require.NoError(t, err)

	doc, err := f.mgr.ToDocument()
	require.NoError(t, err)
	assert.Empty(t, doc.Theme.Manifest.Media)
}

func TestToDocument_AssetResolver(t *testing.T) {
	resolve := func(id, ver, rel string) string {
		return fmt.Sprintf("/repo/%s/%s/%s", id, ver, rel)
	}
	f := newFixture(t, WithAssetURLs("", resolve))
	st := f.addStage(t, "s1")
	_, err := f.plugins.Instantiate(quizID, nil, st)
	require.NoError(t, err)

	doc, err := f.mgr.ToDocument()
	require.NoError(t, err)
	require.NotEmpty(t, doc.Theme.Manifest.Media)
	assert.Equal(t, "/repo/org.ekstep.quiz/1.2/renderer/plugin.js", doc.Theme.Manifest.Media[0].Src)
}

func TestFromDocument(t *testing.T) {
	f := newFixture(t)
	topics := recordTopics(t, f.bus)

	doc, err := ecml.Decode([]byte(sampleDocument))
	require.NoError(t, err)
	require.NoError(t, f.mgr.FromDocument(context.Background(), doc))

	assert.Equal(t, []string{"org.ekstep.video-1.0"}, f.loader.calls)
	img, ok := f.assets.Get("img1")
	require.True(t, ok)
	assert.Equal(t, "/assets/a.png", img.Src)
	assert.Equal(t, 1, f.assets.Len())

	stages := f.mgr.Stages()
	require.Len(t, stages, 2)
	s1, s2 := stages[0], stages[1]

	assert.Equal(t, []string{"b", "q", "a"}, childIDs(s1))
	assert.Equal(t, []string{"c"}, childIDs(s2), "unresolved plugins are skipped")
	color, _ := s1.Attr("color")
	assert.Equal(t, "#FFFFFF", color)

	assert.Same(t, s1, f.mgr.CurrentStage())
	assert.True(t, s1.IsSelected())
	assert.False(t, s2.IsSelected())
	assert.Nil(t, s2.Surface())
	assert.Same(t, f.canvas, s1.Surface())
	assert.Equal(t, 3, f.canvas.Len())

	assert.Equal(t, []string{"stage:select"}, *topics)
	assert.Equal(t, 1, f.canvas.Listeners(surface.EventObjectAdded), "event bridge is registered")
}

func TestFromDocument_DoesNotModifyInput(t *testing.T) {
	f := newFixture(t)
	doc, err := ecml.Decode([]byte(sampleDocument))
	require.NoError(t, err)
	before, err := ecml.Encode(doc)
	require.NoError(t, err)

	require.NoError(t, f.mgr.FromDocument(context.Background(), doc))

	after, err := ecml.Encode(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestFromDocument_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.mgr.FromDocument(ctx, nil), ecml.ErrMissingTheme)
	assert.ErrorIs(t, f.mgr.FromDocument(ctx, &ecml.Document{}), ecml.ErrMissingTheme)

	doc, err := ecml.Decode([]byte(`{"theme":{"stage":[{"id":"s1"},{"id":"s1"}]}}`))
	require.NoError(t, err)
	assert.ErrorIs(t, f.mgr.FromDocument(ctx, doc), ErrDuplicateStage)
}

func TestFromDocument_DuplicateLeavesSceneUntouched(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		doc      string
	}{
		{
			name: "duplicate inside the document",
			doc: `{"theme":{"stage":[{"id":"s1","shape":{"id":"a"}},{"id":"s2"},{"id":"s1"}],
				"manifest":{"media":[{"id":"img1","src":"/a.png","type":"image"},
				{"id":"org.ekstep.video","ver":"1.0","src":"/v.js","type":"plugin"}]}}}`,
		},
		{
			name:     "duplicate of an existing stage",
			existing: []string{"s2"},
			doc: `{"theme":{"stage":[{"id":"s1"},{"id":"s2"}],
				"manifest":{"media":[{"id":"img1","src":"/a.png","type":"image"}]}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, id := range tt.existing {
				f.addStage(t, id)
			}
			before := f.mgr.CurrentStage()

			doc, err := ecml.Decode([]byte(tt.doc))
			require.NoError(t, err)
			require.ErrorIs(t, f.mgr.FromDocument(context.Background(), doc), ErrDuplicateStage)

			assert.Len(t, f.mgr.Stages(), len(tt.existing))
			assert.Same(t, before, f.mgr.CurrentStage())
			assert.Zero(t, f.assets.Len())
			assert.Empty(t, f.loader.calls)
		})
	}
}

func TestRoundTrip_KeepsReferencedAssets(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.plugins.Register(&plugin.Manifest{ID: "org.ekstep.image", ShortID: "image", Ver: "1.0"}, plugin.NewBase))

	doc, err := ecml.Decode([]byte(`{"theme":{"stage":[{"id":"s1",
		"image":[{"id":"img1","z-index":0,"asset":"logo"},{"id":"img2","z-index":1,"assetId":"logo"}]}],
		"manifest":{"media":[{"id":"logo","src":"/assets/logo.png","type":"image"},
		{"id":"unused","src":"/assets/unused.png","type":"image"}]}}}`))
	require.NoError(t, err)
	require.NoError(t, f.mgr.FromDocument(context.Background(), doc))

	out, err := f.mgr.ToDocument()
	require.NoError(t, err)
	assert.Equal(t, []media.Descriptor{
		{ID: "logo", Src: "/assets/logo.png", Type: "image"},
	}, out.Theme.Manifest.Media, "referenced assets are exported once")
}

func TestFromDocument_ZOrderTiesKeepDocumentOrder(t *testing.T) {
	f := newFixture(t)
	doc, err := ecml.Decode([]byte(`{"theme":{"stage":{"id":"s1",
		"shape":[{"id":"x"},{"id":"a","z-index":1},{"id":"b","z-index":0}],
		"org.ekstep.quiz":{"id":"c","z-index":1}}}}`))
	require.NoError(t, err)
	require.NoError(t, f.mgr.FromDocument(context.Background(), doc))

	assert.Equal(t, []string{"b", "a", "c", "x"}, childIDs(f.mgr.Stages()[0]))
}

// lazy is a plugin that never draws.
type lazy struct {
	*plugin.Base
}

func (l *lazy) Render(surface.Surface) {}

func TestFromDocument_LoadTimeout(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, WithLoadTimeout(2*time.Second, sched.schedule))
	require.NoError(t, f.plugins.Register(&plugin.Manifest{ID: "org.ekstep.lazy", Ver: "1.0"},
		func(m *plugin.Manifest, data ecml.PluginBody, parent plugin.Container) (plugin.Instance, error) {
			return &lazy{Base: plugin.NewBaseInstance(m, data, parent)}, nil
		}))

	doc, err := ecml.Decode([]byte(`{"theme":{"stage":[{"id":"s1","org.ekstep.lazy":{"id":"l"}}]}}`))
	require.NoError(t, err)
	require.NoError(t, f.mgr.FromDocument(context.Background(), doc))

	assert.Nil(t, f.mgr.CurrentStage(), "first stage waits for its objects")
	assert.Equal(t, []time.Duration{2 * time.Second}, sched.delays)

	sched.fire()
	require.NotNil(t, f.mgr.CurrentStage())
	assert.Equal(t, "s1", f.mgr.CurrentStage().ID())
}

func TestFromDocument_ZOrderProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		zs := make([]int, n)
		for i := range zs {
			zs[i] = i
		}
		zs = rapid.Permutation(zs).Draw(rt, "zs")

		body := ecml.NewStageBody("s1")
		for _, z := range zs {
			body.Append("shape", ecml.PluginBody{"id": fmt.Sprintf("p%d", z), "z-index": float64(z)})
		}
		doc := ecml.NewDocument("theme", 0.2)
		doc.Theme.Stages = append(doc.Theme.Stages, body)

		f := newFixture(t)
		require.NoError(rt, f.mgr.FromDocument(context.Background(), doc))

		children := f.mgr.Stages()[0].Children()
		require.Len(rt, children, n)
		for i, c := range children {
			assert.Equal(rt, i, c.ZIndex())
			assert.Equal(rt, fmt.Sprintf("p%d", i), c.ID())
		}
	})
}

func TestToDocument_NavigationProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "stages")
		f := newFixture(t)
		for i := range n {
			f.addStage(t, fmt.Sprintf("s%d", i))
		}

		doc, err := f.mgr.ToDocument()
		require.NoError(rt, err)
		assert.Equal(rt, "s0", doc.Theme.StartStage)

		for i, body := range doc.Theme.Stages {
			prev, hasPrev := body.Get(ParamPrevious)
			next, hasNext := body.Get(ParamNext)
			assert.Equal(rt, i > 0, hasPrev)
			assert.Equal(rt, i < n-1, hasNext)
			if hasPrev {
				assert.Equal(rt, doc.Theme.Stages[i-1].ID(), prev)
			}
			if hasNext {
				assert.Equal(rt, doc.Theme.Stages[i+1].ID(), next)
			}
		}
	})
}

func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		stages := rapid.IntRange(1, 4).Draw(rt, "stages")
		for i := range stages {
			st := New(fmt.Sprintf("s%d", i))
			require.NoError(rt, f.mgr.AddStage(context.Background(), st))
			shapes := rapid.IntRange(0, 3).Draw(rt, "shapes")
			for range shapes {
				_, err := f.plugins.Instantiate("shape", ecml.PluginBody{"fill": "#00FF00"}, st)
				require.NoError(rt, err)
			}
			if rapid.Bool().Draw(rt, "quiz") {
				_, err := f.plugins.Instantiate(quizID, ecml.PluginBody{"questions": 3.0}, st)
				require.NoError(rt, err)
			}
		}

		first, err := f.mgr.ToDocument()
		require.NoError(rt, err)
		encoded, err := ecml.Encode(first)
		require.NoError(rt, err)

		decoded, err := ecml.Decode(encoded)
		require.NoError(rt, err)
		g := newFixture(t)
		require.NoError(rt, g.mgr.FromDocument(context.Background(), decoded))

		second, err := g.mgr.ToDocument()
		require.NoError(rt, err)
		reencoded, err := ecml.Encode(second)
		require.NoError(rt, err)

		assert.JSONEq(rt, string(encoded), string(reencoded))
	})
}
