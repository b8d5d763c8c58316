package stage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dshills/stagehand/internal/ecml"
	"github.com/dshills/stagehand/internal/event"
	"github.com/dshills/stagehand/internal/event/events"
	"github.com/dshills/stagehand/internal/media"
	"github.com/dshills/stagehand/internal/plugin"
	"github.com/dshills/stagehand/internal/surface"
)

const (
	shapeID = "org.ekstep.shape"
	quizID  = "org.ekstep.quiz"
)

// fixture is a manager over real registries and an in-memory canvas.
type fixture struct {
	bus     event.Bus
	plugins *plugin.Registry
	assets  *media.Registry
	canvas  *surface.Canvas
	mgr     *Manager
	loader  *recordingLoader
}

type recordingLoader struct {
	calls []string
}

func (l *recordingLoader) Load(_ context.Context, id, ver string) {
	l.calls = append(l.calls, id+"-"+ver)
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	loader := &recordingLoader{}
	assets := media.NewRegistry()
	reg := plugin.NewRegistry(plugin.WithBundleLoader(loader), plugin.WithAssets(assets))
	require.NoError(t, Register(reg))
	require.NoError(t, reg.Register(&plugin.Manifest{ID: shapeID, ShortID: "shape", Ver: "1.0", Type: "shape"}, plugin.NewBase))
	require.NoError(t, reg.Register(&plugin.Manifest{
		ID:       quizID,
		Ver:      "1.2",
		Renderer: &plugin.Renderer{Main: "renderer/plugin.js"},
		Media:    []media.Descriptor{{ID: "quiz_css", Ver: "1.2", Src: "/quiz.css", Type: "css"}},
	}, plugin.NewBase))

	f := &fixture{
		bus:     event.NewBus(),
		plugins: reg,
		assets:  assets,
		canvas:  surface.NewCanvas("main", surface.DefaultOptions()),
		loader:  loader,
	}
	base := []Option{
		WithAssets(f.assets),
		WithCorePlugins(PluginID, shapeID),
		WithCorePluginMapping(map[string]string{"stage": PluginID, "shape": shapeID}),
		WithAssetURLs("https://cdn.example.com", nil),
	}
	f.mgr = NewManager(f.bus, reg, f.canvas, append(base, opts...)...)
	t.Cleanup(func() { _ = f.mgr.Close() })
	return f
}

// addStage adds a stage holding one shape per z-index.
func (f *fixture) addStage(t *testing.T, id string, zs ...int) *Stage {
	t.Helper()
	st := New(id)
	require.NoError(t, f.mgr.AddStage(context.Background(), st))
	for _, z := range zs {
		_, err := f.plugins.Instantiate("shape", ecml.PluginBody{"z-index": float64(z)}, st)
		require.NoError(t, err)
	}
	return st
}

// recordTopics records the topic of every event published on bus.
func recordTopics(t *testing.T, bus event.Bus) *[]string {
	t.Helper()
	var got []string
	_, err := bus.SubscribeFunc("**", func(_ context.Context, e any) error {
		if p, ok := e.(event.TopicProvider); ok {
			got = append(got, p.EventTopic().String())
		}
		return nil
	})
	require.NoError(t, err)
	return &got
}

// recordObjects records the payloads of object:* events.
func recordObjects(t *testing.T, bus event.Bus) *[]events.ObjectMeta {
	t.Helper()
	var got []events.ObjectMeta
	_, err := event.SubscribePayload(bus, "object:*", func(_ context.Context, m events.ObjectMeta) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	return &got
}

// manualScheduler runs timeouts when fire is called.
type manualScheduler struct {
	pending []func()
	delays  []time.Duration
}

func (s *manualScheduler) schedule(d time.Duration, fn func()) func() {
	idx := len(s.pending)
	s.pending = append(s.pending, fn)
	s.delays = append(s.delays, d)
	return func() { s.pending[idx] = nil }
}

func (s *manualScheduler) fire() {
	for i, fn := range s.pending {
		if fn != nil {
			s.pending[i] = nil
			fn()
		}
	}
}

func (s *manualScheduler) active() int {
	n := 0
	for _, fn := range s.pending {
		if fn != nil {
			n++
		}
	}
	return n
}
