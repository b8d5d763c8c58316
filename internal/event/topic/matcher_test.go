package topic

import (
	"slices"
	"testing"
)

func sortedTopics(ts []Topic) []Topic {
	out := slices.Clone(ts)
	slices.Sort(out)
	return out
}

func TestMatcher_AddHas(t *testing.T) {
	m := NewMatcher()

	m.Add("object:added")
	m.Add("object:added")
	m.Add("stage:select")
	m.Add("")

	if !m.Has("object:added") {
		t.Error("expected matcher to have object:added")
	}
	if !m.Has("stage:select") {
		t.Error("expected matcher to have stage:select")
	}
	if m.Has("object:removed") {
		t.Error("expected matcher to not have object:removed")
	}
	if m.Count() != 2 {
		t.Errorf("expected count 2, got %d", m.Count())
	}
}

func TestMatcher_Remove(t *testing.T) {
	m := NewMatcher()

	m.Add("object:added")
	m.Add("object:removed")
	m.Remove("object:added")
	m.Remove("never:added")

	if m.Has("object:added") {
		t.Error("expected object:added to be removed")
	}
	if !m.Has("object:removed") {
		t.Error("expected object:removed to remain")
	}
	if m.Count() != 1 {
		t.Errorf("expected count 1, got %d", m.Count())
	}

	m.Remove("object:removed")
	if m.Count() != 0 {
		t.Errorf("expected count 0, got %d", m.Count())
	}
	if len(m.root.children) != 0 {
		t.Errorf("expected empty trie, got %d children", len(m.root.children))
	}
}

func TestMatcher_Match(t *testing.T) {
	m := NewMatcher()
	m.Add("object:added")
	m.Add("object:*")
	m.Add("*:added")
	m.Add("**")
	m.Add("stage:select")

	tests := []struct {
		topic Topic
		want  []Topic
	}{
		{"object:added", []Topic{"**", "*:added", "object:*", "object:added"}},
		{"org.ekstep.shape:added", []Topic{"**", "*:added"}},
		{"stage:select", []Topic{"**", "stage:select"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.topic), func(t *testing.T) {
			got := sortedTopics(m.Match(tt.topic))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.topic, got, tt.want)
			}
		})
	}

	if got := m.Match(""); got != nil {
		t.Errorf("expected nil for empty topic, got %v", got)
	}
}

func TestMatcher_MatchReportsPatternOnce(t *testing.T) {
	m := NewMatcher()
	m.Add("**:added")

	got := m.Match("a:b:added")
	if !slices.Equal(got, []Topic{"**:added"}) {
		t.Errorf("expected [**:added], got %v", got)
	}
}
