package event

import (
	"sort"
	"sync"

	"github.com/dshills/stagehand/internal/event/topic"
)

// Registry keeps an explicit subscriber list per topic pattern.
type Registry struct {
	mu      sync.RWMutex
	subs    map[topic.Topic][]*subscription
	byID    map[string]*subscription
	matcher *topic.Matcher
}

// NewRegistry creates a new subscription registry.
func NewRegistry() *Registry {
	return &Registry{
		subs:    make(map[topic.Topic][]*subscription),
		byID:    make(map[string]*subscription),
		matcher: topic.NewMatcher(),
	}
}

// Add adds a subscription for its topic pattern.
func (r *Registry) Add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pattern := sub.Topic()
	r.subs[pattern] = append(r.subs[pattern], sub)
	r.byID[sub.ID()] = sub
	r.matcher.Add(pattern)
}

// Remove deactivates and removes a subscription by ID.
func (r *Registry) Remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}
	sub.removed.Store(true)

	pattern := sub.Topic()
	subs := r.subs[pattern]
	for i, s := range subs {
		if s == sub {
			r.subs[pattern] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[pattern]) == 0 {
		delete(r.subs, pattern)
		r.matcher.Remove(pattern)
	}

	delete(r.byID, subID)
	return true
}

// Match returns the subscriptions matching the event topic in delivery
// order. The slice is a snapshot: subscriptions added while it is being
// delivered are not included, removed ones must be skipped by the caller.
func (r *Registry) Match(eventTopic topic.Topic) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*subscription
	for _, pattern := range r.matcher.Match(eventTopic) {
		all = append(all, r.subs[pattern]...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].runsBefore(all[j])
	})
	return all
}

// Count returns the number of registered subscriptions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
