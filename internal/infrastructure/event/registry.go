package event

import (
	"slices"
	"sync"

	"github.com/smartedu/backend/internal/domain/shared"
)

// HandlerRegistry keeps handler subscriptions per topic.
// Handlers registered without topics receive every event.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byTopic  map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		byTopic: make(map[string][]shared.EventHandler),
	}
}

// Register subscribes handler to the given topics, or to all topics when none
// are given. Registering the same handler twice for a topic is a no-op.
func (r *HandlerRegistry) Register(handler shared.EventHandler, topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(topics) == 0 {
		if !slices.Contains(r.wildcard, handler) {
			r.wildcard = append(r.wildcard, handler)
		}
		return
	}

	for _, topic := range topics {
		if !slices.Contains(r.byTopic[topic], handler) {
			r.byTopic[topic] = append(r.byTopic[topic], handler)
		}
	}
}

// Unregister removes handler from every topic and from the wildcard list
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = without(r.wildcard, handler)
	for topic, handlers := range r.byTopic {
		remaining := without(handlers, handler)
		if len(remaining) == 0 {
			delete(r.byTopic, topic)
			continue
		}
		r.byTopic[topic] = remaining
	}
}

// HandlersFor returns the handlers for a topic in registration order,
// topic subscribers first and wildcard subscribers after them.
// The returned slice is a copy.
func (r *HandlerRegistry) HandlersFor(topic string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specific := r.byTopic[topic]
	result := make([]shared.EventHandler, 0, len(specific)+len(r.wildcard))
	result = append(result, specific...)
	for _, h := range r.wildcard {
		if !slices.Contains(specific, h) {
			result = append(result, h)
		}
	}
	return result
}

// Topics returns the topics with at least one specific subscriber
func (r *HandlerRegistry) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.byTopic))
	for topic := range r.byTopic {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Len returns the number of distinct registered handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]struct{})
	for _, h := range r.wildcard {
		seen[h] = struct{}{}
	}
	for _, handlers := range r.byTopic {
		for _, h := range handlers {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

func without(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(slices.Clone(handlers), func(h shared.EventHandler) bool {
		return h == target
	})
}
