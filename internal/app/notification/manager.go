// Package notification provides the subscription manager for broadcasting playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/domain/sound"
)

// EventType represents a notification type.
type EventType int

const (
	EventMusicCompleted EventType = iota // Single-shot music finished playing
	EventSettingChanged                  // A global setting was changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventMusicCompleted:
		return "music_completed"
	case EventSettingChanged:
		return "setting_changed"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber.
type Event struct {
	Type       EventType
	SequenceNo uint64
	SessionID  sound.ID // EventMusicCompleted only
	Key        string   // EventSettingChanged only
	Prev       any      // EventSettingChanged only
	Value      any      // EventSettingChanged only
}

// Listener receives notifications.
type Listener interface {
	Notify(Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event) error

// Notify calls f.
func (f ListenerFunc) Notify(e Event) error {
	return f(e)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id       string
	listener Listener
}

// Manager manages subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	timeout       time.Duration
}

// NewManager creates a new notification manager.
// Each delivery that takes longer than timeout is abandoned.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Manager{
		subscriptions: make(map[string]*subscription),
		timeout:       timeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(listener Listener) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:       id,
		listener: listener,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast sends an event to all subscribers and waits for every delivery or its timeout.
func (m *Manager) Broadcast(event Event) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	event.SequenceNo = m.sequenceNo
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.listener.Notify(event)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: listener %s failed on %s: %v", s.id, event.Type, err)
				}
			case <-ctx.Done():
				zlog.Warn().Msgf("notification: listener %s timed out on %s", s.id, event.Type)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
