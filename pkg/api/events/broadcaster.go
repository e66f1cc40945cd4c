package events

import (
	"sync"
	"time"
)

// Event types emitted by the memory service.
const (
	TypeActivityLogged   = "session.activity_logged"
	TypeSessionCompacted = "session.compacted"
	TypeSetMemberAdded   = "set.member_added"
)

// Event is the canonical event payload broadcast to websocket subscribers.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Broadcaster broadcasts events to in-process subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
}

// NewBroadcaster creates a broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe subscribes to events with a buffered channel.
func (b *Broadcaster) Subscribe(buffer int) chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; !ok {
		return
	}
	delete(b.subscribers, ch)
	close(ch)
}

// Broadcast broadcasts a generic event to all subscribers.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			// Drop on overflow to keep broadcasters non-blocking.
		}
	}
}

// BroadcastActivityLogged emits an activity-logged event for one scope.
func (b *Broadcaster) BroadcastActivityLogged(
	botID, threadID, activityType string,
	persisted bool,
	loggedAt time.Time,
) {
	b.Broadcast(Event{
		Type: TypeActivityLogged,
		Payload: map[string]any{
			"bot_id":        botID,
			"thread_id":     threadID,
			"activity_type": activityType,
			"persisted":     persisted,
			"logged_at":     loggedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// BroadcastSessionCompacted emits a compaction event with the summary text.
func (b *Broadcaster) BroadcastSessionCompacted(
	botID, threadID, summary string,
	saved bool,
	compactedAt time.Time,
) {
	b.Broadcast(Event{
		Type: TypeSessionCompacted,
		Payload: map[string]any{
			"bot_id":       botID,
			"thread_id":    threadID,
			"summary":      summary,
			"saved":        saved,
			"compacted_at": compactedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// BroadcastSetMemberAdded emits a shared-set membership event.
func (b *Broadcaster) BroadcastSetMemberAdded(
	botID, setName, member string,
	persisted bool,
	addedAt time.Time,
) {
	b.Broadcast(Event{
		Type: TypeSetMemberAdded,
		Payload: map[string]any{
			"bot_id":    botID,
			"set":       setName,
			"member":    member,
			"persisted": persisted,
			"added_at":  addedAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

// Close closes all subscriber channels.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
