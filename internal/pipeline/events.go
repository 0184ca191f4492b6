package pipeline

import (
	"sync"

	"healthtrack/internal/model"
)

// StatusEvent is the fire-and-forget notification emitted after every
// persisted status change. There is no acknowledgement and no replay for
// late subscribers.
type StatusEvent struct {
	EntryID int64
	Status  model.ProcessingStatus
}

// StatusListener receives status events. Delivery happens synchronously from
// the publishing job's goroutine, so a listener that mutates shared state
// must serialize its own updates.
type StatusListener func(event StatusEvent)

// Broadcaster fans status events out to zero-or-more listeners.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]StatusListener
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]StatusListener)}
}

// Subscribe registers a listener and returns a function that removes it.
func (b *Broadcaster) Subscribe(listener StatusListener) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.listeners[id] = listener

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.listeners, id)
	}
}

// Publish delivers the event to every current listener, in the caller's
// goroutine.
func (b *Broadcaster) Publish(event StatusEvent) {
	b.mu.Lock()
	listeners := make([]StatusListener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}
