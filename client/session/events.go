package session

import (
	"sync"
	"time"
)

// Reasons attached to a Terminated event.
const (
	ReasonLogout         = "logout"
	ReasonRefreshFailed  = "refresh_failed"
	ReasonNoRefreshToken = "no_refresh_token"
)

// Terminated is published once per teardown of the session. The composition
// root subscribes to it and turns it into navigation to the login screen.
type Terminated struct {
	Reason string
	Err    error // cause for refresh failures; nil on logout
	At     time.Time
}

// bus is an in-process fan-out of Terminated events. Publish never blocks:
// a subscriber whose buffer is full misses the event.
type bus struct {
	mu     sync.Mutex
	next   int
	buffer int
	subs   map[int]chan Terminated
}

func newBus(buffer int) *bus {
	if buffer <= 0 {
		buffer = 1
	}
	return &bus{buffer: buffer, subs: make(map[int]chan Terminated)}
}

// subscribe returns a receive channel and a function that unsubscribes and
// closes it. The cancel function is idempotent.
func (b *bus) subscribe() (<-chan Terminated, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Terminated, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// publish returns how many subscribers received evt.
func (b *bus) publish(evt Terminated) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- evt:
			delivered++
		default:
		}
	}
	return delivered
}
