package session

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-sessions/internal/entity"
)

// Broadcaster fans snapshots of one session out to any number of observers.
//
// Every observer owns an unbounded queue drained by its own goroutine, so Publish never
// waits for a reader and never drops a value. A new observer first receives the latest
// published snapshot, then every later one in publish order.
type Broadcaster struct {
	mu          sync.Mutex
	latest      entity.SessionState
	subscribers map[*subscriber]struct{}
	closed      bool
}

func NewBroadcaster(initial entity.SessionState) *Broadcaster {
	return &Broadcaster{
		latest:      initial,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Attach - registers an observer. The returned channel is closed once ctx is done
// or the broadcaster is closed.
func (that *Broadcaster) Attach(ctx context.Context) <-chan entity.SessionState {
	sub := newSubscriber()

	that.mu.Lock()
	sub.push(that.latest)
	if that.closed {
		sub.stop()
	} else {
		that.subscribers[sub] = struct{}{}
	}
	that.mu.Unlock()

	go sub.run(ctx, that.detach)

	return sub.out
}

// Publish - records value as the latest snapshot and queues it for every observer.
// Only the owning session calls it, from inside its critical section.
func (that *Broadcaster) Publish(value entity.SessionState) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.latest = value
	for sub := range that.subscribers {
		sub.push(value)
	}
}

// Count - returns the number of attached observers.
func (that *Broadcaster) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.subscribers)
}

// Close - detaches all observers. Values already queued are still delivered.
func (that *Broadcaster) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	for sub := range that.subscribers {
		sub.stop()
		delete(that.subscribers, sub)
	}
}

func (that *Broadcaster) detach(sub *subscriber) {
	that.mu.Lock()
	delete(that.subscribers, sub)
	that.mu.Unlock()
}

type subscriber struct {
	mu      sync.Mutex
	queue   []entity.SessionState
	stopped bool

	notify chan struct{}
	out    chan entity.SessionState
}

func newSubscriber() *subscriber {
	return &subscriber{
		notify: make(chan struct{}, 1),
		out:    make(chan entity.SessionState),
	}
}

func (that *subscriber) push(value entity.SessionState) {
	that.mu.Lock()
	that.queue = append(that.queue, value)
	that.mu.Unlock()

	that.wake()
}

// stop - marks the subscriber as finished once its queue is drained.
func (that *subscriber) stop() {
	that.mu.Lock()
	that.stopped = true
	that.mu.Unlock()

	that.wake()
}

func (that *subscriber) wake() {
	select {
	case that.notify <- struct{}{}:
	default:
	}
}

// next - pops the oldest queued value. done is true when the queue is empty and stopped.
func (that *subscriber) next() (value entity.SessionState, ok, done bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.queue) == 0 {
		return entity.SessionState{}, false, that.stopped
	}

	value = that.queue[0]
	that.queue[0] = entity.SessionState{}
	that.queue = that.queue[1:]

	return value, true, false
}

func (that *subscriber) run(ctx context.Context, detach func(*subscriber)) {
	defer close(that.out)
	defer detach(that)

	for {
		value, ok, done := that.next()
		if done {
			return
		}

		if !ok {
			select {
			case <-that.notify:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case that.out <- value:
		case <-ctx.Done():
			return
		}
	}
}
