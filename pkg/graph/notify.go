package graph

import (
	"context"
	"sync"

	"github.com/opmstudio/engine/pkg/model"
)

// EventOp names the kind of change that happened to the store.
type EventOp string

const (
	EventNodeAdded         EventOp = "node_added"
	EventNodeRemoved       EventOp = "node_removed"
	EventNodeMoved         EventOp = "node_moved"
	EventNodeResized       EventOp = "node_resized"
	EventRelabeled         EventOp = "relabeled"
	EventAttributesChanged EventOp = "attributes_changed"
	EventReparented        EventOp = "reparented"
	EventLinkAdded         EventOp = "link_added"
	EventLinkRemoved       EventOp = "link_removed"
	EventLinkChanged       EventOp = "link_changed"
)

// Event is one change notification. Observers (UI, OPL preview) receive
// events after the mutation has been applied; the store is already
// consistent when an event is delivered.
type Event struct {
	Op   EventOp
	Kind model.NodeKind // node events only
	ID   string
}

// Notifier fans change events out to subscribers. It is the only
// internally synchronized part of the store: mutations happen on one
// goroutine, but observers may drain their channels from others.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]bool
	shutdown    bool
}

// Subscription is one observer's event feed.
type Subscription struct {
	ch        chan Event
	notifier  *Notifier
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewNotifier creates an idle notifier.
func NewNotifier() *Notifier {
	return &Notifier{subscribers: make(map[*Subscription]bool)}
}

// Subscribe registers an observer. The subscription ends when ctx is
// cancelled or Unsubscribe is called. Events are delivered on a buffered
// channel; a slow observer loses events rather than stalling mutations.
func (n *Notifier) Subscribe(ctx context.Context) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		ch:       make(chan Event, 128),
		notifier: n,
		cancel:   cancel,
	}

	n.mu.Lock()
	if n.shutdown {
		n.mu.Unlock()
		cancel()
		sub.close()
		return sub
	}
	n.subscribers[sub] = true
	n.mu.Unlock()

	go func() {
		<-subCtx.Done()
		sub.Unsubscribe()
	}()
	return sub
}

// Publish delivers an event to every subscriber. Non-blocking: full
// channels drop the event.
func (n *Notifier) Publish(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.shutdown {
		return
	}
	for sub := range n.subscribers {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Shutdown closes every subscription and rejects future subscribers.
func (n *Notifier) Shutdown() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.shutdown {
		return
	}
	n.shutdown = true
	for sub := range n.subscribers {
		sub.close()
		delete(n.subscribers, sub)
	}
}

// Events returns the subscription's receive channel. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Unsubscribe detaches the observer and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()
	s.notifier.mu.Lock()
	delete(s.notifier.subscribers, s)
	s.notifier.mu.Unlock()
	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() { close(s.ch) })
}
