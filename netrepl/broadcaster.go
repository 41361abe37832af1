package netrepl

import "sync"

// Subscription is one WebSocket client's feed of events for a single
// session.
type Subscription struct {
	SessionID string
	Channel   chan ServerEvent
}

// Broadcaster fans events for a session out to every subscription attached
// to it; each WebSocket connection to a session adds its own subscription,
// and nothing limits how many are attached at once. The fan-out shape — a
// registration channel feeding a single select loop rather than a directly
// mutex-guarded map — is kept from the teacher's broadcaster.
type Broadcaster struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]bool
	broadcast     chan ServerEvent
	register      chan *Subscription
	unregister    chan *Subscription
	done          chan struct{}
}

// NewBroadcaster creates and starts a new event broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscriptions: make(map[*Subscription]bool),
		broadcast:     make(chan ServerEvent, 256),
		register:      make(chan *Subscription),
		unregister:    make(chan *Subscription),
		done:          make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broadcaster) run() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			b.subscriptions[sub] = true
			b.mu.Unlock()

		case sub := <-b.unregister:
			b.mu.Lock()
			if b.subscriptions[sub] {
				delete(b.subscriptions, sub)
				close(sub.Channel)
			}
			b.mu.Unlock()

		case event := <-b.broadcast:
			b.mu.RLock()
			for sub := range b.subscriptions {
				if sub.SessionID != event.SessionID {
					continue
				}
				select {
				case sub.Channel <- event:
				default:
					// Client too slow; drop rather than block the session.
				}
			}
			b.mu.RUnlock()

		case <-b.done:
			b.mu.Lock()
			for sub := range b.subscriptions {
				close(sub.Channel)
			}
			b.subscriptions = make(map[*Subscription]bool)
			b.mu.Unlock()
			return
		}
	}
}

// Subscribe attaches a new listener for one session's events.
func (b *Broadcaster) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{
		SessionID: sessionID,
		Channel:   make(chan ServerEvent, 64),
	}
	b.register <- sub
	return sub
}

// Unsubscribe detaches a listener and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.unregister <- sub
}

// Broadcast delivers event to every subscription watching its session.
func (b *Broadcaster) Broadcast(event ServerEvent) {
	select {
	case b.broadcast <- event:
	default:
		// Broadcaster backed up; drop rather than block the caller.
	}
}

// Close shuts the broadcaster down and closes every subscription.
func (b *Broadcaster) Close() {
	close(b.done)
}
