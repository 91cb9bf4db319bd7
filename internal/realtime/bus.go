package realtime

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultRelayTimeout = 2 * time.Second

// Relay carries events between service instances.
type Relay interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, deliver func(Event)) error
}

// Bus is the Publisher used by the application. Events go to the local hub and
// listeners, or through the relay when one is configured so every instance sees them.
type Bus struct {
	hub          *Hub
	relay        Relay
	relayTimeout time.Duration

	mu        sync.RWMutex
	listeners []func(Event)
}

// NewBus creates a bus delivering to hub. relay may be nil.
func NewBus(hub *Hub, relay Relay) *Bus {
	return &Bus{hub: hub, relay: relay, relayTimeout: defaultRelayTimeout}
}

// OnEvent registers fn to run for every delivered event.
func (b *Bus) OnEvent(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Publish implements Publisher. A relay that does not answer within the relay timeout
// is treated as failed.
func (b *Bus) Publish(ev Event) {
	if b.relay != nil {
		ctx, cancel := context.WithTimeout(context.Background(), b.relayTimeout)
		err := b.relay.Publish(ctx, ev)
		cancel()
		if err == nil {
			return
		}
		log.Printf("Relay publish failed, delivering locally: %v", err)
	}
	b.deliver(ev)
}

// Run consumes relayed events until ctx is cancelled. Without a relay it returns at once.
func (b *Bus) Run(ctx context.Context) {
	if b.relay == nil {
		return
	}
	if err := b.relay.Subscribe(ctx, b.deliver); err != nil && ctx.Err() == nil {
		log.Printf("Relay subscription ended: %v", err)
	}
}

func (b *Bus) deliver(ev Event) {
	if b.hub != nil {
		msg, err := ev.JSON()
		if err != nil {
			log.Printf("Error marshaling %s event: %v", ev.Type, err)
		} else {
			b.hub.Broadcast(msg)
		}
	}

	b.mu.RLock()
	listeners := append([]func(Event){}, b.listeners...)
	b.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
