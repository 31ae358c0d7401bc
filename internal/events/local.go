package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// LocalBus is an in-process Publisher and Subscriber. Events are JSON
// round-tripped so handlers see the same payload shapes as with Redis.
type LocalBus struct {
	log *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewLocalBus(log *zap.Logger) *LocalBus {
	return &LocalBus{log: log, subs: make(map[string]map[int]chan Event)}
}

func (b *LocalBus) Publish(_ context.Context, stream string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[stream] {
		var copied Event
		if err := json.Unmarshal(data, &copied); err != nil {
			return err
		}
		select {
		case ch <- copied:
		default:
			b.log.Warn("local bus subscriber is full, dropping event", zap.String("stream", stream))
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	ch := make(chan Event, 256)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[stream] == nil {
		b.subs[stream] = make(map[int]chan Event)
	}
	b.subs[stream][id] = ch
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.subs[stream], id)
			b.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-ch:
				handler(event)
			}
		}
	}()

	return nil
}
