package eventsink

import (
	"context"
	"sync"

	"github.com/joeycumines/go-bigbuff"

	"github.com/upstarter/automata-sub005"
)

// Broadcast multiplexes one Event stream to any number of subscribers
// using bigbuff.Buffer, the unbounded multi-consumer buffer
// joeycumines/go-pabt pulls in as an indirect dependency. Unlike WSHub
// (one fixed transport), Broadcast is transport-agnostic: each Subscribe
// call gets its own bigbuff.Channel cursor over the same committed
// sequence of events, so a slow subscriber never drops events for a fast
// one.
type Broadcast struct {
	mu     sync.Mutex
	buffer *bigbuff.Buffer
}

// NewBroadcast constructs an empty Broadcast.
func NewBroadcast() *Broadcast {
	return &Broadcast{buffer: new(bigbuff.Buffer)}
}

// Emit implements btr.EventSink by committing e to the underlying buffer.
func (b *Broadcast) Emit(e btr.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.buffer.Commit(e)
}

// Subscribe returns a channel that is sent every Event committed from
// this call onward, until ctx is done. The returned channel is closed
// when the subscription ends.
func (b *Broadcast) Subscribe(ctx context.Context) <-chan btr.Event {
	out := make(chan btr.Event, 64)
	ch := bigbuff.NewChannel(ctx, b.buffer)
	go func() {
		defer close(out)
		for {
			v, err := ch.Next(ctx)
			if err != nil {
				return
			}
			event, ok := v.(btr.Event)
			if !ok {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
