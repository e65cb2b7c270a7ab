package bus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/itinerary-backend/internal/platform/logger"
	"github.com/yungbote/itinerary-backend/internal/realtime"
)

// Bus fans SSE messages out across every process serving the same trip.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// New picks the bus named by kind: "redis", or "memory" (also the default).
func New(log *logger.Logger, kind string) (Bus, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "memory":
		return NewMemoryBus(), nil
	case "redis":
		return NewRedisBus(log)
	default:
		return nil, fmt.Errorf("unknown realtime bus %q", kind)
	}
}

type memoryBus struct {
	mu   sync.RWMutex
	subs []func(m realtime.SSEMessage)
}

// NewMemoryBus delivers in-process, synchronously, to every forwarder.
func NewMemoryBus() Bus {
	return &memoryBus{}
}

func (b *memoryBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.subs {
		fn(msg)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.subs = append(b.subs, onMsg)
	b.mu.Unlock()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.subs = nil
	b.mu.Unlock()
	return nil
}

// Emitter publishes through a bus; the forwarder on each process broadcasts to its hub.
type Emitter struct {
	Bus Bus
	Log *logger.Logger
}

func (e *Emitter) Emit(ctx context.Context, msg realtime.SSEMessage) {
	if err := e.Bus.Publish(ctx, msg); err != nil && e.Log != nil {
		e.Log.Warn("SSE bus publish failed", "event", msg.Event, "error", err)
	}
}
