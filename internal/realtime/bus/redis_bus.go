package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/itinerary-backend/internal/platform/envutil"
	"github.com/yungbote/itinerary-backend/internal/platform/logger"
	"github.com/yungbote/itinerary-backend/internal/realtime"
)

// envelope is what goes over the redis channel. Origin names the publishing process so
// logs can tell local from remote events.
type envelope struct {
	Origin  string              `json:"origin"`
	SentAt  time.Time           `json:"sentAt"`
	Message realtime.SSEMessage `json:"message"`
}

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
	origin  string
}

// NewRedisBus connects with REDIS_ADDR, REDIS_PASSWORD and REDIS_DB, and publishes on
// REDIS_CHANNEL (default "itinerary-sse").
func NewRedisBus(log *logger.Logger) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "", log)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", "", nil),
		DB:          envutil.Int("REDIS_DB", 0, log),
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisBusWithClient(log, rdb, envutil.String("REDIS_CHANNEL", "itinerary-sse", log)), nil
}

func NewRedisBusWithClient(log *logger.Logger, rdb *goredis.Client, channel string) Bus {
	origin := uuid.New().String()
	return &redisBus{
		log:     log.With("service", "RedisSSEBus", "channel", channel, "origin", origin),
		rdb:     rdb,
		channel: channel,
		origin:  origin,
	}
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	raw, err := encodeEnvelope(b.origin, msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and hands every message to onMsg until ctx ends. A dropped
// subscription is re-established with a capped backoff.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis SSE bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		backoff := 500 * time.Millisecond
		for {
			b.forward(ctx, sub, onMsg)
			_ = sub.Close()
			if ctx.Err() != nil {
				return
			}
			b.log.Warn("Redis subscription dropped, resubscribing", "backoff", backoff.String())
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 10*time.Second {
				backoff *= 2
			}
			sub = b.rdb.Subscribe(ctx, b.channel)
		}
	}()
	return nil
}

func (b *redisBus) forward(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok || m == nil {
				return
			}
			env, err := decodeEnvelope([]byte(m.Payload))
			if err != nil {
				b.log.Warn("Bad redis SSE payload", "error", err)
				continue
			}
			if env.Origin != b.origin {
				b.log.Debug("Forwarding remote event", "event", env.Message.Event, "from", env.Origin)
			}
			onMsg(env.Message)
		}
	}
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func encodeEnvelope(origin string, msg realtime.SSEMessage) ([]byte, error) {
	return json.Marshal(envelope{Origin: origin, SentAt: time.Now().UTC(), Message: msg})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, err
	}
	if env.Message.Channel == "" || env.Message.Event == "" {
		return envelope{}, fmt.Errorf("envelope without channel or event")
	}
	return env, nil
}
