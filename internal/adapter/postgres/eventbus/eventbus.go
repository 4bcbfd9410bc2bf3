package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	porteventbus "github.com/alanyang/prompt-mesh/internal/port/eventbus"
)

// maxPayload is the Postgres NOTIFY payload limit minus a little headroom.
const maxPayload = 7900

// retryDelay bounds the spin when the LISTEN connection keeps failing.
const retryDelay = 500 * time.Millisecond

// EventBus fans prompt events out to every process sharing the database.
// Events carry ids only, so payloads stay far below the NOTIFY limit.
type EventBus struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	subs map[event.Channel]map[*subscription]struct{}
}

func New(pool *pgxpool.Pool) *EventBus {
	return &EventBus{
		pool: pool,
		subs: make(map[event.Channel]map[*subscription]struct{}),
	}
}

// Publish sends an event via Postgres NOTIFY on the domain channel for the event type.
func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	ch := event.ChannelFor(e.Type)
	if ch == "" {
		return fmt.Errorf("publish event: no channel for type %q", e.Type)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if len(payload) > maxPayload {
		return fmt.Errorf("publish event: payload of %d bytes exceeds NOTIFY limit", len(payload))
	}

	channel := channelName(ch)
	if _, err := eb.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload)); err != nil {
		return fmt.Errorf("notify on channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe holds one pooled connection LISTENing on the channel and invokes
// handler for every event delivered to it, including this process's own.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	conn, err := eb.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for LISTEN: %w", err)
	}

	channel := channelName(ch)
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen on channel %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		bus:     eb,
		channel: ch,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	eb.mu.Lock()
	if eb.subs[ch] == nil {
		eb.subs[ch] = make(map[*subscription]struct{})
	}
	eb.subs[ch][sub] = struct{}{}
	eb.mu.Unlock()

	go func() {
		defer func() {
			conn.Exec(context.Background(), "UNLISTEN "+channel) //nolint:errcheck
			conn.Release()
			close(sub.done)
		}()

		for {
			notification, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				slog.WarnContext(subCtx, "wait for notification failed", "channel", channel, "error", err)
				select {
				case <-subCtx.Done():
					return
				case <-time.After(retryDelay):
				}
				continue
			}

			var e event.Event
			if err := json.Unmarshal([]byte(notification.Payload), &e); err != nil {
				slog.WarnContext(subCtx, "dropping malformed event", "channel", channel, "error", err)
				continue
			}

			handler(subCtx, e)
		}
	}()

	return sub, nil
}

// Close stops every live subscription.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	var all []*subscription
	for _, set := range eb.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	eb.mu.Unlock()

	for _, s := range all {
		s.Unsubscribe()
	}
}

func (eb *EventBus) remove(s *subscription) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	delete(eb.subs[s.channel], s)
	if len(eb.subs[s.channel]) == 0 {
		delete(eb.subs, s.channel)
	}
}

// channelName converts a domain Channel to a safe Postgres channel identifier.
func channelName(ch event.Channel) string {
	return "prompt_mesh_" + string(ch)
}

type subscription struct {
	bus     *EventBus
	channel event.Channel
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.bus.remove(s)
	})
}
