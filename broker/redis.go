// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis carries the same topics over Redis pub/sub, for deployments where
// robots talk to a bridge instead of an MQTT broker.
type Redis struct {
	client *redis.Client

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	wg      sync.WaitGroup
}

func NewRedis(cfg Config) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.ClientID != "" {
		opts.ClientName = cfg.ClientID
	}
	opts.DialTimeout = cfg.ConnectTimeout

	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Connect(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("connected to redis broker")
	return nil
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	return r.client.Publish(ctx, topic, payload).Err()
}

func (r *Redis) Subscribe(ctx context.Context, filter string, h Handler) error {
	ps := r.client.PSubscribe(ctx, FilterToGlob(filter))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}

	r.mu.Lock()
	r.pubsubs = append(r.pubsubs, ps)
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for msg := range ps.Channel() {
			if !Match(filter, msg.Channel) {
				continue
			}
			h(context.Background(), msg.Channel, []byte(msg.Payload))
		}
	}()
	return nil
}

func (r *Redis) Close() error {
	r.mu.Lock()
	for _, ps := range r.pubsubs {
		ps.Close()
	}
	r.pubsubs = nil
	r.mu.Unlock()

	r.wg.Wait()
	return r.client.Close()
}

// FilterToGlob turns an MQTT filter into a Redis PSUBSCRIBE pattern. The
// glob is wider than the filter (* crosses levels); Match narrows it back.
func FilterToGlob(filter string) string {
	var b strings.Builder
	for _, r := range filter {
		switch r {
		case '+', '#':
			b.WriteByte('*')
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match reports whether topic matches an MQTT filter.
func Match(filter, topic string) bool {
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")

	for i, f := range fl {
		if f == "#" {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if f != "+" && f != tl[i] {
			return false
		}
	}
	return len(fl) == len(tl)
}
