// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broker

import (
	"context"
	"fmt"
	"time"
)

// Handler receives one message. Topics are in MQTT form for every broker.
type Handler func(ctx context.Context, topic string, payload []byte)

// Broker is the publish/subscribe connection shared by the dispatcher and
// the presence listener.
type Broker interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe takes an MQTT topic filter (+ and # wildcards).
	Subscribe(ctx context.Context, filter string, h Handler) error
	Close() error
}

type Config struct {
	Type     string // mqtt or redis
	URL      string
	ClientID string
	Username string
	Password string
	// ConnectTimeout bounds the initial connection.
	ConnectTimeout time.Duration
}

// New builds the broker selected by cfg.Type without connecting it.
func New(cfg Config) (Broker, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	switch cfg.Type {
	case "mqtt", "":
		return NewMQTT(cfg), nil
	case "redis":
		return NewRedis(cfg)
	default:
		return nil, fmt.Errorf("unsupported broker type: %s", cfg.Type)
	}
}
