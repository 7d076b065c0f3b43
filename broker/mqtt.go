// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broker

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const qos = 1

// MQTT is a paho client. Subscriptions are replayed after every reconnect.
type MQTT struct {
	cfg    Config
	client mqtt.Client

	mu   sync.Mutex
	subs map[string]Handler
}

func NewMQTT(cfg Config) *MQTT {
	m := &MQTT{cfg: cfg, subs: make(map[string]Handler)}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		})

	if usesTLS(cfg.URL) {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	m.client = mqtt.NewClient(opts)
	return m
}

func usesTLS(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "ssl", "tls", "tcps", "mqtts", "wss":
		return true
	}
	return false
}

func (m *MQTT) Connect(ctx context.Context) error {
	if err := wait(ctx, m.client.Connect()); err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	slog.Info("connected to mqtt broker", "url", m.cfg.URL)
	return nil
}

func (m *MQTT) Publish(ctx context.Context, topic string, payload []byte) error {
	if !m.client.IsConnectionOpen() {
		return errors.New("mqtt client is not connected")
	}
	return wait(ctx, m.client.Publish(topic, qos, false, payload))
}

func (m *MQTT) Subscribe(ctx context.Context, filter string, h Handler) error {
	m.mu.Lock()
	m.subs[filter] = h
	m.mu.Unlock()

	if err := wait(ctx, m.client.Subscribe(filter, qos, m.callback(h))); err != nil {
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}

func (m *MQTT) callback(h Handler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h(context.Background(), msg.Topic(), msg.Payload())
	}
}

// onConnect restores subscriptions; a clean session drops them on the broker.
func (m *MQTT) onConnect(c mqtt.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for filter, h := range m.subs {
		token := c.Subscribe(filter, qos, m.callback(h))
		go func(filter string) {
			token.Wait()
			if err := token.Error(); err != nil {
				slog.Error("failed to resubscribe", "filter", filter, "error", err)
			}
		}(filter)
	}
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
