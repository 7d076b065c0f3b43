// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broker connects the API to the robots' message bus.

Two transports implement Broker:

  - MQTT (github.com/eclipse/paho.mqtt.golang), QoS 1, TLS for ssl://,
    tls://, tcps://, mqtts:// and wss:// URLs
  - Redis pub/sub (github.com/redis/go-redis/v9), filters translated to
    PSUBSCRIBE patterns

Usage:

	b, err := broker.New(broker.Config{Type: "mqtt", URL: "ssl://broker:8883", ClientID: "servo-sync-api"})
	if err := b.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	broker.NewPresence(s.Robots).Listen(ctx, b)

# Topics

	robot/{uid}/access/positions         commands (published by the API)
	robot/{uid}/access/storage/{action}  on-device storage (published by the API)
	robot/{uid}/access/status            "online" / "offline" (published by robots)
*/
package broker
