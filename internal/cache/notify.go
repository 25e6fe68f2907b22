// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangesChannel is the pub/sub channel carrying content-changed events.
const ChangesChannel = "staticpress:content-changed"

// Change describes a mutation of a publishable entity.
type Change struct {
	Model   string    `json:"model"`
	Deleted bool      `json:"deleted"`
	At      time.Time `json:"at"`
	Origin  string    `json:"origin,omitempty"`
}

// Notifier broadcasts content-changed events to every process sharing the
// same Valkey instance.
type Notifier struct {
	client  *redis.Client
	channel string
}

// NewNotifier creates a notifier on ChangesChannel.
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client, channel: ChangesChannel}
}

// Publish sends a change event.
func (n *Notifier) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode change: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	slog.Debug("content change broadcast", "model", c.Model, "deleted", c.Deleted)
	return nil
}

// Subscribe calls fn for every change event until ctx is cancelled.
// Malformed payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, fn func(Change)) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				slog.Warn("malformed content change event", "payload", msg.Payload, "error", err)
				continue
			}
			fn(c)
		}
	}
}
