// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{pageKeyPrefix + "*", lockKeyPrefix + "*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	testValkeyClient(t)

	client, err := ConnectValkey(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"), os.Getenv("VALKEY_PASSWORD"), 15)
	if err != nil {
		t.Fatalf("ConnectValkey: %v", err)
	}
	client.Close()
}

func TestPageCacheRoundTrip(t *testing.T) {
	client := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := pc.Get(ctx, "/about/"); ok {
		t.Fatal("expected miss on empty cache")
	}
	pc.Set(ctx, "/about/", []byte("<h1>About</h1>"))
	pc.Set(ctx, "/blog/", []byte("<h1>Blog</h1>"))

	got, ok := pc.Get(ctx, "/about/")
	if !ok || string(got) != "<h1>About</h1>" {
		t.Errorf("Get = %q, %v", got, ok)
	}

	pc.InvalidateAll(ctx)
	if _, ok := pc.Get(ctx, "/about/"); ok {
		t.Error("expected miss after InvalidateAll")
	}
	if _, ok := pc.Get(ctx, "/blog/"); ok {
		t.Error("expected miss after InvalidateAll")
	}
}

func TestPageCacheNilIsNoop(t *testing.T) {
	var pc *PageCache
	ctx := context.Background()
	pc.Set(ctx, "/", []byte("x"))
	if _, ok := pc.Get(ctx, "/"); ok {
		t.Error("nil cache must always miss")
	}
	pc.InvalidateAll(ctx)
}

func TestPublishLockExclusive(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()
	root := t.TempDir()

	first := NewPublishLock(client, root, time.Minute)
	second := NewPublishLock(client, root, time.Minute)

	if err := first.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := second.Acquire(ctx); !errors.Is(err, ErrPublishLocked) {
		t.Fatalf("second Acquire error = %v, want ErrPublishLocked", err)
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("Release of an unheld lock: %v", err)
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := second.Acquire(ctx); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	second.Release(ctx)
}

func TestPublishLockDifferentRoots(t *testing.T) {
	client := testValkeyClient(t)
	ctx := context.Background()

	a := NewPublishLock(client, t.TempDir(), time.Minute)
	b := NewPublishLock(client, t.TempDir(), time.Minute)
	if err := a.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	defer a.Release(ctx)
	if err := b.Acquire(ctx); err != nil {
		t.Fatalf("locks on different roots must not collide: %v", err)
	}
	b.Release(ctx)
}

func TestNotifierDeliversChanges(t *testing.T) {
	client := testValkeyClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := NewNotifier(client)
	got := make(chan Change, 1)
	done := make(chan error, 1)
	go func() {
		done <- n.Subscribe(ctx, func(c Change) { got <- c })
	}()

	// Publish until the subscriber is attached.
	want := Change{Model: "BlogPost", Deleted: true, At: time.Unix(1767225600, 0).UTC(), Origin: "test"}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case c := <-got:
			if c.Model != want.Model || c.Deleted != want.Deleted || !c.At.Equal(want.At) || c.Origin != want.Origin {
				t.Errorf("received %+v, want %+v", c, want)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Subscribe returned %v", err)
			}
			return
		case <-ticker.C:
			if err := n.Publish(ctx, want); err != nil {
				t.Fatalf("Publish: %v", err)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for change event")
		}
	}
}
