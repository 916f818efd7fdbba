// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

package cache

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("key", "value")
	got, ok := c.Get("key")
	if !ok || got != "value" {
		t.Errorf("Get = %v/%v, want value/true", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New(time.Minute)

	c.SetWithTTL("short", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expired entry should not be returned")
	}
	stats := c.GetStats()
	if stats.Evictions == 0 {
		t.Error("expired read should count as an eviction")
	}
}

func TestCacheTake(t *testing.T) {
	c := New(time.Minute)

	c.Set("state", "nonce")
	got, ok := c.Take("state")
	if !ok || got != "nonce" {
		t.Fatalf("Take = %v/%v, want nonce/true", got, ok)
	}
	// One-shot: the second read must fail.
	if _, ok := c.Take("state"); ok {
		t.Error("second Take should miss")
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted key should not be found")
	}

	c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("cleared cache should be empty")
	}
	if stats := c.GetStats(); stats.TotalKeys != 0 {
		t.Errorf("TotalKeys = %d, want 0", stats.TotalKeys)
	}
}

func TestCacheHitRate(t *testing.T) {
	c := New(time.Minute)

	c.Set("key", "value")
	c.Get("key")
	c.Get("key")
	c.Get("missing")

	// 2 hits, 1 miss.
	if rate := c.HitRate(); rate < 66.0 || rate > 67.0 {
		t.Errorf("HitRate = %.2f, want ~66.67", rate)
	}
}

func TestGenerateKey(t *testing.T) {
	type params struct {
		UserID string
		Days   int
	}
	a := GenerateKey("stats", params{"u1", 30})
	b := GenerateKey("stats", params{"u1", 30})
	c := GenerateKey("stats", params{"u1", 7})

	if a != b {
		t.Error("identical params should produce identical keys")
	}
	if a == c {
		t.Error("different params should produce different keys")
	}
}
