package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("https://example.com/article")
	k2 := Key("https://example.com/article")
	k3 := Key("https://example.com/other")

	if k1 != k2 {
		t.Error("same URL should produce the same key")
	}
	if k1 == k3 {
		t.Error("different URLs should produce different keys")
	}
	if !strings.HasPrefix(k1, "slate:v1:") {
		t.Errorf("key %q missing version prefix", k1)
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	c := NewMemory(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("miss expected on empty cache")
	}

	if err := c.Set("k", []byte("body"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "body" {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestMemory_Clear(t *testing.T) {
	c := NewMemory(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), time.Minute)
	_ = c.Set("b", []byte("2"), time.Minute)

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("a"); found {
		t.Error("cache not cleared")
	}
}

func TestDisk_RoundTrip(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("persisted"), time.Minute); err != nil {
		t.Fatal(err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "persisted" {
		t.Errorf("Get = %q, %v", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); found {
		t.Error("deleted key still present")
	}
}

func TestDisk_Expiry(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("short-lived"), time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, found := c.Get("k"); found {
		t.Error("expired entry should miss")
	}
}

func TestDisk_DefaultTTL(t *testing.T) {
	c := NewDisk(t.TempDir(), time.Minute)
	if err := c.Set("k", []byte("default"), 0); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("zero ttl should use the cache default")
	}
}

func TestLayered_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// Seed the disk layer through a separate handle, so the layered cache's
	// memory layer starts cold.
	seed := NewDisk(dir, time.Minute)
	if err := seed.Set("k", []byte("on disk"), time.Minute); err != nil {
		t.Fatal(err)
	}

	c := NewLayered(time.Minute, dir, time.Minute)
	got, found := c.Get("k")
	if !found || string(got) != "on disk" {
		t.Fatalf("Get = %q, %v", got, found)
	}

	// After promotion the value survives removal of the disk copy.
	if err := seed.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("disk hit not promoted into memory")
	}
}

func TestLayered_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	c := NewLayered(time.Minute, dir, time.Minute)
	if err := c.Set("k", []byte("both"), time.Minute); err != nil {
		t.Fatal(err)
	}

	disk := NewDisk(dir, time.Minute)
	if got, found := disk.Get("k"); !found || string(got) != "both" {
		t.Errorf("disk layer = %q, %v", got, found)
	}
}
