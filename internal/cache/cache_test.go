package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "vignette:v1:classify:abc", Key("classify", "abc"))
	assert.NotEqual(t, Key("classify", "abc"), Key("other", "abc"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)

	require.NoError(t, c.Set("a", []byte("1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry expired")
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, c.Set(Key("classify", "fp1"), []byte(`{"topic":"x"}`), 0))

	val, ok := c.Get(Key("classify", "fp1"))
	require.True(t, ok)
	assert.JSONEq(t, `{"topic":"x"}`, string(val))

	// A fresh instance over the same directory sees the entry
	again := NewDiskCache(dir, time.Hour)
	_, ok = again.Get(Key("classify", "fp1"))
	assert.True(t, ok)

	require.NoError(t, c.Delete(Key("classify", "fp1")))
	require.NoError(t, c.Delete(Key("classify", "fp1")), "deleting a missing key is not an error")
	_, ok = c.Get(Key("classify", "fp1"))
	assert.False(t, ok)
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	_, err := os.Stat(c.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry removed")
}

func TestDiskCache_NoExpiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), 0)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("k", []byte("v"), 0))
	now = now.Add(10 * 365 * 24 * time.Hour)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	require.NoError(t, os.WriteFile(c.path("k"), []byte("not json"), 0644))

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	require.NoError(t, disk.Set("k", []byte("v"), 0))

	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	val, ok := layered.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	mem := layered.memory.(*MemoryCache)
	assert.Equal(t, 1, mem.Len())
}

func TestLayeredCache_SetWritesBoth(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Hour)
	require.NoError(t, layered.Set("k", []byte("v"), 0))

	_, ok := NewDiskCache(dir, time.Hour).Get("k")
	assert.True(t, ok)

	require.NoError(t, layered.Clear())
	_, ok = layered.Get("k")
	assert.False(t, ok)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, ok := c.Get("k")
	assert.False(t, ok)
}
