package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher("")
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, "log:\n  level: info\n")

	watcher, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Close()

	reloaded := make(chan *Config, 1)
	watcher.OnChange(func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond) // let the watch registration settle

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Log.Level)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after config write")
	}
}

func TestWatcherKeepsLastGoodConfigOnInvalidWrite(t *testing.T) {
	path := writeConfigFile(t, "log:\n  level: info\n")

	watcher, err := NewWatcher(path, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Close()

	calls := make(chan struct{}, 4)
	watcher.OnChange(func(*Config) { calls <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: bogus\n"), 0o644))

	select {
	case <-calls:
		t.Fatal("callback fired for an invalid configuration")
	case <-time.After(300 * time.Millisecond):
	}
}
