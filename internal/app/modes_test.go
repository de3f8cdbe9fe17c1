package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgectl/internal/bridge"
	"bridgectl/internal/config"
	"bridgectl/internal/history"
	"bridgectl/internal/manifest"
)

type notifyRecorder struct {
	mu     sync.Mutex
	states []string
}

func (n *notifyRecorder) notify(_ bool, state string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
	return true, nil
}

func (n *notifyRecorder) get() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.states...)
}

func stubSystemd(t *testing.T, watchdog time.Duration) *notifyRecorder {
	t.Helper()
	rec := &notifyRecorder{}
	origNotify, origWatchdog := sdNotify, sdWatchdogEnabled
	sdNotify = rec.notify
	sdWatchdogEnabled = func(bool) (time.Duration, error) { return watchdog, nil }
	t.Cleanup(func() {
		sdNotify, sdWatchdogEnabled = origNotify, origWatchdog
	})
	return rec
}

func TestRunWatchMode_ConvergesAndNotifies(t *testing.T) {
	rec := stubSystemd(t, 0)
	services, vs := newTestServices(t, nil)
	require.NoError(t, services.Store.Save(manifest.Manifest{
		Type: bridge.TypeName,
		Name: "br-mgmt",
		Tags: map[string]string{"purpose": "mgmt"},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatchMode(ctx, services) }()

	require.Eventually(t, func() bool {
		return vs.HasBridge("br-mgmt") && vs.Tags("br-mgmt")["purpose"] == "mgmt"
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		entries, err := services.Journal.Recent(context.Background(), history.Query{Name: "br-mgmt"})
		return err == nil && len(entries) > 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch mode did not stop after cancellation")
	}

	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyStopping}, rec.get())
}

func TestRunWatchMode_PicksUpNewManifest(t *testing.T) {
	stubSystemd(t, 0)
	services, vs := newTestServices(t, func(bc *config.BridgectlConfig) {
		bc.History.Enabled = false
	})
	// The type directory must exist before the watch is set up
	require.NoError(t, services.Store.Save(manifest.Manifest{Type: bridge.TypeName, Name: "br0"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runWatchMode(ctx, services) }()

	require.Eventually(t, func() bool { return vs.HasBridge("br0") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, services.Store.Save(manifest.Manifest{Type: bridge.TypeName, Name: "br1"}))
	require.Eventually(t, func() bool { return vs.HasBridge("br1") }, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestFeedWatchdog(t *testing.T) {
	rec := stubSystemd(t, 20*time.Millisecond)
	services, _ := newTestServices(t, func(bc *config.BridgectlConfig) {
		bc.History.Enabled = false
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatchMode(ctx, services) }()

	require.Eventually(t, func() bool {
		for _, s := range rec.get() {
			if s == daemon.SdNotifyWatchdog {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
