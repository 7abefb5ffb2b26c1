package network

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	s := NewStatic(false)
	assert.False(t, s.Online())
	s.Set(true)
	assert.True(t, s.Online())
}

func TestProbeAddress(t *testing.T) {
	tests := []struct {
		baseURL string
		want    string
	}{
		{"http://localhost:3000", "localhost:3000"},
		{"http://example.com", "example.com:80"},
		{"https://example.com/api", "example.com:443"},
	}

	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			got, err := probeAddress(tt.baseURL)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonitorTransitions(t *testing.T) {
	logger, _ := test.NewNullLogger()
	monitor, err := NewMonitor("http://news.invalid:3000", time.Second, time.Second, logger)
	require.NoError(t, err)

	reachable := true
	monitor.WithDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		assert.Equal(t, "news.invalid:3000", address)
		if !reachable {
			return nil, errors.New("connection refused")
		}
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	})

	changes := monitor.Subscribe()
	assert.True(t, monitor.Online())

	// No transition while the state is unchanged
	assert.True(t, monitor.Check(context.Background()))
	assert.Empty(t, changes)

	reachable = false
	assert.False(t, monitor.Check(context.Background()))
	assert.False(t, monitor.Online())
	assert.False(t, <-changes)

	reachable = true
	assert.True(t, monitor.Check(context.Background()))
	assert.True(t, <-changes)
}

func TestMonitorRunClosesSubscribers(t *testing.T) {
	logger, _ := test.NewNullLogger()
	monitor, err := NewMonitor("http://news.invalid", time.Minute, time.Second, logger)
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	monitor.WithClock(clock).WithDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
		return nil, errors.New("unreachable")
	})

	changes := monitor.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	// The initial probe goes offline
	select {
	case online := <-changes:
		assert.False(t, online)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an offline transition")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}

	_, open := <-changes
	assert.False(t, open)
}
