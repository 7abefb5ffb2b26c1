package network

import (
	"context"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Connectivity answers whether the network is currently usable
type Connectivity interface {
	Online() bool
}

// Static is a Connectivity with a manually set state
type Static struct {
	online atomic.Bool
}

// NewStatic creates a static connectivity in the given state
func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online() bool {
	return s.online.Load()
}

// Set changes the reported state
func (s *Static) Set(online bool) {
	s.online.Store(online)
}

// Dialer opens a probe connection
type Dialer func(ctx context.Context, network, address string) (net.Conn, error)

// Monitor tracks reachability of a host by dialing it periodically and
// notifies subscribers of every online/offline transition.
type Monitor struct {
	address  string
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	dial     Dialer
	logger   logrus.FieldLogger

	online atomic.Bool

	mu          sync.Mutex
	subscribers []chan bool
}

// NewMonitor creates a monitor probing the host of baseURL.
// It starts in the online state, before any probe has run.
func NewMonitor(baseURL string, interval, timeout time.Duration, logger logrus.FieldLogger) (*Monitor, error) {
	address, err := probeAddress(baseURL)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		address:  address,
		interval: interval,
		timeout:  timeout,
		clock:    clockwork.NewRealClock(),
		dial:     (&net.Dialer{}).DialContext,
		logger:   logger,
	}
	m.online.Store(true)
	return m, nil
}

// WithClock replaces the clock driving the probe loop
func (m *Monitor) WithClock(clock clockwork.Clock) *Monitor {
	m.clock = clock
	return m
}

// WithDialer replaces the probe dialer
func (m *Monitor) WithDialer(dial Dialer) *Monitor {
	m.dial = dial
	return m
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Subscribe returns a channel receiving the new state on every transition.
// Slow subscribers miss transitions rather than blocking the monitor.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 4)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// Check probes once and publishes a transition if the state changed
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	online := true
	conn, err := m.dial(ctx, "tcp", m.address)
	if err != nil {
		online = false
		m.logger.Debugf("Probe to %s failed: %v", m.address, err)
	} else {
		_ = conn.Close()
	}

	if m.online.Swap(online) != online {
		if online {
			m.logger.Infof("Network state: online")
		} else {
			m.logger.Infof("Network state: offline")
		}
		m.publish(online)
	}
	return online
}

// Run probes on every interval until ctx is done, then closes subscriber channels
func (m *Monitor) Run(ctx context.Context) {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()
	defer m.closeSubscribers()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.Check(ctx)
		}
	}
}

func (m *Monitor) publish(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- online:
		default:
		}
	}
}

func (m *Monitor) closeSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}

func probeAddress(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
