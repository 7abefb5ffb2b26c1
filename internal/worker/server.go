// Intercepting proxy serving same-origin assets from a generation-named store
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/elazarl/goproxy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iTrooz/news-reader/internal/cache/assetstore"
	"github.com/iTrooz/news-reader/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Server represents the interception worker
type Server struct {
	config  *config.WorkerConfig
	origin  *url.URL
	storage assetstore.Storage
	logger  logrus.FieldLogger
	hub     *Hub
	client  *http.Client
	proxy   *goproxy.ProxyHttpServer
	rules   []Rule

	mu      sync.Mutex
	current assetstore.Bucket
}

// New creates a new worker on top of an opened storage
func New(cfg *config.WorkerConfig, storage assetstore.Storage, logger logrus.FieldLogger) (*Server, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, fmt.Errorf("invalid worker origin: %w", err)
	}

	s := &Server{
		config:  cfg,
		origin:  origin,
		storage: storage,
		logger:  logger,
		hub:     NewHub(logger),
		client:  &http.Client{Timeout: 30 * time.Second},
		proxy:   goproxy.NewProxyHttpServer(),
		rules:   buildRules(cfg.Rules),
	}
	s.proxy.Logger = logger

	if cfg.HTTPS.Enabled {
		if err := s.setupHTTPSProxyHandler(); err != nil {
			return nil, err
		}
	}

	s.proxy.OnRequest().DoFunc(s.handleRequest)
	s.proxy.OnResponse().DoFunc(s.handleResponse)

	return s, nil
}

// WithHTTPClient replaces the client used to pre-populate the store
func (s *Server) WithHTTPClient(client *http.Client) *Server {
	s.client = client
	return s
}

// GetProxy returns the proxy handler (exported for testing)
func (s *Server) GetProxy() *goproxy.ProxyHttpServer {
	return s.proxy
}

// Hub returns the hub intercepted fetches are published on
func (s *Server) Hub() *Hub {
	return s.hub
}

// currentBucket returns the store of the current generation, opening it on first use
func (s *Server) currentBucket(ctx context.Context) (assetstore.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}

	bucket, err := s.storage.Open(ctx, s.config.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", s.config.Generation, err)
	}
	s.current = bucket
	return bucket, nil
}

// Start installs and activates the current generation, then serves the proxy
// and the control surface until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	if err := s.Install(ctx); err != nil {
		return err
	}
	if _, err := s.Activate(ctx); err != nil {
		return err
	}

	// Opened before any server starts so a failure leaves nothing running
	var transparent net.Listener
	if s.config.HTTPS.Enabled && s.config.HTTPS.TransparentAddr != "" {
		ln, err := net.Listen("tcp", s.config.HTTPS.TransparentAddr)
		if err != nil {
			return fmt.Errorf("error listening for https connections: %w", err)
		}
		transparent = ln
	}

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", s.config.Port), Handler: s.proxy},
		{Addr: fmt.Sprintf(":%d", s.config.ControlPort), Handler: s.ControlHandler()},
	}

	s.logger.Infof("Starting interception worker on port %d", s.config.Port)
	s.logger.Infof("Control surface on port %d", s.config.ControlPort)
	s.logger.Infof("Origin: %s", s.config.Origin)
	s.logger.Infof("Generation: %s", s.config.Generation)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
			return nil
		})
	}

	if transparent != nil {
		s.logger.Infof("Transparent HTTPS on %s", transparent.Addr())
		g.Go(func() error {
			return s.ServeTransparentHTTPS(gctx, transparent)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		// Event streams only end once their subscription is closed
		s.hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warnf("Failed to shut down server on %s: %v", srv.Addr, err)
			}
		}
		return nil
	})

	return g.Wait()
}

// sameOrigin reports whether u shares scheme, host and port with the configured origin
func (s *Server) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, s.origin.Scheme) &&
		strings.EqualFold(hostPort(u), hostPort(s.origin))
}

func hostPort(u *url.URL) string {
	port := u.Port()
	if port == "" {
		switch strings.ToLower(u.Scheme) {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
