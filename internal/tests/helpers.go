// Package tests holds end-to-end tests running the reader through the worker
package tests

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/iTrooz/news-reader/internal/cache"
	"github.com/iTrooz/news-reader/internal/cache/assetstore"
	"github.com/iTrooz/news-reader/internal/config"
	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/news"
	"github.com/iTrooz/news-reader/internal/observe"
	"github.com/iTrooz/news-reader/internal/worker"
)

const payload = `[{"id":1,"userId":7,"title":"Hello","body":"From upstream"}]`

// fixture_upstream creates a test upstream serving the app shell and the news data.
// hits counts requests to the data endpoint.
func fixture_upstream(hits *atomic.Int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, requ *http.Request) {
		switch requ.URL.Path {
		case "/data":
			hits.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(payload))
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, requ)
		}
	}))
}

// fixture_config creates a worker config for the given upstream
func fixture_config(upstreamURL string, store config.StoreConfig) *config.WorkerConfig {
	cfg := config.Default().Worker
	cfg.Origin = upstreamURL
	cfg.Manifest = []string{"/index.html"}
	cfg.Store = store
	return &cfg
}

// fixture_worker creates a worker with the given config and returns it with its test server
func fixture_worker(t *testing.T, cfg *config.WorkerConfig) (*worker.Server, *httptest.Server, error) {
	storage, err := assetstore.New(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	t.Cleanup(func() { _ = storage.Close() })

	logger, _ := test.NewNullLogger()
	server, err := worker.New(cfg, storage, logger)
	if err != nil {
		return nil, nil, err
	}

	// Create test proxy HTTP server using goproxy
	return server, httptest.NewServer(server.GetProxy()), nil
}

// fixture_service creates a news service whose requests go through the proxy at proxyServerURL
func fixture_service(upstreamURL, proxyServerURL string, connectivity network.Connectivity) *news.Service {
	proxyURL, _ := url.Parse(proxyServerURL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
	}

	fetcher := network.NewFetcher(client, 5*time.Second, connectivity, observe.Nop{})
	store := cache.NewMemory(clockwork.NewFakeClock(), true)
	return news.New(fetcher, store, observe.Nop{}, news.Options{BaseURL: upstreamURL})
}

// receive waits for the next worker message, failing the test after a timeout
func receive(t *testing.T, messages <-chan worker.Message) worker.Message {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return worker.Message{}
	}
}
