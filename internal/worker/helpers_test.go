package worker

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iTrooz/news-reader/internal/cache/assetstore"
	"github.com/iTrooz/news-reader/internal/config"
)

const indexHTML = "<html><body>news</body></html>"

// upstream is the origin server, counting hits per path
type upstream struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func (u *upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// fixture_upstream creates a test origin serving the app shell and news data
func fixture_upstream(t *testing.T) *upstream {
	t.Helper()
	u := newUpstream()
	u.Start()
	t.Cleanup(u.Close)
	return u
}

// fixture_tls_upstream is fixture_upstream over HTTPS
func fixture_tls_upstream(t *testing.T) *upstream {
	t.Helper()
	u := newUpstream()
	u.StartTLS()
	t.Cleanup(u.Close)
	return u
}

func newUpstream() *upstream {
	u := &upstream{hits: make(map[string]int)}
	u.Server = httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, requ *http.Request) {
		u.mu.Lock()
		u.hits[requ.URL.Path]++
		u.mu.Unlock()

		switch requ.URL.Path {
		case "/index.html":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(indexHTML))
		case "/main.js":
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte(`console.log("main")`))
		case "/css/style.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte(`body { margin: 0; }`))
		case "/data":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":1,"title":"Hello","body":"World"}]`))
		case "/error":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, requ)
		}
	}))
	return u
}

// fixture_config creates a worker config for the given origin
func fixture_config(origin, generation string, manifest ...string) *config.WorkerConfig {
	cfg := config.Default().Worker
	cfg.Origin = origin
	cfg.Generation = generation
	cfg.Manifest = manifest
	return &cfg
}

func fixture_storage(t *testing.T) assetstore.Storage {
	t.Helper()
	storage := assetstore.NewDisk(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, storage.Init())
	return storage
}

// fixture_worker creates a worker and returns it with an HTTP client routed through it
func fixture_worker(t *testing.T, cfg *config.WorkerConfig, storage assetstore.Storage) (*Server, *http.Client) {
	t.Helper()

	logger, _ := test.NewNullLogger()
	server, err := New(cfg, storage, logger)
	require.NoError(t, err)

	// Create test proxy HTTP server using goproxy
	proxyTestServer := httptest.NewServer(server.GetProxy())
	t.Cleanup(proxyTestServer.Close)

	// Create HTTP client that uses our proxy
	proxyURL, _ := url.Parse(proxyTestServer.URL)
	client := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyURL(proxyURL),
		},
		Timeout: 10 * time.Second,
	}

	return server, client
}

func receive(t *testing.T, messages <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-messages:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}
