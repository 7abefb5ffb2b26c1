package worker

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTrooz/news-reader/internal/config"
)

func get(t *testing.T, client *http.Client, target string, accept string) (*http.Response, string) {
	t.Helper()

	requ, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	if accept != "" {
		requ.Header.Set("Accept", accept)
	}

	resp, err := client.Do(requ)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestInterceptCacheHit(t *testing.T) {
	origin := fixture_upstream(t)
	cfg := fixture_config(origin.URL, "v1", "/main.js", "/index.html", "/css/style.css")
	server, client := fixture_worker(t, cfg, fixture_storage(t))

	require.NoError(t, server.Install(context.Background()))
	assert.Equal(t, 1, origin.Hits("/main.js"))

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	resp, body := get(t, client, origin.URL+"/main.js", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	assert.Equal(t, `console.log("main")`, body)
	assert.Equal(t, 1, origin.Hits("/main.js"))

	msg := receive(t, messages)
	assert.Equal(t, Message{
		Type:           MessageFetchIntercepted,
		URL:            origin.URL + "/main.js",
		ResponseStatus: http.StatusOK,
		ResponseData:   ResponseData{From: SourceCache, URL: origin.URL + "/main.js"},
	}, msg)
}

func TestInterceptMissStoresResponse(t *testing.T) {
	origin := fixture_upstream(t)
	server, client := fixture_worker(t, fixture_config(origin.URL, "v1"), fixture_storage(t))

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	t.Run("first request - from network", func(t *testing.T) {
		resp, body := get(t, client, origin.URL+"/data", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
		assert.Contains(t, body, `"title":"Hello"`)

		msg := receive(t, messages)
		assert.Equal(t, SourceNetwork, msg.ResponseData.From)
		assert.Equal(t, origin.URL+"/data", msg.URL)
	})

	t.Run("second request - from cache", func(t *testing.T) {
		resp, body := get(t, client, origin.URL+"/data", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
		assert.Contains(t, body, `"title":"Hello"`)

		msg := receive(t, messages)
		assert.Equal(t, SourceCache, msg.ResponseData.From)
	})

	assert.Equal(t, 1, origin.Hits("/data"))
}

func TestInterceptDoesNotStoreFailures(t *testing.T) {
	origin := fixture_upstream(t)
	server, client := fixture_worker(t, fixture_config(origin.URL, "v1"), fixture_storage(t))

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	for i := 0; i < 2; i++ {
		resp, _ := get(t, client, origin.URL+"/error", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-Cache"))
	}
	assert.Equal(t, 2, origin.Hits("/error"))

	resp, _ := get(t, client, origin.URL+"/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.Empty(t, messages)
}

func TestInterceptDoesNotStoreOtherOrigins(t *testing.T) {
	origin := fixture_upstream(t)
	other := fixture_upstream(t)
	server, client := fixture_worker(t, fixture_config(origin.URL, "v1"), fixture_storage(t))

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	for i := 0; i < 2; i++ {
		resp, _ := get(t, client, other.URL+"/data", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, other.Hits("/data"))
	assert.Empty(t, messages)
}

func TestInterceptPassesNonGetThrough(t *testing.T) {
	origin := fixture_upstream(t)
	server, client := fixture_worker(t, fixture_config(origin.URL, "v1"), fixture_storage(t))

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	for i := 0; i < 2; i++ {
		resp, err := client.Post(origin.URL+"/data", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, origin.Hits("/data"))
	assert.Empty(t, messages)
}

func TestInterceptBypassRules(t *testing.T) {
	origin := fixture_upstream(t)
	cfg := fixture_config(origin.URL, "v1")
	cfg.Rules = []config.BypassRule{{BaseURI: origin.URL + "/data", Methods: []string{"GET"}}}
	_, client := fixture_worker(t, cfg, fixture_storage(t))

	for i := 0; i < 2; i++ {
		resp, _ := get(t, client, origin.URL+"/data", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-Cache"))
	}
	assert.Equal(t, 2, origin.Hits("/data"))

	// Not covered by the rule
	get(t, client, origin.URL+"/main.js", "")
	resp, _ := get(t, client, origin.URL+"/main.js", "")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
}

func TestInterceptOfflineFallback(t *testing.T) {
	origin := fixture_upstream(t)
	cfg := fixture_config(origin.URL, "v1", "/index.html")
	server, client := fixture_worker(t, cfg, fixture_storage(t))

	require.NoError(t, server.Install(context.Background()))
	originURL := origin.URL
	origin.Close()

	messages, unsubscribe := server.Hub().Subscribe()
	defer unsubscribe()

	t.Run("page navigation gets the root document", func(t *testing.T) {
		resp, body := get(t, client, originURL+"/news", "text/html,application/xhtml+xml")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OFFLINE", resp.Header.Get("X-Cache"))
		assert.Equal(t, indexHTML, body)
	})

	t.Run("other requests fail", func(t *testing.T) {
		resp, _ := get(t, client, originURL+"/data", "application/json")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("stored assets are still served", func(t *testing.T) {
		resp, body := get(t, client, originURL+"/index.html", "")
		assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
		assert.Equal(t, indexHTML, body)
	})

	// Only the cache hit is reported
	msg := receive(t, messages)
	assert.Equal(t, SourceCache, msg.ResponseData.From)
	assert.Empty(t, messages)
}

func TestInterceptOfflineWithoutRootDocument(t *testing.T) {
	origin := fixture_upstream(t)
	_, client := fixture_worker(t, fixture_config(origin.URL, "v1"), fixture_storage(t))

	originURL := origin.URL
	origin.Close()

	resp, _ := get(t, client, originURL+"/news", "text/html")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSameOrigin(t *testing.T) {
	cfg := fixture_config("http://localhost:3000", "v1")
	server, _ := fixture_worker(t, cfg, fixture_storage(t))

	tests := []struct {
		target string
		want   bool
	}{
		{"http://localhost:3000/main.js", true},
		{"http://LOCALHOST:3000/", true},
		{"https://localhost:3000/main.js", false},
		{"http://localhost:3001/main.js", false},
		{"http://localhost/main.js", false},
		{"http://example.com:3000/main.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			requ, err := http.NewRequest(http.MethodGet, tt.target, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, server.sameOrigin(requ.URL))
		})
	}
}
