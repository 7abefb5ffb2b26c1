package tests

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/iTrooz/news-reader/internal/config"
	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/news"
	"github.com/iTrooz/news-reader/internal/worker"
)

func stores(t *testing.T) map[string]config.StoreConfig {
	return map[string]config.StoreConfig{
		"disk":   {Driver: "disk", Folder: filepath.Join(t.TempDir(), "cache")},
		"sqlite": {Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "assets.db")},
	}
}

func TestReaderThroughWorker(t *testing.T) {
	for driver, store := range stores(t) {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()

			var hits atomic.Int32
			upstream := fixture_upstream(&hits)
			defer upstream.Close()

			cfg := fixture_config(upstream.URL, store)
			server, proxyTestServer, err := fixture_worker(t, cfg)
			if err != nil {
				t.Fatalf("Failed to create worker: %v", err)
			}
			defer proxyTestServer.Close()

			if err := server.Install(ctx); err != nil {
				t.Fatalf("Install failed: %v", err)
			}

			messages, unsubscribe := server.Hub().Subscribe()
			defer unsubscribe()

			connectivity := network.NewStatic(true)
			service := fixture_service(upstream.URL, proxyTestServer.URL, connectivity)

			// Test first request (should reach upstream and be stored by the worker)
			t.Run("first request - from network", func(t *testing.T) {
				posts, err := service.GetNews(ctx, news.WithCache(false))
				if err != nil {
					t.Fatalf("GetNews failed: %v", err)
				}
				if len(posts) != 1 || posts[0].Title != "Hello" {
					t.Errorf("Unexpected posts: %+v", posts)
				}

				msg := receive(t, messages)
				if msg.ResponseData.From != worker.SourceNetwork {
					t.Errorf("Expected from network, got %s", msg.ResponseData.From)
				}
			})

			// Upstream goes away: the worker still answers
			upstream.Close()

			t.Run("second request - from worker store", func(t *testing.T) {
				posts, err := service.GetNews(ctx, news.WithCache(false))
				if err != nil {
					t.Fatalf("GetNews failed: %v", err)
				}
				if len(posts) != 1 || posts[0].Body != "From upstream" {
					t.Errorf("Unexpected posts: %+v", posts)
				}

				msg := receive(t, messages)
				if msg.ResponseData.From != worker.SourceCache {
					t.Errorf("Expected from cache, got %s", msg.ResponseData.From)
				}
			})

			t.Run("offline device fails before reaching the worker", func(t *testing.T) {
				connectivity.Set(false)
				defer connectivity.Set(true)

				_, err := service.GetNews(ctx, news.WithCache(false))
				if err == nil {
					t.Fatal("Expected an error while offline")
				}
				if len(messages) != 0 {
					t.Errorf("Worker should not have seen the request")
				}
			})

			if got := hits.Load(); got != 1 {
				t.Errorf("Expected 1 upstream hit, got %d", got)
			}
		})
	}
}

func TestWorkerStoresOnDisk(t *testing.T) {
	var hits atomic.Int32
	upstream := fixture_upstream(&hits)
	defer upstream.Close()

	tempDir := t.TempDir()
	cfg := fixture_config(upstream.URL, config.StoreConfig{Driver: "disk", Folder: tempDir})

	server, proxyTestServer, err := fixture_worker(t, cfg)
	if err != nil {
		t.Fatalf("Failed to create worker: %v", err)
	}
	defer proxyTestServer.Close()

	if err := server.Install(context.Background()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	service := fixture_service(upstream.URL, proxyTestServer.URL, network.NewStatic(true))
	if _, err := service.GetNews(context.Background()); err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}

	// Verify store files were created
	host := upstream.Listener.Addr().String()
	for _, asset := range []string{"index.html", "data"} {
		expectedCachePath := filepath.Join(tempDir, cfg.Generation, host, asset, "GET.bin")
		if _, err := os.Stat(expectedCachePath); err != nil {
			t.Errorf("Store file should exist at %s", expectedCachePath)
		}
	}
}
