// Data access for the news backend: timed fetches behind a TTL cache
package news

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iTrooz/news-reader/internal/cache"
	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/observe"
)

// DefaultEndpoint is the path of the posts resource
const DefaultEndpoint = "/data"

// DefaultCacheTTL applies when Options.DefaultTTL is nil
const DefaultCacheTTL = 5 * time.Minute

// Executor performs a single GET, see network.Fetcher
type Executor interface {
	Execute(ctx context.Context, url string) (*network.Response, error)
}

// Options configures a Service
type Options struct {
	BaseURL    string
	Endpoint   string
	// DefaultTTL is the max age of cached payloads. Nil means
	// DefaultCacheTTL; zero disables cache hits.
	DefaultTTL *time.Duration
	// Coalesce shares one in-flight fetch between identical cache-enabled calls
	Coalesce bool
}

// Service fetches news through the response cache
type Service struct {
	baseURL    string
	endpoint   string
	defaultTTL time.Duration
	coalesce   bool

	fetcher  Executor
	cache    *cache.Memory
	observer observe.Observer

	group singleflight.Group
}

// New creates a news service. The cache's enabled flag is the default for
// GetNews calls that do not choose explicitly.
func New(fetcher Executor, store *cache.Memory, observer observe.Observer, opts Options) *Service {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	ttl := DefaultCacheTTL
	if opts.DefaultTTL != nil {
		ttl = *opts.DefaultTTL
	}
	return &Service{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		endpoint:   opts.Endpoint,
		defaultTTL: ttl,
		coalesce:   opts.Coalesce,
		fetcher:    fetcher,
		cache:      store,
		observer:   observer,
	}
}

// GetOption overrides a per-call option
type GetOption func(*cache.Options)

// WithCache forces cache use on or off for one call
func WithCache(use bool) GetOption {
	return func(o *cache.Options) {
		o.UseCache = use
	}
}

// WithTTL sets the maximum age of a cached payload for one call
func WithTTL(ttl time.Duration) GetOption {
	return func(o *cache.Options) {
		o.CacheTTL = ttl
	}
}

// GetNews returns the posts, from the cache when allowed and fresh,
// otherwise from the backend. Failures are *network.NetworkFailure or
// *NewsFailure and are never cached.
func (s *Service) GetNews(ctx context.Context, opts ...GetOption) ([]Post, error) {
	o := cache.Options{UseCache: s.cache.Enabled(), CacheTTL: s.defaultTTL}
	for _, opt := range opts {
		opt(&o)
	}

	key := cache.Key(s.endpoint, o)
	s.observer.Info("Fetching data", observe.Fields{"endpoint": s.endpoint, "useCache": o.UseCache, "cacheTtl": o.CacheTTL.String()})

	if o.UseCache {
		if entry, ok := s.cache.Get(key, o.CacheTTL); ok {
			posts, err := s.decode(entry.Payload)
			if err == nil {
				s.observer.Info("Data served from cache", observe.Fields{"endpoint": s.endpoint})
				return posts, nil
			}
			// Only parsed payloads are stored; fall through to the network regardless
			s.observer.Warn("Discarding unreadable cache entry", observe.Fields{"endpoint": s.endpoint, "error": err.Error()})
		}
	}

	if !s.coalesce || !o.UseCache {
		return s.fetch(ctx, key, o)
	}

	// Joined callers must not fail because the first caller went away
	shared := context.WithoutCancel(ctx)
	v, err, joined := s.group.Do(key, func() (any, error) {
		return s.fetch(shared, key, o)
	})
	if err != nil {
		return nil, err
	}
	if joined {
		s.observer.Info("Shared in-flight fetch", observe.Fields{"endpoint": s.endpoint})
	}
	posts := v.([]Post)
	return append([]Post(nil), posts...), nil
}

func (s *Service) fetch(ctx context.Context, key string, o cache.Options) ([]Post, error) {
	url := s.baseURL + s.endpoint

	resp, err := s.fetcher.Execute(ctx, url)
	if err != nil {
		s.observer.Error("Failed to fetch data", observe.Fields{"endpoint": s.endpoint, "error": err.Error()})
		return nil, err
	}

	posts, err := s.decode(resp.Body)
	if err != nil {
		failure := &NewsFailure{Reason: ReasonMalformedPayload, Endpoint: s.endpoint, Err: err}
		s.observer.Error("Failed to fetch data", observe.Fields{"endpoint": s.endpoint, "error": failure.Error()})
		return nil, failure
	}

	if o.UseCache {
		s.cache.Put(key, resp.Body)
		s.observer.Info("Data stored in cache", observe.Fields{"endpoint": s.endpoint})
	}

	s.observer.Info("Data fetched successfully", observe.Fields{"endpoint": s.endpoint, "count": len(posts)})
	return posts, nil
}

func (s *Service) decode(payload []byte) ([]Post, error) {
	var posts []Post
	if err := json.Unmarshal(payload, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// InvalidateCache drops every cached response
func (s *Service) InvalidateCache() {
	s.observer.Info("Clearing cache", nil)
	s.cache.InvalidateAll()
}

// SetCacheEnabled changes the default for calls that do not pass WithCache
func (s *Service) SetCacheEnabled(enabled bool) {
	s.cache.SetEnabled(enabled)
	s.observer.Info("Caching set", observe.Fields{"enabled": enabled})
}

func (s *Service) CacheEnabled() bool {
	return s.cache.Enabled()
}
