package worker

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/elazarl/goproxy"

	"github.com/iTrooz/news-reader/internal/cache/assetstore"
)

// route is stored in ProxyCtx.UserData so the response handler knows how
// the request handler dealt with a request
type route int

const (
	routeNetwork route = iota
	routePassthrough
	routeCache
)

func (s *Server) handleRequest(requ *http.Request, ctx *goproxy.ProxyCtx) (*http.Request, *http.Response) {
	if requ.Method != http.MethodGet || s.bypassed(requ) {
		ctx.UserData = routePassthrough
		return requ, nil
	}

	ctx.UserData = routeNetwork

	resp := s.getCachedResponse(requ)
	if resp == nil {
		return requ, nil
	}

	ctx.UserData = routeCache
	s.logger.Infof("Serving from cache: %s", requ.URL)
	s.hub.Publish(newMessage(requ.URL.String(), resp.StatusCode, SourceCache))

	resp.Header.Set("X-Cache", "HIT")
	return requ, resp
}

func (s *Server) handleResponse(resp *http.Response, ctx *goproxy.ProxyCtx) *http.Response {
	requ := ctx.Req
	if ctx.UserData != routeNetwork {
		return resp
	}

	if resp == nil {
		s.logger.Errorf("Fetch failed for %s: %v", requ.URL, ctx.Error)
		return s.offlineResponse(requ)
	}

	if !s.shouldBeCached(requ, resp) {
		return resp
	}

	s.cacheResponse(requ, resp)
	s.logger.Infof("Serving from network: %s", requ.URL)
	s.hub.Publish(newMessage(requ.URL.String(), resp.StatusCode, SourceNetwork))

	resp.Header.Set("X-Cache", "MISS")
	return resp
}

// bypassed determines if a request skips interception based on rules
func (s *Server) bypassed(requ *http.Request) bool {
	for _, rule := range s.rules {
		if rule.Match(requ) {
			return true
		}
	}
	return false
}

// shouldBeCached keeps successful responses from the configured origin only
func (s *Server) shouldBeCached(requ *http.Request, resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}
	return s.sameOrigin(requ.URL)
}

// getCachedResponse returns the stored response for requ if there is one
func (s *Server) getCachedResponse(requ *http.Request) *http.Response {
	return s.lookup(requ, assetstore.RequestKey(requ))
}

func (s *Server) lookup(requ *http.Request, key string) *http.Response {
	bucket, err := s.currentBucket(requ.Context())
	if err != nil {
		s.logger.Errorf("Failed to get cached data for %s: %v", requ.URL, err)
		return nil
	}

	data, found, err := bucket.Get(requ.Context(), key)
	if err != nil {
		s.logger.Errorf("Failed to get cached data for %s: %v", requ.URL, err)
		return nil
	}
	if !found {
		s.logger.Debugf("No cached data found for %s", requ.URL)
		return nil
	}

	resp, err := assetstore.Deserialize(data, requ)
	if err != nil {
		s.logger.Errorf("Failed to read cached data for %s: %v", requ.URL, err)
		return nil
	}
	return resp
}

// cacheResponse stores a copy of resp in the current generation
func (s *Server) cacheResponse(requ *http.Request, resp *http.Response) {
	data, err := assetstore.Serialize(resp)
	if err != nil {
		s.logger.Errorf("Failed to serialize response for %s: %v", requ.URL, err)
		return
	}

	bucket, err := s.currentBucket(requ.Context())
	if err != nil {
		s.logger.Errorf("Failed to cache response for %s: %v", requ.URL, err)
		return
	}

	if err := bucket.Put(requ.Context(), assetstore.RequestKey(requ), data); err != nil {
		s.logger.Errorf("Failed to cache response for %s: %v", requ.URL, err)
	}
}

// offlineResponse returns the stored root document to page navigations.
// Other requests get nil, which lets the proxy report the fetch error.
func (s *Server) offlineResponse(requ *http.Request) *http.Response {
	if !strings.Contains(requ.Header.Get("Accept"), "text/html") {
		return nil
	}

	root := s.origin.ResolveReference(&url.URL{Path: s.config.RootDocument})
	resp := s.lookup(requ, assetstore.URLKey(http.MethodGet, root))
	if resp == nil {
		return nil
	}

	s.logger.Infof("Serving offline document %s for %s", root, requ.URL)
	resp.Header.Set("X-Cache", "OFFLINE")
	return resp
}
