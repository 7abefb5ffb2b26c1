// Drives a View from the news service and connectivity changes
package reader

import (
	"context"
	"errors"
	"sync"

	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/news"
	"github.com/iTrooz/news-reader/internal/observe"
)

// NewsSource is the part of news.Service the controller uses.
//
//go:generate mockgen -source=controller.go -destination=mocks/mock_news_source.go -package=mocks
type NewsSource interface {
	GetNews(ctx context.Context, opts ...news.GetOption) ([]news.Post, error)
}

type Controller struct {
	mu       sync.Mutex
	view     View
	source   NewsSource
	observer observe.Observer
}

func NewController(view View, source NewsSource, observer observe.Observer) *Controller {
	return &Controller{view: view, source: source, observer: observer}
}

// LoadData fetches the news once and shows either the posts or the error.
// Failures are reported and returned, never retried.
func (c *Controller) LoadData(ctx context.Context, useCache bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observer.Info("Loading data", observe.Fields{"useCache": useCache})
	c.view.ShowLoadingState()

	posts, err := c.source.GetNews(ctx, news.WithCache(useCache))
	if err != nil {
		c.observer.Error("Failed to load data", observe.Fields{"error": err.Error()})
		c.view.ShowModalError()
		var failure *network.NetworkFailure
		if errors.As(err, &failure) && !failure.Retryable() {
			c.observer.Warn("Request rejected by the server, reconnecting will not help", observe.Fields{"status": failure.Status})
		} else {
			c.observer.Warn("No connection or server unavailable, waiting for the connection to come back", nil)
		}
		return err
	}

	c.observer.Info("Data loaded", observe.Fields{"count": len(posts)})
	c.view.ShowContentState(posts)
	return nil
}

// Run loads the news, then reloads bypassing the cache on every
// connectivity change until ctx is done or changes is closed
func (c *Controller) Run(ctx context.Context, changes <-chan bool) {
	_ = c.LoadData(ctx, true)

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-changes:
			if !ok {
				return
			}
			if online {
				c.observer.Info("Network state: online", nil)
				c.view.HideModalError()
			} else {
				c.observer.Info("Network state: offline", nil)
				c.view.ShowLoadingState()
			}
			_ = c.LoadData(ctx, false)
		}
	}
}
