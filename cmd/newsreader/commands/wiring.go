package commands

import (
	"github.com/jonboulle/clockwork"

	"github.com/iTrooz/news-reader/internal/cache"
	"github.com/iTrooz/news-reader/internal/network"
	"github.com/iTrooz/news-reader/internal/news"
	"github.com/iTrooz/news-reader/internal/observe"
	"github.com/iTrooz/news-reader/internal/reader"
)

func (c *CLI) newMonitor() (*network.Monitor, error) {
	interval, _ := c.cfg.GetProbeInterval()
	timeout, _ := c.cfg.GetProbeTimeout()
	return network.NewMonitor(c.cfg.API.BaseURL, interval, timeout, c.logger)
}

func (c *CLI) newService(connectivity network.Connectivity) *news.Service {
	timeout, _ := c.cfg.GetTimeout()
	ttl, _ := c.cfg.GetCacheTTL()
	observer := observe.NewLogrus(c.logger)

	fetcher := network.NewFetcher(network.NewHTTPClient(timeout), timeout, connectivity, observer)
	store := cache.NewMemory(clockwork.NewRealClock(), c.cfg.Cache.Enabled)

	return news.New(fetcher, store, observer, news.Options{
		BaseURL:    c.cfg.API.BaseURL,
		Endpoint:   c.cfg.API.Endpoint,
		DefaultTTL: &ttl,
		Coalesce:   c.cfg.API.Coalesce,
	})
}

func (c *CLI) newController(view reader.View, connectivity network.Connectivity) *reader.Controller {
	return reader.NewController(view, c.newService(connectivity), observe.NewLogrus(c.logger))
}
