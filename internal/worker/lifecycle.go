package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/iTrooz/news-reader/internal/cache/assetstore"
)

const installConcurrency = 4

// Install pre-populates the current generation with the manifest assets.
// An asset that cannot be fetched is logged and skipped.
func (s *Server) Install(ctx context.Context) error {
	s.logger.Infof("Installing generation %s", s.config.Generation)

	bucket, err := s.currentBucket(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(installConcurrency)
	for _, asset := range s.config.Manifest {
		asset := asset
		g.Go(func() error {
			if err := s.precache(gctx, bucket, asset); err != nil {
				s.logger.Errorf("Failed to add %s to store %s: %v", asset, bucket.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) precache(ctx context.Context, bucket assetstore.Bucket, asset string) error {
	target := s.origin.ResolveReference(&url.URL{Path: asset})

	requ, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(requ)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := assetstore.Serialize(resp)
	if err != nil {
		return fmt.Errorf("failed to serialize response: %w", err)
	}

	if err := bucket.Put(ctx, assetstore.RequestKey(requ), data); err != nil {
		return err
	}

	s.logger.Debugf("Cached %s in store %s", target, bucket.Name())
	return nil
}

// Activate deletes every store other than the current generation and
// returns the names it deleted
func (s *Server) Activate(ctx context.Context) ([]string, error) {
	s.logger.Infof("Activating generation %s", s.config.Generation)

	names, err := s.storage.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	var deleted []string
	for _, name := range names {
		if name == s.config.Generation {
			continue
		}

		removed, err := s.storage.Delete(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("failed to delete store %s: %w", name, err)
		}
		if removed {
			s.logger.Infof("Deleted old store: %s", name)
			deleted = append(deleted, name)
		}
	}

	return deleted, nil
}
