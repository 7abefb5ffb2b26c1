// Persistent, generation-named stores of captured HTTP responses
package assetstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidName is returned for store names that cannot be used as a store identifier
var ErrInvalidName = errors.New("invalid store name")

// Storage holds named stores, one per cache generation
type Storage interface {
	// Open returns the named store, creating it if needed
	Open(ctx context.Context, name string) (Bucket, error)
	// Names lists every existing store
	Names(ctx context.Context) ([]string, error)
	// Delete removes a whole store. Returns false when it did not exist.
	Delete(ctx context.Context, name string) (bool, error)
	Close() error
}

// Bucket maps request keys to serialized responses
type Bucket interface {
	Name() string
	// Get returns nil, false, nil when the key is not stored
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// RequestKey generates the key a request is stored under:
// host/path/METHOD[_q<queryhash>].bin
func RequestKey(request *http.Request) string {
	return URLKey(request.Method, request.URL)
}

// URLKey is RequestKey for a method and URL
func URLKey(method string, u *url.URL) string {
	host := strings.TrimSuffix(strings.TrimSuffix(u.Host, ":80"), ":443")
	pathParts := []string{host}

	if u.Path != "" && u.Path != "/" {
		pathParts = append(pathParts, strings.Trim(u.Path, "/"))
	}

	filename := method
	if u.RawQuery != "" {
		// Hash query parameters to handle complex URLs
		hash := sha256.Sum256([]byte(u.RawQuery))
		filename += "_q" + hex.EncodeToString(hash[:])[:8]
	}
	filename += ".bin"

	pathParts = append(pathParts, filename)

	return path.Join(pathParts...)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
