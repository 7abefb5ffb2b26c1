package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Options are the request options taking part in the fingerprint
type Options struct {
	UseCache bool
	CacheTTL time.Duration
}

// Key generates a stable fingerprint for endpoint + options:
// endpoint_<16 hex digits of xxhash64 over the canonical options>
func Key(endpoint string, opts Options) string {
	var b strings.Builder
	b.WriteString("useCache=")
	b.WriteString(strconv.FormatBool(opts.UseCache))
	b.WriteString("&cacheTtlMs=")
	b.WriteString(strconv.FormatInt(opts.CacheTTL.Milliseconds(), 10))

	sum := strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
	return endpoint + "_" + strings.Repeat("0", 16-len(sum)) + sum
}
