package worker

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/iTrooz/news-reader/internal/config"
)

// Rule decides whether a request bypasses interception
type Rule interface {
	Match(requ *http.Request) bool
}

// ConfigRule implements Rule for bypass rules from the config file
type ConfigRule struct {
	config.BypassRule
}

// Match checks if a request matches this rule. A rule without methods
// matches every method.
func (r *ConfigRule) Match(requ *http.Request) bool {
	// Check if URL starts with base URI
	if !strings.HasPrefix(getTargetURL(requ), r.BaseURI) {
		return false
	}

	if len(r.Methods) == 0 {
		return true
	}

	for _, m := range r.Methods {
		if strings.EqualFold(m, requ.Method) {
			return true
		}
	}

	return false
}

func buildRules(rules []config.BypassRule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, &ConfigRule{BypassRule: rule})
	}
	return out
}

func getTargetURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}

	// Reconstruct URL from Host header
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.String())
}
