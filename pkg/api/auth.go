package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/menuflow/platform/pkg/common/logger"
)

const apiKeyHeader = "X-API-Key"

// APIKeyValidator checks request keys against a static allow-list using
// constant-time comparison.
type APIKeyValidator struct {
	keys [][]byte
}

func NewAPIKeyValidator(keys []string) *APIKeyValidator {
	validator := &APIKeyValidator{}
	for _, key := range keys {
		if key != "" {
			validator.keys = append(validator.keys, []byte(key))
		}
	}
	return validator
}

func (v *APIKeyValidator) Validate(key string) bool {
	if key == "" || len(v.keys) == 0 {
		return false
	}

	candidate := []byte(key)
	valid := false
	for _, known := range v.keys {
		if subtle.ConstantTimeCompare(candidate, known) == 1 {
			valid = true
		}
	}
	return valid
}

// RequireAPIKey rejects requests without a valid X-API-Key header.
func RequireAPIKey(validator *APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validator.Validate(r.Header.Get(apiKeyHeader)) {
				logger.Log.WithFields(map[string]interface{}{
					"path":        r.URL.Path,
					"remote_addr": r.RemoteAddr,
				}).Warn("rejected request with missing or invalid API key")
				http.Error(w, "invalid or missing API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
