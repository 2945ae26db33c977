package api

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"gameshelf/internal/config"
)

const (
	apiKeyHeaderDefault    = "x-api-key"
	userIDHeaderDefault    = "x-user-id"
	userEmailHeaderDefault = "x-user-email"

	permSubmitRentals = "submit:rentals"
	permReadRentals   = "read:rentals"
	permManageRentals = "manage:rentals"
	permReadGames     = "read:games"
)

var errPermissionDenied = fmt.Errorf("permission denied")

// identity is the trusted caller identity extracted from request headers.
// The reverse proxy in front of the service is expected to set them after
// authentication.
type identity struct {
	UserID int64
	Email  string
}

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg     config.APIConfig
	clients map[string]config.APIClientKey
	limiter *rateLimiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m, limiter: newRateLimiter(&cfg)}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || !a.cfg.HTTP.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerName(a.cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault)))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	client, ok := a.clients[apiKey]
	if !ok || subtle.ConstantTimeCompare([]byte(client.Key), []byte(apiKey)) != 1 {
		return fmt.Errorf("invalid api key")
	}

	return a.checkPermissions(client, r)
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermissionHTTP(r)
	if required == "" {
		return nil
	}
	// Empty permissions list means allow-all.
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermissionHTTP(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/availability"):
		return permReadGames
	case path == "/api/v1/games":
		return permReadGames
	case strings.HasPrefix(path, "/api/v1/exports"):
		return permManageRentals
	case strings.HasPrefix(path, "/api/v1/rentals"):
		if isDecisionPath(path) {
			return permManageRentals
		}
		if r.Method == http.MethodPost {
			return permSubmitRentals
		}
		return permReadRentals
	default:
		return ""
	}
}

func isDecisionPath(path string) bool {
	for _, suffix := range []string{"/approve", "/reject", "/start", "/return"} {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.limiter.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerName(a.cfg.Auth.HeaderAPIKey, apiKeyHeaderDefault))); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) headerName(configured, fallback string) string {
	name := strings.TrimSpace(strings.ToLower(configured))
	if name == "" {
		return fallback
	}
	return name
}

// callerIdentity extracts the user identity headers. Email is the primary
// key; the numeric id header is optional and only used as a hint.
func (a *HTTPAuth) callerIdentity(r *http.Request) (identity, error) {
	idHeader := a.headerName(a.cfg.Auth.HeaderUserID, userIDHeaderDefault)
	mailHeader := a.headerName(a.cfg.Auth.HeaderUserMail, userEmailHeaderDefault)

	email := strings.TrimSpace(r.Header.Get(mailHeader))
	if email == "" {
		return identity{}, fmt.Errorf("missing identity header")
	}

	var userID int64
	if rawID := strings.TrimSpace(r.Header.Get(idHeader)); rawID != "" {
		parsed, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || parsed <= 0 {
			return identity{}, fmt.Errorf("invalid user id header")
		}
		userID = parsed
	}

	return identity{UserID: userID, Email: email}, nil
}
