package riot

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"
)

// appLimiters enforce the application rate limits of a development key
// (20 requests per second, 100 per two minutes) for every client in the process.
var appLimiters = []*rate.Limiter{
	rate.NewLimiter(20, 20),
	rate.NewLimiter(rate.Every(120*time.Second/100), 100),
}

// tokenTransport signs requests with the API key, waits for the rate
// limiters and forces a client-side TTL on successful responses, so that
// the cache above it keeps them regardless of origin headers.
type tokenTransport struct {
	apiKey   string
	ttl      time.Duration
	limiters []*rate.Limiter
	next     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for _, l := range t.limiters {
		if err := l.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("wait for rate limit: %w", err)
		}
	}

	// clone so we don't stomp on the caller's original
	req2 := req.Clone(req.Context())
	req2.Header.Set("X-Riot-Token", t.apiKey)

	resp, err := t.next.RoundTrip(req2)
	if err != nil {
		return nil, err
	}

	if t.ttl > 0 && resp.StatusCode == http.StatusOK {
		resp.Header.Del("Pragma")
		resp.Header.Del("Expires")
		resp.Header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(t.ttl/time.Second)))
	}
	return resp, nil
}

// newTransport builds the transport chain: cache, then limiter and signer.
// Cache hits don't count against the rate limits.
func newTransport(apiKey string, ttl time.Duration, limiters []*rate.Limiter) http.RoundTripper {
	tt := &tokenTransport{apiKey: apiKey, ttl: ttl, limiters: limiters, next: http.DefaultTransport}
	if ttl < time.Second {
		return tt
	}

	ct := httpcache.NewTransport(httpcache.NewMemoryCache())
	ct.Transport = tt
	return ct
}
