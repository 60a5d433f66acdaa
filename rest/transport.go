package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

// Doer issues a single HTTP request. The envelope pipeline never retries
// through its Doer; the only retry it performs is the refresh controller's
// single post-refresh attempt.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func defaultDoer(timeout time.Duration) Doer {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxConnsPerHost:     10,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			Proxy:               http.ProxyFromEnvironment,
		},
	}
}

// NewRetryingDoer returns a Doer that retries transient transport failures
// with backoff. Suitable as the upload transport when the receiving side
// tolerates replayed chunk PUTs; do not use it for the envelope pipeline if
// the single-retry semantics of the refresh controller must stay exact.
func NewRetryingDoer(logger log.Logger, timeout time.Duration) Doer {
	rc := retryhttp.NewClient(logger)
	rc.CheckRetry = checkRetry
	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

// checkRetry keeps the default transient-failure policy but never replays a
// request the server rejected for the request's own fault: a 4xx chunk PUT
// will fail identically on every attempt.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		switch resp.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true, nil
		}
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
