// Package rest implements the client-side request pipeline for the
// JSON-envelope REST convention: request building, credential signing,
// envelope classification and the single-retry credential refresh.
package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/KarpelesLab/swiftrest/envelope"
	"github.com/KarpelesLab/swiftrest/resterror"
)

const (
	// transportMarkerHeader marks requests coming from a non-legacy client.
	transportMarkerHeader = "Sec-Rest-Http"
	transportMarkerValue  = "false"

	clientIDHeader  = "X-Client-Id"
	requestIDHeader = "X-Request-Id"
)

// Client drives authenticated calls against one API host. The credential is
// the only mutable shared state and every access to it goes through the
// credential lock, so concurrent calls observe a single consistent value.
type Client struct {
	cfg        Config
	logger     log.Logger
	apiDoer    Doer
	uploadDoer Doer

	credMu sync.Mutex
	cred   Credential

	// now is the single clock every expiry comparison and refresh
	// bookkeeping goes through.
	now func() time.Time

	debug atomic.Bool
}

// New creates a client with default transports: a plain HTTP client bounded
// by cfg.RequestTimeout for envelope calls and one bounded by
// cfg.UploadTimeout for chunk transfers.
func New(cfg Config, logger log.Logger) (*Client, error) {
	return NewWithTransport(cfg, logger, nil, nil)
}

// NewWithTransport creates a client with caller-provided transports. A nil
// Doer selects the matching default.
func NewWithTransport(cfg Config, logger log.Logger, api, upload Doer) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validateConfig(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewLogger()
	}
	if api == nil {
		api = defaultDoer(cfg.RequestTimeout)
	}
	if upload == nil {
		upload = defaultDoer(cfg.UploadTimeout)
	}
	return &Client{
		cfg:        cfg,
		logger:     logger,
		apiDoer:    api,
		uploadDoer: upload,
		now:        time.Now,
	}, nil
}

// Logger returns the client's logger for collaborating components.
func (c *Client) Logger() log.Logger { return c.logger }

// SetCredential installs (or clears, with nil) the active credential.
func (c *Client) SetCredential(cred Credential) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	c.cred = cred
}

// RequireCredential returns the loginRequired failure when no credential is
// configured. Callers hitting endpoints that demand authentication check
// this up front instead of waiting for the server to reject them.
func (c *Client) RequireCredential() error {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	if c.cred == nil {
		return resterror.LoginRequired()
	}
	return nil
}

// SetDebug toggles request/response dump logging.
func (c *Client) SetDebug(enabled bool) {
	c.debug.Store(enabled)
	c.logger.EnableDebugLog(enabled)
}

// signRequest applies the active signer under the credential lock.
// Unauthenticated clients skip signing; that is never an error.
func (c *Client) signRequest(preq *PendingRequest) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	if c.cred == nil {
		return nil
	}
	return c.cred.Sign(preq)
}

// dispatch performs one HTTP round trip and drains the response. Transport
// faults come back as plain errors for the caller to wrap.
func (c *Client) dispatch(ctx context.Context, preq *PendingRequest, doer Doer) (int, http.Header, []byte, error) {
	var bodyReader io.Reader
	if preq.Body != nil {
		bodyReader = bytes.NewReader(preq.Body)
	}
	req, err := http.NewRequestWithContext(ctx, preq.Method, preq.URL.String(), bodyReader)
	if err != nil {
		return 0, nil, nil, err
	}
	for k, vs := range preq.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.ContentLength = int64(len(preq.Body))

	if c.debug.Load() {
		dump, err := httputil.DumpRequest(redactForDump(req), false)
		if err != nil {
			c.logger.Warnf("error while dumping request: %s", err)
		}
		c.logger.Debugf("Request dump: %s", string(dump))
	}

	resp, err := doer.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Printf(err.Error())
		}
	}(resp.Body)

	if c.debug.Load() {
		dump, err := httputil.DumpResponse(resp, false)
		if err != nil {
			c.logger.Warnf("error while dumping response: %s", err)
		}
		c.logger.Debugf("Response dump: %s", string(dump))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

// RawPut issues a signed PUT outside the envelope convention, using the
// upload transport deadline. The chunked upload coordinator uses it for
// chunk transfers. A non-2xx response is reported as httpError.
func (c *Client) RawPut(ctx context.Context, target string, body []byte, header http.Header) error {
	u, err := url.Parse(target)
	if err != nil {
		return resterror.InvalidURL(target, err)
	}
	preq := newPendingRequest(http.MethodPut, u)
	for k, vs := range header {
		for _, v := range vs {
			preq.Header.Add(k, v)
		}
	}
	preq.Header.Set(transportMarkerHeader, transportMarkerValue)
	preq.Body = body
	if err := c.signRequest(preq); err != nil {
		return err
	}
	status, _, respBody, err := c.dispatch(ctx, preq, c.uploadDoer)
	if err != nil {
		return resterror.Network(err)
	}
	if status < 200 || status >= 300 {
		return resterror.HTTP(status, envelope.ErrorMessage(respBody))
	}
	return nil
}
