package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/KarpelesLab/swiftrest/envelope"
	"github.com/KarpelesLab/swiftrest/resterror"
)

// reservedParamKey carries JSON-encoded params on URL-encoding methods.
const reservedParamKey = "_"

func (c *Client) resolveEndpoint(endpoint string) (*url.URL, error) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, resterror.InvalidURL(endpoint, err)
		}
		return u, nil
	}
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, resterror.InvalidURL(c.cfg.BaseURL, err)
	}
	rel, err := url.Parse(endpoint)
	if err != nil {
		return nil, resterror.InvalidURL(endpoint, err)
	}
	resolved := *base
	resolved.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(rel.Path, "/")
	switch {
	case rel.RawQuery == "":
		resolved.RawQuery = base.RawQuery
	case base.RawQuery == "":
		resolved.RawQuery = rel.RawQuery
	default:
		resolved.RawQuery = base.RawQuery + "&" + rel.RawQuery
	}
	return &resolved, nil
}

// buildRequest constructs a fresh PendingRequest: fixed session context
// parameters first, then the call parameters encoded per method family.
func (c *Client) buildRequest(method, endpoint string, params map[string]any) (*PendingRequest, error) {
	u, err := c.resolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	preq := newPendingRequest(method, u)

	// sorted for a deterministic query string, which the key signer covers
	ctxKeys := make([]string, 0, len(c.cfg.Context))
	for k := range c.cfg.Context {
		ctxKeys = append(ctxKeys, k)
	}
	sort.Strings(ctxKeys)
	for _, k := range ctxKeys {
		preq.AppendQuery(k, c.cfg.Context[k])
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		if len(params) > 0 {
			encoded, err := json.Marshal(params)
			if err != nil {
				return nil, fmt.Errorf("encode request params: %w", err)
			}
			preq.AppendQuery(reservedParamKey, string(encoded))
		}
	case http.MethodDelete:
		// DELETE carries neither query params nor a body
	default:
		body := params
		if body == nil {
			body = map[string]any{}
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		preq.Body = encoded
		preq.Header.Set("Content-Type", "application/json")
	}

	preq.Header.Set(transportMarkerHeader, transportMarkerValue)
	if c.cfg.ClientID != "" {
		preq.Header.Set(clientIDHeader, c.cfg.ClientID)
	}
	return preq, nil
}

// execute runs one full pipeline pass: build, sign, dispatch, classify.
// It never retries; retry policy lives in Do.
func (c *Client) execute(ctx context.Context, method, endpoint string, params map[string]any) (*envelope.Envelope, error) {
	preq, err := c.buildRequest(method, endpoint, params)
	if err != nil {
		return nil, err
	}
	if err := c.signRequest(preq); err != nil {
		return nil, err
	}
	status, header, body, err := c.dispatch(ctx, preq, c.apiDoer)
	if err != nil {
		return nil, resterror.Network(err)
	}
	return envelope.Parse(body, status, header.Get(requestIDHeader))
}

// DoOnce runs a single pipeline pass with no refresh retry. Callers that
// manage credentials themselves use it to observe the raw classification.
func (c *Client) DoOnce(ctx context.Context, method, endpoint string, params map[string]any) (*envelope.Envelope, error) {
	return c.execute(ctx, method, endpoint, params)
}

// Get issues a GET request; params travel JSON-encoded in the query.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any, target any) (*envelope.Envelope, error) {
	return c.Do(ctx, http.MethodGet, endpoint, params, target)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, params map[string]any, target any) (*envelope.Envelope, error) {
	return c.Do(ctx, http.MethodPost, endpoint, params, target)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, params map[string]any, target any) (*envelope.Envelope, error) {
	return c.Do(ctx, http.MethodPut, endpoint, params, target)
}

// Delete issues a DELETE request; no params travel with it.
func (c *Client) Delete(ctx context.Context, endpoint string, target any) (*envelope.Envelope, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, target)
}
