package rest

import (
	"net/http"
	"net/url"
)

// PendingRequest is a request under construction: built fresh for every
// call, handed to the active Signer, then dispatched. Header keys are
// canonicalized by http.Header, keeping the mapping case-insensitive.
type PendingRequest struct {
	Method string
	URL    *url.URL
	Body   []byte
	Header http.Header
}

func newPendingRequest(method string, u *url.URL) *PendingRequest {
	return &PendingRequest{
		Method: method,
		URL:    u,
		Header: http.Header{},
	}
}

// AppendQuery appends one query parameter to the URL, preserving the order
// and encoding of everything already present.
func (r *PendingRequest) AppendQuery(key, value string) {
	pair := key + "=" + url.QueryEscape(value)
	if r.URL.RawQuery == "" {
		r.URL.RawQuery = pair
	} else {
		r.URL.RawQuery += "&" + pair
	}
}

// PathAndQuery returns the request path, with "?" and the query string
// appended only when a query string is present.
func (r *PendingRequest) PathAndQuery() string {
	p := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		p += "?" + r.URL.RawQuery
	}
	return p
}
