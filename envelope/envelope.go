// Package envelope parses and classifies the uniform JSON response wrapper
// used by the API family: a top-level object whose result member is
// "success", "error" or "redirect". Error and redirect envelopes surface as
// typed failures; success envelopes keep their data payload for lazy,
// schema-free access.
package envelope

import (
	"strings"

	"github.com/KarpelesLab/swiftrest/resterror"
)

// Paging describes the pagination record of a list response.
type Paging struct {
	PageNo         int `json:"page_no"`
	Count          int `json:"count"`
	PageMax        int `json:"page_max"`
	ResultsPerPage int `json:"results_per_page"`
}

// Access describes the permission record the server reports for one object.
type Access struct {
	Required  string `json:"required"`
	Available string `json:"available"`
}

// Envelope is a classified success response. It owns the decoded JSON tree
// backing its accessors and is immutable once built.
type Envelope struct {
	Result    string
	RequestID string
	// Token is the credential status string the server optionally reports
	// alongside a success result; "" when absent.
	Token   string
	Paging  *Paging
	Access  map[string]Access
	data    Value
	hasData bool
}

const tokenExpiredExtra = "token_expired"

// Parse decodes body and classifies it. requestID comes from the transport
// response header, not the body. The error return carries the full
// classification: tokenExpired, redirect, apiError, httpError or
// invalidResponse per the envelope convention.
func Parse(body []byte, status int, requestID string) (*Envelope, error) {
	root, err := Unmarshal(body)
	if err != nil || root.Kind() != KindObject {
		if status < 200 || status >= 300 {
			return nil, resterror.HTTP(status, "")
		}
		return nil, resterror.InvalidResponse("body is not a JSON object")
	}

	resultVal, hasResult := root.Field("result")
	if !hasResult {
		// An object without the envelope discriminant: outside 2xx this is
		// a plain HTTP failure whose body may still name the problem.
		if status < 200 || status >= 300 {
			return nil, resterror.HTTP(status, objectMessage(root))
		}
	}
	// result defaults to "error" when absent or not a string
	result, ok := resultVal.String()
	if !ok {
		result = "error"
	}

	switch result {
	case "success":
		env := &Envelope{Result: result, RequestID: requestID}
		env.Token, _ = root.GetString("token")
		if data, ok := root.Field("data"); ok && !data.IsNull() {
			env.data = data
			env.hasData = true
		}
		if paging, ok := root.Field("paging"); ok && paging.Kind() == KindObject {
			p := &Paging{}
			if err := paging.Decode(p); err == nil {
				env.Paging = p
			}
		}
		if access, ok := root.Field("access"); ok && access.Kind() == KindObject {
			m := map[string]Access{}
			if err := access.Decode(&m); err == nil {
				env.Access = m
			}
		}
		return env, nil
	case "redirect":
		url, _ := root.GetString("redirect_url")
		return nil, resterror.Redirect(url)
	default:
		return nil, classifyError(root, requestID)
	}
}

func classifyError(root Value, requestID string) error {
	message, _ := root.GetString("error")
	extra, _ := root.GetString("extra")
	token, _ := root.GetString("token")
	var code int
	if n, ok := root.GetInt64("code"); ok {
		code = int(n)
	}

	// The message substring check is deliberately broad; token expiry
	// reporting varies across server versions.
	switch {
	case token == "invalid_request_token" && extra == tokenExpiredExtra:
		return resterror.TokenExpired(message)
	case code == 401:
		return resterror.TokenExpired(message)
	case extra == tokenExpiredExtra:
		return resterror.TokenExpired(message)
	case strings.Contains(message, "token"):
		return resterror.TokenExpired(message)
	}
	return resterror.API(message, code, extra, requestID)
}

// objectMessage extracts a human-readable message from a non-envelope error
// body, trying the conventional member names.
func objectMessage(root Value) string {
	if msg, ok := root.GetString("error"); ok {
		return msg
	}
	if msg, ok := root.GetString("message"); ok {
		return msg
	}
	return ""
}

// ErrorMessage extracts an error or message member from raw JSON bytes, for
// callers reporting non-envelope failures (chunk transfer PUTs). Returns ""
// when the body carries nothing usable.
func ErrorMessage(body []byte) string {
	root, err := Unmarshal(body)
	if err != nil || root.Kind() != KindObject {
		return ""
	}
	return objectMessage(root)
}

// HasData reports whether the envelope carried a data payload.
func (e *Envelope) HasData() bool { return e.hasData }

// Data returns the opaque data payload; the zero Value when absent.
func (e *Envelope) Data() Value { return e.data }

// Get descends the data payload along a slash-separated path.
func (e *Envelope) Get(path string) (Value, bool) {
	if !e.hasData {
		return Value{}, false
	}
	return e.data.Get(path)
}

// Decode maps the data payload onto target. A success envelope without data
// yields the noData failure.
func (e *Envelope) Decode(target any) error {
	if !e.hasData {
		return resterror.NoData()
	}
	return e.data.Decode(target)
}
