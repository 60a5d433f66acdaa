// Package resterror defines the failure taxonomy shared by the swiftrest
// packages. Every failure is a *goerrors.Error carrying a category, a stable
// text code and structured metadata, so callers can branch on the failure
// kind without parsing messages.
package resterror

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes identifying each failure kind.
const (
	TextInvalidURL      = "REST_INVALID_URL"
	TextInvalidResponse = "REST_INVALID_RESPONSE"
	TextNoData          = "REST_NO_DATA"
	TextHTTP            = "REST_HTTP_ERROR"
	TextAPI             = "REST_API_ERROR"
	TextTokenExpired    = "REST_TOKEN_EXPIRED"
	TextLoginRequired   = "REST_LOGIN_REQUIRED"
	TextRedirect        = "REST_REDIRECT"
	TextUploadFailed    = "REST_UPLOAD_FAILED"
	TextUploadStalled   = "REST_UPLOAD_STALLED"
	TextDecoding        = "REST_DECODING_ERROR"
	TextNetwork         = "REST_NETWORK_ERROR"
	TextNoRefreshToken  = "REST_NO_REFRESH_TOKEN"
	TextNoClientID      = "REST_NO_CLIENT_ID"
)

// Metadata keys carried by the structured failures.
const (
	metaStatus      = "status"
	metaCode        = "code"
	metaExtra       = "extra"
	metaRequestID   = "request_id"
	metaRedirectURL = "redirect_url"
	metaReason      = "reason"
)

// InvalidURL reports a request URL that could not be parsed or resolved.
func InvalidURL(raw string, cause error) error {
	if cause != nil {
		return goerrors.Wrap(cause, goerrors.CategoryBadInput, "invalid URL: "+raw).
			WithTextCode(TextInvalidURL)
	}
	return goerrors.New("invalid URL: "+raw, goerrors.CategoryBadInput).
		WithTextCode(TextInvalidURL)
}

// InvalidResponse reports a response body that could not be interpreted as a
// JSON envelope object.
func InvalidResponse(reason string) error {
	return goerrors.New("invalid response: "+reason, goerrors.CategoryExternal).
		WithTextCode(TextInvalidResponse)
}

// NoData reports a success envelope that carried no data payload while the
// caller requested a decode.
func NoData() error {
	return goerrors.New("response envelope carries no data", goerrors.CategoryOperation).
		WithTextCode(TextNoData)
}

// HTTP reports a non-2xx response whose body is not an envelope. message may
// be empty when the body carried nothing usable.
func HTTP(status int, message string) error {
	msg := "HTTP error " + http.StatusText(status)
	if message != "" {
		msg = message
	}
	return goerrors.New(msg, goerrors.CategoryExternal).
		WithTextCode(TextHTTP).
		WithCode(status).
		WithMetadata(map[string]any{metaStatus: status})
}

// API reports an error envelope, carrying its fields verbatim.
func API(message string, code int, extra, requestID string) error {
	if message == "" {
		message = "API call failed"
	}
	md := map[string]any{}
	if code != 0 {
		md[metaCode] = code
	}
	if extra != "" {
		md[metaExtra] = extra
	}
	if requestID != "" {
		md[metaRequestID] = requestID
	}
	return goerrors.New(message, goerrors.CategoryExternal).
		WithTextCode(TextAPI).
		WithCode(code).
		WithMetadata(md)
}

// TokenExpired reports an error envelope classified as an expired credential.
func TokenExpired(message string) error {
	if message == "" {
		message = "access token expired"
	}
	return goerrors.New(message, goerrors.CategoryAuth).
		WithTextCode(TextTokenExpired).
		WithCode(http.StatusUnauthorized)
}

// LoginRequired reports an operation that needs a credential while none is
// configured on the client.
func LoginRequired() error {
	return goerrors.New("authentication required but no credential configured", goerrors.CategoryAuth).
		WithTextCode(TextLoginRequired).
		WithCode(http.StatusUnauthorized)
}

// Redirect reports a redirect envelope. url may be empty when the server did
// not provide a redirect_url.
func Redirect(url string) error {
	return goerrors.New("API requested a redirect", goerrors.CategoryOperation).
		WithTextCode(TextRedirect).
		WithCode(http.StatusFound).
		WithMetadata(map[string]any{metaRedirectURL: url})
}

// UploadFailed reports a chunked upload that could not be negotiated or
// completed.
func UploadFailed(reason string) error {
	return goerrors.New("upload failed: "+reason, goerrors.CategoryOperation).
		WithTextCode(TextUploadFailed).
		WithMetadata(map[string]any{metaReason: reason})
}

// UploadStalled is declared for parity with the upload failure surface. The
// coordinator performs no stall detection, so nothing raises it today.
func UploadStalled() error {
	return goerrors.New("upload stalled, no progress", goerrors.CategoryOperation).
		WithTextCode(TextUploadStalled)
}

// Decoding reports a payload that could not be decoded into the caller's
// target type.
func Decoding(cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryOperation, "decoding response payload").
		WithTextCode(TextDecoding)
}

// Network wraps a transport-level fault (connectivity, timeout).
func Network(cause error) error {
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "network request failed").
		WithTextCode(TextNetwork)
}

// NoRefreshToken reports a credential refresh attempted without a refresh
// token on file.
func NoRefreshToken() error {
	return goerrors.New("credential carries no refresh token", goerrors.CategoryAuth).
		WithTextCode(TextNoRefreshToken)
}

// NoClientID reports a credential refresh attempted without a client
// identifier on file.
func NoClientID() error {
	return goerrors.New("credential carries no client identifier", goerrors.CategoryAuth).
		WithTextCode(TextNoClientID)
}

func rich(err error) *goerrors.Error {
	var e *goerrors.Error
	if goerrors.As(err, &e) {
		return e
	}
	return nil
}

// Text returns the swiftrest text code of err, or "" for foreign errors.
func Text(err error) string {
	if e := rich(err); e != nil {
		return e.TextCode
	}
	return ""
}

// IsTokenExpired reports whether err is the expired-credential failure.
func IsTokenExpired(err error) bool { return Text(err) == TextTokenExpired }

// IsRedirect reports whether err is a redirect classification.
func IsRedirect(err error) bool { return Text(err) == TextRedirect }

// IsHTTP reports whether err is a bare HTTP status failure.
func IsHTTP(err error) bool { return Text(err) == TextHTTP }

// IsAPI reports whether err is an error envelope failure.
func IsAPI(err error) bool { return Text(err) == TextAPI }

// IsNetwork reports whether err wraps a transport-level fault.
func IsNetwork(err error) bool { return Text(err) == TextNetwork }

// IsNoData reports whether err is the empty-success-envelope failure.
func IsNoData(err error) bool { return Text(err) == TextNoData }

// IsInvalidResponse reports whether err is the unparseable-body failure.
func IsInvalidResponse(err error) bool { return Text(err) == TextInvalidResponse }

// IsUploadFailed reports whether err is an upload protocol failure.
func IsUploadFailed(err error) bool { return Text(err) == TextUploadFailed }

// RedirectURL returns the redirect target carried by a redirect failure, or
// "" for any other error.
func RedirectURL(err error) string {
	if e := rich(err); e != nil && e.TextCode == TextRedirect {
		if u, ok := e.Metadata[metaRedirectURL].(string); ok {
			return u
		}
	}
	return ""
}

// HTTPStatus returns the HTTP status carried by an httpError, or 0.
func HTTPStatus(err error) int {
	if e := rich(err); e != nil && e.TextCode == TextHTTP {
		return e.Code
	}
	return 0
}

// APICode returns the numeric code carried by an apiError, or 0.
func APICode(err error) int {
	if e := rich(err); e != nil && e.TextCode == TextAPI {
		if c, ok := e.Metadata[metaCode].(int); ok {
			return c
		}
	}
	return 0
}

// APIExtra returns the extra string carried by an apiError, or "".
func APIExtra(err error) string {
	if e := rich(err); e != nil && e.TextCode == TextAPI {
		if x, ok := e.Metadata[metaExtra].(string); ok {
			return x
		}
	}
	return ""
}

// RequestID returns the transport request identifier attached to an
// apiError, or "".
func RequestID(err error) string {
	if e := rich(err); e != nil {
		if id, ok := e.Metadata[metaRequestID].(string); ok {
			return id
		}
	}
	return ""
}

func statusOf(err error) int {
	e := rich(err)
	if e == nil {
		return 0
	}
	switch e.TextCode {
	case TextHTTP, TextAPI, TextTokenExpired, TextLoginRequired:
		return e.Code
	}
	return 0
}

// IsPermissionDenied reports whether err represents a 403 from either the
// HTTP layer or the API envelope.
func IsPermissionDenied(err error) bool { return statusOf(err) == http.StatusForbidden }

// IsNotFound reports whether err represents a 404 from either the HTTP layer
// or the API envelope.
func IsNotFound(err error) bool { return statusOf(err) == http.StatusNotFound }

// IsAuthRequired reports whether err calls for (re)authentication: an
// expired token, a missing credential, or a 401 at either layer.
func IsAuthRequired(err error) bool {
	switch Text(err) {
	case TextTokenExpired, TextLoginRequired, TextNoRefreshToken, TextNoClientID:
		return true
	}
	return statusOf(err) == http.StatusUnauthorized
}
