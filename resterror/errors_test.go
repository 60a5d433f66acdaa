package resterror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{name: "invalid URL", err: InvalidURL("::bad", nil), wantText: TextInvalidURL},
		{name: "invalid response", err: InvalidResponse("not an object"), wantText: TextInvalidResponse},
		{name: "no data", err: NoData(), wantText: TextNoData},
		{name: "http error", err: HTTP(500, ""), wantText: TextHTTP},
		{name: "api error", err: API("boom", 500, "", ""), wantText: TextAPI},
		{name: "token expired", err: TokenExpired(""), wantText: TextTokenExpired},
		{name: "login required", err: LoginRequired(), wantText: TextLoginRequired},
		{name: "redirect", err: Redirect("https://example.com"), wantText: TextRedirect},
		{name: "upload failed", err: UploadFailed("empty payload"), wantText: TextUploadFailed},
		{name: "upload stalled", err: UploadStalled(), wantText: TextUploadStalled},
		{name: "decoding", err: Decoding(errors.New("bad field")), wantText: TextDecoding},
		{name: "network", err: Network(errors.New("dial tcp: timeout")), wantText: TextNetwork},
		{name: "no refresh token", err: NoRefreshToken(), wantText: TextNoRefreshToken},
		{name: "no client id", err: NoClientID(), wantText: TextNoClientID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantText, Text(tt.err))
		})
	}
}

func TestAccessors(t *testing.T) {
	apiErr := API("permission denied", 403, "missing_right", "req-123")
	assert.True(t, IsAPI(apiErr))
	assert.Equal(t, 403, APICode(apiErr))
	assert.Equal(t, "missing_right", APIExtra(apiErr))
	assert.Equal(t, "req-123", RequestID(apiErr))

	httpErr := HTTP(502, "bad gateway")
	assert.True(t, IsHTTP(httpErr))
	assert.Equal(t, 502, HTTPStatus(httpErr))
	assert.Equal(t, 0, HTTPStatus(apiErr))

	redir := Redirect("https://login.example.com")
	assert.True(t, IsRedirect(redir))
	assert.Equal(t, "https://login.example.com", RedirectURL(redir))
	assert.Equal(t, "", RedirectURL(httpErr))
}

func TestConvenienceClassification(t *testing.T) {
	assert.True(t, IsPermissionDenied(API("denied", 403, "", "")))
	assert.True(t, IsPermissionDenied(HTTP(403, "")))
	assert.False(t, IsPermissionDenied(HTTP(500, "")))

	assert.True(t, IsNotFound(API("gone", 404, "", "")))
	assert.True(t, IsNotFound(HTTP(404, "")))

	assert.True(t, IsAuthRequired(TokenExpired("")))
	assert.True(t, IsAuthRequired(LoginRequired()))
	assert.True(t, IsAuthRequired(NoRefreshToken()))
	assert.True(t, IsAuthRequired(HTTP(401, "")))
	assert.False(t, IsAuthRequired(HTTP(500, "")))
}

func TestForeignErrorsHaveNoText(t *testing.T) {
	assert.Equal(t, "", Text(errors.New("plain")))
	assert.False(t, IsTokenExpired(errors.New("plain")))
	assert.False(t, IsAuthRequired(nil))
}
