package rest

import (
	"time"

	"github.com/KarpelesLab/swiftrest/resterror"
)

// Signer annotates a pending request with authentication material. Sign may
// fail on malformed input only, never on network conditions.
type Signer interface {
	Sign(req *PendingRequest) error
}

// Credential is a Signer owned by a client session. The owning Client
// serializes all reads and writes; no other component touches the
// credential directly.
type Credential interface {
	Signer
}

// TokenCredential is a bearer-token credential. Its token material is
// mutable: a refresh swaps AccessToken, RefreshToken and ExpiresAt in place
// under the owning client's credential lock.
type TokenCredential struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the absolute expiry instant; zero when the server did
	// not report one.
	ExpiresAt    time.Time
	ClientID     string
	ClientSecret string
}

// Sign sets the bearer authorization header. It does not check expiry; the
// refresh controller owns that decision so the check happens exactly once
// per call.
func (c *TokenCredential) Sign(req *PendingRequest) error {
	if c.AccessToken == "" {
		return resterror.LoginRequired()
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	return nil
}

// refreshable reports whether the credential carries what a
// grant_type=refresh_token call needs.
func (c *TokenCredential) refreshable() error {
	if c.RefreshToken == "" {
		return resterror.NoRefreshToken()
	}
	if c.ClientID == "" {
		return resterror.NoClientID()
	}
	return nil
}

// applyRefresh swaps the token material atomically. Caller must hold the
// owning client's credential lock.
func (c *TokenCredential) applyRefresh(res refreshResult, now time.Time) {
	c.AccessToken = res.accessToken
	if res.refreshToken != "" {
		c.RefreshToken = res.refreshToken
	}
	if res.expiresIn > 0 {
		c.ExpiresAt = now.Add(time.Duration(res.expiresIn) * time.Second)
	}
}
