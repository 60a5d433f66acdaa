package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/KarpelesLab/swiftrest/envelope"
	"github.com/KarpelesLab/swiftrest/resterror"
)

// Do runs one logical call with at most one refresh. A refreshable
// credential whose expiry instant already passed is refreshed up front, so
// the signer never stamps a token known to be stale; otherwise a pipeline
// pass reporting an expired credential or a redirect triggers the refresh,
// followed by exactly one more pass. The signer deliberately skips the
// expiry check; it happens here, once, immediately before dispatch. When
// target is non-nil the success envelope's data decodes into it.
func (c *Client) Do(ctx context.Context, method, endpoint string, params map[string]any, target any) (*envelope.Envelope, error) {
	refreshed := false
	if tc, stale, expired := c.tokenCredential(); tc != nil && expired && c.cfg.TokenURL != "" {
		if rerr := c.refresh(ctx, stale); rerr != nil {
			return nil, rerr
		}
		refreshed = true
	}

	env, err := c.execute(ctx, method, endpoint, params)
	if err != nil {
		if !resterror.IsTokenExpired(err) && !resterror.IsRedirect(err) {
			return nil, err
		}
		if refreshed {
			// the one refresh this call gets already happened
			return nil, err
		}
		tc, stale, _ := c.tokenCredential()
		if tc == nil || c.cfg.TokenURL == "" {
			// a key credential (or none at all) has nothing to refresh
			return nil, err
		}
		if rerr := c.refresh(ctx, stale); rerr != nil {
			return nil, rerr
		}
		env, err = c.execute(ctx, method, endpoint, params)
		if err != nil {
			return nil, err
		}
	}
	if target != nil {
		if derr := env.Decode(target); derr != nil {
			return nil, derr
		}
	}
	return env, nil
}

// tokenCredential snapshots the bearer credential. expired is true only for
// a refreshable credential whose expiry instant, when set, lies in the past
// per the client clock.
func (c *Client) tokenCredential() (*TokenCredential, string, bool) {
	c.credMu.Lock()
	defer c.credMu.Unlock()
	tc, ok := c.cred.(*TokenCredential)
	if !ok {
		return nil, "", false
	}
	expired := !tc.ExpiresAt.IsZero() && c.now().After(tc.ExpiresAt) && tc.refreshable() == nil
	return tc, tc.AccessToken, expired
}

// refresh performs the grant_type=refresh_token call against the token
// endpoint and swaps the credential material in place. The credential lock
// is held for the whole exchange, so at most one refresh is in flight per
// client; a caller that lost the race finds the token already replaced and
// skips its own network call.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	c.credMu.Lock()
	defer c.credMu.Unlock()

	tc, ok := c.cred.(*TokenCredential)
	if !ok {
		return resterror.NoRefreshToken()
	}
	if err := tc.refreshable(); err != nil {
		return err
	}
	if tc.AccessToken != staleToken {
		// single-flight: another caller already refreshed
		return nil
	}

	params := map[string]any{
		"grant_type":    "refresh_token",
		"refresh_token": tc.RefreshToken,
		"client_id":     tc.ClientID,
	}
	if tc.ClientSecret != "" {
		params["client_secret"] = tc.ClientSecret
	}
	preq, err := c.buildRequest(http.MethodPost, c.cfg.TokenURL, params)
	if err != nil {
		return err
	}
	if err := tc.Sign(preq); err != nil {
		return err
	}
	status, _, body, err := c.dispatch(ctx, preq, c.apiDoer)
	if err != nil {
		return resterror.Network(err)
	}
	if status < 200 || status >= 300 {
		return resterror.HTTP(status, envelope.ErrorMessage(body))
	}
	res, err := parseRefreshResult(body)
	if err != nil {
		return err
	}
	tc.applyRefresh(res, c.now())
	c.logger.Debugf("Access token refreshed")
	return nil
}

type refreshResult struct {
	accessToken  string
	refreshToken string
	expiresIn    int64
}

// parseRefreshResult decodes the token endpoint response. Both snake_case and
// camelCase member spellings occur in the wild, so both are accepted.
func parseRefreshResult(body []byte) (refreshResult, error) {
	var wire struct {
		AccessToken   string `json:"access_token"`
		AccessTokenC  string `json:"accessToken"`
		RefreshToken  string `json:"refresh_token"`
		RefreshTokenC string `json:"refreshToken"`
		ExpiresIn     int64  `json:"expires_in"`
		ExpiresInC    int64  `json:"expiresIn"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return refreshResult{}, resterror.Decoding(err)
	}
	res := refreshResult{
		accessToken:  wire.AccessToken,
		refreshToken: wire.RefreshToken,
		expiresIn:    wire.ExpiresIn,
	}
	if res.accessToken == "" {
		res.accessToken = wire.AccessTokenC
	}
	if res.refreshToken == "" {
		res.refreshToken = wire.RefreshTokenC
	}
	if res.expiresIn == 0 {
		res.expiresIn = wire.ExpiresInC
	}
	if res.accessToken == "" {
		return refreshResult{}, resterror.InvalidResponse("token endpoint returned no access token")
	}
	return res, nil
}
