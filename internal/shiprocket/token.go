package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"kbsync/internal/config"
)

// tokenValidity is how long a login token is trusted before re-auth.
const tokenValidity = 55 * time.Minute

// TokenProvider caches the bearer token returned by the login endpoint and
// refreshes it when the validity window lapses. The clock is injectable so
// expiry can be tested deterministically.
type TokenProvider struct {
	cfg        config.Config
	httpClient *http.Client
	now        func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
}

func NewTokenProvider(cfg config.Config) *TokenProvider {
	return &TokenProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ShiprocketTimeoutMs) * time.Millisecond},
		now:        time.Now,
	}
}

// Token returns the cached token while it is still inside the validity
// window, refreshing otherwise.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.now().Sub(p.issuedAt) < tokenValidity {
		return p.token, nil
	}
	return p.refreshLocked(ctx)
}

// ForceRefresh discards the cache and logs in again.
func (p *TokenProvider) ForceRefresh(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshLocked(ctx)
}

func (p *TokenProvider) refreshLocked(ctx context.Context) (string, error) {
	if err := p.cfg.Require("SHIPROCKET_EMAIL", p.cfg.ShiprocketEmail); err != nil {
		return "", err
	}
	if err := p.cfg.Require("SHIPROCKET_PASSWORD", p.cfg.ShiprocketPassword); err != nil {
		return "", err
	}

	payload, _ := json.Marshal(map[string]string{
		"email":    p.cfg.ShiprocketEmail,
		"password": p.cfg.ShiprocketPassword,
	})

	loginURL := strings.TrimRight(p.cfg.ShiprocketBaseURL, "/") + "/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	body, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return "", readErr
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if strings.TrimSpace(tokenResp.Token) == "" {
		return "", fmt.Errorf("token missing in login response")
	}

	p.token = tokenResp.Token
	p.issuedAt = p.now()
	return p.token, nil
}
