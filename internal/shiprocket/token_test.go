package shiprocket

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"kbsync/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		ShiprocketBaseURL:   "https://example.test/v1/external",
		ShiprocketEmail:     "user@example.test",
		ShiprocketPassword:  "secret",
		ShiprocketTimeoutMs: 1000,
		ShiprocketPageSize:  2,
	}
}

func TestTokenCachedInsideValidityWindow(t *testing.T) {
	logins := 0
	clock := time.Date(2024, 8, 21, 10, 0, 0, 0, time.UTC)

	p := NewTokenProvider(testConfig())
	p.now = func() time.Time { return clock }
	p.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if !strings.HasSuffix(r.URL.Path, "/auth/login") {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			logins++
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"token":"tok-1"}`)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	token, err := p.Token(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if token != "tok-1" {
		t.Fatalf("got %q", token)
	}

	// 54 minutes later the cached token is still served.
	clock = clock.Add(54 * time.Minute)
	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logins != 1 {
		t.Fatalf("expected 1 login, got %d", logins)
	}

	// Past 55 minutes the provider logs in again.
	clock = clock.Add(2 * time.Minute)
	if _, err := p.Token(context.Background()); err != nil {
		t.Fatal(err)
	}
	if logins != 2 {
		t.Fatalf("expected 2 logins, got %d", logins)
	}
}

func TestTokenLoginFailure(t *testing.T) {
	p := NewTokenProvider(testConfig())
	p.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Body:       io.NopCloser(strings.NewReader(`{"message":"bad credentials"}`)),
				Header:     make(http.Header),
			}, nil
		}),
	}

	if _, err := p.Token(context.Background()); err == nil {
		t.Fatal("expected error on 401 login")
	}
}

func TestTokenMissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.ShiprocketEmail = ""
	p := NewTokenProvider(cfg)

	if _, err := p.Token(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}
