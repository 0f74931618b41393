package shiprocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, payload any) *http.Response {
	blob, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(blob))),
		Header:     make(http.Header),
	}
}

func ordersPayload(orders ...map[string]any) map[string]any {
	return map[string]any{"data": orders}
}

// newTestClient wires both the token provider and the orders client to the
// same fake transport. Login requests always succeed.
func newTestClient(t *testing.T, handle func(*http.Request) (*http.Response, error)) *Client {
	t.Helper()
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasSuffix(r.URL.Path, "/auth/login") {
			return jsonResponse(http.StatusOK, map[string]string{"token": "tok"}), nil
		}
		return handle(r)
	})
	client := NewClient(testConfig())
	client.httpClient = &http.Client{Transport: transport}
	client.tokens.httpClient = &http.Client{Transport: transport}
	return client
}

func TestFetchOrdersPageRetriesThenSucceeds(t *testing.T) {
	attempt := 0
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("missing bearer token")
		}
		attempt++
		if attempt == 1 {
			return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "boom"}), nil
		}
		return jsonResponse(http.StatusOK, ordersPayload(
			map[string]any{"id": 1, "channel_order_id": "CH-1", "products": []any{map[string]any{"name": "OKRA"}}},
		)), nil
	})

	rows, err := client.FetchOrdersPage(context.Background(), OrdersQuery{From: "2024-08-01", To: "2024-08-31", Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempt)
	}
	if len(rows) != 1 || rows[0].ShiprocketID != 1 {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestFetchOrdersPageExhaustsRetries(t *testing.T) {
	attempt := 0
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "boom"}), nil
	})

	_, err := client.FetchOrdersPage(context.Background(), OrdersQuery{Page: 1})
	if !errors.Is(err, ErrPageFetch) {
		t.Fatalf("expected ErrPageFetch, got %v", err)
	}
	if attempt != fetchAttempts {
		t.Fatalf("expected %d attempts, got %d", fetchAttempts, attempt)
	}
}

func TestFetchOrdersPageEmptyMeansDone(t *testing.T) {
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, ordersPayload()), nil
	})

	rows, err := client.FetchOrdersPage(context.Background(), OrdersQuery{Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows, got %+v", rows)
	}
}

func TestFetchAllOrdersWalksPages(t *testing.T) {
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		switch r.URL.Query().Get("page") {
		case "1":
			return jsonResponse(http.StatusOK, ordersPayload(
				map[string]any{"id": 1, "channel_order_id": "CH-1"},
				map[string]any{"id": 2, "channel_order_id": "CH-2"},
			)), nil
		case "2":
			return jsonResponse(http.StatusOK, ordersPayload(
				map[string]any{"id": 3, "channel_order_id": "CH-3"},
			)), nil
		default:
			return jsonResponse(http.StatusOK, ordersPayload()), nil
		}
	})

	rows, err := client.FetchAllOrders(context.Background(), "2024-08-01", "2024-08-31")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestFetchAllOrdersKeepsPartialOnFailure(t *testing.T) {
	client := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("page") == "1" {
			return jsonResponse(http.StatusOK, ordersPayload(
				map[string]any{"id": 1, "channel_order_id": "CH-1"},
			)), nil
		}
		return nil, fmt.Errorf("connection reset")
	})

	rows, err := client.FetchAllOrders(context.Background(), "2024-08-01", "2024-08-31")
	if !errors.Is(err, ErrPageFetch) {
		t.Fatalf("expected ErrPageFetch, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("partial result must be preserved, got %d rows", len(rows))
	}
}
