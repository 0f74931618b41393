package shiprocket

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"kbsync/internal/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSyncReplacesFetchedOrders(t *testing.T) {
	db := openTestDB(t)

	svc := NewSyncService(db, testConfig())
	svc.client = newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("page") != "1" {
			return jsonResponse(http.StatusOK, ordersPayload()), nil
		}
		return jsonResponse(http.StatusOK, ordersPayload(
			map[string]any{
				"id":               101,
				"channel_order_id": "CH-1",
				"products": []any{
					map[string]any{"name": "FRESH OKRA"},
					map[string]any{"name": "GREEN CHILLI"},
				},
			},
		)), nil
	})

	result, err := svc.Sync(context.Background(), "2024-08-01", "2024-08-31", true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Rows != 2 || result.Inserted != 2 || result.Deleted != 0 {
		t.Fatalf("result: %+v", result)
	}

	// A re-run deletes the previous rows for the same orders first.
	result, err = svc.Sync(context.Background(), "2024-08-01", "2024-08-31", true)
	if err != nil {
		t.Fatal(err)
	}
	if result.Deleted != 2 || result.Inserted != 2 {
		t.Fatalf("rerun result: %+v", result)
	}

	count, err := db.RowCount(storage.TableOrders)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count=%d", count)
	}
}

func TestSyncKeepsPartialResultOnPageFailure(t *testing.T) {
	db := openTestDB(t)

	svc := NewSyncService(db, testConfig())
	svc.client = newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("page") == "1" {
			return jsonResponse(http.StatusOK, ordersPayload(
				map[string]any{"id": 101, "channel_order_id": "CH-1"},
			)), nil
		}
		return jsonResponse(http.StatusInternalServerError, map[string]string{"error": "boom"}), nil
	})

	result, err := svc.Sync(context.Background(), "2024-08-01", "2024-08-31", true)
	if !errors.Is(err, ErrPageFetch) {
		t.Fatalf("expected ErrPageFetch, got %v", err)
	}
	if result.Rows != 1 || result.Inserted != 1 {
		t.Fatalf("partial rows must be loaded: %+v", result)
	}

	count, _ := db.RowCount(storage.TableOrders)
	if count != 1 {
		t.Fatalf("count=%d", count)
	}
}

func TestSyncNoCommit(t *testing.T) {
	db := openTestDB(t)

	svc := NewSyncService(db, testConfig())
	svc.client = newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("page") != "1" {
			return jsonResponse(http.StatusOK, ordersPayload()), nil
		}
		return jsonResponse(http.StatusOK, ordersPayload(
			map[string]any{"id": 101, "channel_order_id": "CH-1"},
		)), nil
	})

	if _, err := svc.Sync(context.Background(), "2024-08-01", "2024-08-31", false); err != nil {
		t.Fatal(err)
	}

	count, err := db.RowCount(storage.TableOrders)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("dry run must not persist, count=%d", count)
	}
}
