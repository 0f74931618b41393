package shiprocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kbsync/internal"
	"kbsync/internal/config"
)

// ErrPageFetch marks a page that could not be fetched, as opposed to a
// page that simply had no more data. Callers use this to tell a truncated
// range apart from a completed one.
var ErrPageFetch = errors.New("orders page fetch failed")

const fetchAttempts = 3

// OrdersQuery carries the supported query parameters of the orders
// endpoint. Zero values are omitted from the request.
type OrdersQuery struct {
	From           string
	To             string
	Page           int
	PerPage        int
	ChannelID      *int
	Sort           string
	SortBy         string
	FilterBy       string
	Filter         string
	Search         string
	PickupLocation string
	FBS            *int
}

// Client fetches order pages from the remote API and flattens them.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	tokens     *TokenProvider
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.ShiprocketTimeoutMs) * time.Millisecond},
		tokens:     NewTokenProvider(cfg),
	}
}

// FetchOrdersPage requests one page and returns its flattened rows.
// An empty result with a nil error means the range has no more data.
func (c *Client) FetchOrdersPage(ctx context.Context, query OrdersQuery) ([]internal.FlatOrderRow, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageFetch, err)
	}

	u, err := url.Parse(strings.TrimRight(c.cfg.ShiprocketBaseURL, "/") + "/orders")
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.values().Encode()

	var lastErr error
	var body []byte
	ok := false
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			slog.Warn("orders page attempt failed", "attempt", attempt, "error", err)
			continue
		}

		blob, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("status=%d body=%s", resp.StatusCode, truncate(string(blob), 200))
			slog.Warn("orders page attempt failed", "attempt", attempt, "status", resp.StatusCode)
			continue
		}

		body = blob
		ok = true
		break
	}
	if !ok {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrPageFetch, fetchAttempts, lastErr)
	}

	var payload struct {
		Data []RawOrder `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrPageFetch, err)
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}

	return FlattenOrders(payload.Data), nil
}

// FetchAllOrders walks the date range page by page until an empty page.
// On a page failure it returns the rows already fetched together with the
// error, so the caller can keep the partial result and still see the
// failure.
func (c *Client) FetchAllOrders(ctx context.Context, startDate, endDate string) ([]internal.FlatOrderRow, error) {
	all := make([]internal.FlatOrderRow, 0)
	for page := 1; ; page++ {
		rows, err := c.FetchOrdersPage(ctx, OrdersQuery{
			From:    startDate,
			To:      endDate,
			Page:    page,
			PerPage: c.cfg.ShiprocketPageSize,
		})
		if err != nil {
			return all, err
		}
		if len(rows) == 0 {
			return all, nil
		}
		all = append(all, rows...)
		slog.Info("orders page fetched", "page", page, "rows", len(rows))
	}
}

func (q OrdersQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			v.Set(key, value)
		}
	}
	set("from", q.From)
	set("to", q.To)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.ChannelID != nil {
		v.Set("channel_id", strconv.Itoa(*q.ChannelID))
	}
	set("sort", q.Sort)
	set("sort_by", q.SortBy)
	set("filter_by", q.FilterBy)
	set("filter", q.Filter)
	set("search", q.Search)
	set("pickup_location", q.PickupLocation)
	if q.FBS != nil {
		v.Set("fbs", strconv.Itoa(*q.FBS))
	}
	return v
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
