// Package holidays reads observed statutory holidays from the canada-holidays.ca API.
package holidays

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
)

const (
	DefaultURL      = "https://canada-holidays.ca/api/v1/holidays"
	DefaultProvince = "ON"
)

// Client fetches holidays for one province and keeps them for TTL.
// A zero TTL disables caching.
type Client struct {
	URL      string
	Province string
	TTL      time.Duration

	hc  *http.Client
	now func() time.Time

	mu        sync.Mutex
	cached    []time.Time
	fetchedAt time.Time
}

func New(url, province string, ttl time.Duration, hc *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if province == "" {
		province = DefaultProvince
	}
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{URL: url, Province: province, TTL: ttl, hc: hc, now: time.Now}
}

type province struct {
	ID string `json:"id"`
}

type holidaysResponse struct {
	Holidays []struct {
		ObservedDate string     `json:"observedDate"`
		NameEn       string     `json:"nameEn"`
		Provinces    []province `json:"provinces"`
	} `json:"holidays"`
}

// Holidays implements dates.HolidaySource.
func (c *Client) Holidays(ctx context.Context) ([]time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.TTL > 0 && c.now().Sub(c.fetchedAt) < c.TTL {
		return c.cached, nil
	}

	hs, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = hs
	c.fetchedAt = c.now()
	return hs, nil
}

func (c *Client) fetch(ctx context.Context) ([]time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holidays: %v: %w", err, internaltypes.ErrUpstream)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("holidays read body: %v: %w", err, internaltypes.ErrUpstream)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("holidays http %d: %w", res.StatusCode, internaltypes.ErrUpstream)
	}

	var parsed holidaysResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("holidays parse: %v: %w", err, internaltypes.ErrUpstream)
	}

	out := make([]time.Time, 0, len(parsed.Holidays))
	for _, h := range parsed.Holidays {
		if !inProvince(h.Provinces, c.Province) {
			continue
		}
		d, err := dates.ParseDay(h.ObservedDate)
		if err != nil {
			return nil, fmt.Errorf("holidays: bad observedDate %q: %w", h.ObservedDate, internaltypes.ErrUpstream)
		}
		out = append(out, d)
	}
	return out, nil
}

func inProvince(provinces []province, id string) bool {
	for _, p := range provinces {
		if strings.EqualFold(p.ID, id) {
			return true
		}
	}
	return false
}
