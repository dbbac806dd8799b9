// Package ontario talks to the Ontario Parks reservation API.
package ontario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/dates"
	"github.com/example/campwatch/internal/internaltypes"
	"github.com/example/campwatch/internal/metrics"
)

const (
	DefaultBaseURL   = "https://reservations.ontarioparks.com/api"
	DefaultPartySize = 3

	// EquipmentAny and SingleTent are the equipment category and sub-category
	// every search is made with.
	EquipmentAny = -32768
	SingleTent   = -32768

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:102.0) Gecko/20100101 Firefox/102.0"
	acceptLanguage = "en-US,en;q=0.5"

	// filterData restricts results to sites accepting the party's equipment.
	filterData = `[{"attributeDefinitionId":-32736,"enumValues":[1],"attributeDefinitionDecimalValue":0,"filterStrategy":1}]`
)

// Client is a read-only reservation API client. Every request waits on a
// shared rate limiter before going out.
type Client struct {
	BaseURL   string
	PartySize int

	hc      *http.Client
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

type Options struct {
	BaseURL   string
	PartySize int
	Timeout   time.Duration
	// RPS caps requests per second. Zero or less means unlimited.
	RPS       float64
	Metrics   *metrics.Metrics
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PartySize <= 0 {
		opts.PartySize = DefaultPartySize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit, burst := rate.Inf, 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		burst = max(1, int(opts.RPS))
	}
	return &Client{
		BaseURL:   strings.TrimRight(opts.BaseURL, "/"),
		PartySize: opts.PartySize,
		hc:        &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   opts.Metrics,
	}
}

// availabilityResponse holds the two child maps of availability/map. Region
// and park queries fill MapLinks, campground queries fill Resources.
type availabilityResponse struct {
	MapLinks  map[string][]json.RawMessage `json:"mapLinkAvailabilities"`
	Resources map[string][]json.RawMessage `json:"resourceAvailabilities"`
}

// FetchChildren implements availability.Fetcher.
func (c *Client) FetchChildren(ctx context.Context, nodeID int64, level availability.Level, w dates.Window) ([]availability.Child, error) {
	params := url.Values{}
	params.Set("mapId", strconv.FormatInt(nodeID, 10))
	params.Set("bookingCategoryId", "0")
	params.Set("startDate", w.StartDate())
	params.Set("endDate", w.EndDate())
	params.Set("isReserving", "true")
	params.Set("getDailyAvailability", "false")
	params.Set("partySize", strconv.Itoa(c.PartySize))
	params.Set("equipmentCategoryId", strconv.Itoa(EquipmentAny))
	params.Set("subEquipmentCategoryId", strconv.Itoa(SingleTent))
	params.Set("generateBreadcrumbs", "false")
	params.Set("filterData", filterData)

	var res availabilityResponse
	if err := c.getJSON(ctx, "availability/map", params, &res); err != nil {
		return nil, fmt.Errorf("%s %d: %w", level, nodeID, err)
	}

	raw := res.MapLinks
	if level == availability.LevelCampground {
		raw = res.Resources
	}

	out := make([]availability.Child, 0, len(raw))
	for key, entry := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %d: bad child id %q: %w", level, nodeID, key, internaltypes.ErrUpstream)
		}
		status, err := decodeStatus(entry)
		if err != nil {
			return nil, fmt.Errorf("%s %d: child %d: %v: %w", level, nodeID, id, err, internaltypes.ErrUpstream)
		}
		out = append(out, availability.Child{ID: id, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// decodeStatus reads the first element of an availability entry, either a
// bare status code or an object carrying an availability field.
func decodeStatus(entry []json.RawMessage) (availability.Status, error) {
	if len(entry) == 0 {
		return 0, errors.New("empty availability entry")
	}
	var code int
	if err := json.Unmarshal(entry[0], &code); err == nil {
		return availability.Status(code), nil
	}
	var obj struct {
		Availability *int `json:"availability"`
	}
	if err := json.Unmarshal(entry[0], &obj); err != nil || obj.Availability == nil {
		return 0, fmt.Errorf("unrecognized availability entry %s", entry[0])
	}
	return availability.Status(*obj.Availability), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	err := c.get(ctx, endpoint, params, v)
	c.metrics.ObserveUpstream(endpoint, err)
	return err
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, v any) error {
	status, body, err := c.do(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%s http %d: %w", endpoint, status, internaltypes.ErrUpstream)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%s parse: %v: %w", endpoint, err, internaltypes.ErrUpstream)
	}
	return nil
}

func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	u := c.BaseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %v: %w", endpoint, err, internaltypes.ErrUpstream)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s read body: %v: %w", endpoint, err, internaltypes.ErrUpstream)
	}
	return res.StatusCode, body, nil
}
