package worldbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/climatelabs/carbontracker/internal/metrics"
)

const (
	// DefaultPerPage is large enough to fetch the full indicator series in
	// a single page.
	DefaultPerPage = 20000

	defaultBaseURL = "https://api.worldbank.org/v2"
)

// ErrMalformedEnvelope reports a response body that does not follow the
// two-element [metadata, observations] array the v2 API returns.
var ErrMalformedEnvelope = errors.New("malformed response envelope")

// HTTPClient defines the interface for HTTP operations
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	BaseURL    string
	HTTPClient HTTPClient
	log        *slog.Logger
}

// Ref is the API's {id, value} pair used for indicator and country fields.
type Ref struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// NullFloat decodes the API's nullable numeric values, which arrive as JSON
// null, a number, or a quoted number. NaN and infinities are treated as
// missing.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

func (f *NullFloat) UnmarshalJSON(data []byte) error {
	f.Float64, f.Valid = 0, false

	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			// Non-numeric strings are treated as missing values.
			return nil
		}
		f.set(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.set(v)
	return nil
}

func (f *NullFloat) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	f.Float64, f.Valid = v, true
}

// FlexInt tolerates metadata fields that the API emits as either numbers or
// quoted numbers, depending on the database queried.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	*n = 0
	var v int
	if err := json.Unmarshal(data, &v); err == nil {
		*n = FlexInt(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		*n = FlexInt(parsed)
	}
	return nil
}

type PageInfo struct {
	Page    FlexInt `json:"page"`
	Pages   FlexInt `json:"pages"`
	PerPage FlexInt `json:"per_page"`
	Total   FlexInt `json:"total"`
}

type Observation struct {
	Indicator   Ref       `json:"indicator"`
	Country     Ref       `json:"country"`
	CountryISO3 string    `json:"countryiso3code"`
	Date        string    `json:"date"`
	Value       NullFloat `json:"value"`
	Unit        string    `json:"unit"`
	ObsStatus   string    `json:"obs_status"`
	Decimal     int       `json:"decimal"`
}

type ObservationsQuery struct {
	Indicator string
	Source    int
	PerPage   int
}

type ObservationsPage struct {
	Page         PageInfo
	Observations []Observation
}

type ClientConfig struct {
	BaseURL    string
	HTTPClient HTTPClient
}

func NewClient(logger *slog.Logger) *Client {
	return NewClientWithConfig(logger, ClientConfig{})
}

func NewClientWithConfig(logger *slog.Logger, config ClientConfig) *Client {
	// Set defaults if not provided
	if config.BaseURL == "" {
		config.BaseURL = os.Getenv("WORLDBANK_API_URL")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Client{
		BaseURL:    config.BaseURL,
		HTTPClient: config.HTTPClient,
		log:        logger,
	}
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "CarbonTracker/1.0")
	req.Header.Set("Accept", "application/json")
}

func (c *Client) makeRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	url := c.BaseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setCommonHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		metrics.SourceRequestErrorsTotal.WithLabelValues("http_request").Inc()
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		metrics.SourceRequestErrorsTotal.WithLabelValues("http_status").Inc()
		return nil, fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	return resp, nil
}

// GetObservations fetches a single page of indicator observations. The
// caller is expected to size PerPage so the series fits in one page; when the
// API reports more pages only the first is used and a warning is logged.
func (c *Client) GetObservations(ctx context.Context, query ObservationsQuery) (*ObservationsPage, error) {
	if query.Indicator == "" {
		return nil, errors.New("indicator is required")
	}
	if query.PerPage <= 0 {
		query.PerPage = DefaultPerPage
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("per_page", strconv.Itoa(query.PerPage))
	if query.Source > 0 {
		params.Set("source", strconv.Itoa(query.Source))
	}
	endpoint := fmt.Sprintf("/country/all/indicator/%s?%s", url.PathEscape(query.Indicator), params.Encode())

	resp, err := c.makeRequest(ctx, endpoint)
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues("get_observations", "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	page, err := decodeObservationsPage(resp.Body)
	if err != nil {
		metrics.SourceRequestsTotal.WithLabelValues("get_observations", "error").Inc()
		metrics.SourceRequestErrorsTotal.WithLabelValues("decode").Inc()
		return nil, err
	}
	metrics.SourceRequestsTotal.WithLabelValues("get_observations", "ok").Inc()

	if page.Page.Pages > 1 {
		c.log.Warn("Source reports more pages than fetched; only the first page is used",
			slog.Int("pages", int(page.Page.Pages)),
			slog.Int("total", int(page.Page.Total)),
			slog.Int("per_page", query.PerPage))
	}

	c.log.Debug("Fetched observations",
		slog.String("indicator", query.Indicator),
		slog.Int("count", len(page.Observations)))

	return page, nil
}

func decodeObservationsPage(r io.Reader) (*ObservationsPage, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: response is not a JSON array: %v", ErrMalformedEnvelope, err)
	}
	if len(envelope) < 2 {
		// The API signals request errors as a one-element array holding a
		// message object.
		return nil, fmt.Errorf("%w: expected metadata and observation sections, got %d", ErrMalformedEnvelope, len(envelope))
	}

	var page ObservationsPage
	// Metadata decode failures are tolerated; the section is advisory.
	_ = json.Unmarshal(envelope[0], &page.Page)

	if err := json.Unmarshal(envelope[1], &page.Observations); err != nil {
		return nil, fmt.Errorf("%w: decoding observations: %v", ErrMalformedEnvelope, err)
	}

	return &page, nil
}
