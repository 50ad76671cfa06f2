// Package sentinelhub provides a client for the Sentinel Hub Process API.
package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNoData indicates the provider had no scene matching the request. It is
// a degradation signal, not a failure.
var ErrNoData = eris.New("sentinelhub: no data for request")

// evalscript selects the five reflectance bands the classification pipeline
// consumes, in pipeline order: blue, green, red, nir, swir1.
const evalscript = `//VERSION=3
function setup() {
  return {
    input: [{bands: ["B02", "B03", "B04", "B08", "B11"]}],
    output: {bands: 5, sampleType: "FLOAT32"}
  };
}
function evaluatePixel(s) {
  return [s.B02, s.B03, s.B04, s.B08, s.B11];
}`

// TileRequest describes one imagery request.
type TileRequest struct {
	BBox          [4]float64 // west, south, east, north (WGS84)
	Width         int
	Height        int
	TimeFrom      time.Time
	TimeTo        time.Time
	MaxCloudCover float64
}

// Client defines the imagery provider operations.
type Client interface {
	// FetchTile requests a most-recent mosaic as a multi-band float GeoTIFF.
	FetchTile(ctx context.Context, req TileRequest) ([]byte, error)
}

// Option configures the Sentinel Hub client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithTokenURL sets a custom OAuth token URL (for testing).
func WithTokenURL(u string) Option {
	return func(c *httpClient) {
		c.tokenURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter sets the request rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	http         *http.Client
	limiter      *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Sentinel Hub client. Credentials are passed explicitly
// so the pipeline stays testable without live network access.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      "https://services.sentinel-hub.com",
		tokenURL:     "https://services.sentinel-hub.com/oauth/token",
		limiter:      rate.NewLimiter(2, 2),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// accessToken returns a cached OAuth token, refreshing it when expired.
func (c *httpClient) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "sentinelhub: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "sentinelhub: token request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "sentinelhub: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("sentinelhub: token status %d: %s", resp.StatusCode, string(body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", eris.Wrap(err, "sentinelhub: unmarshal token response")
	}
	if tok.AccessToken == "" {
		return "", eris.New("sentinelhub: empty access token")
	}

	c.token = tok.AccessToken
	// Refresh one minute early.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

// processRequest is the Process API request body.
type processRequest struct {
	Input  processInput  `json:"input"`
	Output processOutput `json:"output"`
	Script string        `json:"evalscript"`
}

type processInput struct {
	Bounds processBounds `json:"bounds"`
	Data   []processData `json:"data"`
}

type processBounds struct {
	BBox       [4]float64        `json:"bbox"`
	Properties map[string]string `json:"properties"`
}

type processData struct {
	Type       string        `json:"type"`
	DataFilter processFilter `json:"dataFilter"`
}

type processFilter struct {
	TimeRange       processTimeRange `json:"timeRange"`
	MosaickingOrder string           `json:"mosaickingOrder"`
	MaxCloudCover   float64          `json:"maxCloudCoverage"`
}

type processTimeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type processOutput struct {
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Responses []processResponse `json:"responses"`
}

type processResponse struct {
	Identifier string        `json:"identifier"`
	Format     processFormat `json:"format"`
}

type processFormat struct {
	Type string `json:"type"`
}

func (c *httpClient) FetchTile(ctx context.Context, req TileRequest) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "sentinelhub: rate limit wait")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := processRequest{
		Input: processInput{
			Bounds: processBounds{
				BBox:       req.BBox,
				Properties: map[string]string{"crs": "http://www.opengis.net/def/crs/EPSG/0/4326"},
			},
			Data: []processData{{
				Type: "sentinel-2-l2a",
				DataFilter: processFilter{
					TimeRange: processTimeRange{
						From: req.TimeFrom.UTC().Format(time.RFC3339),
						To:   req.TimeTo.UTC().Format(time.RFC3339),
					},
					MosaickingOrder: "mostRecent",
					MaxCloudCover:   req.MaxCloudCover,
				},
			}},
		},
		Output: processOutput{
			Width:  req.Width,
			Height: req.Height,
			Responses: []processResponse{{
				Identifier: "default",
				Format:     processFormat{Type: "image/tiff"},
			}},
		},
		Script: evalscript,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "sentinelhub: marshal process request")
	}

	data, statusCode, err := c.retryDo(ctx, fmt.Sprintf("%s/api/v1/process", c.baseURL), token, payload)
	if err != nil {
		return nil, eris.Wrap(err, "sentinelhub: process request failed")
	}

	switch {
	case statusCode == http.StatusOK && len(data) > 0:
		return data, nil
	case statusCode == http.StatusOK || statusCode == http.StatusNotFound:
		return nil, ErrNoData
	default:
		return nil, eris.Errorf("sentinelhub: unexpected status %d: %s", statusCode, truncate(data, 200))
	}
}

// retryableStatusCode returns true if the HTTP status should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo posts the payload with exponential backoff retries on transient
// failures (429, 500, 502, 503).
func (c *httpClient) retryDo(ctx context.Context, reqURL, token string, payload []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, 0, eris.Wrap(err, "sentinelhub: create process request")
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "image/tiff")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "sentinelhub: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("sentinelhub: status %d: %s", resp.StatusCode, truncate(body, 200))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
