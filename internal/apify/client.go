package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/socialpulse/tiktok-metrics/internal/obs"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// DefaultActor is the actor id of the TikTok scraper, in Apify URL form.
const DefaultActor = "clockworks~free-tiktok-scraper"

// Config controls the HTTP client behavior.
type Config struct {
	// BaseURL of the Apify API, e.g. https://api.apify.com.
	BaseURL string
	// Actor overrides DefaultActor when set.
	Actor string
	// Timeout bounds each HTTP call, including the run wait.
	Timeout time.Duration
	// WaitSeconds is how long the API should block for the run to finish.
	WaitSeconds int
}

// Client is the HTTP Provider implementation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	actor      string
	waitSecs   int
	logger     *zap.Logger
}

// NewClient builds a Client from config. A zero timeout defaults to five
// minutes since a scrape run can legitimately take that long.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.apify.com"
	}
	if cfg.Actor == "" {
		cfg.Actor = DefaultActor
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.WaitSeconds <= 0 {
		cfg.WaitSeconds = 300
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		actor:      cfg.Actor,
		waitSecs:   cfg.WaitSeconds,
		logger:     logger,
	}
}

type runEnvelope struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// FetchDataset starts an actor run, waits for it, and reads the default
// dataset items. Any failure, including a run response without a dataset id,
// is an *UpstreamError.
func (c *Client) FetchDataset(ctx context.Context, token string, input ScrapeInput) ([]tiktok.RawItem, error) {
	start := time.Now()
	items, err := c.fetchDataset(ctx, token, input)
	status := "ok"
	if err != nil {
		status = "error"
	}
	obs.ObserveUpstream(status, time.Since(start))
	return items, err
}

func (c *Client) fetchDataset(ctx context.Context, token string, input ScrapeInput) ([]tiktok.RawItem, error) {
	run, err := c.startRun(ctx, token, input)
	if err != nil {
		return nil, err
	}
	if run.Data.DefaultDatasetID == "" {
		return nil, &UpstreamError{Reason: "datasetId not found on the Apify response"}
	}
	c.logger.Debug("actor run finished",
		zap.String("run_id", run.Data.ID),
		zap.String("status", run.Data.Status),
		zap.String("dataset_id", run.Data.DefaultDatasetID),
	)
	return c.datasetItems(ctx, token, run.Data.DefaultDatasetID)
}

func (c *Client) startRun(ctx context.Context, token string, input ScrapeInput) (*runEnvelope, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &UpstreamError{Reason: "encode actor input", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?%s", c.baseURL, c.actor, url.Values{
		"token":         {token},
		"waitForFinish": {strconv.Itoa(c.waitSecs)},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &UpstreamError{Reason: "build run request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Reason: "start actor run", Err: err}
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Reason: fmt.Sprintf("actor run returned status %d", resp.StatusCode)}
	}

	var run runEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return nil, &UpstreamError{Reason: "decode run response", Err: err}
	}
	return &run, nil
}

func (c *Client) datasetItems(ctx context.Context, token, datasetID string) ([]tiktok.RawItem, error) {
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?%s", c.baseURL, url.PathEscape(datasetID), url.Values{
		"token":  {token},
		"format": {"json"},
		"clean":  {"true"},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &UpstreamError{Reason: "build dataset request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Reason: "fetch dataset items", Err: err}
	}
	defer closeBody(resp.Body, c.logger)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Reason: fmt.Sprintf("dataset fetch returned status %d", resp.StatusCode)}
	}

	// UseNumber keeps long post ids exact instead of rounding through float64.
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var items []tiktok.RawItem
	if err := dec.Decode(&items); err != nil {
		return nil, &UpstreamError{Reason: "decode dataset items", Err: err}
	}
	return items, nil
}

func closeBody(body io.ReadCloser, logger *zap.Logger) {
	if err := body.Close(); err != nil {
		logger.Warn("close response body failed", zap.Error(err))
	}
}
