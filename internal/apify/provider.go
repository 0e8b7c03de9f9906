// Package apify talks to the Apify actor API that runs the TikTok scrape and
// exposes the resulting dataset as raw items.
package apify

import (
	"context"
	"fmt"

	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// ScrapeInput is the actor input forwarded upstream. Owner ids and the API
// token never appear here; they are stripped before dispatch.
type ScrapeInput struct {
	Profiles           []string `json:"profiles,omitempty"`
	SearchQueries      []string `json:"searchQueries,omitempty"`
	Hashtags           []string `json:"hashtags,omitempty"`
	ResultsPerPage     int      `json:"resultsPerPage,omitempty"`
	ExcludePinnedPosts bool     `json:"excludePinnedPosts"`
	NewestPostDate     string   `json:"newestPostDate,omitempty"`
	OldestPostDate     string   `json:"oldestPostDate,omitempty"`
	ProfileSorting     string   `json:"profileSorting,omitempty"`
}

// Provider runs a scrape and returns the dataset items. Implementations block
// for the duration of the remote run.
type Provider interface {
	FetchDataset(ctx context.Context, token string, input ScrapeInput) ([]tiktok.RawItem, error)
}

// UpstreamError marks a failed provider call or a run without a usable
// dataset handle. It is surfaced to the caller whole, distinct from a
// successful-but-empty result.
type UpstreamError struct {
	Reason string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("apify: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("apify: %s", e.Reason)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
