package api

import (
	"fmt"

	"github.com/socialpulse/tiktok-metrics/internal/aggregate"
	"github.com/socialpulse/tiktok-metrics/internal/apify"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// ScrapeRequest is the body of an ingestion call: scrape targets plus the
// caller's Apify token and owner id. Unset knobs fall back to the actor
// defaults in toInput.
type ScrapeRequest struct {
	ApifyToken         string   `json:"apifyToken"`
	Profiles           []string `json:"profiles"`
	SearchQueries      []string `json:"searchQueries"`
	Hashtags           []string `json:"hashtags"`
	ResultsPerPage     *int     `json:"resultsPerPage"`
	ExcludePinnedPosts *bool    `json:"excludePinnedPosts"`
	NewestPostDate     string   `json:"newestPostDate"`
	OldestPostDate     string   `json:"oldestPostDate"`
	ProfileSorting     string   `json:"profileSorting"`
	UserID             *int64   `json:"userId"`
	AdminID            *int64   `json:"adminId"`
}

func (r ScrapeRequest) validate() error {
	if r.ApifyToken == "" {
		return fmt.Errorf("apifyToken is required")
	}
	if len(r.Profiles) == 0 && len(r.SearchQueries) == 0 && len(r.Hashtags) == 0 {
		return fmt.Errorf("at least one of profiles, searchQueries or hashtags is required")
	}
	return nil
}

// toInput builds the actor input. The token and owner ids never cross into
// the upstream payload.
func (r ScrapeRequest) toInput() apify.ScrapeInput {
	input := apify.ScrapeInput{
		Profiles:           r.Profiles,
		SearchQueries:      r.SearchQueries,
		Hashtags:           r.Hashtags,
		ResultsPerPage:     100,
		ExcludePinnedPosts: true,
		NewestPostDate:     r.NewestPostDate,
		OldestPostDate:     r.OldestPostDate,
		ProfileSorting:     r.ProfileSorting,
	}
	if r.ResultsPerPage != nil && *r.ResultsPerPage > 0 {
		input.ResultsPerPage = *r.ResultsPerPage
	}
	if r.ExcludePinnedPosts != nil {
		input.ExcludePinnedPosts = *r.ExcludePinnedPosts
	}
	return input
}

// usernameFallback is the author name used when an item carries none: the
// first requested profile, if any.
func (r ScrapeRequest) usernameFallback() string {
	if len(r.Profiles) > 0 {
		return r.Profiles[0]
	}
	return ""
}

// InsertResponse reports what an ingestion call stored.
type InsertResponse struct {
	Inserted int                  `json:"inserted"`
	Data     []tiktok.OwnedMetric `json:"data"`
}

// QueryResponse carries the deduplicated result set plus its dashboard.
type QueryResponse struct {
	Items     []tiktok.OwnedMetric       `json:"items"`
	Count     int                        `json:"count"`
	Dashboard []aggregate.DashboardEntry `json:"dashboard"`
}

type errorResponse struct {
	Error string `json:"error"`
}
