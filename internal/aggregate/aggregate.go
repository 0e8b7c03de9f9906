// Package aggregate implements the read-side collapsing and ranking applied to
// canonical metric records: latest-wins dedup, per-hashtag leaderboards, and
// dashboard totals.
package aggregate

import (
	"math"
	"sort"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// TopN is the leaderboard size per requested hashtag.
const TopN = 5

// DedupLatest collapses records sharing a postId to the most recently inserted
// one and orders the result by datePosted descending, then hourPosted
// descending. Both are fixed-width strings, so plain lexical comparison is
// chronological; the N/A sentinel compares as an ordinary string, exactly as
// the stored form sorts.
func DedupLatest(records []store.StoredMetric) []tiktok.OwnedMetric {
	latest := make(map[string]store.StoredMetric, len(records))
	for _, rec := range records {
		prev, seen := latest[rec.PostID]
		if !seen || rec.Seq >= prev.Seq {
			latest[rec.PostID] = rec
		}
	}

	out := make([]tiktok.OwnedMetric, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec.OwnedMetric)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DatePosted != out[j].DatePosted {
			return out[i].DatePosted > out[j].DatePosted
		}
		return out[i].HourPosted > out[j].HourPosted
	})
	return out
}

// TopPerHashtag builds leaderboard blocks for the requested tags, in request
// order: for each tag the records matching it (token-boundary) that no earlier
// tag already claimed, sorted by views descending, truncated to n. PostIds are
// marked used across the whole call, so a record never appears twice even when
// it matches several requested tags. With no tags the entire batch is returned
// sorted by views descending.
func TopPerHashtag(metrics []tiktok.OwnedMetric, tags []string, n int) []tiktok.OwnedMetric {
	if len(tags) == 0 {
		all := make([]tiktok.OwnedMetric, len(metrics))
		copy(all, metrics)
		sort.SliceStable(all, func(i, j int) bool { return all[i].Views > all[j].Views })
		return all
	}

	used := make(map[string]bool)
	ordered := make([]tiktok.OwnedMetric, 0, n*len(tags))
	for _, tag := range tags {
		norm := query.NormalizeTag(tag)
		var subset []tiktok.OwnedMetric
		for _, m := range metrics {
			if used[m.PostID] {
				continue
			}
			if query.HasAnyTag(m.Hashtags, []string{norm}) {
				subset = append(subset, m)
			}
		}
		sort.SliceStable(subset, func(i, j int) bool { return subset[i].Views > subset[j].Views })
		if len(subset) > n {
			subset = subset[:n]
		}
		ordered = append(ordered, subset...)
		for _, m := range subset {
			if m.PostID != "" {
				used[m.PostID] = true
			}
		}
	}
	return ordered
}

// DashboardEntry is one summary block of a query response.
type DashboardEntry struct {
	Metric            string  `json:"metric"`
	TotalPosts        int     `json:"totalPosts"`
	TotalViews        int64   `json:"totalViews"`
	TotalLikes        int64   `json:"totalLikes"`
	TotalComments     int64   `json:"totalComments"`
	TotalInteractions int64   `json:"totalInteractions"`
	AvgEngagement     float64 `json:"avgEngagement"`
}

// Dashboard derives summary statistics from a result list. An empty list
// yields an empty dashboard, not a zeroed entry.
func Dashboard(items []tiktok.OwnedMetric) []DashboardEntry {
	dash := make([]DashboardEntry, 0, 1)
	if len(items) == 0 {
		return dash
	}

	entry := DashboardEntry{Metric: "totals", TotalPosts: len(items)}
	var engagementSum float64
	for _, m := range items {
		entry.TotalViews += m.Views
		entry.TotalLikes += m.Likes
		entry.TotalComments += m.Comments
		entry.TotalInteractions += m.TotalInteractions
		engagementSum += m.Engagement
	}
	entry.AvgEngagement = round4(engagementSum / float64(len(items)))
	return append(dash, entry)
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
