// Package tiktok defines the canonical metrics record and the normalization
// pipeline that turns raw scraped items into it.
package tiktok

import "time"

// NA is the sentinel used for every string field with no resolvable source value.
const NA = "N/A"

// CanonicalMetric is the single structured entity the service stores and serves.
// A record is created once at ingestion time and never mutated; re-scraping the
// same post produces a new record.
type CanonicalMetric struct {
	PostID                string  `json:"postId" bson:"postId"`
	DatePosted            string  `json:"datePosted" bson:"datePosted"`
	HourPosted            string  `json:"hourPosted" bson:"hourPosted"`
	UsernameTiktokAccount string  `json:"usernameTiktokAccount" bson:"usernameTiktokAccount"`
	PostURL               string  `json:"postURL" bson:"postURL"`
	Views                 int64   `json:"views" bson:"views"`
	Likes                 int64   `json:"likes" bson:"likes"`
	Comments              int64   `json:"comments" bson:"comments"`
	Saves                 int64   `json:"saves" bson:"saves"`
	Reposts               int64   `json:"reposts" bson:"reposts"`
	TotalInteractions     int64   `json:"totalInteractions" bson:"totalInteractions"`
	Engagement            float64 `json:"engagement" bson:"engagement"`
	NumberHashtags        int     `json:"numberHashtags" bson:"numberHashtags"`
	Hashtags              string  `json:"hashtags" bson:"hashtags"`
	SoundID               string  `json:"soundId" bson:"soundId"`
	SoundURL              string  `json:"soundURL" bson:"soundURL"`
	RegionPost            string  `json:"regionPost" bson:"regionPost"`
	DateTracking          string  `json:"dateTracking" bson:"dateTracking"`
	TimeTracking          string  `json:"timeTracking" bson:"timeTracking"`
}

// Clock abstracts wall-clock time so tracking timestamps are testable.
type Clock interface {
	Now() time.Time
}
