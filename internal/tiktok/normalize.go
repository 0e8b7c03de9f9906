package tiktok

import (
	"math"
	"strings"
	"time"
)

// Normalizer converts raw scraped items into canonical records. It is pure:
// every field has a defined fallback and no input can make it fail.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer builds a Normalizer that renders post and tracking timestamps
// in the given reference timezone. A nil location falls back to UTC.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the reference timezone the normalizer renders times in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize maps one raw item to a canonical record. usernameFallback is used
// when the item carries no author name; now supplies the tracking timestamp,
// the one value legitimately derived from wall-clock time.
func (n *Normalizer) Normalize(item RawItem, usernameFallback string, now time.Time) CanonicalMetric {
	postID := blankToNA(item.stringField("id"))

	// Post date/time come from the item or stay unset; they are never
	// synthesized from the current time.
	datePosted, hourPosted := NA, NA
	if t, ok := n.postTime(item); ok {
		datePosted = t.Format("2006-01-02")
		hourPosted = t.Format("15:04:05")
	}

	author := item.sub("authorMeta")
	username := blankToNA(firstNonEmpty(
		author.stringField("name"),
		item.stringField("input"),
		usernameFallback,
	))

	views := item.intField("playCount")
	likes := item.intField("diggCount")
	comments := item.intField("commentCount")
	saves := item.intField("collectCount")
	reposts := item.intField("shareCount")
	total := likes + comments + saves + reposts

	engagement := 0.0
	if views > 0 {
		engagement = round(float64(total)/float64(views), 6)
	}

	// numberHashtags counts raw entries, which can exceed the tags actually
	// joined when an entry lacks a usable name.
	rawTags := item.listField("hashtags")

	music := item.sub("musicMeta")

	tracked := now.In(n.loc)

	return CanonicalMetric{
		PostID:                postID,
		DatePosted:            datePosted,
		HourPosted:            hourPosted,
		UsernameTiktokAccount: username,
		PostURL:               blankToNA(item.stringField("webVideoUrl")),
		Views:                 views,
		Likes:                 likes,
		Comments:              comments,
		Saves:                 saves,
		Reposts:               reposts,
		TotalInteractions:     total,
		Engagement:            engagement,
		NumberHashtags:        len(rawTags),
		Hashtags:              joinHashtags(rawTags),
		SoundID:               blankToNA(music.stringField("musicId")),
		SoundURL:              blankToNA(music.stringField("playUrl")),
		RegionPost:            NA,
		DateTracking:          tracked.Format("2006-01-02"),
		TimeTracking:          tracked.Format("15:04:05"),
	}
}

// postTime resolves the post timestamp: ISO string first, epoch seconds next,
// unset otherwise. A parse failure at either step falls through to the next
// source.
func (n *Normalizer) postTime(item RawItem) (time.Time, bool) {
	if iso := item.stringField("createTimeISO"); iso != "" {
		if t, err := time.Parse(time.RFC3339, iso); err == nil {
			return t.In(n.loc), true
		}
		// Offset-less timestamps are read as UTC.
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", iso, time.UTC); err == nil {
			return t.In(n.loc), true
		}
	}
	if epoch, ok := coerceInt(item["createTime"]); ok && epoch != 0 {
		return time.Unix(epoch, 0).UTC().In(n.loc), true
	}
	return time.Time{}, false
}

// joinHashtags space-joins the usable tag names, prefixing each with '#' when
// missing. Entries without a non-blank name are skipped.
func joinHashtags(raw []any) string {
	var tags []string
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name, ok := m["name"].(string)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		if !strings.HasPrefix(name, "#") {
			name = "#" + name
		}
		tags = append(tags, name)
	}
	if len(tags) == 0 {
		return NA
	}
	return strings.Join(tags, " ")
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}
