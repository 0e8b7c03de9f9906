package query

import (
	"strings"

	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// Matches evaluates the predicate against one owned record. This is the
// reference implementation the memory store uses directly and the database
// lowerings must agree with.
func (p Predicate) Matches(m tiktok.OwnedMetric) bool {
	if p.Owner != nil && !ownerMatches(*p.Owner, m.Owner) {
		return false
	}
	for _, in := range p.In {
		if !contains(in.Values, stringField(m.CanonicalMetric, in.Field)) {
			return false
		}
	}
	for _, r := range p.StringRanges {
		v := stringField(m.CanonicalMetric, r.Field)
		if r.From != nil && v < *r.From {
			return false
		}
		if r.To != nil && v > *r.To {
			return false
		}
	}
	for _, r := range p.NumberRanges {
		v := numberField(m.CanonicalMetric, r.Field)
		if r.Min != nil && v < *r.Min {
			return false
		}
		if r.Max != nil && v > *r.Max {
			return false
		}
	}
	if len(p.Hashtags) > 0 && !HasAnyTag(m.Hashtags, p.Hashtags) {
		return false
	}
	return true
}

// HasAnyTag reports whether the space-joined hashtag string contains any of
// the normalized tags as a whole token. "#growth" matches "#ai #growth" but
// "#grow" does not.
func HasAnyTag(hashtags string, tags []string) bool {
	for _, token := range strings.Fields(hashtags) {
		for _, tag := range tags {
			if strings.EqualFold(token, tag) {
				return true
			}
		}
	}
	return false
}

func ownerMatches(cond OwnerEquals, owner tiktok.Owner) bool {
	if owner.ID == nil || *owner.ID != cond.ID {
		return false
	}
	switch cond.Field {
	case OwnerFieldUser:
		return owner.Kind == tiktok.OwnerUser
	case OwnerFieldAdmin:
		return owner.Kind == tiktok.OwnerAdmin
	default:
		return false
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func stringField(m tiktok.CanonicalMetric, field string) string {
	switch field {
	case FieldPostID:
		return m.PostID
	case FieldPostURL:
		return m.PostURL
	case FieldUsername:
		return m.UsernameTiktokAccount
	case FieldRegionPost:
		return m.RegionPost
	case FieldSoundID:
		return m.SoundID
	case FieldSoundURL:
		return m.SoundURL
	case FieldDatePosted:
		return m.DatePosted
	default:
		return ""
	}
}

func numberField(m tiktok.CanonicalMetric, field string) float64 {
	switch field {
	case FieldViews:
		return float64(m.Views)
	case FieldLikes:
		return float64(m.Likes)
	case FieldTotalInteractions:
		return float64(m.TotalInteractions)
	case FieldEngagement:
		return m.Engagement
	default:
		return 0
	}
}
