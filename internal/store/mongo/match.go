package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/socialpulse/tiktok-metrics/internal/query"
)

// BuildMatch lowers a predicate into a Mongo match document. Hashtag filters
// become an $or of case-insensitive token-boundary regexes over the
// space-joined hashtag string.
func BuildMatch(pred query.Predicate) bson.M {
	match := bson.M{}

	if pred.Owner != nil {
		match[pred.Owner.Field] = pred.Owner.ID
	}

	for _, in := range pred.In {
		match[in.Field] = bson.M{"$in": in.Values}
	}

	for _, r := range pred.StringRanges {
		cond := bson.M{}
		if r.From != nil {
			cond["$gte"] = *r.From
		}
		if r.To != nil {
			cond["$lte"] = *r.To
		}
		if len(cond) > 0 {
			match[r.Field] = cond
		}
	}

	for _, r := range pred.NumberRanges {
		cond := bson.M{}
		if r.Min != nil {
			cond["$gte"] = *r.Min
		}
		if r.Max != nil {
			cond["$lte"] = *r.Max
		}
		if len(cond) > 0 {
			match[r.Field] = cond
		}
	}

	if len(pred.Hashtags) > 0 {
		ors := make([]bson.M, 0, len(pred.Hashtags))
		for _, tag := range pred.Hashtags {
			ors = append(ors, bson.M{"hashtags": primitive.Regex{
				Pattern: `(^|\s)` + regexp.QuoteMeta(tag) + `(\s|$)`,
				Options: "i",
			}})
		}
		match["$or"] = ors
	}

	return match
}
