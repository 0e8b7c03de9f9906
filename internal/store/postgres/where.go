package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/socialpulse/tiktok-metrics/internal/query"
)

// columnFor maps canonical field names to table columns. Unknown fields map
// to "" and are skipped, which keeps the lowering total.
func columnFor(field string) string {
	switch field {
	case query.FieldPostID:
		return "post_id"
	case query.FieldPostURL:
		return "post_url"
	case query.FieldUsername:
		return "username_tiktok_account"
	case query.FieldRegionPost:
		return "region_post"
	case query.FieldSoundID:
		return "sound_id"
	case query.FieldSoundURL:
		return "sound_url"
	case query.FieldDatePosted:
		return "date_posted"
	case query.FieldViews:
		return "views"
	case query.FieldLikes:
		return "likes"
	case query.FieldTotalInteractions:
		return "total_interactions"
	case query.FieldEngagement:
		return "engagement"
	default:
		return ""
	}
}

// buildWhere lowers a predicate into a WHERE clause with positional args.
// Hashtags become an OR of case-insensitive POSIX token-boundary regexes,
// matching the reference evaluator.
func buildWhere(pred query.Predicate) (string, []any) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if pred.Owner != nil {
		conds = append(conds, "owner_id = "+next(pred.Owner.ID))
	}

	for _, in := range pred.In {
		col := columnFor(in.Field)
		if col == "" {
			continue
		}
		conds = append(conds, col+" = ANY("+next(in.Values)+")")
	}

	for _, r := range pred.StringRanges {
		col := columnFor(r.Field)
		if col == "" {
			continue
		}
		if r.From != nil {
			conds = append(conds, col+" >= "+next(*r.From))
		}
		if r.To != nil {
			conds = append(conds, col+" <= "+next(*r.To))
		}
	}

	for _, r := range pred.NumberRanges {
		col := columnFor(r.Field)
		if col == "" {
			continue
		}
		if r.Min != nil {
			conds = append(conds, col+" >= "+next(*r.Min))
		}
		if r.Max != nil {
			conds = append(conds, col+" <= "+next(*r.Max))
		}
	}

	if len(pred.Hashtags) > 0 {
		ors := make([]string, 0, len(pred.Hashtags))
		for _, tag := range pred.Hashtags {
			pattern := `(^|\s)` + regexp.QuoteMeta(tag) + `(\s|$)`
			ors = append(ors, "hashtags ~* "+next(pattern))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
