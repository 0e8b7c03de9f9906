// Package query compiles sparse filter requests into storage-agnostic
// predicates over canonical metric fields. Each store backend lowers a
// Predicate into its own query language; the in-memory evaluator in this
// package is the reference semantics.
package query

import "strings"

// Request is the sparse filter a query endpoint accepts. Every field is
// optional; an empty request matches every record in the owner scope.
type Request struct {
	UserID  *int64 `json:"userId"`
	AdminID *int64 `json:"adminId"`

	// CSV membership filters. OR within a field, AND across fields.
	PostID          string `json:"postId"`
	PostURL         string `json:"postURL"`
	TiktokUsernames string `json:"tiktokUsernames"`
	RegionPost      string `json:"regionPost"`
	SoundID         string `json:"soundId"`
	SoundURL        string `json:"soundURL"`

	// CSV hashtag filter, token-boundary matched, '#' optional.
	Hashtags string `json:"hashtags"`

	// Inclusive bounds. datePosted compares lexically; the fixed-width
	// YYYY-MM-DD format makes that chronological.
	DatePostedFrom string `json:"datePostedFrom"`
	DatePostedTo   string `json:"datePostedTo"`

	MinViews             *int64   `json:"minViews"`
	MaxViews             *int64   `json:"maxViews"`
	MinLikes             *int64   `json:"minLikes"`
	MaxLikes             *int64   `json:"maxLikes"`
	MinTotalInteractions *int64   `json:"minTotalInteractions"`
	MaxTotalInteractions *int64   `json:"maxTotalInteractions"`
	MinEngagement        *float64 `json:"minEngagement"`
	MaxEngagement        *float64 `json:"maxEngagement"`
}

// Canonical field names predicates refer to.
const (
	FieldPostID            = "postId"
	FieldPostURL           = "postURL"
	FieldUsername          = "usernameTiktokAccount"
	FieldRegionPost        = "regionPost"
	FieldSoundID           = "soundId"
	FieldSoundURL          = "soundURL"
	FieldDatePosted        = "datePosted"
	FieldViews             = "views"
	FieldLikes             = "likes"
	FieldTotalInteractions = "totalInteractions"
	FieldEngagement        = "engagement"

	// Owner field names, matching the stored document shape.
	OwnerFieldUser  = "userId"
	OwnerFieldAdmin = "adminId"
)

// OwnerEquals requires exact equality on the scope's owner field.
type OwnerEquals struct {
	Field string
	ID    int64
}

// InSet requires the field value to be one of Values.
type InSet struct {
	Field  string
	Values []string
}

// StringRange bounds a lexically ordered string field inclusively.
type StringRange struct {
	Field string
	From  *string
	To    *string
}

// NumberRange bounds a numeric field inclusively.
type NumberRange struct {
	Field string
	Min   *float64
	Max   *float64
}

// Predicate is the compiled conjunctive filter. Zero-valued members impose no
// constraint.
type Predicate struct {
	Owner        *OwnerEquals
	In           []InSet
	StringRanges []StringRange
	NumberRanges []NumberRange

	// Hashtags holds normalized (lowercased, '#'-prefixed) tags combined
	// with OR; a record matches when its hashtag string contains any tag as
	// a whole space-delimited token.
	Hashtags []string
}

// Compile builds the predicate for a request scoped to the given owner field
// (OwnerFieldUser or OwnerFieldAdmin).
func Compile(req Request, ownerField string) Predicate {
	var p Predicate

	switch ownerField {
	case OwnerFieldUser:
		if req.UserID != nil {
			p.Owner = &OwnerEquals{Field: OwnerFieldUser, ID: *req.UserID}
		}
	case OwnerFieldAdmin:
		if req.AdminID != nil {
			p.Owner = &OwnerEquals{Field: OwnerFieldAdmin, ID: *req.AdminID}
		}
	}

	addIn := func(field, csv string) {
		if vals := SplitCSV(csv); len(vals) > 0 {
			p.In = append(p.In, InSet{Field: field, Values: vals})
		}
	}
	addIn(FieldPostID, req.PostID)
	addIn(FieldPostURL, req.PostURL)
	addIn(FieldUsername, req.TiktokUsernames)
	addIn(FieldRegionPost, req.RegionPost)
	addIn(FieldSoundID, req.SoundID)
	addIn(FieldSoundURL, req.SoundURL)

	if req.DatePostedFrom != "" || req.DatePostedTo != "" {
		r := StringRange{Field: FieldDatePosted}
		if req.DatePostedFrom != "" {
			r.From = &req.DatePostedFrom
		}
		if req.DatePostedTo != "" {
			r.To = &req.DatePostedTo
		}
		p.StringRanges = append(p.StringRanges, r)
	}

	addRange := func(field string, min, max *float64) {
		if min != nil || max != nil {
			p.NumberRanges = append(p.NumberRanges, NumberRange{Field: field, Min: min, Max: max})
		}
	}
	addRange(FieldViews, intBound(req.MinViews), intBound(req.MaxViews))
	addRange(FieldLikes, intBound(req.MinLikes), intBound(req.MaxLikes))
	addRange(FieldTotalInteractions, intBound(req.MinTotalInteractions), intBound(req.MaxTotalInteractions))
	addRange(FieldEngagement, req.MinEngagement, req.MaxEngagement)

	for _, tag := range SplitCSV(req.Hashtags) {
		p.Hashtags = append(p.Hashtags, NormalizeTag(tag))
	}

	return p
}

// SplitCSV splits a comma-separated string into trimmed, non-empty parts.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NormalizeTag lowercases a hashtag and ensures the leading '#'.
func NormalizeTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

func intBound(v *int64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
