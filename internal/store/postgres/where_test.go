package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/socialpulse/tiktok-metrics/internal/query"
)

func TestBuildWhereEmptyPredicate(t *testing.T) {
	t.Parallel()

	where, args := buildWhere(query.Predicate{})
	require.Empty(t, where)
	require.Empty(t, args)
}

func TestBuildWhereOwner(t *testing.T) {
	t.Parallel()

	where, args := buildWhere(query.Predicate{
		Owner: &query.OwnerEquals{Field: query.OwnerFieldUser, ID: 7},
	})
	require.Equal(t, " WHERE owner_id = $1", where)
	require.Equal(t, []any{int64(7)}, args)
}

func TestBuildWhereInSet(t *testing.T) {
	t.Parallel()

	where, args := buildWhere(query.Predicate{
		In: []query.InSet{{Field: query.FieldPostID, Values: []string{"a", "b"}}},
	})
	require.Equal(t, " WHERE post_id = ANY($1)", where)
	require.Equal(t, []any{[]string{"a", "b"}}, args)
}

func TestBuildWhereRanges(t *testing.T) {
	t.Parallel()

	from := "2024-05-01"
	minViews := 100.0
	where, args := buildWhere(query.Predicate{
		StringRanges: []query.StringRange{{Field: query.FieldDatePosted, From: &from}},
		NumberRanges: []query.NumberRange{{Field: query.FieldViews, Min: &minViews}},
	})
	require.Equal(t, " WHERE date_posted >= $1 AND views >= $2", where)
	require.Equal(t, []any{"2024-05-01", 100.0}, args)
}

func TestBuildWhereHashtags(t *testing.T) {
	t.Parallel()

	where, args := buildWhere(query.Predicate{Hashtags: []string{"#ai", "#ml"}})
	require.Equal(t, " WHERE (hashtags ~* $1 OR hashtags ~* $2)", where)
	require.Equal(t, []any{`(^|\s)#ai(\s|$)`, `(^|\s)#ml(\s|$)`}, args)
}

func TestBuildWhereSkipsUnknownFields(t *testing.T) {
	t.Parallel()

	where, args := buildWhere(query.Predicate{
		In: []query.InSet{{Field: "mystery", Values: []string{"x"}}},
	})
	require.Empty(t, where)
	require.Empty(t, args)
}
