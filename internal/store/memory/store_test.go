package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

func int64p(v int64) *int64 { return &v }

func TestInsertManyAssignsSequence(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	n, err := s.InsertMany(ctx, store.ScopeUser, []tiktok.OwnedMetric{
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "a"}},
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "b"}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	got, err := s.Query(ctx, store.ScopeUser, query.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Less(t, got[0].Seq, got[1].Seq)
}

func TestScopesAreIsolated(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	_, err := s.InsertMany(ctx, store.ScopeUser, []tiktok.OwnedMetric{
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "user-post"}},
	})
	require.NoError(t, err)

	admin, err := s.Query(ctx, store.ScopeAdmin, query.Predicate{})
	require.NoError(t, err)
	require.Empty(t, admin)
	require.Equal(t, 1, s.Len(store.ScopeUser))
	require.Equal(t, 0, s.Len(store.ScopeAdmin))
}

func TestQueryAppliesPredicate(t *testing.T) {
	t.Parallel()

	s := NewStore()
	ctx := context.Background()

	_, err := s.InsertMany(ctx, store.ScopeUser, []tiktok.OwnedMetric{
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "a", Views: 10}, Owner: tiktok.User(int64p(1))},
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "b", Views: 100}, Owner: tiktok.User(int64p(1))},
		{CanonicalMetric: tiktok.CanonicalMetric{PostID: "c", Views: 100}, Owner: tiktok.User(int64p(2))},
	})
	require.NoError(t, err)

	minViews := int64(50)
	pred := query.Compile(query.Request{UserID: int64p(1), MinViews: &minViews}, query.OwnerFieldUser)

	got, err := s.Query(ctx, store.ScopeUser, pred)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "b", got[0].PostID)
}

func TestQueryEmptyStoreReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	s := NewStore()
	got, err := s.Query(context.Background(), store.ScopeUser, query.Predicate{})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestInsertManyEmptyBatch(t *testing.T) {
	t.Parallel()

	s := NewStore()
	n, err := s.InsertMany(context.Background(), store.ScopeUser, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}
