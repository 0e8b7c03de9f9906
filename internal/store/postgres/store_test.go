package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

func int64p(v int64) *int64 { return &v }

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewStoreWithPool(mock, "", "")
	require.NoError(t, err)
	return s, mock
}

func sampleMetric(id string) tiktok.OwnedMetric {
	return tiktok.OwnedMetric{
		CanonicalMetric: tiktok.CanonicalMetric{
			PostID:                id,
			DatePosted:            "2024-05-01",
			HourPosted:            "12:30:00",
			UsernameTiktokAccount: "creator",
			PostURL:               "https://example.com/" + id,
			Views:                 1000,
			Likes:                 50,
			Comments:              10,
			Saves:                 5,
			Reposts:               5,
			TotalInteractions:     70,
			Engagement:            0.07,
			NumberHashtags:        1,
			Hashtags:              "#ai",
			SoundID:               "9",
			SoundURL:              "https://example.com/sound",
			RegionPost:            tiktok.NA,
			DateTracking:          "2026-01-01",
			TimeTracking:          "10:00:00",
		},
		Owner: tiktok.User(int64p(7)),
	}
}

func TestNewStoreWithPoolValidatesTables(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	_, err = NewStoreWithPool(mock, "user_metrics; DROP TABLE x", "")
	require.Error(t, err)

	s, err := NewStoreWithPool(mock, "", "")
	require.NoError(t, err)
	require.Equal(t, "user_tiktok_metrics", s.userTable)
	require.Equal(t, "admin_tiktok_metrics", s.adminTable)
}

func TestInsertMany(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO user_tiktok_metrics").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	n, err := s.InsertMany(context.Background(), store.ScopeUser, []tiktok.OwnedMetric{
		sampleMetric("a"), sampleMetric("b"),
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertManyAdminTable(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO admin_tiktok_metrics").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := s.InsertMany(context.Background(), store.ScopeAdmin, []tiktok.OwnedMetric{
		sampleMetric("a"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertManyEmptyBatchSkipsExec(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	n, err := s.InsertMany(context.Background(), store.ScopeUser, nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertManyError(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO user_tiktok_metrics").
		WillReturnError(errors.New("connection reset"))

	_, err := s.InsertMany(context.Background(), store.ScopeUser, []tiktok.OwnedMetric{
		sampleMetric("a"),
	})
	require.ErrorContains(t, err, "insert metrics")
}

func metricRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"seq",
		"post_id", "date_posted", "hour_posted", "username_tiktok_account",
		"post_url", "views", "likes", "comments", "saves", "reposts",
		"total_interactions", "engagement", "number_hashtags", "hashtags",
		"sound_id", "sound_url", "region_post", "date_tracking", "time_tracking",
		"owner_id",
	})
}

func TestQueryScansRows(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	rows := metricRows().AddRow(
		uint64(3),
		"a", "2024-05-01", "12:30:00", "creator",
		"https://example.com/a", int64(1000), int64(50), int64(10), int64(5), int64(5),
		int64(70), 0.07, 1, "#ai",
		"9", "https://example.com/sound", tiktok.NA, "2026-01-01", "10:00:00",
		int64p(7),
	)
	mock.ExpectQuery("SELECT seq,.+ FROM user_tiktok_metrics WHERE owner_id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	pred := query.Compile(query.Request{UserID: int64p(7)}, query.OwnerFieldUser)
	got, err := s.Query(context.Background(), store.ScopeUser, pred)
	require.NoError(t, err)
	require.Len(t, got, 1)

	rec := got[0]
	require.Equal(t, uint64(3), rec.Seq)
	require.Equal(t, "a", rec.PostID)
	require.Equal(t, int64(1000), rec.Views)
	require.Equal(t, tiktok.OwnerUser, rec.Owner.Kind)
	require.Equal(t, int64(7), *rec.Owner.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryNullOwner(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	rows := metricRows().AddRow(
		uint64(1),
		"a", tiktok.NA, tiktok.NA, tiktok.NA,
		tiktok.NA, int64(0), int64(0), int64(0), int64(0), int64(0),
		int64(0), 0.0, 0, tiktok.NA,
		tiktok.NA, tiktok.NA, tiktok.NA, "2026-01-01", "10:00:00",
		nil,
	)
	mock.ExpectQuery("SELECT seq,.+ FROM admin_tiktok_metrics").
		WillReturnRows(rows)

	got, err := s.Query(context.Background(), store.ScopeAdmin, query.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, tiktok.OwnerAdmin, got[0].Owner.Kind)
	require.Nil(t, got[0].Owner.ID)
}

func TestQueryError(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT seq,.+ FROM user_tiktok_metrics").
		WillReturnError(errors.New("timeout"))

	_, err := s.Query(context.Background(), store.ScopeUser, query.Predicate{})
	require.ErrorContains(t, err, "query metrics")
}
