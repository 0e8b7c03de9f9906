// Package postgres provides a Postgres-backed MetricStore.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool and table names.
type Config struct {
	DSN             string
	UserTable       string
	AdminTable      string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Store writes canonical metric rows into Postgres, one table per owner
// scope. The seq column is a BIGSERIAL and provides the insertion marker.
//
// Expected schema per table:
//
//	CREATE TABLE user_tiktok_metrics (
//		seq BIGSERIAL PRIMARY KEY,
//		post_id TEXT NOT NULL,
//		date_posted TEXT NOT NULL,
//		hour_posted TEXT NOT NULL,
//		username_tiktok_account TEXT NOT NULL,
//		post_url TEXT NOT NULL,
//		views BIGINT NOT NULL,
//		likes BIGINT NOT NULL,
//		comments BIGINT NOT NULL,
//		saves BIGINT NOT NULL,
//		reposts BIGINT NOT NULL,
//		total_interactions BIGINT NOT NULL,
//		engagement DOUBLE PRECISION NOT NULL,
//		number_hashtags INT NOT NULL,
//		hashtags TEXT NOT NULL,
//		sound_id TEXT NOT NULL,
//		sound_url TEXT NOT NULL,
//		region_post TEXT NOT NULL,
//		date_tracking TEXT NOT NULL,
//		time_tracking TEXT NOT NULL,
//		owner_id BIGINT
//	);
type Store struct {
	pool       dbPool
	userTable  string
	adminTable string
}

// NewStore creates a pooled Postgres store from config.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewStoreWithPool(pool, cfg.UserTable, cfg.AdminTable)
}

// NewStoreWithPool constructs a store from an existing pool (primarily for
// testing).
func NewStoreWithPool(pool dbPool, userTable, adminTable string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if userTable == "" {
		userTable = "user_tiktok_metrics"
	}
	if adminTable == "" {
		adminTable = "admin_tiktok_metrics"
	}
	for _, table := range []string{userTable, adminTable} {
		if !validTableName.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &Store{pool: pool, userTable: userTable, adminTable: adminTable}, nil
}

func (s *Store) table(scope store.Scope) string {
	if scope == store.ScopeAdmin {
		return s.adminTable
	}
	return s.userTable
}

var insertColumns = []string{
	"post_id", "date_posted", "hour_posted", "username_tiktok_account",
	"post_url", "views", "likes", "comments", "saves", "reposts",
	"total_interactions", "engagement", "number_hashtags", "hashtags",
	"sound_id", "sound_url", "region_post", "date_tracking", "time_tracking",
	"owner_id",
}

// InsertMany appends the records with one multi-row INSERT.
func (s *Store) InsertMany(ctx context.Context, scope store.Scope, records []tiktok.OwnedMetric) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*len(insertColumns))
	for i, rec := range records {
		placeholders := make([]string, len(insertColumns))
		for j := range insertColumns {
			placeholders[j] = fmt.Sprintf("$%d", i*len(insertColumns)+j+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ",")+")")
		m := rec.CanonicalMetric
		args = append(args,
			m.PostID, m.DatePosted, m.HourPosted, m.UsernameTiktokAccount,
			m.PostURL, m.Views, m.Likes, m.Comments, m.Saves, m.Reposts,
			m.TotalInteractions, m.Engagement, m.NumberHashtags, m.Hashtags,
			m.SoundID, m.SoundURL, m.RegionPost, m.DateTracking, m.TimeTracking,
			rec.Owner.ID,
		)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		s.table(scope), strings.Join(insertColumns, ","), strings.Join(rows, ","),
	)
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert metrics: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Query lowers the predicate into a WHERE clause and scans the matching rows.
func (s *Store) Query(ctx context.Context, scope store.Scope, pred query.Predicate) ([]store.StoredMetric, error) {
	where, args := buildWhere(pred)
	sql := fmt.Sprintf("SELECT seq,%s FROM %s%s", strings.Join(insertColumns, ","), s.table(scope), where)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []store.StoredMetric
	for rows.Next() {
		var (
			rec     store.StoredMetric
			m       = &rec.CanonicalMetric
			ownerID *int64
		)
		err := rows.Scan(
			&rec.Seq,
			&m.PostID, &m.DatePosted, &m.HourPosted, &m.UsernameTiktokAccount,
			&m.PostURL, &m.Views, &m.Likes, &m.Comments, &m.Saves, &m.Reposts,
			&m.TotalInteractions, &m.Engagement, &m.NumberHashtags, &m.Hashtags,
			&m.SoundID, &m.SoundURL, &m.RegionPost, &m.DateTracking, &m.TimeTracking,
			&ownerID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan metric row: %w", err)
		}
		kind := tiktok.OwnerUser
		if scope == store.ScopeAdmin {
			kind = tiktok.OwnerAdmin
		}
		rec.Owner = tiktok.Owner{Kind: kind, ID: ownerID}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric rows: %w", err)
	}
	return out, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close(_ context.Context) error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
