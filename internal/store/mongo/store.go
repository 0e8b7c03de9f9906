// Package mongo provides a MongoDB-backed MetricStore. User and admin records
// live in separate collections, one per owner scope.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// Config captures the parameters required to connect to MongoDB.
type Config struct {
	URI             string
	Database        string
	UserCollection  string
	AdminCollection string
	ConnectTimeout  time.Duration
}

// Store implements store.MetricStore on top of the official driver.
type Store struct {
	client    *mongo.Client
	database  string
	userColl  string
	adminColl string
}

// NewStore connects to MongoDB and pings it to fail fast on a bad URI.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "Microservicio3"
	}
	if cfg.UserCollection == "" {
		cfg.UserCollection = "UserTiktokMetrics"
	}
	if cfg.AdminCollection == "" {
		cfg.AdminCollection = "AdminTiktokMetrics"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		if dcErr := client.Disconnect(context.Background()); dcErr != nil {
			return nil, fmt.Errorf("ping mongo: %w (disconnect: %v)", err, dcErr)
		}
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client:    client,
		database:  cfg.Database,
		userColl:  cfg.UserCollection,
		adminColl: cfg.AdminCollection,
	}, nil
}

// metricDoc is the stored document shape: the canonical record flattened with
// a single owner field holding either the integer id or the N/A sentinel.
type metricDoc struct {
	tiktok.CanonicalMetric `bson:",inline"`
	UserID                 any `bson:"userId,omitempty"`
	AdminID                any `bson:"adminId,omitempty"`
}

func (s *Store) collection(scope store.Scope) *mongo.Collection {
	name := s.userColl
	if scope == store.ScopeAdmin {
		name = s.adminColl
	}
	return s.client.Database(s.database).Collection(name)
}

// InsertMany persists the records into the scope's collection.
func (s *Store) InsertMany(ctx context.Context, scope store.Scope, records []tiktok.OwnedMetric) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	docs := make([]any, 0, len(records))
	for _, rec := range records {
		doc := metricDoc{CanonicalMetric: rec.CanonicalMetric}
		switch rec.Owner.Kind {
		case tiktok.OwnerUser:
			doc.UserID = rec.Owner.FieldValue()
		case tiktok.OwnerAdmin:
			doc.AdminID = rec.Owner.FieldValue()
		}
		docs = append(docs, doc)
	}
	result, err := s.collection(scope).InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert metrics: %w", err)
	}
	return len(result.InsertedIDs), nil
}

// Query finds matching documents sorted by _id ascending and synthesizes the
// insertion marker from that order, since ObjectIDs carry the insert sequence.
func (s *Store) Query(ctx context.Context, scope store.Scope, pred query.Predicate) ([]store.StoredMetric, error) {
	filter := BuildMatch(pred)
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.collection(scope).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var out []store.StoredMetric
	seq := uint64(0)
	for cursor.Next(ctx) {
		var doc metricDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode metric document: %w", err)
		}
		seq++
		out = append(out, store.StoredMetric{
			OwnedMetric: tiktok.OwnedMetric{
				CanonicalMetric: doc.CanonicalMetric,
				Owner:           ownerFromDoc(scope, doc),
			},
			Seq: seq,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric documents: %w", err)
	}
	return out, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

func ownerFromDoc(scope store.Scope, doc metricDoc) tiktok.Owner {
	raw := doc.UserID
	kind := tiktok.OwnerUser
	if scope == store.ScopeAdmin {
		raw = doc.AdminID
		kind = tiktok.OwnerAdmin
	}
	if id, ok := asInt64(raw); ok {
		return tiktok.Owner{Kind: kind, ID: &id}
	}
	return tiktok.Owner{Kind: kind}
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int32:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}
