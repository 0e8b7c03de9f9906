package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/socialpulse/tiktok-metrics/internal/aggregate"
	"github.com/socialpulse/tiktok-metrics/internal/apify"
	"github.com/socialpulse/tiktok-metrics/internal/obs"
	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"service": "tiktok-metrics",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.store == nil || s.provider == nil {
		s.writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ingestNotification is the message published after a successful insert.
type ingestNotification struct {
	Scope      string `json:"scope"`
	IngestID   string `json:"ingestId"`
	Inserted   int    `json:"inserted"`
	ArchiveURI string `json:"archiveUri,omitempty"`
}

// handleIngest runs the full pipeline for one scope: scrape, normalize, stamp
// the owner, archive the raw payload, persist, notify.
func (s *Server) handleIngest(scope store.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScrapeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			obs.ObserveIngest(string(scope), "bad_request", 0)
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			obs.ObserveIngest(string(scope), "bad_request", 0)
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ingestID := requestIDFrom(r.Context())
		logger := s.logger.With(
			zap.String("scope", string(scope)),
			zap.String("request_id", ingestID),
		)

		// A dispatched scrape run is not aborted when the client goes away;
		// the upstream work and the insert complete either way.
		ctx := context.WithoutCancel(r.Context())

		items, err := s.provider.FetchDataset(ctx, req.ApifyToken, req.toInput())
		if err != nil {
			obs.ObserveIngest(string(scope), "upstream_error", 0)
			logger.Error("scrape dispatch failed", zap.Error(err))
			var upstream *apify.UpstreamError
			if errors.As(err, &upstream) {
				s.writeError(w, http.StatusBadGateway, upstream.Reason)
				return
			}
			s.writeError(w, http.StatusBadGateway, "upstream scrape failed")
			return
		}

		metrics := s.normalizer.TransformBatch(items, req.usernameFallback(), s.clock.Now())
		owned := tiktok.StampOwner(metrics, s.ownerFor(scope, req))

		if len(owned) == 0 {
			obs.ObserveIngest(string(scope), "empty", 0)
			logger.Info("scrape returned no items")
			s.writeJSON(w, http.StatusOK, InsertResponse{Inserted: 0, Data: []tiktok.OwnedMetric{}})
			return
		}

		archiveURI := s.archiveRaw(ctx, logger, scope, ingestID, items)

		inserted, err := s.store.InsertMany(ctx, scope, owned)
		if err != nil {
			obs.ObserveIngest(string(scope), "store_error", 0)
			logger.Error("insert failed", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "failed to persist records")
			return
		}
		obs.ObserveIngest(string(scope), "ok", inserted)

		s.notify(ctx, logger, ingestNotification{
			Scope:      string(scope),
			IngestID:   ingestID,
			Inserted:   inserted,
			ArchiveURI: archiveURI,
		})

		data := owned
		if scope == store.ScopeAdmin {
			data = aggregate.TopPerHashtag(owned, req.Hashtags, aggregate.TopN)
		}

		logger.Info("ingest complete",
			zap.Int("items", len(items)),
			zap.Int("inserted", inserted),
		)
		s.writeJSON(w, http.StatusOK, InsertResponse{Inserted: inserted, Data: data})
	}
}

// handleQuery filters the scope's partition, collapses postId duplicates to
// the latest insert, and attaches the dashboard.
func (s *Server) handleQuery(scope store.Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req query.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		pred := query.Compile(req, scope.OwnerField())
		records, err := s.store.Query(r.Context(), scope, pred)
		if err != nil {
			s.logger.Error("query failed",
				zap.String("scope", string(scope)),
				zap.Error(err),
			)
			s.writeError(w, http.StatusInternalServerError, "failed to query records")
			return
		}

		items := aggregate.DedupLatest(records)
		s.writeJSON(w, http.StatusOK, QueryResponse{
			Items:     items,
			Count:     len(items),
			Dashboard: aggregate.Dashboard(items),
		})
	}
}

func (s *Server) ownerFor(scope store.Scope, req ScrapeRequest) tiktok.Owner {
	if scope == store.ScopeAdmin {
		return tiktok.Admin(req.AdminID)
	}
	return tiktok.User(req.UserID)
}

// archiveRaw stores the raw payload best-effort; a failed write is logged and
// the ingest continues.
func (s *Server) archiveRaw(ctx context.Context, logger *zap.Logger, scope store.Scope, ingestID string, items []tiktok.RawItem) string {
	payload, err := json.Marshal(items)
	if err != nil {
		logger.Warn("encode raw payload failed", zap.Error(err))
		return ""
	}
	path := fmt.Sprintf("%s/%s/%s.json", s.archivePrefix, scope, ingestID)
	uri, err := s.archive.PutObject(ctx, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Warn("archive raw payload failed", zap.Error(err))
		return ""
	}
	return uri
}

// notify publishes the ingest notification best-effort.
func (s *Server) notify(ctx context.Context, logger *zap.Logger, msg ingestNotification) {
	if s.topic == "" {
		return
	}
	if _, err := s.publisher.Publish(ctx, s.topic, msg); err != nil {
		logger.Warn("publish ingest notification failed", zap.Error(err))
	}
}
