// Command metricsapi serves the TikTok metrics HTTP API.
//
// The service turns Apify scrape runs into canonical per-post metric records
// and answers filtered queries over them. A request flows through four
// stages:
//
//  1. dispatch: the handler forwards the caller's scrape targets and token to
//     the Apify actor and blocks until the run's dataset is readable.
//  2. normalize: each raw dataset item becomes a canonical record with fixed
//     fallbacks; the batch is stamped with the calling user or admin id.
//  3. persist: records are appended to the owner scope's partition in the
//     configured store (MongoDB, Postgres, or in-memory), with the raw
//     payload archived as a blob first.
//  4. query: the dbquery endpoints compile sparse filters into store
//     predicates, collapse postId duplicates to the latest insert, and
//     attach dashboard totals.
//
// Configuration is read from an optional file plus METRICS_-prefixed
// environment variables; see internal/config. Prometheus metrics are served
// on /metrics.
package main
