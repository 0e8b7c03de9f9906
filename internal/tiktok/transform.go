package tiktok

import "time"

// TransformBatch normalizes every raw item in a provider batch. A nil or
// empty batch yields an empty slice, never an error: per-item malformation is
// absorbed by field-level fallbacks so one bad item cannot fail the batch.
// Owner stamping happens afterwards via StampOwner, never inside the
// normalizer.
func (n *Normalizer) TransformBatch(items []RawItem, usernameFallback string, now time.Time) []CanonicalMetric {
	out := make([]CanonicalMetric, 0, len(items))
	for _, item := range items {
		out = append(out, n.Normalize(item, usernameFallback, now))
	}
	return out
}
