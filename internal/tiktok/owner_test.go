package tiktok

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestStampOwner(t *testing.T) {
	t.Parallel()

	metrics := []CanonicalMetric{{PostID: "1"}, {PostID: "2"}}
	owned := StampOwner(metrics, Admin(int64p(9)))

	require.Len(t, owned, 2)
	for _, m := range owned {
		require.Equal(t, OwnerAdmin, m.Owner.Kind)
		require.Equal(t, int64(9), *m.Owner.ID)
	}
	require.Equal(t, "1", owned[0].PostID)
	require.Equal(t, "2", owned[1].PostID)
}

func TestStampOwnerEmpty(t *testing.T) {
	t.Parallel()

	owned := StampOwner(nil, User(int64p(1)))
	require.NotNil(t, owned)
	require.Empty(t, owned)
}

func TestOwnerFieldValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(5), User(int64p(5)).FieldValue())
	require.Equal(t, NA, User(nil).FieldValue())
	require.Equal(t, "userId", User(nil).FieldName())
	require.Equal(t, "adminId", Admin(nil).FieldName())
	require.Equal(t, "", Owner{}.FieldName())
}

func TestOwnedMetricMarshalJSON(t *testing.T) {
	t.Parallel()

	base := CanonicalMetric{PostID: "42"}

	tests := []struct {
		name      string
		owner     Owner
		wantKey   string
		wantValue any
		absentKey string
	}{
		{
			name:      "user with id",
			owner:     User(int64p(7)),
			wantKey:   "userId",
			wantValue: float64(7),
			absentKey: "adminId",
		},
		{
			name:      "user without id serializes sentinel",
			owner:     User(nil),
			wantKey:   "userId",
			wantValue: NA,
			absentKey: "adminId",
		},
		{
			name:      "admin with id",
			owner:     Admin(int64p(3)),
			wantKey:   "adminId",
			wantValue: float64(3),
			absentKey: "userId",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(OwnedMetric{CanonicalMetric: base, Owner: tc.owner})
			require.NoError(t, err)

			var doc map[string]any
			require.NoError(t, json.Unmarshal(data, &doc))
			require.Equal(t, "42", doc["postId"])
			require.Equal(t, tc.wantValue, doc[tc.wantKey])
			require.NotContains(t, doc, tc.absentKey)
		})
	}
}

func TestOwnedMetricMarshalJSONUnknownOwner(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(OwnedMetric{CanonicalMetric: CanonicalMetric{PostID: "42"}})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	require.NotContains(t, doc, "userId")
	require.NotContains(t, doc, "adminId")
}

func TestTransformBatch(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(time.UTC)
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	items := []RawItem{
		{"id": "1", "playCount": json.Number("10")},
		{"id": "2", "playCount": json.Number("20")},
	}
	got := n.TransformBatch(items, "profile", now)

	require.Len(t, got, 2)
	require.Equal(t, "1", got[0].PostID)
	require.Equal(t, "2", got[1].PostID)
	require.Equal(t, int64(20), got[1].Views)
	require.Equal(t, "profile", got[0].UsernameTiktokAccount)
}

func TestTransformBatchEmpty(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(time.UTC)
	got := n.TransformBatch(nil, "", time.Now())
	require.NotNil(t, got)
	require.Empty(t, got)
}
