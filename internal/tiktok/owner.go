package tiktok

import "encoding/json"

// OwnerKind discriminates which pipeline produced a record.
type OwnerKind int

// Owner kinds. Exactly one owner field is meaningful per stored record.
const (
	OwnerUnknown OwnerKind = iota
	OwnerUser
	OwnerAdmin
)

// Owner tags a canonical record with the identity whose scrape produced it.
// Modeling the tag as a variant rules out a record carrying both a user and an
// admin id at once.
type Owner struct {
	Kind OwnerKind
	ID   *int64
}

// User returns a user-scoped owner. A nil id still tags the record as
// user-owned; its serialized value is the N/A sentinel.
func User(id *int64) Owner {
	return Owner{Kind: OwnerUser, ID: id}
}

// Admin returns an admin-scoped owner.
func Admin(id *int64) Owner {
	return Owner{Kind: OwnerAdmin, ID: id}
}

// FieldName returns the canonical field name carrying the owner id, or "" for
// an unknown owner.
func (o Owner) FieldName() string {
	switch o.Kind {
	case OwnerUser:
		return "userId"
	case OwnerAdmin:
		return "adminId"
	default:
		return ""
	}
}

// FieldValue returns the serialized owner id: the integer when present, the
// N/A sentinel otherwise.
func (o Owner) FieldValue() any {
	if o.ID == nil {
		return NA
	}
	return *o.ID
}

// OwnedMetric pairs a canonical record with its owner tag. The owner is
// stamped after normalization and flattened into the record on the wire.
type OwnedMetric struct {
	CanonicalMetric
	Owner Owner
}

// StampOwner attaches the owner tag to every record in the batch. The admin
// pipeline calls this with an admin owner, which replaces any user tag that
// leaked through earlier stages.
func StampOwner(metrics []CanonicalMetric, owner Owner) []OwnedMetric {
	out := make([]OwnedMetric, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, OwnedMetric{CanonicalMetric: m, Owner: owner})
	}
	return out
}

// MarshalJSON flattens the owner tag into the record as either a userId or an
// adminId field, matching the stored document shape.
func (m OwnedMetric) MarshalJSON() ([]byte, error) {
	payload := struct {
		CanonicalMetric
		UserID  any `json:"userId,omitempty"`
		AdminID any `json:"adminId,omitempty"`
	}{CanonicalMetric: m.CanonicalMetric}
	switch m.Owner.Kind {
	case OwnerUser:
		payload.UserID = m.Owner.FieldValue()
	case OwnerAdmin:
		payload.AdminID = m.Owner.FieldValue()
	}
	return json.Marshal(payload)
}
