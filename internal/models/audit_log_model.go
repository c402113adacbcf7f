package models

import "time"

// AuditLog records an event in the purchase pipeline or an admin mutation.
// Entries are written best-effort; a failed audit write never fails the
// operation it describes.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID     string                 `json:"userId" firestore:"userId"` // Who performed the action; "stripe-webhook" for webhook-driven events
	Action     string                 `json:"action" firestore:"action"` // e.g. "PURCHASE_RECORDED", "REPO_TRANSFER_INITIATED", "TESTIMONIAL_MODERATED"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"` // e.g. "LISTING", "TRANSACTION", "SUBSCRIPTION"
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
