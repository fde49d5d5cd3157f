package models

import "time"

// ActionNote is one append-only entry in an item's audit thread. Notes are
// never edited or deleted; operator notes and system-generated notes
// ("Action performed: ...") interleave to form the item's history.
type ActionNote struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	ActionItemID string    `gorm:"not null;index" json:"actionItemId"`
	Body         string    `gorm:"not null" json:"body"`
	AuthorID     string    `gorm:"not null" json:"authorId"`
	AuthorName   string    `json:"authorName,omitempty"`
	System       bool      `gorm:"not null;default:false" json:"system"`
	CreatedAt    time.Time `gorm:"not null;index" json:"createdAt"`

	// Seq breaks created_at ties: notes written in one transaction share a
	// timestamp, and the thread must still read back in insertion order.
	Seq int64 `gorm:"not null;index" json:"-"`
}

// SystemAuthorID marks notes generated by the dispatcher rather than an
// operator.
const SystemAuthorID = "system"
