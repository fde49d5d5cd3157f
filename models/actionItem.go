package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Item status state machine: open -> {snoozed, resolved},
// snoozed -> {open, resolved}, resolved is terminal.
const (
	StatusOpen     = "open"
	StatusSnoozed  = "snoozed"
	StatusResolved = "resolved"
)

// Severity is derived from time-to-SLA, never stored as ground truth.
type Severity string

const (
	SeverityRed   Severity = "red"
	SeverityAmber Severity = "amber"
	SeverityGreen Severity = "green"
)

// AllSeverities lists the valid severity filter values.
var AllSeverities = []Severity{SeverityRed, SeverityAmber, SeverityGreen}

// ActionItem is a unit of operator work in one of the Action Center queues.
type ActionItem struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Queue        Queue      `gorm:"not null;index" json:"queue"`
	RefType      string     `gorm:"not null" json:"refType"`
	RefID        string     `gorm:"not null;index" json:"refId"`
	Title        string     `gorm:"not null" json:"title"`
	WhoName      string     `json:"whoName,omitempty"`
	WhoPhone     string     `json:"whoPhone,omitempty"`
	ReasonCode   string     `gorm:"not null;index" json:"reasonCode"`
	Status       string     `gorm:"not null;index;default:open" json:"status"`
	SlaAt        *time.Time `json:"slaAt,omitempty"`
	AmountAtRisk *int64     `json:"amountAtRisk,omitempty"`
	AssigneeID   string     `gorm:"index" json:"assigneeId,omitempty"`
	AssigneeName string     `json:"assigneeName,omitempty"`

	// Meta carries action-specific history (resolution, snooze target, retry
	// results). Writes merge into it shallowly; keys are never dropped.
	Meta datatypes.JSONMap `json:"meta"`

	OpenedAt  time.Time `gorm:"not null" json:"openedAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Severity and SeverityLabel are recomputed from SlaAt on every read and
	// are not persisted.
	Severity      Severity `gorm:"-" json:"severity,omitempty"`
	SeverityLabel string   `gorm:"-" json:"severityLabel,omitempty"`
}

// NewActionItemID returns a fresh human-scannable identifier like "AC-8F3A2".
func NewActionItemID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "AC-" + raw[:5]
}

// ComputeSeverity classifies an SLA deadline against now.
// No deadline means no badge; an elapsed deadline is red ("Overdue"); under
// two hours remaining is red, under a day amber, otherwise green.
func ComputeSeverity(slaAt *time.Time, now time.Time) (Severity, string) {
	if slaAt == nil {
		return "", ""
	}
	remaining := slaAt.Sub(now)
	switch {
	case remaining < 0:
		return SeverityRed, "Overdue"
	case remaining < 2*time.Hour:
		return SeverityRed, "Due soon"
	case remaining < 24*time.Hour:
		return SeverityAmber, "Due today"
	default:
		return SeverityGreen, "On track"
	}
}

// Classify refreshes the derived severity fields against now.
func (a *ActionItem) Classify(now time.Time) {
	a.Severity, a.SeverityLabel = ComputeSeverity(a.SlaAt, now)
}

// IsOverdue reports whether the item's SLA deadline has already passed.
func (a *ActionItem) IsOverdue(now time.Time) bool {
	return a.SlaAt != nil && a.SlaAt.Before(now)
}

// Terminal reports whether the item can accept no further transitions.
func (a *ActionItem) Terminal() bool {
	return a.Status == StatusResolved
}
