package services

import (
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	model "github.com/servana/action-center/models"
)

// noteSeq hands out insertion-order sequence numbers. Seeded from the clock
// so sequences stay increasing across process restarts.
var noteSeq atomic.Int64

func init() {
	noteSeq.Store(time.Now().UnixNano())
}

func appendNote(tx *gorm.DB, itemID, body string, author model.Actor, now time.Time) (*model.ActionNote, error) {
	note := model.ActionNote{
		ID:           uuid.NewString(),
		ActionItemID: itemID,
		Body:         body,
		AuthorID:     author.ID,
		AuthorName:   author.Name,
		System:       false,
		CreatedAt:    now,
		Seq:          noteSeq.Add(1),
	}
	if err := tx.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func appendSystemNote(tx *gorm.DB, itemID, body string, now time.Time) error {
	note := model.ActionNote{
		ID:           uuid.NewString(),
		ActionItemID: itemID,
		Body:         body,
		AuthorID:     model.SystemAuthorID,
		AuthorName:   "System",
		System:       true,
		CreatedAt:    now,
		Seq:          noteSeq.Add(1),
	}
	return tx.Create(&note).Error
}

// AddNote appends an operator note to an item's audit thread and returns it.
// Notes are immutable once written.
func (s *ActionCenterService) AddNote(itemID string, actor model.Actor, body string) (*model.ActionNote, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: note body is required", ErrInvalidItem)
	}

	lock := s.lockFor(itemID)
	lock.Lock()
	defer lock.Unlock()

	var note *model.ActionNote
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		now := time.Now()
		created, err := appendNote(tx, itemID, body, actor, now)
		if err != nil {
			return err
		}
		note = created
		// A note is a mutation of the item's thread; bump its clock.
		return tx.Model(item).Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[AddNote] note added to %s by %s", itemID, actor.ID)
	return note, nil
}

// GetNotes returns the full note thread, oldest first.
func (s *ActionCenterService) GetNotes(itemID string) ([]model.ActionNote, error) {
	if _, err := s.Get(itemID); err != nil {
		return nil, err
	}
	var notes []model.ActionNote
	err := s.db.Where("action_item_id = ?", itemID).
		Order("created_at ASC, seq ASC").
		Find(&notes).Error
	if err != nil {
		log.Printf("[GetNotes] error fetching notes for %s: %v", itemID, err)
		return nil, err
	}
	return notes, nil
}

// TimelineEvent is one entry of an item's merged history: the opened event,
// operator notes and system notes, in time order.
type TimelineEvent struct {
	Type       string    `json:"type"` // "opened", "note" or "system"
	At         time.Time `json:"at"`
	Body       string    `json:"body"`
	AuthorID   string    `json:"authorId,omitempty"`
	AuthorName string    `json:"authorName,omitempty"`
}

// Timeline assembles the full audit history of an item as a single
// time-ordered stream.
func (s *ActionCenterService) Timeline(itemID string) ([]TimelineEvent, error) {
	item, err := s.Get(itemID)
	if err != nil {
		return nil, err
	}
	notes, err := s.GetNotes(itemID)
	if err != nil {
		return nil, err
	}

	events := make([]TimelineEvent, 0, len(notes)+1)
	events = append(events, TimelineEvent{
		Type: "opened",
		At:   item.OpenedAt,
		Body: fmt.Sprintf("Item opened in %s (%s)", item.Queue, item.ReasonCode),
	})
	for _, n := range notes {
		kind := "note"
		if n.System {
			kind = "system"
		}
		events = append(events, TimelineEvent{
			Type:       kind,
			At:         n.CreatedAt,
			Body:       n.Body,
			AuthorID:   n.AuthorID,
			AuthorName: n.AuthorName,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events, nil
}
