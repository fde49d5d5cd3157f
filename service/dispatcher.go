package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	model "github.com/servana/action-center/models"
)

// wakeDue returns snoozed items whose snooze target has passed to the open
// pool. Run lazily from the read paths, so woken work is back in the active
// queue and the summary badge by the time anyone looks.
func (s *ActionCenterService) wakeDue(now time.Time) error {
	res := s.db.Model(&model.ActionItem{}).
		Where("status = ? AND sla_at IS NOT NULL AND sla_at <= ?", model.StatusSnoozed, now).
		Updates(map[string]interface{}{"status": model.StatusOpen, "updated_at": now})
	if res.Error != nil {
		log.Printf("[wakeDue] error waking snoozed items: %v", res.Error)
		return res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[wakeDue] woke %d snoozed item(s)", res.RowsAffected)
	}
	return nil
}

// fetchForUpdate loads an item inside a transaction. Callers must already
// hold the item's lock.
func fetchForUpdate(tx *gorm.DB, id string) (*model.ActionItem, error) {
	var item model.ActionItem
	if err := tx.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}

// mergeMeta folds fields into the item's meta map. Existing keys not named
// in fields survive, so repeated snoozes and actions never erase prior
// history.
func mergeMeta(item *model.ActionItem, fields map[string]interface{}) {
	if item.Meta == nil {
		item.Meta = map[string]interface{}{}
	}
	for k, v := range fields {
		item.Meta[k] = v
	}
}

// saveItem persists status, assignment and meta changes and bumps UpdatedAt.
func saveItem(tx *gorm.DB, item *model.ActionItem, now time.Time) error {
	item.UpdatedAt = now
	return tx.Model(item).Updates(map[string]interface{}{
		"status":        item.Status,
		"sla_at":        item.SlaAt,
		"assignee_id":   item.AssigneeID,
		"assignee_name": item.AssigneeName,
		"meta":          item.Meta,
		"updated_at":    item.UpdatedAt,
	}).Error
}

// Resolve moves a non-terminal item to resolved, recording who resolved it
// and why. An optional operator note is appended in the same transaction as
// the resolution, so the item cannot end up resolved without its context.
func (s *ActionCenterService) Resolve(id string, actor model.Actor, resolution, note string) (*model.ActionItem, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var resolved *model.ActionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, id)
		if err != nil {
			return err
		}
		if item.Terminal() {
			return fmt.Errorf("%w: %s is already resolved", ErrInvalidTransition, id)
		}

		now := time.Now()
		item.Status = model.StatusResolved
		mergeMeta(item, map[string]interface{}{
			"resolution":     resolution,
			"resolvedBy":     actor.ID,
			"resolvedByName": actor.Name,
			"resolvedAt":     now.UTC().Format(time.RFC3339),
		})
		if err := saveItem(tx, item, now); err != nil {
			return err
		}
		if err := appendSystemNote(tx, id, fmt.Sprintf("Resolved: %s", resolution), now); err != nil {
			return err
		}
		if note != "" {
			if _, err := appendNote(tx, id, note, actor, now); err != nil {
				return err
			}
		}
		resolved = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Resolve] %s resolved by %s (%s)", id, actor.ID, resolution)
	s.indexItem(resolved)
	resolved.Classify(time.Now())
	return resolved, nil
}

// Snooze parks a non-terminal item until the given time. The SLA deadline is
// overwritten, which intentionally restarts the urgency clock.
func (s *ActionCenterService) Snooze(id string, actor model.Actor, until time.Time) (*model.ActionItem, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var snoozed *model.ActionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, id)
		if err != nil {
			return err
		}
		if item.Terminal() {
			return fmt.Errorf("%w: %s is already resolved", ErrInvalidTransition, id)
		}

		now := time.Now()
		until := until.UTC()
		item.Status = model.StatusSnoozed
		item.SlaAt = &until
		mergeMeta(item, map[string]interface{}{
			"snoozedUntil": until.Format(time.RFC3339),
			"snoozedBy":    actor.ID,
		})
		if err := saveItem(tx, item, now); err != nil {
			return err
		}
		if err := appendSystemNote(tx, id, fmt.Sprintf("Snoozed until %s", until.Format(time.RFC3339)), now); err != nil {
			return err
		}
		snoozed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Snooze] %s snoozed by %s until %s", id, actor.ID, until.Format(time.RFC3339))
	s.indexItem(snoozed)
	snoozed.Classify(time.Now())
	return snoozed, nil
}

// Assign sets the item's owner without changing its status. With an empty
// assignee the item is assigned to the acting admin.
func (s *ActionCenterService) Assign(id string, actor model.Actor, assigneeID, assigneeName string) (*model.ActionItem, error) {
	if assigneeID == "" {
		assigneeID = actor.ID
		assigneeName = actor.Name
	}
	if assigneeName == "" {
		assigneeName = assigneeID
	}

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var assigned *model.ActionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		item.AssigneeID = assigneeID
		item.AssigneeName = assigneeName
		if err := saveItem(tx, item, now); err != nil {
			return err
		}
		if err := appendSystemNote(tx, id, fmt.Sprintf("Assigned to %s", assigneeName), now); err != nil {
			return err
		}
		assigned = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Assign] %s assigned to %s by %s", id, assigneeID, actor.ID)
	s.indexItem(assigned)
	assigned.Classify(time.Now())
	return assigned, nil
}

// AssignToMe is sugar over Assign for the common self-serve case.
func (s *ActionCenterService) AssignToMe(id string, actor model.Actor) (*model.ActionItem, error) {
	return s.Assign(id, actor, "", "")
}

// PerformAction runs a queue-specific action against a non-terminal item.
// The action name is validated against the queue's vocabulary before any
// mutation. Terminal actions (approve, reject, ...) resolve the item;
// follow-up actions (request_info, change_method) leave it open and mark it
// as awaiting a reply, so it stays visible in the active queue.
//
// The webhook retry action carries an external side effect: the delivery is
// re-attempted first, and a failed attempt surfaces as ErrExternalAction
// with no state change, so the admin can simply try again.
func (s *ActionCenterService) PerformAction(id string, actor model.Actor, actionName string, data map[string]interface{}) (*model.ActionItem, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	var updated *model.ActionItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := fetchForUpdate(tx, id)
		if err != nil {
			return err
		}
		if item.Terminal() {
			return fmt.Errorf("%w: %s is already resolved", ErrInvalidTransition, id)
		}
		action, ok := model.LookupAction(item.Queue, actionName)
		if !ok {
			return fmt.Errorf("%w: %s queue does not allow action %q", ErrInvalidTransition, item.Queue, actionName)
		}

		now := time.Now()

		if item.Queue == model.QueueWebhooks && actionName == "retry" {
			if err := s.relay.Deliver(item); err != nil {
				log.Printf("[PerformAction] webhook redelivery failed for %s: %v", id, err)
				return fmt.Errorf("%w: %v", ErrExternalAction, err)
			}
			mergeMeta(item, map[string]interface{}{
				"retryResult": "delivered",
				"retriedAt":   now.UTC().Format(time.RFC3339),
			})
		}

		merged := map[string]interface{}{
			"lastAction":   actionName,
			"lastActionBy": actor.ID,
			"lastActionAt": now.UTC().Format(time.RFC3339),
		}
		for k, v := range data {
			merged[k] = v
		}
		mergeMeta(item, merged)

		if action.Terminal {
			item.Status = model.StatusResolved
			mergeMeta(item, map[string]interface{}{
				"resolution":     actionName,
				"resolvedBy":     actor.ID,
				"resolvedByName": actor.Name,
				"resolvedAt":     now.UTC().Format(time.RFC3339),
			})
		} else {
			// Waiting on the user: back to open even if it was snoozed.
			item.Status = model.StatusOpen
			mergeMeta(item, map[string]interface{}{
				"awaitingReply": true,
			})
		}

		if err := saveItem(tx, item, now); err != nil {
			return err
		}
		if err := appendSystemNote(tx, id, fmt.Sprintf("Action performed: %s", actionName), now); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[PerformAction] %s on %s by %s", actionName, id, actor.ID)
	s.indexItem(updated)
	updated.Classify(time.Now())
	return updated, nil
}

// RetryOutcome reports a webhook redelivery attempt to the caller.
type RetryOutcome struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// RetryWebhook re-attempts a failed webhook delivery. A failed attempt is a
// recoverable outcome, not an exception: the item stays untouched and the
// response says so.
func (s *ActionCenterService) RetryWebhook(id string, actor model.Actor) (*RetryOutcome, error) {
	item, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if item.Queue != model.QueueWebhooks {
		return nil, fmt.Errorf("%w: %s is not a webhook item", ErrInvalidTransition, id)
	}

	_, err = s.PerformAction(id, actor, "retry", nil)
	if err != nil {
		if errors.Is(err, ErrExternalAction) {
			return &RetryOutcome{OK: false, Message: "redelivery failed, the item remains open for retry"}, nil
		}
		return nil, err
	}
	return &RetryOutcome{OK: true, Message: "delivery succeeded"}, nil
}
