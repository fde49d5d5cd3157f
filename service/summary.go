package services

import (
	"log"
	"time"

	model "github.com/servana/action-center/models"
)

// Summary is the cross-queue open-item census behind the dashboard badge.
type Summary struct {
	TotalOpen int64                 `json:"totalOpen"`
	Queues    map[model.Queue]int64 `json:"queues"`
}

// GetSummary counts open items per queue. Snoozed and resolved items do not
// count as pending work; snoozed items past their snooze target are woken
// first so they count again. Computed from the store on every call so polling
// consumers converge on recent mutations.
func (s *ActionCenterService) GetSummary() (*Summary, error) {
	if err := s.wakeDue(time.Now()); err != nil {
		return nil, err
	}

	type queueCount struct {
		Queue model.Queue
		N     int64
	}
	var counts []queueCount
	err := s.db.Model(&model.ActionItem{}).
		Select("queue, COUNT(*) AS n").
		Where("status = ?", model.StatusOpen).
		Group("queue").
		Scan(&counts).Error
	if err != nil {
		log.Printf("[GetSummary] error counting open items: %v", err)
		return nil, err
	}

	summary := &Summary{Queues: make(map[model.Queue]int64, len(model.AllQueues))}
	for _, q := range model.AllQueues {
		summary.Queues[q] = 0
	}
	for _, c := range counts {
		summary.Queues[c.Queue] = c.N
		summary.TotalOpen += c.N
	}
	return summary, nil
}
