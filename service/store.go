package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	model "github.com/servana/action-center/models"
)

// Assignment filter scopes.
const (
	AssignedAny        = ""
	AssignedMe         = "me"
	AssignedUnassigned = "unassigned"
)

// ListFilter is the conjunction of optional predicates applied to a queue's
// items. Zero values mean "no constraint for that dimension".
type ListFilter struct {
	AssignedTo      string
	Overdue         bool
	Severities      []model.Severity
	ReasonCodes     []string
	Search          string
	IncludeResolved bool

	// Status restricts the view to one status. Empty means the default view:
	// every non-resolved item (or everything with IncludeResolved). Setting
	// it to "open" yields exactly the set the summary badge counts.
	Status string
}

// ListResult is one page of a filtered queue plus the full-set reason-code
// facet counts.
type ListResult struct {
	Items          []model.ActionItem `json:"items"`
	Page           int                `json:"page"`
	Limit          int                `json:"limit"`
	Total          int64              `json:"total"`
	TotalsByReason map[string]int64   `json:"totalsByReason"`
}

// NewItemInput is the creation feed consumed from the originating
// collaborators (KYC pipeline, booking engine, payout processor, ...).
type NewItemInput struct {
	Queue        model.Queue `json:"queue"`
	RefType      string      `json:"refType"`
	RefID        string      `json:"refId"`
	Title        string      `json:"title"`
	WhoName      string      `json:"whoName"`
	WhoPhone     string      `json:"whoPhone"`
	ReasonCode   string      `json:"reasonCode"`
	SlaAt        *time.Time  `json:"slaAt"`
	AmountAtRisk *int64      `json:"amountAtRisk"`
}

func (f ListFilter) validate(queue model.Queue) error {
	switch f.AssignedTo {
	case AssignedAny, AssignedMe, AssignedUnassigned:
	default:
		return fmt.Errorf("%w: unknown assignment scope %q", ErrInvalidFilter, f.AssignedTo)
	}
	switch f.Status {
	case "", model.StatusOpen, model.StatusSnoozed, model.StatusResolved:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	for _, sev := range f.Severities {
		valid := false
		for _, known := range model.AllSeverities {
			if sev == known {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("%w: unknown severity %q", ErrInvalidFilter, sev)
		}
	}
	for _, code := range f.ReasonCodes {
		if !model.IsValidReasonCode(queue, code) {
			return fmt.Errorf("%w: %q is not a %s reason code", ErrInvalidReasonCode, code, queue)
		}
	}
	return nil
}

// listQuery builds a fresh filtered query. Severity is a derived value, so
// its predicate is expressed as sla_at windows relative to now; that keeps
// pagination, counting and the facet GROUP BY all on the same SQL.
func (s *ActionCenterService) listQuery(queue model.Queue, f ListFilter, actor model.Actor, now time.Time) *gorm.DB {
	q := s.db.Model(&model.ActionItem{}).Where("queue = ?", queue)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	} else if !f.IncludeResolved {
		q = q.Where("status <> ?", model.StatusResolved)
	}

	switch f.AssignedTo {
	case AssignedMe:
		q = q.Where("assignee_id = ?", actor.ID)
	case AssignedUnassigned:
		q = q.Where("(assignee_id IS NULL OR assignee_id = '')")
	}

	if f.Overdue {
		q = q.Where("sla_at IS NOT NULL AND sla_at < ?", now)
	}

	if len(f.Severities) > 0 {
		conds := make([]string, 0, len(f.Severities))
		args := make([]interface{}, 0, 2*len(f.Severities))
		for _, sev := range f.Severities {
			switch sev {
			case model.SeverityRed:
				conds = append(conds, "(sla_at IS NOT NULL AND sla_at < ?)")
				args = append(args, now.Add(2*time.Hour))
			case model.SeverityAmber:
				conds = append(conds, "(sla_at >= ? AND sla_at < ?)")
				args = append(args, now.Add(2*time.Hour), now.Add(24*time.Hour))
			case model.SeverityGreen:
				conds = append(conds, "(sla_at >= ?)")
				args = append(args, now.Add(24*time.Hour))
			}
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	if len(f.ReasonCodes) > 0 {
		q = q.Where("reason_code IN ?", f.ReasonCodes)
	}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where(
			"(LOWER(id) LIKE ? OR LOWER(ref_id) LIKE ? OR LOWER(who_name) LIKE ? OR LOWER(who_phone) LIKE ? OR LOWER(title) LIKE ?)",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	return q
}

// List returns one page of a queue ordered by urgency: soonest SLA deadline
// first, items without a deadline last. Resolved items are hidden unless the
// caller opts in.
func (s *ActionCenterService) List(queue model.Queue, f ListFilter, actor model.Actor, page, limit int) (*ListResult, error) {
	if !model.IsValidQueue(queue) {
		return nil, fmt.Errorf("%w: unknown queue %q", ErrInvalidFilter, queue)
	}
	if err := f.validate(queue); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	now := time.Now()
	if err := s.wakeDue(now); err != nil {
		return nil, err
	}

	var total int64
	if err := s.listQuery(queue, f, actor, now).Count(&total).Error; err != nil {
		log.Printf("[List] error counting %s items: %v", queue, err)
		return nil, err
	}

	var items []model.ActionItem
	err := s.listQuery(queue, f, actor, now).
		Order("CASE WHEN sla_at IS NULL THEN 1 ELSE 0 END, sla_at ASC, opened_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		log.Printf("[List] error fetching %s items: %v", queue, err)
		return nil, err
	}
	for i := range items {
		items[i].Classify(now)
	}

	// Facet counts are computed over the full filtered set, not the page.
	type reasonCount struct {
		ReasonCode string
		N          int64
	}
	var counts []reasonCount
	err = s.listQuery(queue, f, actor, now).
		Select("reason_code, COUNT(*) AS n").
		Group("reason_code").
		Scan(&counts).Error
	if err != nil {
		log.Printf("[List] error computing reason facets for %s: %v", queue, err)
		return nil, err
	}
	totals := make(map[string]int64, len(counts))
	for _, c := range counts {
		totals[c.ReasonCode] = c.N
	}

	return &ListResult{
		Items:          items,
		Page:           page,
		Limit:          limit,
		Total:          total,
		TotalsByReason: totals,
	}, nil
}

// Get fetches a single item with its severity computed at read time.
func (s *ActionCenterService) Get(id string) (*model.ActionItem, error) {
	if err := s.wakeDue(time.Now()); err != nil {
		return nil, err
	}

	var item model.ActionItem
	if err := s.db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		log.Printf("[Get] error fetching action item %s: %v", id, err)
		return nil, err
	}
	item.Classify(time.Now())
	return &item, nil
}

// Create ingests a new item from an originating collaborator. The item
// enters the queue as open with a generated AC- identifier.
func (s *ActionCenterService) Create(in NewItemInput) (*model.ActionItem, error) {
	if !model.IsValidQueue(in.Queue) {
		return nil, fmt.Errorf("%w: unknown queue %q", ErrInvalidItem, in.Queue)
	}
	if !model.IsValidReasonCode(in.Queue, in.ReasonCode) {
		return nil, fmt.Errorf("%w: %q is not a %s reason code", ErrInvalidReasonCode, in.ReasonCode, in.Queue)
	}
	if in.Title == "" || in.RefType == "" || in.RefID == "" {
		return nil, fmt.Errorf("%w: title, refType and refId are required", ErrInvalidItem)
	}

	now := time.Now()
	item := model.ActionItem{
		ID:           model.NewActionItemID(),
		Queue:        in.Queue,
		RefType:      in.RefType,
		RefID:        in.RefID,
		Title:        in.Title,
		WhoName:      in.WhoName,
		WhoPhone:     in.WhoPhone,
		ReasonCode:   in.ReasonCode,
		Status:       model.StatusOpen,
		SlaAt:        in.SlaAt,
		AmountAtRisk: in.AmountAtRisk,
		Meta:         map[string]interface{}{},
		OpenedAt:     now,
		UpdatedAt:    now,
	}
	if err := s.db.Create(&item).Error; err != nil {
		log.Printf("[Create] error creating action item: %v", err)
		return nil, err
	}
	log.Printf("[Create] action item %s opened in %s (%s)", item.ID, item.Queue, item.ReasonCode)

	s.indexItem(&item)
	item.Classify(now)
	return &item, nil
}
