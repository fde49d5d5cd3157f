package controller

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servana/action-center/middleware"
	service "github.com/servana/action-center/service"
)

// ActionCenterController binds the triage queue API onto HTTP.
type ActionCenterController struct {
	service *service.ActionCenterService
}

// NewActionCenterController initializes the controller with the service
func NewActionCenterController(svc *service.ActionCenterService) *ActionCenterController {
	return &ActionCenterController{service: svc}
}

// respondError maps the service error taxonomy onto HTTP statuses.
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidReasonCode), errors.Is(err, service.ErrInvalidFilter), errors.Is(err, service.ErrInvalidItem):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalAction):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("[respondError] internal error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateItem ingests a new action item from an originating system.
func (c *ActionCenterController) CreateItem(ctx *gin.Context) {
	var in service.NewItemInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item payload", "details": err.Error()})
		return
	}
	item, err := c.service.Create(in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// GetItem fetches a single action item by id.
func (c *ActionCenterController) GetItem(ctx *gin.Context) {
	item, err := c.service.Get(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// AssignItem sets the item's owner. With an empty body the item is assigned
// to the calling admin.
func (c *ActionCenterController) AssignItem(ctx *gin.Context) {
	var req struct {
		AssigneeID   string `json:"assigneeId"`
		AssigneeName string `json:"assigneeName"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assign payload", "details": err.Error()})
			return
		}
	}

	item, err := c.service.Assign(ctx.Param("id"), middleware.ActorFrom(ctx), req.AssigneeID, req.AssigneeName)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// ResolveItem closes an item with a resolution and an optional note.
func (c *ActionCenterController) ResolveItem(ctx *gin.Context) {
	var req struct {
		Resolution string `json:"resolution" binding:"required"`
		Note       string `json:"note"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Resolution required", "details": err.Error()})
		return
	}

	item, err := c.service.Resolve(ctx.Param("id"), middleware.ActorFrom(ctx), req.Resolution, req.Note)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// SnoozeItem parks an item until the given time.
func (c *ActionCenterController) SnoozeItem(ctx *gin.Context) {
	var req struct {
		Until string `json:"until" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Snooze target required", "details": err.Error()})
		return
	}
	until, err := time.Parse(time.RFC3339, req.Until)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "until must be an RFC3339 timestamp", "details": err.Error()})
		return
	}

	item, err := c.service.Snooze(ctx.Param("id"), middleware.ActorFrom(ctx), until)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// PerformAction runs a queue-specific action.
func (c *ActionCenterController) PerformAction(ctx *gin.Context) {
	var req struct {
		Action string                 `json:"action" binding:"required"`
		Data   map[string]interface{} `json:"data"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Action name required", "details": err.Error()})
		return
	}

	item, err := c.service.PerformAction(ctx.Param("id"), middleware.ActorFrom(ctx), req.Action, req.Data)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// RetryWebhook re-attempts a failed webhook delivery. A failed redelivery is
// a 200 with ok=false; the item stays open for another try.
func (c *ActionCenterController) RetryWebhook(ctx *gin.Context) {
	outcome, err := c.service.RetryWebhook(ctx.Param("id"), middleware.ActorFrom(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, outcome)
}

// AddNote appends an operator note to the item's audit thread.
func (c *ActionCenterController) AddNote(ctx *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Note body required", "details": err.Error()})
		return
	}

	note, err := c.service.AddNote(ctx.Param("id"), middleware.ActorFrom(ctx), req.Body)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, note)
}

// GetNotes returns the item's note thread, oldest first.
func (c *ActionCenterController) GetNotes(ctx *gin.Context) {
	notes, err := c.service.GetNotes(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"notes": notes})
}

// GetTimeline returns the item's merged audit history.
func (c *ActionCenterController) GetTimeline(ctx *gin.Context) {
	events, err := c.service.Timeline(ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"timeline": events})
}

// UploadAttachment stores an evidence file against the item.
func (c *ActionCenterController) UploadAttachment(ctx *gin.Context) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to get file from request"})
		return
	}
	defer file.Close()

	url, err := c.service.UploadAttachment(ctx.Param("id"), middleware.ActorFrom(ctx), file, header)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"url": url})
}
