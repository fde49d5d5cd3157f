package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/servana/action-center/middleware"
	model "github.com/servana/action-center/models"
	service "github.com/servana/action-center/service"
)

// GetSummary returns the cross-queue open-item counts for the dashboard
// badge.
func (c *ActionCenterController) GetSummary(ctx *gin.Context) {
	summary, err := c.service.GetSummary()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ListQueue returns one filtered, paginated page of a queue.
//
// Query parameters: assigned (me|unassigned), overdue, severity (csv of
// red|amber|green), reason (csv), q (substring search), status
// (open|snoozed|resolved), includeResolved, page, limit.
func (c *ActionCenterController) ListQueue(ctx *gin.Context) {
	queue := model.Queue(ctx.Param("queue"))

	filter := service.ListFilter{
		AssignedTo:      ctx.Query("assigned"),
		Overdue:         ctx.Query("overdue") == "true",
		ReasonCodes:     splitCSV(ctx.Query("reason")),
		Search:          ctx.Query("q"),
		IncludeResolved: ctx.Query("includeResolved") == "true",
		Status:          ctx.Query("status"),
	}
	for _, raw := range splitCSV(ctx.Query("severity")) {
		filter.Severities = append(filter.Severities, model.Severity(raw))
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	result, err := c.service.List(queue, filter, middleware.ActorFrom(ctx), page, limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// SearchItems runs the global free-text search across all queues.
func (c *ActionCenterController) SearchItems(ctx *gin.Context) {
	query := ctx.Query("q")
	if query == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := c.service.SearchItems(query)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}

// GetVocabulary exposes the closed reason-code and action sets per queue so
// the frontend can render filter facets without hardcoding them.
func (c *ActionCenterController) GetVocabulary(ctx *gin.Context) {
	queues := make(map[model.Queue]gin.H, len(model.AllQueues))
	for _, q := range model.AllQueues {
		actions := model.QueueActions(q)
		names := make([]string, 0, len(actions))
		for _, a := range actions {
			names = append(names, a.Name)
		}
		queues[q] = gin.H{
			"reasonCodes": model.ReasonCodes(q),
			"actions":     names,
		}
	}
	ctx.JSON(http.StatusOK, gin.H{"queues": queues})
}
