package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"health-concierge/backend/internal/models"
	"health-concierge/backend/internal/plan"
	"health-concierge/backend/internal/repository"
	apperrors "health-concierge/backend/pkg/errors"
)

// PlanHandler serves plan and progress endpoints
type PlanHandler struct {
	plans  repository.PlanRepository
	engine *plan.Engine
	now    func() time.Time
}

// NewPlanHandler creates the plan handler
func NewPlanHandler(plans repository.PlanRepository, engine *plan.Engine, now func() time.Time) *PlanHandler {
	if now == nil {
		now = time.Now
	}
	return &PlanHandler{plans: plans, engine: engine, now: now}
}

// RegisterRoutes mounts the plan routes on the router group
func (h *PlanHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/plans", h.ListActive)
	r.GET("/plans/:id", h.Get)
	r.GET("/plans/:id/progress", h.Progress)
	r.POST("/plans/:id/progress", h.MarkProgress)
	r.DELETE("/plans/:id", h.Deactivate)
	r.GET("/dashboard/summary", h.Dashboard)
	r.GET("/progress/check-daily", h.CheckDaily)
	r.POST("/progress/update-multiple", h.UpdateMultiple)
}

// listPlans returns the active plan set, scoped to a session when the
// session_id query parameter is present.
func (h *PlanHandler) listPlans(c *gin.Context) ([]models.HealthPlan, error) {
	if sessionID := c.Query("session_id"); sessionID != "" {
		return h.plans.ListActiveBySession(c.Request.Context(), sessionID)
	}
	return h.plans.ListActive(c.Request.Context())
}

// ListActive handles GET /plans
func (h *PlanHandler) ListActive(c *gin.Context) {
	plans, err := h.listPlans(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, plans)
}

// Get handles GET /plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	p, err := h.plans.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, p)
}

// Progress handles GET /plans/:id/progress
func (h *PlanHandler) Progress(c *gin.Context) {
	p, err := h.plans.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, plan.ComputeProgress(p))
}

type markProgressRequest struct {
	TaskName string `json:"task_name" binding:"required"`
	Date     string `json:"date"`
}

// MarkProgress handles POST /plans/:id/progress
func (h *PlanHandler) MarkProgress(c *gin.Context) {
	var req markProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid progress request: " + err.Error()))
		c.Abort()
		return
	}

	date := req.Date
	if date == "" {
		date = h.now().UTC().Format(models.DateLayout)
	} else if _, err := time.Parse(models.DateLayout, date); err != nil {
		c.Error(apperrors.NewValidationError("date must use YYYY-MM-DD format"))
		c.Abort()
		return
	}

	found, added, err := h.engine.MarkTask(c.Request.Context(), c.Param("id"), req.TaskName, date)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	if !found {
		c.Error(apperrors.NewNotFoundError("task not found in plan"))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "progress updated successfully",
		"added":   added,
	})
}

// Deactivate handles DELETE /plans/:id
func (h *PlanHandler) Deactivate(c *gin.Context) {
	p, err := h.plans.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	if err := h.engine.Deactivate(c.Request.Context(), p); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "plan deactivated successfully"})
}

// Dashboard handles GET /dashboard/summary
func (h *PlanHandler) Dashboard(c *gin.Context) {
	plans, err := h.listPlans(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, plan.Summarize(plans))
}

// CheckDaily handles GET /progress/check-daily
func (h *PlanHandler) CheckDaily(c *gin.Context) {
	plans, err := h.listPlans(c)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	if len(plans) == 0 {
		c.JSON(http.StatusOK, gin.H{"should_ask": false, "message": "No active plans"})
		return
	}

	today := h.now().UTC().Format(models.DateLayout)
	pending := plan.PendingOn(plans, today)
	if len(pending) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"should_ask": false,
			"message":    "All tasks completed for today! Great job! 🎉",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"should_ask":    true,
		"message":       "You have pending tasks for today!",
		"pending_tasks": pending,
		"date":          today,
	})
}

type multiUpdateEntry struct {
	PlanID    string `json:"plan_id"`
	TaskName  string `json:"task_name"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

type multiUpdateRequest struct {
	Updates []multiUpdateEntry `json:"updates" binding:"required"`
}

// UpdateMultiple handles POST /progress/update-multiple
func (h *PlanHandler) UpdateMultiple(c *gin.Context) {
	var req multiUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid update request: " + err.Error()))
		c.Abort()
		return
	}

	today := h.now().UTC().Format(models.DateLayout)
	results := make([]gin.H, 0, len(req.Updates))

	for _, update := range req.Updates {
		if !update.Completed {
			continue
		}
		date := update.Date
		if date == "" {
			date = today
		}

		found, _, err := h.engine.MarkTask(c.Request.Context(), update.PlanID, update.TaskName, date)
		success := err == nil && found
		results = append(results, gin.H{
			"plan_id":   update.PlanID,
			"task_name": update.TaskName,
			"success":   success,
		})
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
