package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// logActivity inserts a new activity entry.
// POST /api/activity/log. Defaults date to today if omitted.
func (h *Handler) logActivity(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body logActivityRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}
	// Validate date format before inserting — an invalid value is a cryptic DB error.
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if body.Minutes < 0 {
		apiError(c, http.StatusBadRequest, "minutes must be non-negative")
		return
	}
	if body.Steps != nil && *body.Steps < 0 {
		apiError(c, http.StatusBadRequest, "steps must be non-negative")
		return
	}

	entry, err := queryOne[activityLog](h.db, c,
		`INSERT INTO activity_logs (user_id, date, minutes, steps, type)
		 VALUES (@userID, @date, @minutes, @steps, @type)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date,
			"minutes": body.Minutes, "steps": body.Steps, "type": body.Type,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to log activity")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// listActivityLogs returns the user's most recent activity entries.
// GET /api/activity/logs?limit=N (default 30, capped at 100).
func (h *Handler) listActivityLogs(c *gin.Context) {
	userID := c.GetInt("user_id")
	limit := clampLimit(c.DefaultQuery("limit", "30"))

	logs, err := queryMany[activityLog](h.db, c,
		`SELECT * FROM activity_logs
		 WHERE user_id = @userID
		 ORDER BY date DESC, created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity logs")
		return
	}
	// Ensure logs is an empty array (not null) in JSON
	if logs == nil {
		logs = []activityLog{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
