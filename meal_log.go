package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// clampLimit parses a limit query value, defaulting to 30 and capping at 100.
func clampLimit(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 30
	}
	if n > 100 {
		return 100
	}
	return n
}

// logMeal inserts a new meal entry. The day's calorie total is computed
// server-side from the items, not trusted from the client.
// POST /api/meals/log. Defaults date to today if omitted.
func (h *Handler) logMeal(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body logMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Items) == 0 {
		apiError(c, http.StatusBadRequest, "items must not be empty")
		return
	}
	for _, item := range body.Items {
		if item.Name == "" {
			apiError(c, http.StatusBadRequest, "every item needs a name")
			return
		}
		if item.Kcal < 0 {
			apiError(c, http.StatusBadRequest, "item kcal must be non-negative")
			return
		}
	}
	if body.Date == "" {
		body.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	var totalCalories float64
	for _, item := range body.Items {
		totalCalories += item.Kcal
	}

	// Items go into a jsonb column; marshal explicitly so the simple query
	// protocol sends a plain text literal Postgres can coerce.
	itemsJSON, err := json.Marshal(body.Items)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid items")
		return
	}

	entry, err := queryOne[mealLog](h.db, c,
		`INSERT INTO meal_logs (user_id, date, items, total_calories, notes)
		 VALUES (@userID, @date, @items, @totalCalories, @notes)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "date": body.Date, "items": string(itemsJSON),
			"totalCalories": totalCalories, "notes": body.Notes,
		})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to log meal")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// listMealLogs returns the user's most recent meal entries.
// GET /api/meals/logs?limit=N (default 30, capped at 100).
func (h *Handler) listMealLogs(c *gin.Context) {
	userID := c.GetInt("user_id")
	limit := clampLimit(c.DefaultQuery("limit", "30"))

	logs, err := queryMany[mealLog](h.db, c,
		`SELECT * FROM meal_logs
		 WHERE user_id = @userID
		 ORDER BY date DESC, created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meal logs")
		return
	}
	if logs == nil {
		logs = []mealLog{}
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
