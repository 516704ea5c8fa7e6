package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// loadCurrentUser fetches the authenticated user's row. The middleware has
// already confirmed the row exists, so an error here is a real DB failure.
func (h *Handler) loadCurrentUser(c *gin.Context) (user, error) {
	return queryOne[user](h.db, c,
		"SELECT * FROM users WHERE id = @userID",
		pgx.NamedArgs{"userID": c.GetInt("user_id")})
}

// getCoachPlan returns the user's daily energy and macro plan.
// GET /api/coach/plan?activity=light&goal=maintain.
// An incomplete profile yields a 400 naming the missing fields — a
// client-correctable condition, not a server fault.
func (h *Handler) getCoachPlan(c *gin.Context) {
	u, err := h.loadCurrentUser(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	activity := c.DefaultQuery("activity", "light")
	goal := c.DefaultQuery("goal", "maintain")

	plan, err := buildPlan(&u, activity, goal)
	if err != nil {
		var ve *validationError
		if errors.As(err, &ve) {
			apiError(c, http.StatusBadRequest, "Profile incomplete: "+ve.Error())
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to build plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

// getCoachTips returns quick rule-based tips without touching the plan.
// GET /api/coach/tips?activity_minutes=30&sugar_g_today=0.
func (h *Handler) getCoachTips(c *gin.Context) {
	minutes, err := strconv.Atoi(c.DefaultQuery("activity_minutes", "30"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "activity_minutes must be an integer")
		return
	}
	sugar, err := strconv.ParseFloat(c.DefaultQuery("sugar_g_today", "0"), 64)
	if err != nil {
		apiError(c, http.StatusBadRequest, "sugar_g_today must be a number")
		return
	}

	var tips []string
	if minutes < 30 {
		tips = append(tips, "Try to reach 30+ minutes of movement today. A short brisk walk counts!")
	}
	if sugar > 50 {
		tips = append(tips, "Today's sugar is high. Swap sweet drinks for water/unsweetened tea.")
	}
	if len(tips) == 0 {
		tips = append(tips, "Great job keeping a healthy routine! 🎉 Keep it up.")
	}

	c.JSON(http.StatusOK, gin.H{"tips": tips})
}

// dayTotalsRow is the shape of the meal-log aggregation for one day.
// Items live in jsonb, so the summing happens over the expanded elements.
type dayTotalsRow struct {
	Kcal     float64 `db:"kcal"`
	CarbG    float64 `db:"carb_g"`
	ProteinG float64 `db:"protein_g"`
	FatG     float64 `db:"fat_g"`
	FiberG   float64 `db:"fiber_g"`
	SugarG   float64 `db:"sugar_g"`
	SodiumMG float64 `db:"sodium_mg"`
}

// getCoachMotivate scores a completed day against a freshly computed plan.
// GET /api/coach/motivate?date=YYYY-MM-DD&goal=maintain (date defaults to today).
// The activity level fed into the plan is inferred from the day's logged
// minutes, so the plan and the score always describe the same day.
func (h *Handler) getCoachMotivate(c *gin.Context) {
	userID := c.GetInt("user_id")
	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	goal := c.DefaultQuery("goal", "maintain")

	if _, err := time.Parse("2006-01-02", date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	u, err := h.loadCurrentUser(c)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to load profile")
		return
	}

	// Sum the day's activity minutes.
	var minutes int
	err = h.db.QueryRow(c,
		`SELECT COALESCE(SUM(minutes), 0) FROM activity_logs
		 WHERE user_id = @userID AND date = @date`,
		pgx.NamedArgs{"userID": userID, "date": date}).Scan(&minutes)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch activity")
		return
	}

	actLevel := activityLevelFromMinutes(minutes)
	plan, err := buildPlan(&u, actLevel, goal)
	if err != nil {
		var ve *validationError
		if errors.As(err, &ve) {
			apiError(c, http.StatusBadRequest, "Profile incomplete: "+ve.Error())
			return
		}
		apiError(c, http.StatusInternalServerError, "failed to build plan")
		return
	}

	// Sum the day's nutrient totals across all meal items. NULL nutrient
	// fields contribute 0, matching the engine's missing-data policy.
	totalsRow, err := queryOne[dayTotalsRow](h.db, c,
		`SELECT
			COALESCE(SUM((item->>'kcal')::float), 0)      AS kcal,
			COALESCE(SUM((item->>'carb_g')::float), 0)    AS carb_g,
			COALESCE(SUM((item->>'protein_g')::float), 0) AS protein_g,
			COALESCE(SUM((item->>'fat_g')::float), 0)     AS fat_g,
			COALESCE(SUM((item->>'fiber_g')::float), 0)   AS fiber_g,
			COALESCE(SUM((item->>'sugar_g')::float), 0)   AS sugar_g,
			COALESCE(SUM((item->>'sodium_mg')::float), 0) AS sodium_mg
		 FROM meal_logs, jsonb_array_elements(items) AS item
		 WHERE user_id = @userID AND date = @date`,
		pgx.NamedArgs{"userID": userID, "date": date})
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to fetch meals")
		return
	}

	totals := nutrientTotals{
		Kcal:     totalsRow.Kcal,
		CarbG:    totalsRow.CarbG,
		ProteinG: totalsRow.ProteinG,
		FatG:     totalsRow.FatG,
		FiberG:   totalsRow.FiberG,
		SugarG:   totalsRow.SugarG,
		SodiumMG: totalsRow.SodiumMG,
	}

	score, messages := adherenceScore(plan.Macros, totals, minutes)

	c.JSON(http.StatusOK, motivateResponse{
		Date:            date,
		ActivityLevel:   actLevel,
		Minutes:         minutes,
		Plan:            plan,
		NutritionTotals: totals,
		Score:           score,
		Messages:        messages,
	})
}
