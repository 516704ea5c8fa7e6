package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format("2006-01-02") + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. PasswordHash is hidden from JSON responses.
// Body-profile fields are pointers — a fresh account has none of them, and
// the coach plan path reports exactly which ones are still missing.
type user struct {
	ID           int        `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Age          *int       `json:"age" db:"age"`
	Sex          *string    `json:"sex" db:"sex"`
	HeightCM     *float64   `json:"heightCm" db:"height_cm"`
	WeightKG     *float64   `json:"weightKg" db:"weight_kg"`
	CreatedAt    *time.Time `json:"created_at" db:"created_at"`
}

// activityLog maps to activity_logs. One row per logged activity session;
// a day can have several and the coach sums their minutes.
type activityLog struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Date      DateOnly   `json:"date" db:"date"`
	Minutes   int        `json:"minutes" db:"minutes"`
	Steps     *int       `json:"steps" db:"steps"`
	Type      *string    `json:"type" db:"type"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// mealItem is one food entry within a meal log. Calories are required;
// the remaining nutrients are optional and default to 0 when scoring.
type mealItem struct {
	Name     string   `json:"name"`
	Kcal     float64  `json:"kcal"`
	CarbG    *float64 `json:"carb_g"`
	ProteinG *float64 `json:"protein_g"`
	FatG     *float64 `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarG   *float64 `json:"sugar_g"`
	SodiumMG *float64 `json:"sodium_mg"`
}

// mealLog maps to meal_logs. Items are stored as a JSONB column — meals are
// written once and only ever read back whole, so there is no per-item table.
type mealLog struct {
	ID            int        `json:"id" db:"id"`
	UserID        int        `json:"user_id" db:"user_id"`
	Date          DateOnly   `json:"date" db:"date"`
	Items         []mealItem `json:"items" db:"items"`
	TotalCalories float64    `json:"total_calories" db:"total_calories"`
	Notes         *string    `json:"notes" db:"notes"`
	CreatedAt     *time.Time `json:"created_at" db:"created_at"`
}

/* ─── Request / response types ───────────────────────────────────────── */

// registerRequest is the request body for POST /auth/register.
// Profile fields are optional at sign-up; the coach asks for them later.
type registerRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Age      *int     `json:"age"`
	Sex      *string  `json:"sex"`
	HeightCM *float64 `json:"heightCm"`
	WeightKG *float64 `json:"weightKg"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is returned by both register and login.
type tokenResponse struct {
	Token string `json:"token"`
	User  user   `json:"user"`
}

// patchUserRequest is the request body for PATCH /api/users/me.
// All fields are pointers — only non-nil fields get written to the database.
type patchUserRequest struct {
	Name     *string  `json:"name"`
	Age      *int     `json:"age"`
	Sex      *string  `json:"sex"`
	HeightCM *float64 `json:"heightCm"`
	WeightKG *float64 `json:"weightKg"`
}

// logActivityRequest is the request body for POST /api/activity/log.
type logActivityRequest struct {
	Date    string  `json:"date"`
	Minutes int     `json:"minutes"`
	Steps   *int    `json:"steps"`
	Type    *string `json:"type"`
}

// logMealRequest is the request body for POST /api/meals/log.
type logMealRequest struct {
	Date  string     `json:"date"`
	Items []mealItem `json:"items"`
	Notes *string    `json:"notes"`
}

// motivateResponse is the response shape for GET /api/coach/motivate.
type motivateResponse struct {
	Date            string         `json:"date"`
	ActivityLevel   string         `json:"activity_level"`
	Minutes         int            `json:"minutes"`
	Plan            coachPlan      `json:"plan"`
	NutritionTotals nutrientTotals `json:"nutrition_totals"`
	Score           int            `json:"score"`
	Messages        []string       `json:"messages"`
}
