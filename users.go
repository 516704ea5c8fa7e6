package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// getCurrentUser returns the authenticated user's profile.
// GET /api/users/me.
func (h *Handler) getCurrentUser(c *gin.Context) {
	userID := c.GetInt("user_id")

	u, err := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}

// patchCurrentUser updates only the provided profile fields.
// PATCH /api/users/me. Pointer fields in the request body distinguish
// "not provided" from zero — only non-nil fields get updated.
// Sex is lowercased but not restricted to an enum: the energy model maps any
// unrecognised value onto its "other" constant, so rejecting here would only
// break clients without improving the plan.
func (h *Handler) patchCurrentUser(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body patchUserRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if body.Name != nil && len(strings.TrimSpace(*body.Name)) < 2 {
		apiError(c, http.StatusBadRequest, "name must be at least 2 characters")
		return
	}
	if body.Age != nil && (*body.Age < 0 || *body.Age > 130) {
		apiError(c, http.StatusBadRequest, "age must be between 0 and 130")
		return
	}
	if body.HeightCM != nil && (*body.HeightCM <= 0 || *body.HeightCM > 300) {
		apiError(c, http.StatusBadRequest, "heightCm must be between 0 and 300")
		return
	}
	if body.WeightKG != nil && (*body.WeightKG <= 0 || *body.WeightKG > 700) {
		apiError(c, http.StatusBadRequest, "weightKg must be between 0 and 700")
		return
	}

	// Build SET clause dynamically — only update fields the client actually sent
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if body.Name != nil {
		setClauses = append(setClauses, "name = @name")
		args["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Age != nil {
		setClauses = append(setClauses, "age = @age")
		args["age"] = *body.Age
	}
	if body.Sex != nil {
		setClauses = append(setClauses, "sex = @sex")
		args["sex"] = strings.ToLower(*body.Sex)
	}
	if body.HeightCM != nil {
		setClauses = append(setClauses, "height_cm = @heightCM")
		args["heightCM"] = *body.HeightCM
	}
	if body.WeightKG != nil {
		setClauses = append(setClauses, "weight_kg = @weightKG")
		args["weightKG"] = *body.WeightKG
	}

	if len(setClauses) == 0 {
		apiError(c, http.StatusBadRequest, "no fields to update")
		return
	}

	query := "UPDATE users SET " +
		strings.Join(setClauses, ", ") +
		" WHERE id = @userID RETURNING *"

	u, err := queryOne[user](h.db, c, query, args)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": u})
}
