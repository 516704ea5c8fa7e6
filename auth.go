package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenLifetime is how long an access token stays valid. Seven days keeps
// mobile users logged in between sessions without a refresh-token flow.
const tokenLifetime = 7 * 24 * time.Hour

// jwtSecret returns the HS256 signing key from the environment.
func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// createAccessToken issues a signed JWT for the given user. The subject is
// the user ID; jti gets a fresh UUID so individual tokens are identifiable
// in logs.
func createAccessToken(u user) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(u.ID),
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
}

// parseAccessToken verifies a token string and returns the user ID from the
// subject claim. Rejects tokens not signed with HS256.
func parseAccessToken(tokenStr string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return jwtSecret(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(sub)
}

// normalizeSex lowercases the registered sex, defaulting to "other" when the
// field is omitted so every account carries a value the BMR formula can read.
func normalizeSex(s *string) string {
	if s == nil {
		return "other"
	}
	return strings.ToLower(*s)
}

// dummyHash is a pre-computed bcrypt hash used when a login email isn't found.
// Running bcrypt against it (instead of returning early) keeps response time
// constant, preventing timing-based account enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

// register creates a new account and returns a token plus the user.
// POST /auth/register (public). 409 when the email is already in use.
func (h *Handler) register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(strings.TrimSpace(body.Name)) < 2 {
		apiError(c, http.StatusBadRequest, "name must be at least 2 characters")
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if !strings.Contains(email, "@") {
		apiError(c, http.StatusBadRequest, "invalid email")
		return
	}
	if len(body.Password) < 6 {
		apiError(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	sex := normalizeSex(body.Sex)

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to hash password")
		return
	}

	u, err := queryOne[user](h.db, c,
		`INSERT INTO users (name, email, password_hash, age, sex, height_cm, weight_kg)
		 VALUES (@name, @email, @passwordHash, @age, @sex, @heightCM, @weightKG)
		 ON CONFLICT (email) DO NOTHING
		 RETURNING *`,
		pgx.NamedArgs{
			"name": strings.TrimSpace(body.Name), "email": email,
			"passwordHash": string(hash), "age": body.Age, "sex": sex,
			"heightCM": body.HeightCM, "weightKG": body.WeightKG,
		})
	if err != nil {
		// ON CONFLICT DO NOTHING yields no row when the email exists.
		if errors.Is(err, pgx.ErrNoRows) {
			apiError(c, http.StatusConflict, "email already in use")
		} else {
			apiError(c, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	token, err := createAccessToken(u)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create token")
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Token: token, User: u})
}

// login verifies email/password and returns a fresh token.
// POST /auth/login (public).
func (h *Handler) login(c *gin.Context) {
	var body loginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, lookupErr := queryOne[user](h.db, c,
		"SELECT * FROM users WHERE email = @email",
		pgx.NamedArgs{"email": strings.ToLower(strings.TrimSpace(body.Email))})

	// Always run bcrypt to keep response time constant regardless of whether
	// the email was found.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.PasswordHash
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := createAccessToken(u)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to create token")
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: token, User: u})
}

// authMiddleware validates the Bearer token and sets user_id on the context.
// The user row must still exist — a deleted account invalidates its tokens.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		userID, err := parseAccessToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		var exists int
		if err := h.db.QueryRow(c, "SELECT id FROM users WHERE id = $1", userID).Scan(&exists); err != nil {
			apiError(c, http.StatusUnauthorized, "user not found")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
