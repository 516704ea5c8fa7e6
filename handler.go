package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler holds shared dependencies (db pool, upstream base URLs) for all
// route handlers. The base URLs are overridable for tests.
type Handler struct {
	db             *pgxpool.Pool
	fdcBaseURL     string // USDA FoodData Central API
	diabetesAPIURL string // diabetes risk ML service
	heartAPIURL    string // heart risk ML service
	foodCache      *ttlCache
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
func queryOne[T any](pool *pgxpool.Pool, c *gin.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(c, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](pool *pgxpool.Pool, c *gin.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(c, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn)
// because managed Postgres providers close idle connections aggressively.
func getDBPool() *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	// Simple query protocol avoids "cached plan must not change result type"
	// errors from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("DB pool ready!")
	return pool
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	router.POST("/auth/register", h.register)
	router.POST("/auth/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/users/me", h.getCurrentUser)
	api.PATCH("/users/me", h.patchCurrentUser)
	api.POST("/activity/log", h.logActivity)
	api.GET("/activity/logs", h.listActivityLogs)
	api.POST("/meals/log", h.logMeal)
	api.GET("/meals/logs", h.listMealLogs)
	api.GET("/coach/plan", h.getCoachPlan)
	api.GET("/coach/tips", h.getCoachTips)
	api.GET("/coach/motivate", h.getCoachMotivate)
	api.GET("/nutrition/search", h.searchFoods)
	api.GET("/nutrition/food/:fdcId", h.getFoodDetail)
	api.POST("/ml/diabetes/predict", h.predictDiabetes)
	api.POST("/ml/heart/predict", h.predictHeart)
}
