package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// envOr returns the value of the environment variable or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetPrefix("predictmedi: ")
	log.SetFlags(0)

	// .env is optional in production — real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] no .env file loaded: %v", err)
	}
	if os.Getenv("JWT_SECRET") == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}

	h := &Handler{
		db:             getDBPool(),
		fdcBaseURL:     envOr("FDC_BASE", "https://api.nal.usda.gov/fdc/v1"),
		diabetesAPIURL: envOr("DIABETES_API_URL", "http://127.0.0.1:8001"),
		heartAPIURL:    envOr("HEART_API_URL", "http://127.0.0.1:8002"),
		foodCache:      newTTLCache(256, 15*time.Minute),
	}

	router := gin.Default()
	router.SetTrustedProxies(nil)

	// The dev frontend runs on Vite's default port.
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	h.registerRoutes(router)

	addr := ":" + envOr("PORT", "8080")
	fmt.Printf("Starting PredictMedi API on %s...\n", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("[main] server exited: %v", err)
	}
}
