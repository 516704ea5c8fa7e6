package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// predictRequest is forwarded verbatim to the ML services. Features are an
// opaque name→value map; the backend never interprets them.
type predictRequest struct {
	Features map[string]float64 `json:"features"`
	TopK     *int               `json:"top_k,omitempty"`
}

// forwardPredict POSTs a predict payload to an ML service and relays the
// response body through unchanged. The services return {probability, label}
// plus an optional ranked feature-attribution list, all of which is advisory
// data this backend passes along without touching.
func forwardPredict(c *gin.Context, baseURL, tag string) {
	var body predictRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Features) == 0 {
		apiError(c, http.StatusBadRequest, "features are required")
		return
	}

	payload, err := json.Marshal(body)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid features")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), "POST",
		baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to build upstream request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[%s] upstream error: %v", tag, err)
		apiError(c, http.StatusBadGateway, "risk service unavailable")
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[%s] read error: %v", tag, err)
		apiError(c, http.StatusBadGateway, "risk service unavailable")
		return
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[%s] upstream returned %d: %s", tag, resp.StatusCode, string(respBody))
		apiError(c, http.StatusBadGateway, fmt.Sprintf("risk service returned %d", resp.StatusCode))
		return
	}

	c.Data(http.StatusOK, "application/json", respBody)
}

// predictDiabetes proxies to the diabetes risk ML service.
// POST /api/ml/diabetes/predict.
func (h *Handler) predictDiabetes(c *gin.Context) {
	forwardPredict(c, h.diabetesAPIURL, "diabetes-ml")
}

// predictHeart proxies to the heart risk ML service.
// POST /api/ml/heart/predict.
func (h *Handler) predictHeart(c *gin.Context) {
	forwardPredict(c, h.heartAPIURL, "heart-ml")
}
