package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// setupRiskTest wires the predict routes to a mock ML service.
func setupRiskTest(upstreamStatus int, upstreamBody string) (*gin.Engine, *httptest.Server) {
	mockML := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(upstreamStatus)
		w.Write([]byte(upstreamBody))
	}))

	gin.SetMode(gin.TestMode)
	h := Handler{diabetesAPIURL: mockML.URL, heartAPIURL: mockML.URL}
	router := gin.New()
	stubAuth := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}
	router.POST("/api/ml/diabetes/predict", stubAuth, h.predictDiabetes)
	router.POST("/api/ml/heart/predict", stubAuth, h.predictHeart)
	return router, mockML
}

func doPredict(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestPredict_PassThrough verifies the upstream response is relayed
// untouched, including the feature-attribution list the backend treats as
// opaque advisory data.
func TestPredict_PassThrough(t *testing.T) {
	upstream := `{"probability":0.73,"label":1,"top_factors":[{"feature":"glucose","impact":0.4}]}`
	router, mockServer := setupRiskTest(http.StatusOK, upstream)
	defer mockServer.Close()

	w := doPredict(router, "/api/ml/heart/predict", `{"features":{"age":55,"trestbps":140},"top_k":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if string(resp["probability"]) != "0.73" {
		t.Errorf("probability = %s, want 0.73", resp["probability"])
	}
	if string(resp["label"]) != "1" {
		t.Errorf("label = %s, want 1", resp["label"])
	}
	if _, ok := resp["top_factors"]; !ok {
		t.Error("top_factors missing from relayed response")
	}
}

func TestPredict_EmptyFeatures(t *testing.T) {
	router, mockServer := setupRiskTest(http.StatusOK, `{}`)
	defer mockServer.Close()

	w := doPredict(router, "/api/ml/diabetes/predict", `{"features":{}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestPredict_UpstreamError(t *testing.T) {
	router, mockServer := setupRiskTest(http.StatusInternalServerError, `{"error":"model missing"}`)
	defer mockServer.Close()

	w := doPredict(router, "/api/ml/diabetes/predict", `{"features":{"glucose":120}}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestPredict_UpstreamDown(t *testing.T) {
	router, mockServer := setupRiskTest(http.StatusOK, `{}`)
	mockServer.Close() // connection refused from here on

	w := doPredict(router, "/api/ml/heart/predict", `{"features":{"age":60}}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}
