package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// setupTipsTest wires the tips route. The handler never touches the
// database, so an empty Handler is enough.
func setupTipsTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := Handler{}
	router := gin.New()
	stubAuth := func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}
	router.GET("/api/coach/tips", stubAuth, h.getCoachTips)
	return router
}

func doTips(router *gin.Engine, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/coach/tips"+query, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func tipsFrom(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Tips []string `json:"tips"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp.Tips
}

// TestTips_Defaults verifies the no-parameter call lands on the
// encouragement tip: 30 minutes and 0 g sugar trip neither rule.
func TestTips_Defaults(t *testing.T) {
	router := setupTipsTest()

	w := doTips(router, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	tips := tipsFrom(t, w)
	if len(tips) != 1 || !strings.Contains(tips[0], "Great job") {
		t.Errorf("tips = %v, want the single encouragement tip", tips)
	}
}

// TestTips_Rules verifies the movement and sugar rules fire on their
// thresholds.
func TestTips_Rules(t *testing.T) {
	router := setupTipsTest()

	w := doTips(router, "?activity_minutes=10&sugar_g_today=80")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	tips := tipsFrom(t, w)
	if len(tips) != 2 {
		t.Fatalf("tips = %v, want movement and sugar tips", tips)
	}
	if !strings.Contains(tips[0], "30+ minutes") {
		t.Errorf("tips[0] = %q, want the movement tip", tips[0])
	}
	if !strings.Contains(tips[1], "sugar") {
		t.Errorf("tips[1] = %q, want the sugar tip", tips[1])
	}
}

// TestTips_BadParams verifies unparseable query values return 400 instead of
// being silently treated as zero.
func TestTips_BadParams(t *testing.T) {
	router := setupTipsTest()

	cases := []struct {
		name  string
		query string
	}{
		{"non-integer minutes", "?activity_minutes=abc"},
		{"fractional minutes", "?activity_minutes=12.5"},
		{"non-numeric sugar", "?sugar_g_today=lots"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doTips(router, tc.query)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}
