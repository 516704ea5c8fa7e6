package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

/* ─── Response types ─────────────────────────────────────────────────── */

// foodSearchItem is one light-weight result for the UI food picker.
type foodSearchItem struct {
	FdcID           int      `json:"fdcId"`
	Description     string   `json:"description"`
	BrandOwner      *string  `json:"brandOwner"`
	DataType        *string  `json:"dataType"`
	ServingSize     *float64 `json:"servingSize"`
	ServingSizeUnit *string  `json:"servingSizeUnit"`
}

// foodMacros is the minimal nutrient set extracted from an FDC food record.
// Pointers distinguish "not reported" from a genuine zero.
type foodMacros struct {
	Kcal     *float64 `json:"kcal"`
	ProteinG *float64 `json:"protein_g"`
	CarbG    *float64 `json:"carb_g"`
	FatG     *float64 `json:"fat_g"`
	FiberG   *float64 `json:"fiber_g"`
	SugarG   *float64 `json:"sugar_g"`
	SodiumMG *float64 `json:"sodium_mg"`
}

// foodDetailResponse is the response shape for GET /api/nutrition/food/:fdcId.
type foodDetailResponse struct {
	FdcID       int        `json:"fdcId"`
	Description string     `json:"description"`
	Serving     struct {
		Amount float64 `json:"amount"`
		Unit   string  `json:"unit"`
	} `json:"serving"`
	MacrosPerServing foodMacros `json:"macros_per_serving"`
}

/* ─── FDC upstream types ─────────────────────────────────────────────── */

type fdcNutrient struct {
	Nutrient struct {
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`
}

type fdcFood struct {
	FdcID           int           `json:"fdcId"`
	Description     string        `json:"description"`
	ServingSize     *float64      `json:"servingSize"`
	ServingSizeUnit *string       `json:"servingSizeUnit"`
	FoodNutrients   []fdcNutrient `json:"foodNutrients"`
}

type fdcSearchResponse struct {
	TotalHits int `json:"totalHits"`
	Foods     []struct {
		FdcID           int      `json:"fdcId"`
		Description     string   `json:"description"`
		BrandOwner      *string  `json:"brandOwner"`
		DataType        *string  `json:"dataType"`
		ServingSize     *float64 `json:"servingSize"`
		ServingSizeUnit *string  `json:"servingSizeUnit"`
	} `json:"foods"`
}

// pickMacros extracts the seven tracked nutrients from an FDC food record.
// Matching is an exact allow-list of FDC nutrient names — FDC also publishes
// near-miss variants ("Sugars, added", "Fiber, insoluble", Atwater-specific
// energy) that must not overwrite the totals. Sodium is already in mg.
func pickMacros(food fdcFood) foodMacros {
	var out foodMacros
	for _, n := range food.FoodNutrients {
		if n.Amount == nil {
			continue
		}
		v := *n.Amount
		switch strings.ToLower(n.Nutrient.Name) {
		case "energy", "energy (atwater general factors)":
			out.Kcal = &v
		case "protein":
			out.ProteinG = &v
		case "carbohydrate, by difference":
			out.CarbG = &v
		case "total lipid (fat)":
			out.FatG = &v
		case "fiber, total dietary":
			out.FiberG = &v
		case "sugars, total including nlea":
			out.SugarG = &v
		case "sodium, na":
			out.SodiumMG = &v
		}
	}
	return out
}

/* ─── Detail cache ───────────────────────────────────────────────────── */

// ttlCache is a small time- and size-bounded cache for FDC food detail
// responses. FDC records change rarely and the per-key rate limit is tight,
// so a short TTL saves most of the upstream calls a food-picker UI makes.
type ttlCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	maxEntries int
	ttl        time.Duration
}

type cacheEntry struct {
	value     foodDetailResponse
	expiresAt time.Time
}

func newTTLCache(maxEntries int, ttl time.Duration) *ttlCache {
	return &ttlCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (tc *ttlCache) get(key string) (foodDetailResponse, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	e, ok := tc.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		delete(tc.entries, key)
		return foodDetailResponse{}, false
	}
	return e.value, true
}

func (tc *ttlCache) set(key string, value foodDetailResponse) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	// Purge expired entries first; if still at capacity, drop the entry
	// closest to expiry. Scanning is fine at this size.
	now := time.Now()
	for k, e := range tc.entries {
		if now.After(e.expiresAt) {
			delete(tc.entries, k)
		}
	}
	if len(tc.entries) >= tc.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range tc.entries {
			if oldestKey == "" || e.expiresAt.Before(oldest) {
				oldestKey, oldest = k, e.expiresAt
			}
		}
		delete(tc.entries, oldestKey)
	}
	tc.entries[key] = cacheEntry{value: value, expiresAt: now.Add(tc.ttl)}
}

/* ─── Handlers ───────────────────────────────────────────────────────── */

// fdcGet performs a GET against the FDC API with the api_key attached.
// Uses raw net/http — the FDC surface we need is two endpoints.
func (h *Handler) fdcGet(c *gin.Context, path string, params url.Values) ([]byte, int, error) {
	apiKey := os.Getenv("FDC_API_KEY")
	if apiKey == "" {
		return nil, 0, fmt.Errorf("FDC_API_KEY not set")
	}
	params.Set("api_key", apiKey)

	req, err := http.NewRequestWithContext(c.Request.Context(), "GET",
		h.fdcBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 8 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// searchFoods proxies a food text search to FDC and returns light results.
// GET /api/nutrition/search?q=oats&page_size=15.
func (h *Handler) searchFoods(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) < 2 {
		apiError(c, http.StatusBadRequest, "q must be at least 2 characters")
		return
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "15"))
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 50 {
		pageSize = 50
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("dataType", "Survey (FNDDS),SR Legacy,Foundation")

	body, status, err := h.fdcGet(c, "/foods/search", params)
	if err != nil {
		log.Printf("[nutrition] FDC search error: %v", err)
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}
	if status != http.StatusOK {
		log.Printf("[nutrition] FDC search returned %d: %s", status, string(body))
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}

	var data fdcSearchResponse
	if err := json.Unmarshal(body, &data); err != nil {
		log.Printf("[nutrition] FDC search parse error: %v", err)
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}

	items := make([]foodSearchItem, 0, len(data.Foods))
	for _, f := range data.Foods {
		items = append(items, foodSearchItem{
			FdcID:           f.FdcID,
			Description:     f.Description,
			BrandOwner:      f.BrandOwner,
			DataType:        f.DataType,
			ServingSize:     f.ServingSize,
			ServingSizeUnit: f.ServingSizeUnit,
		})
	}

	c.JSON(http.StatusOK, gin.H{"total": data.TotalHits, "items": items})
}

// getFoodDetail proxies an FDC food lookup and extracts per-serving macros.
// Responses are cached (TTL + size bound) since FDC records rarely change.
// GET /api/nutrition/food/:fdcId.
func (h *Handler) getFoodDetail(c *gin.Context) {
	fdcID := c.Param("fdcId")
	if _, err := strconv.Atoi(fdcID); err != nil {
		apiError(c, http.StatusBadRequest, "fdcId must be an integer")
		return
	}

	if cached, ok := h.foodCache.get(fdcID); ok {
		c.JSON(http.StatusOK, cached)
		return
	}

	body, status, err := h.fdcGet(c, "/food/"+fdcID, url.Values{})
	if err != nil {
		log.Printf("[nutrition] FDC detail error: %v", err)
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}
	if status == http.StatusNotFound {
		apiError(c, http.StatusNotFound, "food not found")
		return
	}
	if status != http.StatusOK {
		log.Printf("[nutrition] FDC detail returned %d: %s", status, string(body))
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}

	var food fdcFood
	if err := json.Unmarshal(body, &food); err != nil {
		log.Printf("[nutrition] FDC detail parse error: %v", err)
		apiError(c, http.StatusBadGateway, "nutrition lookup failed")
		return
	}

	resp := foodDetailResponse{
		FdcID:            food.FdcID,
		Description:      food.Description,
		MacrosPerServing: pickMacros(food),
	}
	// Prefer the declared serving size; otherwise report per 100 g,
	// which is how FDC publishes nutrient amounts.
	resp.Serving.Amount = 100
	resp.Serving.Unit = "g"
	if food.ServingSize != nil {
		resp.Serving.Amount = *food.ServingSize
	}
	if food.ServingSizeUnit != nil {
		resp.Serving.Unit = *food.ServingSizeUnit
	}

	h.foodCache.set(fdcID, resp)
	c.JSON(http.StatusOK, resp)
}
