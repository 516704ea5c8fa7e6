package main

import (
	"fmt"
	"math"
	"strings"
)

/* ─── Constant tables ────────────────────────────────────────────────── */

// activityMultipliers maps activity level strings to their TDEE multiplier.
// This is the single source of truth for valid activity levels — also used for
// input validation in patchCurrentUser.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// macroRatio is the fraction of calories assigned to each macro.
type macroRatio struct {
	Carb, Protein, Fat float64
}

// macroProfiles maps a macro split name to its carb/protein/fat calorie ratios.
// Unknown profile names fall back to "balanced".
var macroProfiles = map[string]macroRatio{
	"balanced":       {Carb: 0.45, Protein: 0.25, Fat: 0.30},
	"higher_protein": {Carb: 0.40, Protein: 0.30, Fat: 0.30},
}

// Adherence score weights. They sum to 1.0 so the weighted sub-scores map
// directly onto a 0–100 final score.
const (
	weightKcal     = 0.35
	weightMacros   = 0.35
	weightActivity = 0.20
	weightSugar    = 0.10
)

/* ─── Plan types ─────────────────────────────────────────────────────── */

// macroTargets is a day's gram-level macro plan, all values rounded to
// integers. Doubles as the "targets" input shape for adherenceScore.
type macroTargets struct {
	Kcal     int `json:"kcal"`
	CarbG    int `json:"carb_g"`
	ProteinG int `json:"protein_g"`
	FatG     int `json:"fat_g"`
}

// coachPlan is the energy/macro plan returned by GET /api/coach/plan.
// Computed fresh on every request, never persisted.
type coachPlan struct {
	BMR    int          `json:"bmr"`
	TDEE   int          `json:"tdee"`
	Macros macroTargets `json:"macros"`
}

// nutrientTotals is a day's summed meal intake. Callers supply it already
// aggregated; zero is the neutral default for anything not logged.
type nutrientTotals struct {
	Kcal     float64 `json:"kcal"`
	CarbG    float64 `json:"carb_g"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMG float64 `json:"sodium_mg"`
}

// validationError reports the profile fields that must be set before a plan
// can be computed. It is a client-correctable condition (400), never a 500.
type validationError struct {
	Missing []string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("please set %s in your profile", strings.Join(e.Missing, ", "))
}

/* ─── Energy model ───────────────────────────────────────────────────── */

// bmrKcal computes resting energy via Mifflin-St Jeor. The sex constant is
// chosen by case-insensitive prefix: "m…" +5, "f…" −161, anything else −78
// (midpoint used for unspecified/other sex). Inputs are validated upstream
// in buildPlan; this function itself has no error path.
func bmrKcal(sex string, age int, heightCM, weightKG float64) float64 {
	s := -78.0
	switch {
	case strings.HasPrefix(strings.ToLower(sex), "m"):
		s = 5
	case strings.HasPrefix(strings.ToLower(sex), "f"):
		s = -161
	}
	return 10*weightKG + 6.25*heightCM - 5*float64(age) + s
}

// tdeeKcal scales BMR by the activity multiplier. Unknown or empty activity
// keywords use the "light" factor — a deliberate leniency so a user without
// a saved activity level still gets a plan.
func tdeeKcal(bmr float64, activity string) float64 {
	mult, ok := activityMultipliers[strings.ToLower(activity)]
	if !ok {
		mult = activityMultipliers["light"]
	}
	return bmr * mult
}

/* ─── Macro planner ──────────────────────────────────────────────────── */

// macrosForProfile converts a calorie target into gram-level macro targets
// using the named split profile (unknown names fall back to balanced).
// Carb and protein are 4 kcal/g, fat is 9 kcal/g. Each value is rounded
// independently; the small rounding drift across macros is tolerated.
func macrosForProfile(kcal float64, profile string) macroTargets {
	r, ok := macroProfiles[profile]
	if !ok {
		r = macroProfiles["balanced"]
	}
	return macroTargets{
		Kcal:     int(math.Round(kcal)),
		CarbG:    int(math.Round(kcal * r.Carb / 4)),
		ProteinG: int(math.Round(kcal * r.Protein / 4)),
		FatG:     int(math.Round(kcal * r.Fat / 9)),
	}
}

/* ─── Goal adjuster ──────────────────────────────────────────────────── */

// buildPlan computes a user's daily energy and macro plan from their body
// profile, an activity level keyword, and a goal ("lose"/"maintain"/"gain").
// Returns a *validationError naming every missing required field when the
// profile is incomplete (nil or zero counts as missing).
func buildPlan(u *user, activity, goal string) (coachPlan, error) {
	var missing []string
	if u.Age == nil || *u.Age == 0 {
		missing = append(missing, "age")
	}
	if u.HeightCM == nil || *u.HeightCM == 0 {
		missing = append(missing, "heightCm")
	}
	if u.WeightKG == nil || *u.WeightKG == 0 {
		missing = append(missing, "weightKg")
	}
	if len(missing) > 0 {
		return coachPlan{}, &validationError{Missing: missing}
	}

	sex := "other"
	if u.Sex != nil {
		sex = *u.Sex
	}
	bmr := bmrKcal(sex, *u.Age, *u.HeightCM, *u.WeightKG)
	need := tdeeKcal(bmr, activity)

	// Mild goal adjustment: only trim calories for weight loss when BMI
	// indicates overweight; always add for gaining.
	bmi := *u.WeightKG / math.Pow(*u.HeightCM/100, 2)
	if goal == "lose" && bmi >= 25 {
		need -= 250
	}
	if goal == "gain" {
		need += 250
	}

	profile := "balanced"
	if goal == "lose" {
		profile = "higher_protein"
	}
	return coachPlan{
		BMR:    int(math.Round(bmr)),
		TDEE:   int(math.Round(need)),
		Macros: macrosForProfile(need, profile),
	}, nil
}

/* ─── Activity classifier ────────────────────────────────────────────── */

// activityLevelFromMinutes maps a day's movement minutes onto an activity
// level keyword. Threshold ladder, first match wins; negative minutes are
// treated as zero.
func activityLevelFromMinutes(mins int) string {
	switch {
	case mins >= 90:
		return "very_active"
	case mins >= 60:
		return "active"
	case mins >= 30:
		return "moderate"
	case mins >= 15:
		return "light"
	default:
		return "sedentary"
	}
}

/* ─── Adherence scorer ───────────────────────────────────────────────── */

// windowScore is the shared piecewise-linear tolerance primitive: full credit
// when the relative deviation is within `full`, zero credit at/beyond `zero`,
// linear decay in between. Score reproducibility depends on exactly this
// shape — keep it linear.
func windowScore(pctDiff, full, zero float64) float64 {
	if pctDiff <= full {
		return 1.0
	}
	if pctDiff >= zero {
		return 0.0
	}
	return 1.0 - (pctDiff-full)/(zero-full)
}

// adherenceScore compares a day's actual intake and activity minutes against
// the plan's macro targets. Returns a 0–100 score and an ordered message
// list whose first entry is the overall day verdict. Total over its input
// domain — missing data scores as zero, never as an error.
func adherenceScore(targets macroTargets, totals nutrientTotals, mins int) (int, []string) {
	if mins < 0 {
		mins = 0
	}

	// 1) Calories: full credit inside ±10%, none beyond ±20%. A zero target
	// gets a neutral 0.5 rather than a divide-by-zero or a free pass.
	kcalScore := 0.5
	if targets.Kcal > 0 {
		pct := math.Abs(totals.Kcal-float64(targets.Kcal)) / float64(targets.Kcal)
		kcalScore = windowScore(pct, 0.10, 0.20)
	}

	// 2) Macros: full inside ±15%, none beyond ±30%. Only macros with a
	// positive target participate in the average; with no positive targets
	// the sub-score defaults to a neutral 0.5 (a separate decision from the
	// calorie fallback, even though the values coincide today).
	var parts []float64
	for _, m := range []struct {
		actual float64
		target int
	}{
		{totals.CarbG, targets.CarbG},
		{totals.ProteinG, targets.ProteinG},
		{totals.FatG, targets.FatG},
	} {
		if m.target > 0 {
			pct := math.Abs(m.actual-float64(m.target)) / float64(m.target)
			parts = append(parts, windowScore(pct, 0.15, 0.30))
		}
	}
	macScore := 0.5
	if len(parts) > 0 {
		sum := 0.0
		for _, p := range parts {
			sum += p
		}
		macScore = sum / float64(len(parts))
	}

	// 3) Activity: 30 minutes is full credit, linear below, capped above.
	actScore := math.Min(1.0, float64(mins)/30.0)

	// 4) Sugar: step function on total grams.
	sugScore := 0.0
	switch {
	case totals.SugarG <= 50:
		sugScore = 1.0
	case totals.SugarG <= 75:
		sugScore = 0.5
	}

	score := weightKcal*kcalScore + weightMacros*macScore +
		weightActivity*actScore + weightSugar*sugScore
	final := int(math.Round(score * 100))

	msgs := composeMessages(final, kcalScore, actScore, targets, totals)
	return final, msgs
}

// composeMessages builds the coaching message list for adherenceScore.
// Ordering is part of the contract: headline first, then activity, then
// calories, then the optional sugar and fiber advisories.
func composeMessages(final int, kcalScore, actScore float64, targets macroTargets, totals nutrientTotals) []string {
	var msgs []string

	switch {
	case final >= 85:
		msgs = append(msgs, "🔥 Fantastic day! Keep this momentum.")
	case final >= 70:
		msgs = append(msgs, "👏 Solid work — you're on track.")
	default:
		msgs = append(msgs, "You've got this — small changes add up. 💪")
	}

	if actScore >= 1.0 {
		msgs = append(msgs, "Great job hitting 30+ active minutes! 🎉")
	} else {
		msgs = append(msgs, "Try to reach 30+ minutes of movement today — even a brisk walk helps.")
	}

	switch {
	case kcalScore >= 0.9:
		msgs = append(msgs, "Calories are nicely on target. 👍")
	case totals.Kcal > float64(targets.Kcal):
		msgs = append(msgs, "Slightly over calorie target — a lighter dinner or short walk can balance it.")
	default:
		msgs = append(msgs, "Slightly under calories — consider a protein-rich snack.")
	}

	if totals.SugarG > 50 {
		msgs = append(msgs, "Sugar is a bit high today. Swap sweet drinks for water/unsweetened tea.")
	}
	if totals.FiberG < 25 {
		msgs = append(msgs, "Aim for ~25g fiber: oats, veggies, beans, or fruit can help.")
	}
	return msgs
}
