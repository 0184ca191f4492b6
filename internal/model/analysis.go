package model

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
)

// Analysis is one stored remote-model result for an entry. Multiple
// historical rows may exist per entry; only the most recent one is
// authoritative. Document holds the raw model output verbatim, which may or
// may not parse as a UnifiedAnalysis.
type Analysis struct {
	ID        int64
	EntryID   int64
	Document  string
	Provider  string
	Model     string
	CreatedAt time.Time
}

// ParseDocument attempts to decode the stored document as a unified analysis.
func (a *Analysis) ParseDocument() (*UnifiedAnalysis, error) {
	return ParseUnifiedAnalysis(a.Document)
}

// UnifiedAnalysis is the model's single structured output: a declared entry
// type plus the matching type-specific detail section. Validation tags are
// advisory only (see Validate).
type UnifiedAnalysis struct {
	EntryType   string  `json:"entry_type"`
	Confidence  float64 `json:"confidence" validate:"min:0|max:1"`
	HealthScore int     `json:"health_score" validate:"min:0|max:100"`
	Summary     string  `json:"summary"`

	Meal       *MealAnalysis       `json:"meal,omitempty"`
	Exercise   *ExerciseAnalysis   `json:"exercise,omitempty"`
	Sleep      *SleepAnalysis      `json:"sleep,omitempty"`
	DaySummary *DaySummaryAnalysis `json:"day_summary,omitempty"`
}

// ConfigValidation disables gookit's implicit required checks so that only
// the explicit range tags participate.
func (u UnifiedAnalysis) ConfigValidation(v *validate.Validation) {
	v.StopOnError = false
	v.SkipOnEmpty = true
}

// MealAnalysis is the meal detail section.
type MealAnalysis struct {
	Name      string     `json:"name"`
	Items     []string   `json:"items"`
	Nutrition *Nutrition `json:"nutrition,omitempty"`
}

// Nutrition holds estimated macros for one meal. All values are per serving
// as depicted in the photo.
type Nutrition struct {
	Calories float64 `json:"calories" validate:"min:0"`
	Protein  float64 `json:"protein" validate:"min:0"`
	Carbs    float64 `json:"carbs" validate:"min:0"`
	Fat      float64 `json:"fat" validate:"min:0"`
	Fiber    float64 `json:"fiber" validate:"min:0"`
	Sugar    float64 `json:"sugar" validate:"min:0"`
}

// ExerciseAnalysis is the exercise detail section.
type ExerciseAnalysis struct {
	ExerciseType    string  `json:"exercise_type"`
	DurationMinutes int     `json:"duration_minutes" validate:"min:0"`
	CaloriesBurned  float64 `json:"calories_burned" validate:"min:0"`
	Intensity       string  `json:"intensity"`
}

// SleepAnalysis is the sleep detail section.
type SleepAnalysis struct {
	DurationMinutes int    `json:"duration_minutes" validate:"min:0"`
	Quality         string `json:"quality"`
}

// DaySummaryAnalysis is the day-summary detail section produced by the
// aggregate daily call.
type DaySummaryAnalysis struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

// ParseUnifiedAnalysis decodes a raw model document. Callers must tolerate an
// error here: malformed documents are still stored verbatim, only the derived
// classification and validation steps are skipped.
func ParseUnifiedAnalysis(raw string) (*UnifiedAnalysis, error) {
	var ua UnifiedAnalysis
	if err := json.Unmarshal([]byte(raw), &ua); err != nil {
		return nil, fmt.Errorf("failed to parse unified analysis: %w", err)
	}
	return &ua, nil
}

// ValidationResult carries advisory findings about a parsed analysis.
// It never influences persistence.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// OK reports whether validation found nothing at all.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Warnings) == 0
}

// ValidateAnalysis runs advisory range and structure checks over a parsed
// unified analysis. Range violations (confidence, health score, nutrition)
// land in Errors; structural gaps (missing detail sections or arrays) land in
// Warnings. The caller logs the result and must not let it block persistence.
func ValidateAnalysis(ua *UnifiedAnalysis) ValidationResult {
	var result ValidationResult

	v := validate.Struct(ua)
	if !v.Validate() {
		for field, msgs := range v.Errors.All() {
			for _, msg := range msgs {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", field, msg))
			}
		}
	}

	detected, known := ParseEntryType(ua.EntryType)
	if !known {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unrecognized entry_type %q", ua.EntryType))
		return result
	}

	switch detected {
	case EntryTypeMeal:
		if ua.Meal == nil {
			result.Warnings = append(result.Warnings, "meal analysis missing meal section")
		} else if len(ua.Meal.Items) == 0 {
			result.Warnings = append(result.Warnings, "meal analysis has no items")
		}
	case EntryTypeExercise:
		if ua.Exercise == nil {
			result.Warnings = append(result.Warnings, "exercise analysis missing exercise section")
		}
	case EntryTypeSleep:
		if ua.Sleep == nil {
			result.Warnings = append(result.Warnings, "sleep analysis missing sleep section")
		}
	case EntryTypeDailySummary:
		if ua.DaySummary == nil {
			result.Warnings = append(result.Warnings, "day summary analysis missing day_summary section")
		} else {
			if len(ua.DaySummary.Insights) == 0 {
				result.Warnings = append(result.Warnings, "day summary has no insights")
			}
			if len(ua.DaySummary.Recommendations) == 0 {
				result.Warnings = append(result.Warnings, "day summary has no recommendations")
			}
		}
	}

	return result
}
