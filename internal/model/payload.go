package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// CurrentSchemaVersion is written with every typed payload. Version 0 marks
// the Unknown -> typed transition window: a version-0 payload always decodes
// as PendingPayload regardless of the stored entry type.
const CurrentSchemaVersion = 1

// Payload is the type-specific structured body attached to an entry.
// Exactly one concrete variant exists per entry type; PendingPayload is the
// staging variant for entries awaiting remote classification.
type Payload interface {
	PayloadType() EntryType
	// Description returns the short human description shared by all variants.
	Description() string
}

// PendingPayload is the staging payload carried by Unknown entries (and by
// any entry whose schema version is still 0).
type PendingPayload struct {
	Note        string `json:"note,omitempty"`
	PreviewPath string `json:"preview_path,omitempty"`
}

func (p *PendingPayload) PayloadType() EntryType { return EntryTypeUnknown }
func (p *PendingPayload) Description() string    { return p.Note }

// MealPayload describes a logged meal.
type MealPayload struct {
	Name        string  `json:"name,omitempty"`
	Note        string  `json:"note,omitempty"`
	PreviewPath string  `json:"preview_path,omitempty"`
	Calories    float64 `json:"calories,omitempty"`
}

func (p *MealPayload) PayloadType() EntryType { return EntryTypeMeal }
func (p *MealPayload) Description() string {
	if p.Note != "" {
		return p.Note
	}
	return p.Name
}

// ExercisePayload describes a logged exercise session.
type ExercisePayload struct {
	ExerciseType    string `json:"exercise_type,omitempty"`
	Note            string `json:"note,omitempty"`
	PreviewPath     string `json:"preview_path,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

func (p *ExercisePayload) PayloadType() EntryType { return EntryTypeExercise }
func (p *ExercisePayload) Description() string {
	if p.Note != "" {
		return p.Note
	}
	return p.ExerciseType
}

// DailySummaryPayload is the body of a day's summary slot entry.
type DailySummaryPayload struct {
	Note            string `json:"note,omitempty"`
	PreviewPath     string `json:"preview_path,omitempty"`
	Highlights      string `json:"highlights,omitempty"`
	Recommendations string `json:"recommendations,omitempty"`
}

func (p *DailySummaryPayload) PayloadType() EntryType { return EntryTypeDailySummary }
func (p *DailySummaryPayload) Description() string    { return p.Note }

// EncodePayload serializes a payload for storage.
func EncodePayload(p Payload) (string, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload deserializes a stored payload. Dispatch is a pure function of
// (entryType, schemaVersion): version 0 always yields a PendingPayload, and
// types without a dedicated variant (sleep, other, unknown) stay on
// PendingPayload at any version.
func DecodePayload(entryType EntryType, schemaVersion int, raw string) (Payload, error) {
	if raw == "" {
		raw = "{}"
	}

	if schemaVersion == 0 {
		var p PendingPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode pending payload: %w", err)
		}
		return &p, nil
	}

	switch entryType {
	case EntryTypeMeal:
		var p MealPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode meal payload: %w", err)
		}
		return &p, nil
	case EntryTypeExercise:
		var p ExercisePayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode exercise payload: %w", err)
		}
		return &p, nil
	case EntryTypeDailySummary:
		var p DailySummaryPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode daily summary payload: %w", err)
		}
		return &p, nil
	default:
		var p PendingPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode pending payload: %w", err)
		}
		return &p, nil
	}
}

// ConvertPendingPayload builds the typed payload for a newly classified
// entry, carrying over the shared fields from the staging payload. Target
// types without a dedicated variant return nil (payload left unchanged).
func ConvertPendingPayload(pending *PendingPayload, target EntryType) Payload {
	switch target {
	case EntryTypeMeal:
		return &MealPayload{Note: pending.Note, PreviewPath: pending.PreviewPath}
	case EntryTypeExercise:
		return &ExercisePayload{Note: pending.Note, PreviewPath: pending.PreviewPath}
	case EntryTypeDailySummary:
		return &DailySummaryPayload{Note: pending.Note, PreviewPath: pending.PreviewPath}
	default:
		return nil
	}
}

// PreviewPath extracts the secondary preview asset reference from any payload
// variant, empty when the variant carries none.
func PreviewPath(p Payload) string {
	switch v := p.(type) {
	case *PendingPayload:
		return v.PreviewPath
	case *MealPayload:
		return v.PreviewPath
	case *ExercisePayload:
		return v.PreviewPath
	case *DailySummaryPayload:
		return v.PreviewPath
	}
	return ""
}

// SetPreviewPath rewrites the preview asset reference after relocation.
func SetPreviewPath(p Payload, path string) {
	switch v := p.(type) {
	case *PendingPayload:
		v.PreviewPath = path
	case *MealPayload:
		v.PreviewPath = path
	case *ExercisePayload:
		v.PreviewPath = path
	case *DailySummaryPayload:
		v.PreviewPath = path
	}
}
