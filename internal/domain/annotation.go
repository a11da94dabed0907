package domain

import (
	"encoding/json"
	"strings"
)

// FollowUpAnnotation is the JSON sidecar some legacy medical-record notes
// carry. Newer records track per-day reminder state in the reminder_log
// table; the annotation survives so the doctor's follow-up message can still
// be read out of older notes.
type FollowUpAnnotation struct {
	FollowUpMessage string `json:"follow_up_message,omitempty"`

	// Legacy per-day flags keyed "reminder_sent_<yyyy-mm-dd>". Preserved on
	// round-trip but no longer consulted for scheduling.
	Extra map[string]any `json:"-"`
}

// ParseFollowUpAnnotation decodes notes into an annotation. It is total:
// empty or non-JSON notes (clinician prose) yield an empty annotation, never
// an error.
func ParseFollowUpAnnotation(notes string) FollowUpAnnotation {
	var ann FollowUpAnnotation

	trimmed := strings.TrimSpace(notes)
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return ann
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return ann
	}

	if msg, ok := raw["follow_up_message"].(string); ok {
		ann.FollowUpMessage = msg
		delete(raw, "follow_up_message")
	}

	if len(raw) > 0 {
		ann.Extra = raw
	}

	return ann
}

// Encode serializes the annotation back to the notes representation. Keys
// not understood by this service round-trip unchanged.
func (a FollowUpAnnotation) Encode() (string, error) {
	raw := make(map[string]any, len(a.Extra)+1)
	for k, v := range a.Extra {
		raw[k] = v
	}
	if a.FollowUpMessage != "" {
		raw["follow_up_message"] = a.FollowUpMessage
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IsEmpty reports whether the annotation carries no data at all.
func (a FollowUpAnnotation) IsEmpty() bool {
	return a.FollowUpMessage == "" && len(a.Extra) == 0
}
