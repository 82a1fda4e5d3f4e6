package client

import (
	"encoding/json"
	"time"
)

// Side is the horizontal side of a marker: "left", "central" or "right".
type Side string

const (
	SideLeft    Side = "left"
	SideCentral Side = "central"
	SideRight   Side = "right"
)

// Analysis modes.
const (
	ModeThemes = "themes"
	ModeSystem = "system"
	ModeRule   = "rule"
)

// Region is a labelled body region.
type Region struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// StructureOption is an anatomical structure a marker can be narrowed to.
type StructureOption struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// LayoutSummary describes one body diagram layout.
type LayoutSummary struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Default bool     `json:"default"`
	Regions []Region `json:"regions"`
}

// Classification is the region and side of a point and the options a marker
// placed there starts with.
type Classification struct {
	LayoutID string            `json:"layout_id"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Region   Region            `json:"region"`
	Side     Side              `json:"side"`
	Options  []StructureOption `json:"options"`
}

// Choice is one entry of a form vocabulary.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Vocabulary lists the allowed values of every form field.
type Vocabulary struct {
	Systems     []Choice `json:"systems"`
	Layers      []Choice `json:"layers"`
	Symptoms    []Choice `json:"symptoms"`
	Durations   []Choice `json:"durations"`
	Intensities []Choice `json:"intensities"`
}

// Marker is one dot on the body map.
type Marker struct {
	ID       string            `json:"id"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Region   Region            `json:"region"`
	Side     Side              `json:"side"`
	Options  []StructureOption `json:"options"`
	Selected []string          `json:"selected"`
}

// Theme is an explanatory title and text.
type Theme struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// FormState is the single-form selection. Unset fields are empty.
type FormState struct {
	Region    string `json:"region"`
	System    string `json:"system"`
	Layer     string `json:"layer"`
	Symptom   string `json:"symptom"`
	Duration  string `json:"duration"`
	Intensity int    `json:"intensity"`
}

// Point is a normalized body-map coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FormSelection is a partial form update; nil fields are left unchanged.
// Point, when set, wins over Region.
type FormSelection struct {
	Region    *string `json:"region,omitempty"`
	Point     *Point  `json:"point,omitempty"`
	System    *string `json:"system,omitempty"`
	Layer     *string `json:"layer,omitempty"`
	Symptom   *string `json:"symptom,omitempty"`
	Duration  *string `json:"duration,omitempty"`
	Intensity *int    `json:"intensity,omitempty"`
}

// FormUpdate is the form after an update and the fields that were rejected.
type FormUpdate struct {
	Form    FormState `json:"form"`
	Ignored []string  `json:"ignored,omitempty"`
}

// Session is the server's view of a quiz session.
type Session struct {
	ID        string    `json:"id"`
	LayoutID  string    `json:"layout_id"`
	Markers   []Marker  `json:"markers"`
	ActiveID  string    `json:"active_id,omitempty"`
	Themes    []Theme   `json:"themes"`
	Form      FormState `json:"form"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveMarker returns the active marker, or nil.
func (s *Session) ActiveMarker() *Marker {
	for i := range s.Markers {
		if s.Markers[i].ID == s.ActiveID {
			return &s.Markers[i]
		}
	}
	return nil
}

// CommandResult is returned by marker commands. Applied is false when the
// command was valid but changed nothing.
type CommandResult struct {
	Session *Session `json:"session"`
	Applied bool     `json:"applied"`
	Marker  *Marker  `json:"marker,omitempty"`
}

// Snapshot is the record stored by the last analysis of a session.
type Snapshot struct {
	Input   json.RawMessage `json:"input"`
	Insight json.RawMessage `json:"insight,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	SavedAt string          `json:"savedAt"`
}

// Insight is a single-form analysis result. System-mode insights fill System
// and the phase fields; rule-mode insights fill Key and Layer.
type Insight struct {
	System      string   `json:"system,omitempty"`
	Key         string   `json:"key,omitempty"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	StressPhase string   `json:"stressPhase,omitempty"`
	RegenPhase  string   `json:"regenPhase,omitempty"`
	Association string   `json:"association,omitempty"`
	Factors     []string `json:"factors"`
	Actions     []string `json:"actions"`
	Region      string   `json:"region"`
	Layer       string   `json:"layer,omitempty"`
	Symptom     string   `json:"symptom"`
	Duration    string   `json:"duration"`
	Intensity   int      `json:"intensity"`
}

// Analysis is the outcome of an analyze call.
type Analysis struct {
	SessionID  string   `json:"session_id"`
	Mode       string   `json:"mode"`
	StorageKey string   `json:"storage_key"`
	Themes     []Theme  `json:"themes,omitempty"`
	Insight    *Insight `json:"insight,omitempty"`
	Snapshot   Snapshot `json:"snapshot"`
}

// Health is the liveness probe body.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}
