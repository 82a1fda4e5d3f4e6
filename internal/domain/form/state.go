package form

import (
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
)

// Defaults of a fresh form.
const (
	DefaultDuration  = "weeks"
	DefaultIntensity = 5
)

// State is the flat single-form record. Empty strings mean "not chosen".
type State struct {
	Region    string `json:"region"`
	System    string `json:"system"`
	Layer     string `json:"layer"`
	Symptom   string `json:"symptom"`
	Duration  string `json:"duration"`
	Intensity int    `json:"intensity"`
}

// New returns a form with the default duration and intensity.
func New() State {
	return State{Duration: DefaultDuration, Intensity: DefaultIntensity}
}

// SelectRegion accepts any non-empty region id, as produced by a classifier.
func (s *State) SelectRegion(id string) bool {
	if id == "" {
		return false
	}
	s.Region = id
	return true
}

func (s *State) SelectSystem(id string) bool {
	return selectFrom(Systems, id, &s.System)
}

func (s *State) SelectLayer(id string) bool {
	return selectFrom(Layers, id, &s.Layer)
}

func (s *State) SelectSymptom(id string) bool {
	return selectFrom(Symptoms, id, &s.Symptom)
}

func (s *State) SelectDuration(id string) bool {
	return selectFrom(Durations, id, &s.Duration)
}

// SelectIntensity accepts 1..10.
func (s *State) SelectIntensity(n int) bool {
	if n < MinIntensity || n > MaxIntensity {
		return false
	}
	s.Intensity = n
	return true
}

func selectFrom(v Vocabulary, id string, field *string) bool {
	if !v.Contains(id) {
		return false
	}
	*field = id
	return true
}

// Point is a normalised diagram coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection is a batch of optional selections. A Point, when set, is
// classified against the layout given to Apply and takes precedence over
// Region.
type Selection struct {
	Region    *string `json:"region,omitempty"`
	Point     *Point  `json:"point,omitempty"`
	System    *string `json:"system,omitempty"`
	Layer     *string `json:"layer,omitempty"`
	Symptom   *string `json:"symptom,omitempty"`
	Duration  *string `json:"duration,omitempty"`
	Intensity *int    `json:"intensity,omitempty"`
}

// Apply performs every set selection and returns the names of fields whose
// values were rejected. Rejected fields leave the state unchanged.
func (s *State) Apply(sel Selection, layout *anatomy.Layout) []string {
	var ignored []string
	check := func(name string, ok bool) {
		if !ok {
			ignored = append(ignored, name)
		}
	}

	switch {
	case sel.Point != nil && layout != nil:
		c := layout.Classify(sel.Point.X, sel.Point.Y)
		s.Region = c.Region.ID
	case sel.Point != nil:
		check("point", false)
	case sel.Region != nil:
		check("region", s.SelectRegion(*sel.Region))
	}
	if sel.System != nil {
		check("system", s.SelectSystem(*sel.System))
	}
	if sel.Layer != nil {
		check("layer", s.SelectLayer(*sel.Layer))
	}
	if sel.Symptom != nil {
		check("symptom", s.SelectSymptom(*sel.Symptom))
	}
	if sel.Duration != nil {
		check("duration", s.SelectDuration(*sel.Duration))
	}
	if sel.Intensity != nil {
		check("intensity", s.SelectIntensity(*sel.Intensity))
	}
	return ignored
}
