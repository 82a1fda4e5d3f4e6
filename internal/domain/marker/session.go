package marker

import (
	"github.com/google/uuid"

	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
)

// Session is the ordered marker list and active-marker pointer of one
// interactive quiz. It is not safe for concurrent use; callers serialise
// commands per session.
//
// Every command is total. Rejected commands (unknown ids, unknown regions,
// deselecting the last option) leave the state unchanged and report false.
type Session struct {
	id      string
	layout  *anatomy.Layout
	markers []*Marker
	active  string
	newID   func() string
}

// Option configures a Session.
type Option func(*Session)

// WithIDGenerator overrides the marker id generator (uuid by default).
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewSession creates an empty session bound to layout.
func NewSession(id string, layout *anatomy.Layout, opts ...Option) *Session {
	s := &Session{id: id, layout: layout, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Layout returns the layout markers are classified against.
func (s *Session) Layout() *anatomy.Layout { return s.layout }

// AddMarker classifies (x, y), creates a marker with every option selected,
// appends it and makes it active.
func (s *Session) AddMarker(x, y float64) Marker {
	c := s.layout.Classify(x, y)
	m := &Marker{ID: s.newID(), X: x, Y: y, Side: c.Side}
	m.setRegion(s.layout, c.Region)

	s.markers = append(s.markers, m)
	s.active = m.ID
	return m.Clone()
}

// RemoveMarker deletes a marker. If it was active the last remaining marker
// becomes active, or none when the list is empty.
func (s *Session) RemoveMarker(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.markers = append(s.markers[:i], s.markers[i+1:]...)
	if s.active == id {
		s.active = ""
		if n := len(s.markers); n > 0 {
			s.active = s.markers[n-1].ID
		}
	}
	return true
}

// ClearAll removes every marker and clears the active pointer.
func (s *Session) ClearAll() {
	s.markers = nil
	s.active = ""
}

// SetActive makes id the refinement target.
func (s *Session) SetActive(id string) bool {
	if s.indexOf(id) < 0 {
		return false
	}
	s.active = id
	return true
}

// OverrideRegion reassigns a marker to regionID ignoring geometry. An empty id
// targets the active marker. Side is preserved, options regenerated and all
// selected; applying the same override twice yields the same state.
func (s *Session) OverrideRegion(id, regionID string) bool {
	m := s.target(id)
	if m == nil {
		return false
	}
	region, ok := s.layout.Region(regionID)
	if !ok {
		return false
	}
	m.setRegion(s.layout, region)
	return true
}

// ToggleOption flips optionID on a marker (the active one when id is empty).
func (s *Session) ToggleOption(id, optionID string) bool {
	m := s.target(id)
	if m == nil {
		return false
	}
	return m.toggle(optionID)
}

// Markers returns copies of all markers in placement order.
func (s *Session) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	for i, m := range s.markers {
		out[i] = m.Clone()
	}
	return out
}

// Marker returns a copy of one marker.
func (s *Session) Marker(id string) (Marker, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Marker{}, false
	}
	return s.markers[i].Clone(), true
}

// Active returns a copy of the active marker.
func (s *Session) Active() (Marker, bool) {
	if s.active == "" {
		return Marker{}, false
	}
	return s.Marker(s.active)
}

// ActiveID returns the active marker id or "".
func (s *Session) ActiveID() string { return s.active }

// Len returns the number of markers.
func (s *Session) Len() int { return len(s.markers) }

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, m := range s.markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) target(id string) *Marker {
	if id == "" {
		id = s.active
	}
	if i := s.indexOf(id); i >= 0 {
		return s.markers[i]
	}
	return nil
}
