package marker

import (
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
)

// State is the serialisable form of a Session used by session repositories.
type State struct {
	ID       string   `json:"id"`
	LayoutID string   `json:"layout_id"`
	Markers  []Marker `json:"markers"`
	Active   string   `json:"active,omitempty"`
}

// State snapshots the session.
func (s *Session) State() State {
	st := State{ID: s.id, Markers: s.Markers(), Active: s.active}
	if s.layout != nil {
		st.LayoutID = s.layout.ID
	}
	return st
}

// Restore rebuilds a Session from st against layout, re-establishing the
// invariants in case the layout changed since the state was written: markers
// with an unknown region are reclassified from their coordinates, options are
// regenerated, stale selections dropped (falling back to all selected), and a
// dangling active id is replaced by the last marker.
func Restore(layout *anatomy.Layout, st State, opts ...Option) *Session {
	s := NewSession(st.ID, layout, opts...)
	for _, saved := range st.Markers {
		m := &Marker{ID: saved.ID, X: saved.X, Y: saved.Y, Side: saved.Side}
		if !m.Side.Valid() {
			m.Side = layout.Classify(saved.X, saved.Y).Side
		}
		region, ok := layout.Region(saved.Region.ID)
		if !ok {
			c := layout.Classify(saved.X, saved.Y)
			region = c.Region
		}
		m.setRegion(layout, region)

		kept := make([]string, 0, len(saved.Selected))
		for _, o := range m.Options {
			for _, id := range saved.Selected {
				if id == o.ID {
					kept = append(kept, id)
					break
				}
			}
		}
		if len(kept) > 0 {
			m.Selected = kept
		}
		s.markers = append(s.markers, m)
	}

	s.active = st.Active
	if s.indexOf(s.active) < 0 {
		s.active = ""
		if n := len(s.markers); n > 0 {
			s.active = s.markers[n-1].ID
		}
	}
	return s
}
