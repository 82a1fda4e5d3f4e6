// Package marker holds the per-session marker list and the elimination-style
// option refinement of each marker.
package marker

import (
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
)

// Marker is a user-placed point with its classified region and a refinable
// set of selected structures. Selected is kept in Options order and is never
// empty while Options is non-empty.
type Marker struct {
	ID       string                    `json:"id"`
	X        float64                   `json:"x"`
	Y        float64                   `json:"y"`
	Region   anatomy.Region            `json:"region"`
	Side     anatomy.Side              `json:"side"`
	Options  []anatomy.StructureOption `json:"options"`
	Selected []string                  `json:"selected"`
}

// IsSelected reports whether optionID is in the selected set.
func (m *Marker) IsSelected(optionID string) bool {
	for _, id := range m.Selected {
		if id == optionID {
			return true
		}
	}
	return false
}

// HasOption reports whether optionID is one of the marker's current options.
func (m *Marker) HasOption(optionID string) bool {
	for _, o := range m.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}

// SelectedOptions returns the selected options in catalogue order.
func (m *Marker) SelectedOptions() []anatomy.StructureOption {
	out := make([]anatomy.StructureOption, 0, len(m.Selected))
	for _, o := range m.Options {
		if m.IsSelected(o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// setRegion replaces region and options and selects everything. Side stays.
func (m *Marker) setRegion(layout *anatomy.Layout, region anatomy.Region) {
	m.Region = region
	m.Options = layout.OptionsFor(region.ID, m.Side)
	m.selectAll()
}

func (m *Marker) selectAll() {
	m.Selected = make([]string, len(m.Options))
	for i, o := range m.Options {
		m.Selected[i] = o.ID
	}
}

// toggle flips optionID, refusing unknown options and refusing to deselect the
// last selected option.
func (m *Marker) toggle(optionID string) bool {
	if !m.HasOption(optionID) {
		return false
	}
	if m.IsSelected(optionID) {
		if len(m.Selected) <= 1 {
			return false
		}
		kept := m.Selected[:0:0]
		for _, id := range m.Selected {
			if id != optionID {
				kept = append(kept, id)
			}
		}
		m.Selected = kept
		return true
	}

	selected := make([]string, 0, len(m.Selected)+1)
	for _, o := range m.Options {
		if o.ID == optionID || m.IsSelected(o.ID) {
			selected = append(selected, o.ID)
		}
	}
	m.Selected = selected
	return true
}

// Clone returns a deep copy.
func (m Marker) Clone() Marker {
	c := m
	c.Options = make([]anatomy.StructureOption, len(m.Options))
	for i, o := range m.Options {
		o.Tags = append(o.Tags[:0:0], o.Tags...)
		c.Options[i] = o
	}
	c.Selected = append(m.Selected[:0:0], m.Selected...)
	return c
}
