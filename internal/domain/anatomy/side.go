package anatomy

import "strings"

// Side is the left/right/central position of a point on the diagram, derived
// from its x coordinate.
type Side string

const (
	SideLeft    Side = "left"
	SideRight   Side = "right"
	SideCentral Side = "central"
)

// String returns the lower-case side name used inside option labels.
func (s Side) String() string {
	return string(s)
}

// Title returns the side name with an upper-case first letter.
func (s Side) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Valid reports whether s is one of the three known sides.
func (s Side) Valid() bool {
	switch s {
	case SideLeft, SideRight, SideCentral:
		return true
	}
	return false
}

// SideCuts holds the two x cut points: x < Left is left, x > Right is right,
// everything else (including both cut points) is central.
type SideCuts struct {
	Left  float64 `yaml:"left" json:"left"`
	Right float64 `yaml:"right" json:"right"`
}

// DefaultSideCuts are used by layouts that do not declare their own.
var DefaultSideCuts = SideCuts{Left: 0.33, Right: 0.67}

// SideOf maps an x coordinate to a Side. NaN is central.
func (c SideCuts) SideOf(x float64) Side {
	switch {
	case x < c.Left:
		return SideLeft
	case x > c.Right:
		return SideRight
	default:
		return SideCentral
	}
}

// FormatLabel interpolates a side into a label template. "{side}" becomes the
// lower-case name and "{Side}" the capitalised one.
func FormatLabel(template string, side Side) string {
	if !strings.Contains(template, "{") {
		return template
	}
	return strings.NewReplacer("{side}", side.String(), "{Side}", side.Title()).Replace(template)
}
