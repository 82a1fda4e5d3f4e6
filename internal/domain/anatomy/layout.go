// Package anatomy maps normalised diagram coordinates to body regions and
// owns the static catalogue of structures that can be selected per region.
//
// A Layout is pure configuration: an ordered list of half-open y bands, each
// optionally split by x, plus a region → option template table. Adding a new
// body diagram means adding a YAML file, not code.
package anatomy

import (
	"fmt"
	"math"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// GeneralAreaID is the option id used when a region has no option catalogue.
const GeneralAreaID = "general_area"

// generalArea is the fallback option template.
var generalArea = OptionTemplate{
	ID:    GeneralAreaID,
	Label: "General area ({side})",
	Tags:  []string{"general"},
}

// Region is a named zone of the body diagram.
type Region struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

// Split is an x sub-band inside a Band. It matches x < Upper, or x <= Upper
// when Inclusive is set. A nil Upper is unbounded.
type Split struct {
	Upper     *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
	Inclusive bool     `yaml:"inclusive,omitempty" json:"inclusive,omitempty"`
	Region    string   `yaml:"region" json:"region"`
}

func (s Split) contains(x float64) bool {
	switch {
	case s.Upper == nil:
		return true
	case s.Inclusive:
		return x <= *s.Upper
	default:
		return x < *s.Upper
	}
}

// Band is a half-open y band: it matches y < Upper, or everything when Upper
// is nil. A band either names a Region or carries Splits.
type Band struct {
	Upper     *float64 `yaml:"upper,omitempty" json:"upper,omitempty"`
	Region    string   `yaml:"region,omitempty" json:"region,omitempty"`
	ForceSide *Side    `yaml:"force_side,omitempty" json:"force_side,omitempty"`
	Splits    []Split  `yaml:"splits,omitempty" json:"splits,omitempty"`
}

// OptionTemplate is a catalogue entry for a region; Label may contain
// "{side}" or "{Side}".
type OptionTemplate struct {
	ID    string   `yaml:"id" json:"id"`
	Label string   `yaml:"label" json:"label"`
	Tags  []string `yaml:"tags" json:"tags"`
}

// StructureOption is an OptionTemplate materialised for a concrete side.
type StructureOption struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// Classification is the result of Layout.Classify.
type Classification struct {
	Region Region `json:"region"`
	Side   Side   `json:"side"`
}

// Layout is one body diagram's band table and option catalogue.
type Layout struct {
	ID       string                      `yaml:"id" json:"id"`
	Name     string                      `yaml:"name" json:"name"`
	SideCuts *SideCuts                   `yaml:"side_cuts,omitempty" json:"side_cuts,omitempty"`
	Regions  []Region                    `yaml:"regions" json:"regions"`
	Bands    []Band                      `yaml:"bands" json:"bands"`
	Options  map[string][]OptionTemplate `yaml:"options" json:"options,omitempty"`

	index map[string]int
}

func (l *Layout) cuts() SideCuts {
	if l.SideCuts != nil {
		return *l.SideCuts
	}
	return DefaultSideCuts
}

// Classify maps (x, y) to exactly one region. It is total over all float64
// inputs: the first band with y < Upper wins, the last band is unbounded, and
// NaN falls through to it.
func (l *Layout) Classify(x, y float64) Classification {
	side := l.cuts().SideOf(x)
	band := l.matchBand(y)

	regionID := band.Region
	if len(band.Splits) > 0 {
		regionID = matchSplit(band.Splits, x)
	}
	if band.ForceSide != nil {
		side = *band.ForceSide
	}

	region, _ := l.Region(regionID)
	return Classification{Region: region, Side: side}
}

func (l *Layout) matchBand(y float64) Band {
	for _, b := range l.Bands {
		if b.Upper == nil || y < *b.Upper {
			return b
		}
	}
	// Validate guarantees an unbounded last band; this keeps Classify total
	// for layouts built without it.
	return l.Bands[len(l.Bands)-1]
}

func matchSplit(splits []Split, x float64) string {
	for _, s := range splits {
		if s.contains(x) {
			return s.Region
		}
	}
	return splits[len(splits)-1].Region
}

// Region looks up a declared region by id.
func (l *Layout) Region(id string) (Region, bool) {
	if l.index == nil {
		for _, r := range l.Regions {
			if r.ID == id {
				return r, true
			}
		}
		return Region{}, false
	}
	i, ok := l.index[id]
	if !ok {
		return Region{}, false
	}
	return l.Regions[i], true
}

// OptionsFor returns the deterministic, never-empty option list of a region
// for a side. Regions without a catalogue get a single general_area option.
func (l *Layout) OptionsFor(regionID string, side Side) []StructureOption {
	templates := l.Options[regionID]
	if len(templates) == 0 {
		templates = []OptionTemplate{generalArea}
	}
	out := make([]StructureOption, len(templates))
	for i, t := range templates {
		tags := make([]string, len(t.Tags))
		copy(tags, t.Tags)
		out[i] = StructureOption{
			ID:    t.ID,
			Label: FormatLabel(t.Label, side),
			Tags:  tags,
		}
	}
	return out
}

// Validate checks that the band table is well formed: at least one band,
// strictly ascending finite uppers, an unbounded final band, declared regions
// only, and splits that likewise ascend and end unbounded.
func (l *Layout) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.New(errors.ErrCodeLayoutInvalid, "invalid layout").
			WithDetail(fmt.Sprintf("layout %q: ", l.ID) + fmt.Sprintf(format, args...))
	}

	if l.ID == "" {
		return invalid("id is required")
	}
	if len(l.Regions) == 0 {
		return invalid("no regions declared")
	}
	seen := make(map[string]bool, len(l.Regions))
	for _, r := range l.Regions {
		if r.ID == "" {
			return invalid("region with empty id")
		}
		if seen[r.ID] {
			return invalid("duplicate region %q", r.ID)
		}
		seen[r.ID] = true
	}
	if c := l.SideCuts; c != nil && !(c.Left <= c.Right) {
		return invalid("side_cuts.left %.3f must not exceed side_cuts.right %.3f", c.Left, c.Right)
	}
	if len(l.Bands) == 0 {
		return invalid("no bands declared")
	}

	prev := math.Inf(-1)
	for i, b := range l.Bands {
		last := i == len(l.Bands)-1
		if b.Upper == nil && !last {
			return invalid("band %d is unbounded but not last", i)
		}
		if b.Upper != nil {
			if last {
				return invalid("last band must be unbounded")
			}
			if math.IsNaN(*b.Upper) || math.IsInf(*b.Upper, 0) || *b.Upper <= prev {
				return invalid("band %d upper %v is not strictly ascending", i, *b.Upper)
			}
			prev = *b.Upper
		}
		if b.ForceSide != nil && !b.ForceSide.Valid() {
			return invalid("band %d force_side %q is not a side", i, *b.ForceSide)
		}
		if len(b.Splits) == 0 {
			if !seen[b.Region] {
				return invalid("band %d references undeclared region %q", i, b.Region)
			}
			continue
		}
		if b.Region != "" {
			return invalid("band %d has both region and splits", i)
		}
		if err := validateSplits(b.Splits, seen); err != nil {
			return invalid("band %d: %s", i, err.Error())
		}
	}

	for regionID, opts := range l.Options {
		if !seen[regionID] {
			return invalid("options for undeclared region %q", regionID)
		}
		ids := make(map[string]bool, len(opts))
		for _, o := range opts {
			if o.ID == "" || ids[o.ID] {
				return invalid("region %q has an empty or duplicate option id %q", regionID, o.ID)
			}
			ids[o.ID] = true
		}
	}
	return nil
}

func validateSplits(splits []Split, declared map[string]bool) error {
	prev := math.Inf(-1)
	for i, s := range splits {
		last := i == len(splits)-1
		switch {
		case s.Upper == nil && !last:
			return fmt.Errorf("split %d is unbounded but not last", i)
		case s.Upper != nil && last:
			return fmt.Errorf("last split must be unbounded")
		case s.Upper != nil && (math.IsNaN(*s.Upper) || *s.Upper <= prev):
			return fmt.Errorf("split %d upper %v is not strictly ascending", i, *s.Upper)
		}
		if s.Upper != nil {
			prev = *s.Upper
		}
		if !declared[s.Region] {
			return fmt.Errorf("split %d references undeclared region %q", i, s.Region)
		}
	}
	return nil
}

// compile validates the layout and builds its region index.
func (l *Layout) compile() error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.index = make(map[string]int, len(l.Regions))
	for i, r := range l.Regions {
		l.index[r.ID] = i
	}
	return nil
}
