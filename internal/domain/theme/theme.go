// Package theme turns selected structures and form choices into canned
// explanatory text. It is a flat rule table: no ranking, no weighting.
package theme

import (
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
)

// Theme is a display-only title/text pair.
type Theme struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// EmptyTheme is returned when there are no markers.
var EmptyTheme = Theme{
	ID:    "empty",
	Title: "Tap the body map to begin",
	Text:  "Place a dot wherever you notice a sensation. Add as many as you like, then narrow down the structures under each one.",
}

// MixedPattern is returned when markers exist but no predicate matches.
var MixedPattern = Theme{
	ID:    "mixed",
	Title: "Mixed pattern",
	Text:  "Your selections do not point to one clear system. That is common when load has built up in several places at once; start with sleep, hydration and gentle movement and see which area settles first.",
}

// predicate appends Theme when any of AnyOf is present in the tag counts.
type predicate struct {
	AnyOf []string
	Theme Theme
}

// predicates are evaluated in declaration order.
var predicates = []predicate{
	{
		AnyOf: []string{"heart", "cardio"},
		Theme: Theme{
			ID:    "heart",
			Title: "Heart and emotional load",
			Text:  "The heart area often tightens when you are holding a lot for others or pushing through. Slow exhales and naming what you feel help the chest let go.",
		},
	},
	{
		AnyOf: []string{"lungs", "breathing", "respiratory", "sinus"},
		Theme: Theme{
			ID:    "breath",
			Title: "Breathing and space",
			Text:  "Breath that stays high and fast keeps the ribs braced. Longer nasal exhales and fresh air give the diaphragm room to move again.",
		},
	},
	{
		AnyOf: []string{"gut", "colon", "ibs", "digestion", "stomach", "liver", "gallbladder", "pancreas"},
		Theme: Theme{
			ID:    "gut",
			Title: "Gut and digestion",
			Text:  "Digestion is one of the first systems to slow down under stress. Calm, screen-free meals and a short walk afterwards help it switch back on.",
		},
	},
	{
		AnyOf: []string{"hormones", "thyroid", "reproductive", "endocrine"},
		Theme: Theme{
			ID:    "hormones",
			Title: "Hormones and glands",
			Text:  "Glandular signals usually mean load has outrun recovery for a while. Regular meals, earlier nights and fewer demands give hormones a chance to rebalance.",
		},
	},
	{
		AnyOf: []string{"kidneys", "bladder", "urinary"},
		Theme: Theme{
			ID:    "kidneys",
			Title: "Kidneys, bladder and fluid balance",
			Text:  "The urinary system responds to safety and hydration. Steady sips through the day and warmth around the lower back are simple places to start.",
		},
	},
	{
		AnyOf: []string{"joints", "tendons", "posture", "ligaments"},
		Theme: Theme{
			ID:    "joints",
			Title: "Joints, alignment and load",
			Text:  "Joints and tendons carry the story of posture and repeated load. Varying positions, strengthening the surrounding muscles and asking for support all reduce the strain.",
		},
	},
	{
		AnyOf: []string{"muscles", "tension"},
		Theme: Theme{
			ID:    "muscles",
			Title: "Muscle tension and bracing",
			Text:  "Muscles brace to hold you together when life feels demanding. Gentle stretching, heat and a few slow breaths signal that it is safe to soften.",
		},
	},
	{
		AnyOf: []string{"nerves", "brain", "headache"},
		Theme: Theme{
			ID:    "nerves",
			Title: "Nerves and an overloaded head",
			Text:  "Tingling, sharp or head-centred sensations often follow long periods of mental load. Screen breaks, darkness and sleep let the nervous system recalibrate.",
		},
	},
	{
		AnyOf: []string{"circulation", "lymph", "veins"},
		Theme: Theme{
			ID:    "circulation",
			Title: "Circulation and lymph flow",
			Text:  "Flow slows down with long sitting and a high stress tone. Rhythmic walking, loose clothing and raising the legs keep fluids moving.",
		},
	},
	{
		AnyOf: []string{"stress", "jaw", "fatigue"},
		Theme: Theme{
			ID:    "stress",
			Title: "Stress load and recovery",
			Text:  "Jaw clenching, fatigue and a general sense of being wired are classic signs of a long stress phase. Your body is asking for real recovery time, not more effort.",
		},
	},
}

// TagCounts counts every tag of every selected option across markers.
func TagCounts(markers []marker.Marker) map[string]int {
	counts := make(map[string]int)
	for i := range markers {
		for _, o := range markers[i].SelectedOptions() {
			for _, tag := range o.Tags {
				counts[tag]++
			}
		}
	}
	return counts
}

// Summarize returns the themes matched by the markers' selected tags in
// declared order. No markers yields EmptyTheme; no match yields MixedPattern.
func Summarize(markers []marker.Marker) []Theme {
	if len(markers) == 0 {
		return []Theme{EmptyTheme}
	}
	counts := TagCounts(markers)

	var out []Theme
	for _, p := range predicates {
		if p.matches(counts) {
			out = append(out, p.Theme)
		}
	}
	if len(out) == 0 {
		return []Theme{MixedPattern}
	}
	return out
}

func (p predicate) matches(counts map[string]int) bool {
	for _, tag := range p.AnyOf {
		if counts[tag] > 0 {
			return true
		}
	}
	return false
}

// Catalog returns every theme Summarize can produce, in declared order,
// followed by the mixed and empty fallbacks.
func Catalog() []Theme {
	out := make([]Theme, 0, len(predicates)+2)
	for _, p := range predicates {
		out = append(out, p.Theme)
	}
	return append(out, MixedPattern, EmptyTheme)
}
