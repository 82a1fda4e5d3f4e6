package theme

import (
	"fmt"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
)

// Rule is a canned record keyed by "region-layer-symptom".
type Rule struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Factors []string `json:"factors"`
	Actions []string `json:"actions"`
}

var rules = map[string]Rule{
	"chest-muscle-pain": {
		Title:   "Chest wall muscle strain",
		Summary: "Pain in the chest muscles usually follows bracing, shallow upper-chest breathing or a sudden jump in upper-body load.",
		Factors: []string{"Upper-chest breathing", "Hunched desk posture", "New pushing or lifting load"},
		Actions: []string{"Slow belly breathing", "Doorway pec stretch", "Ease off pressing exercises for a few days"},
	},
	"chest-muscle-tight": {
		Title:   "Chest tightness from bracing",
		Summary: "A tight chest wall is often the body holding itself ready for the next demand.",
		Factors: []string{"Prolonged stress", "Rounded shoulders", "Little time outdoors"},
		Actions: []string{"Longer exhales than inhales", "Open-chest stretch", "Short walk in fresh air"},
	},
	"neck-muscle-tight": {
		Title:   "Neck tension",
		Summary: "Tight neck muscles tend to mirror screen posture and carrying responsibility on your shoulders.",
		Factors: []string{"Forward head posture", "Long screen sessions", "Jaw clenching"},
		Actions: []string{"Chin tucks", "Screen at eye level", "Drop the shoulders every hour"},
	},
	"head-nerve-pain": {
		Title:   "Tension-type head pain",
		Summary: "Head pain with a nerve quality often follows eye strain, poor sleep and a nervous system that has been on for too long.",
		Factors: []string{"Eye strain", "Irregular sleep", "Dehydration"},
		Actions: []string{"Screen break every 30 minutes", "Dark quiet rest", "Glass of water"},
	},
	"abdomen-muscle-bloat": {
		Title:   "Bloating with a braced belly",
		Summary: "Bloating is common when the abdominal wall stays braced and meals are eaten on the go.",
		Factors: []string{"Eating while stressed", "Tight waistbands", "Low fibre variety"},
		Actions: []string{"Sit down for meals", "Gentle abdominal massage", "5-minute walk after eating"},
	},
	"pelvis-muscle-tight": {
		Title:   "Pelvic floor holding",
		Summary: "Pelvic tightness often means the floor of the pelvis is holding on for safety.",
		Factors: []string{"Long sitting", "Holding the breath", "Relational stress"},
		Actions: []string{"Pelvic floor relaxation breaths", "Hip circles", "Warm bath"},
	},
	"lower-body-vessel-fatigue": {
		Title:   "Heavy legs",
		Summary: "Heavy, tired legs often point to slow venous return after long periods of standing or sitting.",
		Factors: []string{"Long static standing", "Low daily steps", "Warm weather"},
		Actions: []string{"Raise the legs for 10 minutes", "Calf raises", "Cool rinse on the legs"},
	},
	"lower-body-nerve-numb": {
		Title:   "Tingling in the legs",
		Summary: "Tingling or numbness in the legs can follow nerve compression from posture or prolonged sitting.",
		Factors: []string{"Crossed-leg sitting", "Tight hip muscles", "Long drives"},
		Actions: []string{"Change position every 30 minutes", "Gentle nerve glides", "Check in with a clinician if it persists"},
	},
	"left-shoulder-muscle-pain": {
		Title:   "Shoulder muscle overload",
		Summary: "Shoulder pain on one side often comes from one-sided carrying or sleeping on that side.",
		Factors: []string{"One-sided bag carrying", "Side sleeping", "Mouse arm posture"},
		Actions: []string{"Switch carrying sides", "Shoulder rolls", "Pillow support at night"},
	},
	"right-shoulder-muscle-pain": {
		Title:   "Shoulder muscle overload",
		Summary: "Shoulder pain on one side often comes from one-sided carrying or sleeping on that side.",
		Factors: []string{"One-sided bag carrying", "Side sleeping", "Mouse arm posture"},
		Actions: []string{"Switch carrying sides", "Shoulder rolls", "Pillow support at night"},
	},
	DefaultKey: {
		Title:   "General stress → repair pattern",
		Summary: "This combination does not match a specific pattern yet; your body is most likely working through a general stress and repair cycle.",
		Factors: []string{"Poor sleep", "Low hydration", "Low movement"},
		Actions: []string{"3-min breathing", "Glass of water", "Gentle stretch"},
	},
}

// CompositeKey builds the rule key "region-layer-symptom".
func CompositeKey(region, layer, symptom string) string {
	return region + "-" + layer + "-" + symptom
}

// LookupRule returns the rule for key, or the default rule. The returned
// Rule.Key is the key actually used.
func LookupRule(key string) Rule {
	r, ok := rules[key]
	if !ok {
		key = DefaultKey
		r = rules[DefaultKey]
	}
	r.Key = key
	r.Factors = append([]string(nil), r.Factors...)
	r.Actions = append([]string(nil), r.Actions...)
	return r
}

// RuleSummary appends the form's intensity and duration to the rule summary.
func RuleSummary(r Rule, f form.State) string {
	return fmt.Sprintf("%s Intensity %d/10 for %s.", r.Summary, f.Intensity, f.Duration)
}
