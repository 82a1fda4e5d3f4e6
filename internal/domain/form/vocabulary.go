// Package form holds the single-marker quiz form: the controlled vocabularies
// offered as chips and the flat selection record read at analyze time.
package form

import "strconv"

// Choice is one selectable chip.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Vocabulary is an ordered list of choices.
type Vocabulary []Choice

// Contains reports whether id is one of the choices.
func (v Vocabulary) Contains(id string) bool {
	_, ok := v.Label(id)
	return ok
}

// Label returns the display label of id.
func (v Vocabulary) Label(id string) (string, bool) {
	for _, c := range v {
		if c.ID == id {
			return c.Label, true
		}
	}
	return "", false
}

// IDs returns the choice ids in order.
func (v Vocabulary) IDs() []string {
	out := make([]string, len(v))
	for i, c := range v {
		out[i] = c.ID
	}
	return out
}

var Systems = Vocabulary{
	{ID: "cardio", Label: "Heart / Cardio"},
	{ID: "respiratory", Label: "Respiratory"},
	{ID: "digestive", Label: "Digestive / Bowels"},
	{ID: "liver", Label: "Liver / Gallbladder"},
	{ID: "kidneys", Label: "Kidneys / Urinary"},
	{ID: "reproductive", Label: "Reproductive"},
	{ID: "endocrine", Label: "Endocrine"},
	{ID: "excretory", Label: "Excretory / Skin"},
	{ID: "msk", Label: "Musculoskeletal"},
	{ID: "circulatory", Label: "Circulatory"},
}

var Layers = Vocabulary{
	{ID: "muscle", Label: "Muscle"},
	{ID: "nerve", Label: "Nerves"},
	{ID: "vessel", Label: "Vessels"},
	{ID: "epidermis", Label: "Skin – Epidermis"},
	{ID: "dermis", Label: "Skin – Dermis"},
}

var Symptoms = Vocabulary{
	{ID: "pain", Label: "Pain"},
	{ID: "tight", Label: "Tension/Tightness"},
	{ID: "itch", Label: "Itch / Rash"},
	{ID: "numb", Label: "Tingling/Numbness"},
	{ID: "burning", Label: "Burning"},
	{ID: "fatigue", Label: "Fatigue/Heaviness"},
	{ID: "bloat", Label: "Bloating"},
}

var Durations = Vocabulary{
	{ID: "days", Label: "Days"},
	{ID: "weeks", Label: "Weeks"},
	{ID: "months", Label: "Months"},
	{ID: "years", Label: "Years"},
}

// Intensity bounds.
const (
	MinIntensity = 1
	MaxIntensity = 10
)

// Intensities returns the intensity scale as chips ("1".."10").
func Intensities() Vocabulary {
	out := make(Vocabulary, 0, MaxIntensity-MinIntensity+1)
	for n := MinIntensity; n <= MaxIntensity; n++ {
		s := strconv.Itoa(n)
		out = append(out, Choice{ID: s, Label: s})
	}
	return out
}

// Catalog bundles every vocabulary for API and CLI listings.
type Catalog struct {
	Systems     Vocabulary `json:"systems"`
	Layers      Vocabulary `json:"layers"`
	Symptoms    Vocabulary `json:"symptoms"`
	Durations   Vocabulary `json:"durations"`
	Intensities Vocabulary `json:"intensities"`
}

// AllVocabularies returns the full catalog.
func AllVocabularies() Catalog {
	return Catalog{
		Systems:     Systems,
		Layers:      Layers,
		Symptoms:    Symptoms,
		Durations:   Durations,
		Intensities: Intensities(),
	}
}
