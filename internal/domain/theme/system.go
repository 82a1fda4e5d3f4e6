package theme

import (
	"fmt"
	"strings"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
)

// DefaultKey is the fallback record of the system and rule tables.
const DefaultKey = "default"

// ClosingLine ends every system summary.
const ClosingLine = "Your body isn’t failing — it’s trying to complete this cycle. Let’s help it finish."

// SystemTheme is the stress/regeneration record of one body system.
type SystemTheme struct {
	Title       string   `json:"title"`
	StressPhase string   `json:"stressPhase"`
	RegenPhase  string   `json:"regenPhase"`
	Association string   `json:"association"`
	Factors     []string `json:"factors"`
	Actions     []string `json:"actions"`
}

var systemThemes = map[string]SystemTheme{
	"cardio": {
		Title:       "Heart/circulation often echoes pressure, grief, or performance demands.",
		StressPhase: "Stress/load phase: chest and heart area can tighten, breathing goes higher, and the body prioritises ‘go’ over ‘process’.",
		RegenPhase:  "Regeneration phase: the body wants deeper belly breaths, emotional release, and slower movement so circulation can normalise.",
		Association: "Often shows up in people who hold things in, support everyone else, or feel watched/judged.",
		Factors:     []string{"Shallow or upper-chest breathing", "Sedentary time", "Unexpressed emotion"},
		Actions:     []string{"3–5 mins coherent breathing (5s in / 5s out)", "Gentle outdoor walk", "Name one feeling to a safe person"},
	},
	"respiratory": {
		Title:       "Lungs mirror how much space you allow yourself to take.",
		StressPhase: "Stress/load phase: breath gets fast and high, ribs stay ‘on’, diaphragm moves less.",
		RegenPhase:  "Regeneration phase: slow nasal breathing, longer exhales, softer ribs.",
		Association: "Linked to ‘I couldn’t speak up’ or ‘I had to keep it together’.",
		Factors:     []string{"Mouth breathing", "Indoor/stale air", "Frequent stress spikes"},
		Actions:     []string{"Box breathing 4·4·4·4", "Get fresh air", "Reduce stimulants today"},
	},
	"digestive": {
		Title:       "Digestive signals often appear when you're asked to ‘swallow’ too much (food or life).",
		StressPhase: "Stress/load phase: blood is diverted away from digestion, motility changes, and sensitivity increases.",
		RegenPhase:  "Regeneration phase: calm, slow, warm meals in nervous-system safety.",
		Association: "Common with boundary issues or ‘I can’t stomach this situation’.",
		Factors:     []string{"Eating on the go", "Ultra-processed foods", "Working/arguing while eating"},
		Actions:     []string{"Screen-free meals", "Chew 10+ times/bite", "5-min post-meal walk"},
	},
	"liver": {
		Title:       "Liver/gallbladder often flags overload, irritation or decision fatigue.",
		StressPhase: "Stress/load phase: it keeps processing while more load comes in (late meals, alcohol, emotional irritation).",
		RegenPhase:  "Regeneration phase: wants lighter evenings, hydration, and emotional de-charge.",
		Association: "Shows up in people who get stuck in frustration or take on others’ stuff.",
		Factors:     []string{"Late heavy dinners", "Alcohol/fat load", "Unfinished decisions"},
		Actions:     []string{"Earlier lighter dinner", "Hydrate on waking", "Park or finish 1 decision"},
	},
	"kidneys": {
		Title:       "Kidney/urinary areas can mirror safety, fear and fluid balance.",
		StressPhase: "Stress/load phase: body may hold or dump fluids unpredictably depending on safety signals.",
		RegenPhase:  "Regeneration phase: wants steady hydration, warmth, actual support.",
		Association: "Linked to ‘I have to hold it together’ or old fear imprints.",
		Factors:     []string{"Low hydration", "Cold/stressy environments", "Chronic over-responsibility"},
		Actions:     []string{"Sip water through day", "2-min relaxation scan", "Ask for a small piece of support"},
	},
	"reproductive": {
		Title:       "Reproductive/pelvic signals tie to intimacy, creation and safety.",
		StressPhase: "Stress/load phase: pelvic floor over-holds, circulation reduces.",
		RegenPhase:  "Regeneration phase: wants softness, warmth, movement, emotional safety.",
		Association: "Can follow boundary breaches or creating without support.",
		Factors:     []string{"Pelvic tension", "Hormonal load", "Relational stress"},
		Actions:     []string{"Pelvic floor relaxation breaths", "Gentle hip mobility", "Name one boundary"},
	},
	"endocrine": {
		Title:       "Endocrine signs often mean ‘load > recovery’ for a while.",
		StressPhase: "Stress/load phase: body keeps you wired to get things done, stealing from rest and hormones.",
		RegenPhase:  "Regeneration phase: wants sleep, blood-sugar steadiness and fewer demands.",
		Association: "Common in caregivers, high achievers, or people in long uncertainty.",
		Factors:     []string{"Sleep debt", "Skipping meals", "Chronic stressors"},
		Actions:     []string{"Earlier bedtime", "Balanced meals (protein + fibre)", "Schedule one true off-slot"},
	},
	"excretory": {
		Title:       "Skin/excretory flare-ups often speak to boundaries and elimination.",
		StressPhase: "Stress/load phase: body may push out through the skin while you stay in the same irritating context.",
		RegenPhase:  "Regeneration phase: wants calmer products, less irritant input, and clearer boundaries.",
		Association: "Often ‘I’m in contact with too much’ — people, products or emotions.",
		Factors:     []string{"Irritants/detergents", "Inflammatory foods", "Heat/sweat friction"},
		Actions:     []string{"Cool rinse", "Gentle moisturiser", "Say no once today"},
	},
	"msk": {
		Title:       "Muscles/joints tell the story of load, posture and support.",
		StressPhase: "Stress/load phase: body braces (neck/back/jaw/hips) to hold on.",
		RegenPhase:  "Regeneration phase: wants length, breath and actual support from others.",
		Association: "Shows up in people carrying a lot for others or sitting long hours.",
		Factors:     []string{"Prolonged sitting", "One-sided load", "Weak glutes/core"},
		Actions:     []string{"Hip-flexor stretch", "Glute activation", "Ask for small help"},
	},
	"circulatory": {
		Title:       "Circulation can mirror low movement + high stress tone.",
		StressPhase: "Stress/load phase: vessels tighten and flow is less smooth.",
		RegenPhase:  "Regeneration phase: wants rhythmic movement and down-regulation.",
		Association: "Often in high-brainers who forget about the body.",
		Factors:     []string{"Low daily steps", "Tight clothing", "High stress/coffee"},
		Actions:     []string{"5-min walk", "Loosen clothing", "Breathing break"},
	},
	DefaultKey: {
		Title:       "Your body is signalling a stress → repair cycle.",
		StressPhase: "Stress/load phase: your system copes with current demands.",
		RegenPhase:  "Regeneration phase: it needs time, calm and good inputs to finish the repair.",
		Association: "Often paired with long to-do lists and low recovery.",
		Factors:     []string{"Poor sleep", "Low hydration", "Low movement"},
		Actions:     []string{"3-min breathing", "Glass of water", "Gentle stretch"},
	},
}

// LookupSystem returns the record of a system id and the key actually used.
// Empty or unknown ids resolve to the default record.
func LookupSystem(id string) (string, SystemTheme) {
	if t, ok := systemThemes[id]; ok {
		return id, t.clone()
	}
	return DefaultKey, systemThemes[DefaultKey].clone()
}

func (t SystemTheme) clone() SystemTheme {
	t.Factors = append([]string(nil), t.Factors...)
	t.Actions = append([]string(nil), t.Actions...)
	return t
}

// SystemSummary joins the theme and the form into one paragraph. The
// sensation sentence is omitted when no symptom is chosen.
func SystemSummary(t SystemTheme, f form.State) string {
	parts := []string{
		t.Title,
		t.StressPhase,
		t.RegenPhase,
		"Association: " + t.Association,
	}
	if f.Symptom != "" {
		parts = append(parts, fmt.Sprintf("Sensation: %s.", f.Symptom))
	}
	parts = append(parts,
		fmt.Sprintf("Duration: %s.", f.Duration),
		fmt.Sprintf("Intensity %d/10.", f.Intensity),
		ClosingLine,
	)

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
