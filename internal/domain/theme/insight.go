package theme

import (
	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
)

// Single-form analysis modes.
const (
	ModeSystem = "system"
	ModeRule   = "rule"
)

// ValidMode reports whether mode is a known single-form analysis mode.
func ValidMode(mode string) bool {
	return mode == ModeSystem || mode == ModeRule
}

// SystemInsight is the single-form result keyed by body system.
type SystemInsight struct {
	System      string   `json:"system"`
	Title       string   `json:"title"`
	StressPhase string   `json:"stressPhase"`
	RegenPhase  string   `json:"regenPhase"`
	Association string   `json:"association"`
	Factors     []string `json:"factors"`
	Actions     []string `json:"actions"`
	Symptom     string   `json:"symptom"`
	Duration    string   `json:"duration"`
	Intensity   int      `json:"intensity"`
	Region      string   `json:"region"`
	Summary     string   `json:"summary"`
}

// NewSystemInsight analyses f by its chosen system.
func NewSystemInsight(f form.State) SystemInsight {
	key, t := LookupSystem(f.System)
	return SystemInsight{
		System:      key,
		Title:       t.Title,
		StressPhase: t.StressPhase,
		RegenPhase:  t.RegenPhase,
		Association: t.Association,
		Factors:     t.Factors,
		Actions:     t.Actions,
		Symptom:     f.Symptom,
		Duration:    f.Duration,
		Intensity:   f.Intensity,
		Region:      f.Region,
		Summary:     SystemSummary(t, f),
	}
}

// RuleInsight is the single-form result keyed by region, layer and symptom.
type RuleInsight struct {
	Key       string   `json:"key"`
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Factors   []string `json:"factors"`
	Actions   []string `json:"actions"`
	Region    string   `json:"region"`
	Layer     string   `json:"layer"`
	Symptom   string   `json:"symptom"`
	Duration  string   `json:"duration"`
	Intensity int      `json:"intensity"`
}

// NewRuleInsight analyses f by its composite region-layer-symptom key.
func NewRuleInsight(f form.State) RuleInsight {
	r := LookupRule(CompositeKey(f.Region, f.Layer, f.Symptom))
	return RuleInsight{
		Key:       r.Key,
		Title:     r.Title,
		Summary:   RuleSummary(r, f),
		Factors:   r.Factors,
		Actions:   r.Actions,
		Region:    f.Region,
		Layer:     f.Layer,
		Symptom:   f.Symptom,
		Duration:  f.Duration,
		Intensity: f.Intensity,
	}
}
