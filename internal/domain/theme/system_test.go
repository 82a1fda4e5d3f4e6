package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
)

func TestLookupSystem(t *testing.T) {
	key, th := LookupSystem("respiratory")
	assert.Equal(t, "respiratory", key)
	assert.Equal(t, "Lungs mirror how much space you allow yourself to take.", th.Title)

	key, th = LookupSystem("")
	assert.Equal(t, DefaultKey, key)
	assert.Equal(t, "Your body is signalling a stress → repair cycle.", th.Title)

	key, _ = LookupSystem("spleen")
	assert.Equal(t, DefaultKey, key)
}

func TestLookupSystem_EveryVocabularyEntry(t *testing.T) {
	for _, c := range form.Systems {
		key, _ := LookupSystem(c.ID)
		assert.Equal(t, c.ID, key)
	}
}

func TestLookupSystem_ReturnsCopies(t *testing.T) {
	_, th := LookupSystem("msk")
	th.Factors[0] = "changed"
	_, again := LookupSystem("msk")
	assert.Equal(t, "Prolonged sitting", again.Factors[0])
}

func TestSystemSummary(t *testing.T) {
	_, th := LookupSystem("msk")
	f := form.New()
	f.Symptom = "tight"
	f.Intensity = 7

	want := "Muscles/joints tell the story of load, posture and support. " +
		"Stress/load phase: body braces (neck/back/jaw/hips) to hold on. " +
		"Regeneration phase: wants length, breath and actual support from others. " +
		"Association: Shows up in people carrying a lot for others or sitting long hours. " +
		"Sensation: tight. Duration: weeks. Intensity 7/10. " + ClosingLine
	assert.Equal(t, want, SystemSummary(th, f))
}

func TestSystemSummary_NoSymptom(t *testing.T) {
	_, th := LookupSystem("")
	got := SystemSummary(th, form.New())
	assert.NotContains(t, got, "Sensation")
	assert.Contains(t, got, "Association: Often paired with long to-do lists and low recovery. Duration: weeks. Intensity 5/10.")
}

func TestNewSystemInsight(t *testing.T) {
	f := form.New()
	f.Region = "chest"
	f.System = "cardio"
	f.Symptom = "pain"

	in := NewSystemInsight(f)
	assert.Equal(t, "cardio", in.System)
	assert.Equal(t, "chest", in.Region)
	assert.Equal(t, "pain", in.Symptom)
	assert.Equal(t, "weeks", in.Duration)
	assert.Equal(t, 5, in.Intensity)
	assert.Len(t, in.Factors, 3)
	assert.Contains(t, in.Summary, "Sensation: pain.")
}
