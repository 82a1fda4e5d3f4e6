package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
)

func TestCompositeKey(t *testing.T) {
	assert.Equal(t, "chest-muscle-pain", CompositeKey("chest", "muscle", "pain"))
	assert.Equal(t, "--", CompositeKey("", "", ""))
}

func TestLookupRule_ChestMusclePain(t *testing.T) {
	f := form.New()
	f.Region = "chest"
	f.Layer = "muscle"
	f.Symptom = "pain"
	f.Intensity = 6
	f.Duration = "days"

	r := LookupRule(CompositeKey(f.Region, f.Layer, f.Symptom))
	assert.Equal(t, "chest-muscle-pain", r.Key)
	assert.Equal(t, r.Summary+" Intensity 6/10 for days.", RuleSummary(r, f))

	in := NewRuleInsight(f)
	assert.Equal(t, "chest-muscle-pain", in.Key)
	assert.Equal(t, RuleSummary(r, f), in.Summary)
	assert.Equal(t, "muscle", in.Layer)
}

func TestLookupRule_Default(t *testing.T) {
	r := LookupRule("knees-dermis-itch")
	assert.Equal(t, DefaultKey, r.Key)
	assert.NotEmpty(t, r.Summary)

	in := NewRuleInsight(form.New())
	assert.Equal(t, DefaultKey, in.Key)
	assert.Contains(t, in.Summary, "Intensity 5/10 for weeks.")
}

func TestValidMode(t *testing.T) {
	assert.True(t, ValidMode(ModeSystem))
	assert.True(t, ValidMode(ModeRule))
	assert.False(t, ValidMode("tags"))
}
