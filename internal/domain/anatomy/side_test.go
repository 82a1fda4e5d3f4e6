package anatomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSide_Title(t *testing.T) {
	assert.Equal(t, "Left", SideLeft.Title())
	assert.Equal(t, "Central", SideCentral.Title())
	assert.Equal(t, "", Side("").Title())
}

func TestFormatLabel(t *testing.T) {
	assert.Equal(t, "Hip joint (right)", FormatLabel("Hip joint ({side})", SideRight))
	assert.Equal(t, "Left hip", FormatLabel("{Side} hip", SideLeft))
	assert.Equal(t, "Thyroid", FormatLabel("Thyroid", SideLeft))
}

func TestSideCuts_SideOf(t *testing.T) {
	c := SideCuts{Left: 0.4, Right: 0.6}
	assert.Equal(t, SideLeft, c.SideOf(0.39))
	assert.Equal(t, SideCentral, c.SideOf(0.4))
	assert.Equal(t, SideCentral, c.SideOf(0.6))
	assert.Equal(t, SideRight, c.SideOf(0.61))
}
