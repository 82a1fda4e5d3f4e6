package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
)

func markerWith(tags ...string) marker.Marker {
	return marker.Marker{
		ID:       "m",
		Options:  []anatomy.StructureOption{{ID: "o", Label: "O", Tags: tags}},
		Selected: []string{"o"},
	}
}

func titles(ts []Theme) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Title
	}
	return out
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Tap the body map to begin", got[0].Title)
	assert.Equal(t, []Theme{EmptyTheme}, Summarize([]marker.Marker{}))
}

func TestSummarize_GutAndJoints(t *testing.T) {
	got := Summarize([]marker.Marker{markerWith("joints"), markerWith("gut")})
	assert.Equal(t, []string{"Gut and digestion", "Joints, alignment and load"}, titles(got))
}

func TestSummarize_MixedPattern(t *testing.T) {
	got := Summarize([]marker.Marker{markerWith("general"), markerWith("unheard-of")})
	assert.Equal(t, []Theme{MixedPattern}, got)
}

func TestSummarize_DeclaredOrder(t *testing.T) {
	got := Summarize([]marker.Marker{markerWith("jaw", "veins", "brain", "muscles", "ligaments", "urinary", "thyroid", "ibs", "sinus", "cardio")})
	ids := make([]string, len(got))
	for i, th := range got {
		ids[i] = th.ID
	}
	assert.Equal(t, []string{"heart", "breath", "gut", "hormones", "kidneys", "joints", "muscles", "nerves", "circulation", "stress"}, ids)
}

func TestSummarize_OnlySelectedTagsCount(t *testing.T) {
	m := marker.Marker{
		Options: []anatomy.StructureOption{
			{ID: "a", Tags: []string{"heart"}},
			{ID: "b", Tags: []string{"gut"}},
		},
		Selected: []string{"b"},
	}
	assert.Equal(t, []string{"Gut and digestion"}, titles(Summarize([]marker.Marker{m})))
}

func TestSummarize_FromSession(t *testing.T) {
	l, err := anatomy.MustDefaultRegistry().Get(anatomy.LayoutDetailed)
	require.NoError(t, err)
	s := marker.NewSession("s", l)

	knee := s.AddMarker(0.5, 0.75)
	s.ToggleOption(knee.ID, "patellar_tendon")
	s.ToggleOption(knee.ID, "knee_ligaments")

	belly := s.AddMarker(0.5, 0.5)
	for _, o := range belly.Options {
		if o.ID != "colon_ibs" {
			s.ToggleOption(belly.ID, o.ID)
		}
	}

	assert.Equal(t, []string{"Gut and digestion", "Joints, alignment and load"}, titles(Summarize(s.Markers())))
}

func TestTagCounts(t *testing.T) {
	counts := TagCounts([]marker.Marker{markerWith("gut", "stress"), markerWith("gut")})
	assert.Equal(t, map[string]int{"gut": 2, "stress": 1}, counts)
	assert.Empty(t, TagCounts(nil))
}

func TestCatalog(t *testing.T) {
	c := Catalog()
	assert.Len(t, c, 12)
	assert.Equal(t, EmptyTheme, c[len(c)-1])
}
