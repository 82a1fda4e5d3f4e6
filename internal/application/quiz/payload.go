package quiz

import (
	"time"

	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
	"github.com/turtacn/BodyMap-Insight/internal/domain/marker"
	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/domain/theme"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// ModeThemes labels the multi-marker analysis; the single-form modes are
// theme.ModeSystem and theme.ModeRule.
const ModeThemes = "themes"

// StorageKey is the snapshot key of one session under base.
func StorageKey(base, sessionID string) string {
	if sessionID == "" {
		return base
	}
	return base + ":" + sessionID
}

// ThemeSnapshot summarises the markers of st and captures {input, result}.
func ThemeSnapshot(st marker.State, now time.Time) (snapshot.Snapshot, []theme.Theme, error) {
	themes := theme.Summarize(st.Markers)
	snap, err := snapshot.NewResult(st, themes, now)
	if err != nil {
		return snapshot.Snapshot{}, nil, err
	}
	return snap, themes, nil
}

// FormSnapshot analyses f in mode (system when empty) and captures
// {input, insight}.
func FormSnapshot(f form.State, mode string, now time.Time) (snapshot.Snapshot, interface{}, error) {
	if mode == "" {
		mode = theme.ModeSystem
	}
	if !theme.ValidMode(mode) {
		return snapshot.Snapshot{}, nil, errors.InvalidParam("unknown analysis mode").WithDetail("mode=" + mode)
	}

	var insight interface{}
	if mode == theme.ModeRule {
		insight = theme.NewRuleInsight(f)
	} else {
		insight = theme.NewSystemInsight(f)
	}
	snap, err := snapshot.NewInsight(f, insight, now)
	if err != nil {
		return snapshot.Snapshot{}, nil, err
	}
	return snap, insight, nil
}
