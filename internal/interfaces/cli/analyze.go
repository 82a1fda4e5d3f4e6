package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/internal/domain/form"
	"github.com/turtacn/BodyMap-Insight/internal/domain/theme"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// AnalyzeResult is what the analyze command prints.
type AnalyzeResult struct {
	SessionID   string        `json:"session_id"`
	Mode        string        `json:"mode"`
	StorageKey  string        `json:"storage_key"`
	Themes      []theme.Theme `json:"themes,omitempty"`
	Insight     interface{}   `json:"insight,omitempty"`
	Ignored     []string      `json:"ignored,omitempty"`
	ContinueURL string        `json:"continue_url"`
}

func (r AnalyzeResult) String() string {
	var sb strings.Builder
	switch in := r.Insight.(type) {
	case theme.SystemInsight:
		fmt.Fprintf(&sb, "%s\n\n%s\n", in.Title, in.Summary)
		writeList(&sb, "Factors", in.Factors)
		writeList(&sb, "Actions", in.Actions)
	case theme.RuleInsight:
		fmt.Fprintf(&sb, "%s\n\n%s\n", in.Title, in.Summary)
		writeList(&sb, "Factors", in.Factors)
		writeList(&sb, "Actions", in.Actions)
	}
	for _, t := range r.Themes {
		fmt.Fprintf(&sb, "%s\n  %s\n", t.Title, t.Text)
	}
	if len(r.Ignored) > 0 {
		fmt.Fprintf(&sb, "\nIgnored: %s\n", strings.Join(r.Ignored, ", "))
	}
	fmt.Fprintf(&sb, "\nSession:  %s\nSaved as: %s\nContinue: %s", r.SessionID, r.StorageKey, r.ContinueURL)
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "  - %s\n", it)
	}
}

// NewAnalyzeCmd runs one analysis in a fresh session: the multi-dot themes
// when --point is given, the single-form insight otherwise. The snapshot
// replaces the last one saved under the storage key.
func NewAnalyzeCmd() *cobra.Command {
	var (
		layoutID  string
		points    []string
		mode      string
		region    string
		at        string
		system    string
		layer     string
		symptom   string
		duration  string
		intensity int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze dots or a single-form selection and save the snapshot",
		Example: `  bodymap analyze --point 0.5,0.05 --point 0.2,0.3
  bodymap analyze --region head --system digestive --symptom pain --duration weeks --intensity 6
  bodymap analyze --mode rule --at 0.5,0.45 --layer muscle --symptom tight`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(points) > 0 && cmd.Flags().Changed("mode") && mode != quiz.ModeThemes {
				return errors.InvalidParam("--point analyzes themes; --mode applies to the single form")
			}

			sel := form.Selection{}
			flags := cmd.Flags()
			if flags.Changed("region") {
				sel.Region = &region
			}
			if at != "" {
				x, y, err := parsePoint(at)
				if err != nil {
					return err
				}
				sel.Point = &form.Point{X: x, Y: y}
			}
			if flags.Changed("system") {
				sel.System = &system
			}
			if flags.Changed("layer") {
				sel.Layer = &layer
			}
			if flags.Changed("symptom") {
				sel.Symptom = &symptom
			}
			if flags.Changed("duration") {
				sel.Duration = &duration
			}
			if flags.Changed("intensity") {
				sel.Intensity = &intensity
			}

			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				svc := app.Service
				view, err := svc.CreateSession(ctx, layoutID)
				if err != nil {
					return err
				}
				result := AnalyzeResult{SessionID: view.ID}

				var analysis *quiz.Analysis
				if len(points) > 0 {
					for _, p := range points {
						x, y, err := parsePoint(p)
						if err != nil {
							return err
						}
						if _, err := svc.PlaceMarker(ctx, view.ID, x, y); err != nil {
							return err
						}
					}
					analysis, err = svc.Analyze(ctx, view.ID)
				} else {
					upd, uerr := svc.UpdateForm(ctx, view.ID, sel)
					if uerr != nil {
						return uerr
					}
					result.Ignored = upd.Ignored
					analysis, err = svc.AnalyzeForm(ctx, view.ID, mode)
				}
				if err != nil {
					return err
				}

				result.Mode = analysis.Mode
				result.StorageKey = analysis.StorageKey
				result.Themes = analysis.Themes
				result.Insight = analysis.Insight
				if result.ContinueURL, err = svc.ContinueURL(ctx, view.ID); err != nil {
					return err
				}
				return PrintResult(cmd, result)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&layoutID, "layout", "", "layout id (default: configured default layout)")
	f.StringArrayVar(&points, "point", nil, "place a dot at x,y (repeatable); analyzes themes")
	f.StringVar(&mode, "mode", theme.ModeSystem, "single-form mode (system, rule)")
	f.StringVar(&region, "region", "", "region id")
	f.StringVar(&at, "at", "", "pick the region by classifying x,y")
	f.StringVar(&system, "system", "", "body system id")
	f.StringVar(&layer, "layer", "", "tissue layer id")
	f.StringVar(&symptom, "symptom", "", "symptom id")
	f.StringVar(&duration, "duration", "", "duration id")
	f.IntVar(&intensity, "intensity", 0, "intensity 1-10")
	return cmd
}

// snapshotApp reads the bare storage key, or the key of --session when set.
func snapshotApp(cmd *cobra.Command, sessionID string, fn func(ctx context.Context, app *bootstrap.App) error) error {
	if sessionID == "" {
		return withApp(cmd, fn)
	}
	return withSessionApp(cmd, fn)
}

// NewSnapshotCmd prints the last saved snapshot.
func NewSnapshotCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the snapshot saved by the last analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshotApp(cmd, sessionID, func(ctx context.Context, app *bootstrap.App) error {
				snap, err := app.Service.Snapshot(ctx, sessionID)
				if err != nil {
					return err
				}
				return printJSON(cmd, snap)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "read the snapshot a server stored for this session")
	return cmd
}

// NewContinueURLCmd prints the intake redirect URL of the last saved snapshot.
func NewContinueURLCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "continue-url",
		Short: "Print the intake redirect URL carrying the saved snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshotApp(cmd, sessionID, func(ctx context.Context, app *bootstrap.App) error {
				url, err := app.Service.ContinueURL(ctx, sessionID)
				if err != nil {
					return err
				}
				return PrintResult(cmd, url)
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "use the snapshot a server stored for this session")
	return cmd
}
