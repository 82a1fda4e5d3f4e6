package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/bootstrap"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// NewLayoutsCmd lists the body diagram layouts.
func NewLayoutsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List body diagram layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return PrintResult(cmd, layoutList(app.Service.Layouts(ctx)))
			})
		},
	}
}

type layoutList []*quiz.LayoutSummary

func (l layoutList) TableHeaders() []string {
	return []string{"ID", "NAME", "REGIONS", "DEFAULT"}
}

func (l layoutList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		def := ""
		if s.Default {
			def = "yes"
		}
		rows = append(rows, []string{s.ID, s.Name, strconv.Itoa(len(s.Regions)), def})
	}
	return rows
}

func (l layoutList) String() string {
	var sb strings.Builder
	for i, s := range l {
		if i > 0 {
			sb.WriteString("\n")
		}
		marker := ""
		if s.Default {
			marker = " (default)"
		}
		fmt.Fprintf(&sb, "%s: %s%s\n", s.ID, s.Name, marker)
		for _, r := range s.Regions {
			fmt.Fprintf(&sb, "  %-22s %s\n", r.ID, r.Label)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// NewClassifyCmd classifies one normalized point.
func NewClassifyCmd() *cobra.Command {
	var layoutID string

	cmd := &cobra.Command{
		Use:   "classify X Y",
		Short: "Classify a normalized point into a region and side",
		Long:  "Classify maps a point (0..1 on both axes, origin top-left) to the body\nregion and side it falls in, and lists the structures a dot there starts with.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := parseUnit("x", args[0])
			if err != nil {
				return err
			}
			y, err := parseUnit("y", args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				c, err := app.Service.Classify(ctx, layoutID, x, y)
				if err != nil {
					return err
				}
				return PrintResult(cmd, classification{c})
			})
		},
	}

	cmd.Flags().StringVar(&layoutID, "layout", "", "layout id (default: configured default layout)")
	return cmd
}

type classification struct {
	*quiz.Classification
}

func (c classification) TableHeaders() []string {
	return []string{"OPTION", "LABEL", "TAGS"}
}

func (c classification) TableRows() [][]string {
	rows := make([][]string, 0, len(c.Options))
	for _, o := range c.Options {
		rows = append(rows, []string{o.ID, o.Label, strings.Join(o.Tags, ",")})
	}
	return rows
}

func (c classification) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s) on %s at %.3f, %.3f\n", c.Region.Label, c.Side.Title(), c.LayoutID, c.X, c.Y)
	for _, o := range c.Options {
		fmt.Fprintf(&sb, "  - %s\n", o.Label)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// parseUnit parses a finite float. Out-of-range values are accepted and
// clamped by the classifier.
func parseUnit(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(errors.ErrCodeInvalidPoint, "invalid coordinate").WithDetail(name + "=" + s)
	}
	return v, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidPoint, "point must be x,y").WithDetail(s)
	}
	x, err := parseUnit("x", parts[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := parseUnit("y", parts[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
