package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/internal/interfaces/tui"
	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// NewQuizCmd runs the interactive terminal quiz.
func NewQuizCmd() *cobra.Command {
	var (
		layoutID string
		grid     string
		inline   bool
	)

	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Run the body-map quiz in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cols, rows, err := parseGrid(grid)
			if err != nil {
				return err
			}
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := cliCtx.OpenLocalApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			view, err := app.Service.CreateSession(ctx, layoutID)
			if err != nil {
				return err
			}
			layout, err := app.Layouts.Get(view.LayoutID)
			if err != nil {
				return err
			}

			opts := []tui.Option{tui.WithGrid(cols, rows)}
			if cliCtx.NoColor {
				opts = append(opts, tui.WithStyles(tui.PlainStyles()))
			}
			programOpts := []tea.ProgramOption{
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			}
			if !inline {
				programOpts = append(programOpts, tea.WithAltScreen())
			}

			final, err := tui.Run(tui.New(ctx, app.Service, layout, view.ID, opts...), programOpts...)
			if err != nil {
				return err
			}
			if url := final.ContinueURL(); url != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Session:  %s\nContinue: %s\n", view.ID, url)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&layoutID, "layout", "", "layout id (default: configured default layout)")
	cmd.Flags().StringVar(&grid, "grid", fmt.Sprintf("%dx%d", tui.DefaultCols, tui.DefaultRows), "grid size as COLSxROWS")
	cmd.Flags().BoolVar(&inline, "inline", false, "draw inline instead of the alternate screen")
	return cmd
}

// parseGrid parses "COLSxROWS".
func parseGrid(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, errors.InvalidParam("grid must be COLSxROWS").WithDetail(s)
	}
	cols, err1 := strconv.Atoi(parts[0])
	rows, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || cols < 2 || rows < 2 {
		return 0, 0, errors.InvalidParam("grid must be COLSxROWS with both at least 2").WithDetail(s)
	}
	return cols, rows, nil
}
