package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/turtacn/BodyMap-Insight/pkg/errors"
)

// tabular is implemented by results that render as a table with -o table.
type tabular interface {
	TableHeaders() []string
	TableRows() [][]string
}

// PrintResult writes data in the --output format. Without a CLIContext it
// falls back to JSON.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "json"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = strings.ToLower(cliCtx.OutputFormat)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return printJSON(cmd, data)
	case "table":
		if t, ok := data.(tabular); ok {
			_, err := fmt.Fprint(out, FormatTable(t.TableHeaders(), t.TableRows()))
			return err
		}
	}

	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(out, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(out, v.String())
		return err
	default:
		_, err := fmt.Fprintf(out, "%+v\n", v)
		return err
	}
}

// printJSON writes data as indented JSON whatever the --output format.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintError writes err to stderr. Application errors show their code and
// detail.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	w := cmd.ErrOrStderr()
	if appErr, ok := errors.AsAppError(err); ok {
		fmt.Fprintf(w, "Error: [%s] %s\n", appErr.Code, appErr.Message)
		if appErr.Detail != "" {
			fmt.Fprintf(w, "  %s\n", appErr.Detail)
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
}

// PrintSuccess writes a success line to stdout.
func PrintSuccess(cmd *cobra.Command, msg string) {
	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s\n", msg)
}

var tableCell = lipgloss.NewStyle().PaddingRight(2)

// FormatTable renders headers and rows as plain aligned columns under a rule.
// Short rows are padded with empty cells.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(true).
		StyleFunc(func(row, col int) lipgloss.Style { return tableCell }).
		Headers(headers...).
		Rows(rows...)
	return t.String() + "\n"
}
