package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/search/lsp"
	"github.com/teranos/sqb/search/syntax"
)

func newParseCmd(opts *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		cursor     int
	)

	cmd := &cobra.Command{
		Use:   "parse <query>...",
		Short: "Parse a search query and show its tokens and diagnostics",
		Long: `Parse a search query against the filter key registry.

Arguments are joined with spaces into one query. Each top-level token is shown
with its kind and, for filters, the classifier's verdict.

Examples:
  sqb parse 'level:error browser:Chrome'
  sqb parse 'timestamp:>-24h (a OR b)' --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			query := strings.Join(args, " ")
			if jsonOutput {
				if cursor < 0 {
					cursor = len(query)
				}
				resp, err := lsp.NewService(ws.keys, ws.values, ws.opts).Parse(cmd.Context(), query, cursor)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			result := syntax.Parse(query, ws.keys, ws.opts)
			return printParseResult(cmd, result)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output tokens, diagnostics and cursor state as JSON")
	cmd.Flags().IntVar(&cursor, "cursor", -1, "Cursor byte offset for the JSON parse state (default: end of query)")
	return cmd
}

func printParseResult(cmd *cobra.Command, result *syntax.ParseResult) error {
	out := cmd.OutOrStdout()

	rows := [][]string{{"#", "Kind", "Token", "Detail"}}
	for i, tok := range result.Tokens {
		rows = append(rows, []string{strconv.Itoa(i), string(tok.Kind()), syntax.Canonical(tok), tokenDetail(tok)})
	}
	if len(result.Tokens) > 0 {
		if err := writeTable(out, rows); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Canonical: %s\n", result.Serialize())

	diags := syntax.Diagnose(result)
	if len(diags) == 0 {
		if result.Valid() {
			fmt.Fprintln(out, pterm.Green("✓ Query is valid"))
		}
		return nil
	}
	for _, d := range diags {
		fmt.Fprintln(out, d.Format(syntax.FormatTerminal))
	}
	return nil
}

// tokenDetail summarizes a token for the parse table
func tokenDetail(tok syntax.Token) string {
	switch t := tok.(type) {
	case *syntax.Filter:
		parts := []string{string(t.State)}
		if t.ValueType != "" {
			parts = append(parts, string(t.ValueType))
		}
		if t.Negated {
			parts = append(parts, "negated")
		}
		if t.Operator != "" {
			parts = append(parts, "op "+t.Operator)
		}
		if t.Reason != "" {
			parts = append(parts, string(t.Reason))
		}
		return strings.Join(parts, ", ")
	case *syntax.FreeText:
		if t.Invalid {
			return "invalid, " + string(t.Reason)
		}
		if t.Quoted {
			return "quoted"
		}
	case *syntax.LogicGroup:
		return fmt.Sprintf("%d terms", len(t.Children))
	case *syntax.LogicBoolean:
		return string(t.Op)
	}
	return ""
}
