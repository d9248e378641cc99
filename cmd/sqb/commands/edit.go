package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/search/editor"
	"github.com/teranos/sqb/search/syntax"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "edit <query> <action>...",
		Short: "Apply token edits to a query",
		Long: `Apply a script of token edits to a query, printing the state after each step.

Each action is one argument, split like a shell command line. Quoted text
with spaces stays one query word:
  focus <index> [cursor]     edit the token at index
  replace <index> <text>     replace a token (empty text deletes it)
  insert <position> <text>   insert text before the token at position
  delete <index>             delete a token
  update <query>             replace the whole working query
  commit | cancel | clear    commit, discard or clear the working query

Edits that would change tokens away from the edited one are rejected and
leave the query unchanged.

Examples:
  sqb edit 'level:error foo' 'replace 1 browser:Chrome' commit
  sqb edit 'level:error browser:Chrome' 'insert 1 "timed out"' 'delete 0'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			env := editor.Env{Keys: ws.keys, Options: ws.opts}
			session := editor.NewSession(args[0], env, func(query string) {
				fmt.Fprintln(out, pterm.Cyan(fmt.Sprintf("→ search: %q", query)))
			})
			printEditState(out, "start", session.State())

			rejected := 0
			for _, script := range args[1:] {
				action, err := parseEditAction(script)
				if err != nil {
					return err
				}

				st, err := session.Dispatch(action)
				if err != nil {
					if !errors.IsEditRejected(err) || strict {
						return err
					}
					rejected++
					fmt.Fprintln(out, pterm.Yellow(fmt.Sprintf("✗ %s: %s", script, errors.FlattenHints(err))))
					continue
				}
				printEditState(out, script, st)
			}

			if rejected > 0 {
				fmt.Fprintf(out, "%d edit(s) rejected\n", rejected)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Stop at the first rejected edit")
	return cmd
}

// parseEditAction splits one action argument into words and decodes it.
// A word that was shell-quoted around whitespace becomes a quoted query word.
func parseEditAction(script string) (editor.Action, error) {
	words, err := shellquote.Split(script)
	if err != nil {
		return nil, errors.WrapInvalidRequest(err, fmt.Sprintf("cannot split action %q", script))
	}
	if len(words) > 0 && strings.EqualFold(words[0], "update") {
		return editor.ParseCommand(words)
	}
	for i, word := range words {
		if i > 0 && strings.ContainsAny(word, " \t") && !strings.Contains(word, `"`) {
			words[i] = syntax.Quote(word)
		}
	}
	return editor.ParseCommand(words)
}

func printEditState(w io.Writer, step string, st editor.State) {
	tokens := st.Tokens()
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = "[" + strconv.Itoa(i) + "] " + syntax.Canonical(tok)
	}

	marker := ""
	if st.Dirty() {
		marker = pterm.Gray(" (uncommitted)")
	}
	fmt.Fprintf(w, "%s %s%s\n", pterm.Bold.Sprint(step+":"), st.Query, marker)
	if len(parts) > 0 {
		fmt.Fprintf(w, "    %s\n", strings.Join(parts, "  "))
	}
	fmt.Fprintf(w, "    focus: %s\n", describeFocus(st.Focus))
}

func describeFocus(f editor.Focus) string {
	switch f.Mode {
	case editor.ModeEditingToken:
		return fmt.Sprintf("%s %d (cursor %d)", f.Mode, f.Index, f.Cursor)
	case editor.ModeInsertingAt:
		return fmt.Sprintf("%s %d", f.Mode, f.Position)
	}
	return f.Mode.String()
}
