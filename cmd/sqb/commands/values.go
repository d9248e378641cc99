package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/sqb/errors"
)

func newValuesCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "values <key> [text]",
		Short: "Suggest values for a filter key",
		Long: `Suggest values for a filter key, ranked by how often they were seen.

Predefined values (is:, boolean keys) are answered locally; other keys are
looked up in every configured dataset and merged.

Examples:
  sqb values browser
  sqb values browser chr`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			key := args[0]
			if _, ok := ws.keys.Lookup(key); !ok {
				return errors.WithHint(
					errors.Wrapf(errors.ErrUnknownKey, "%q", key),
					"run 'sqb keys' to list known keys",
				)
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}

			values := ws.values.Lookup(cmd.Context(), key, text)
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), values)
			}

			rows := [][]string{{"Value", "Count", "Last Seen"}}
			for _, v := range values {
				lastSeen := ""
				if !v.LastSeen.IsZero() {
					lastSeen = v.LastSeen.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{v.Value, strconv.FormatInt(v.Count, 10), lastSeen})
			}
			return writeTable(cmd.OutOrStdout(), rows)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output values as JSON")
	return cmd
}
