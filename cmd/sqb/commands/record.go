package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/errors"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var seenAt string

	cmd := &cobra.Command{
		Use:   "record <dataset> <key> <value>",
		Short: "Record an observed tag value",
		Long: `Record that a tag value was seen in a dataset. Recorded tags become filter
keys and feed value suggestions.

Examples:
  sqb record errors browser Chrome
  sqb record errors release 1.2.0 --seen-at 2025-01-15T10:00:00Z`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if seenAt != "" {
				parsed, err := time.Parse(time.RFC3339, seenAt)
				if err != nil {
					return errors.WithHint(
						errors.Wrapf(err, "invalid --seen-at %q", seenAt),
						"use RFC 3339, e.g. 2025-01-15T10:00:00Z",
					)
				}
				at = parsed
			}

			ws, err := opts.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			dataset, key, value := args[0], args[1], args[2]
			if err := ws.store.Record(cmd.Context(), dataset, key, value, at); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pterm.Green(fmt.Sprintf("✓ Recorded %s:%s in %s", key, value, dataset)))
			return nil
		},
	}

	cmd.Flags().StringVar(&seenAt, "seen-at", "", "When the value was seen (RFC 3339, default now)")
	return cmd
}
