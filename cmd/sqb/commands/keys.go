package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/search/keys"
)

func newKeysCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "List the filter keys queries are validated against",
		Long: `List the filter key registry: the built-in event fields, keys from
search.keys_file and the tags recorded in the database, grouped into sections.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			reg := ws.keys.Load()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"sections": reg.Sections(),
					"keys":     reg.Keys(),
				})
			}
			return printSections(cmd, reg)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output sections and key metadata as JSON")
	return cmd
}

func printSections(cmd *cobra.Command, reg *keys.Registry) error {
	out := cmd.OutOrStdout()
	for _, section := range reg.Sections() {
		if len(section.Children) == 0 {
			continue
		}
		fmt.Fprintln(out, pterm.Bold.Sprint(section.Label))

		rows := [][]string{{"Key", "Type", "Values", "Aliases"}}
		for _, name := range section.Children {
			meta, _ := reg.Lookup(name)
			values := ""
			if meta.TotalValues > 0 {
				values = strconv.Itoa(meta.TotalValues)
			}
			rows = append(rows, []string{meta.Key, string(meta.ValueType), values, strings.Join(meta.Aliases, ", ")})
		}
		if err := writeTable(out, rows); err != nil {
			return err
		}
	}
	return nil
}
