// Package commands implements the sqb command line
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
)

// rootOptions holds the persistent flags every command shares
type rootOptions struct {
	verbosity  int
	jsonLogs   bool
	configPath string
	dbPath     string
}

// NewRootCmd builds the sqb command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sqb",
		Short: "sqb - search query builder",
		Long: `sqb - parse, validate and edit key:value search queries.

Queries combine free text, key:value filters, AND/OR and parenthesized groups:

  level:error !browser:Firefox (release:1.2.0 OR release:latest) "timed out"

Available commands:
  parse   - Parse a query and show its tokens and diagnostics
  keys    - List the filter keys queries are validated against
  values  - Suggest values for a filter key
  edit    - Apply token edits to a query
  record  - Record an observed tag value
  serve   - Start the HTTP and language server
  am      - Manage sqb configuration ("I am")

Examples:
  sqb parse 'level:error browser:Chrome'
  sqb values browser chr
  sqb edit 'level:error foo' 'replace 1 browser:Chrome' commit
  sqb serve -v`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 'am show' output must stay machine-readable
			if cmd.Name() == "show" {
				return nil
			}
			if err := logger.Initialize(opts.jsonLogs, opts.verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	cmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	cmd.PersistentFlags().BoolVar(&opts.jsonLogs, "log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file to load instead of the am.toml cascade")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "Tag value database path (overrides database.path)")

	cmd.AddCommand(
		newAmCmd(opts),
		newParseCmd(opts),
		newKeysCmd(opts),
		newValuesCmd(opts),
		newEditCmd(opts),
		newRecordCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads --config when given, the config cascade otherwise
func (o *rootOptions) loadConfig() (*am.Config, error) {
	if o.configPath != "" {
		return am.LoadFromFile(o.configPath)
	}
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}
