package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/sqb/am"
	"github.com/teranos/sqb/errors"
)

func newAmCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "am",
		Short: "Manage sqb configuration",
		Long: `am - Manage sqb configuration ("I am")

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/sqb/am.toml)
3. User config (~/.sqb/am.toml)
4. Project config (./am.toml, searched up directories)
5. Environment variables (SQB_* prefix)

Examples:
  sqb am show                    # Show current configuration
  sqb am show --format json      # Show configuration in JSON format
  sqb am get suggest.debounce_ms # Get a specific config value
  sqb am validate                # Validate current configuration
  sqb am where                   # Show which file set each value`,
	}

	cmd.AddCommand(
		newAmShowCmd(opts),
		newAmGetCmd(),
		newAmValidateCmd(opts),
		newAmWhereCmd(),
	)
	return cmd
}

func newAmShowCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeJSON(out, cfg)
			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return errors.Wrap(err, "failed to marshal config to YAML")
				}
				fmt.Fprintf(out, "# sqb configuration\n%s", data)
			case "toml":
				data, err := toml.Marshal(cfg)
				if err != nil {
					return errors.Wrap(err, "failed to marshal config to TOML")
				}
				fmt.Fprintf(out, "# sqb configuration\n%s", data)
			default:
				return errors.WithHint(
					errors.Newf("unsupported format: %s", format),
					"supported formats: toml, json, yaml")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")
	return cmd
}

func newAmGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a configuration value using dot notation (e.g., database.path, suggest.debounce_ms)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !am.GetViper().IsSet(key) {
				return errors.Newf("configuration key %q not found", key)
			}
			fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
			return nil
		},
	}
}

func newAmValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
			return nil
		},
	}
}

func newAmWhereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where",
		Short: "Show where configuration is loaded from",
		RunE: func(cmd *cobra.Command, args []string) error {
			intro := am.Introspect()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Config files (later overrides earlier):")
			if len(intro.Files) == 0 {
				fmt.Fprintln(out, "  (none found, using defaults)")
			}
			for _, path := range intro.Files {
				fmt.Fprintf(out, "  %s\n", path)
			}

			groups := make(map[am.ConfigSource][]am.SettingInfo)
			for _, setting := range intro.Settings {
				groups[setting.Source] = append(groups[setting.Source], setting)
			}

			order := []am.ConfigSource{
				am.SourceDefault,
				am.SourceSystem,
				am.SourceUser,
				am.SourceProject,
				am.SourceEnvironment,
			}
			for _, source := range order {
				settings := groups[source]
				if len(settings) == 0 {
					continue
				}
				sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })

				fmt.Fprintf(out, "\n%s: %d settings\n", source, len(settings))
				for _, s := range settings {
					value, _ := json.Marshal(s.Value)
					if s.SourcePath != "" {
						fmt.Fprintf(out, "  %s = %s  (%s)\n", s.Key, value, s.SourcePath)
					} else {
						fmt.Fprintf(out, "  %s = %s\n", s.Key, value)
					}
				}
			}
			return nil
		},
	}
}
