package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/am"
	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage skosprobe configuration",
	Long: `Display and manage skosprobe configuration ("I am").

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/skosprobe/am.toml)
3. User config (~/.skosprobe/am.toml)
4. Project config (./am.toml, searched up the directory tree)
5. Environment variables (SKOSPROBE_* prefix, e.g. SKOSPROBE_QUERY_RETRIES)

Examples:
  skosprobe am show                       # Every setting and where it came from
  skosprobe am show --format toml         # Effective configuration as TOML
  skosprobe am get endpoint.url
  skosprobe am set query.timeout_ms 30000 # Written to ~/.skosprobe/am.toml
  skosprobe am validate`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective configuration. Credentials are redacted.",
	Args:  cobra.NoArgs,
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., endpoint.url, analysis.scheme_cap)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a configuration value in the user config",
	Long: `Write a value to ~/.skosprobe/am.toml.

The value is converted to the key's type and the resulting configuration
must validate. The previous file is kept as am.toml.back1 (up to three
backups are rotated).`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Args:  cobra.NoArgs,
	RunE:  runAmValidate,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", display.FormatTable, "Output format: table, toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amSetCmd)
	AmCmd.AddCommand(amValidateCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	if err := display.CheckFormat(configFormat, display.FormatTable, display.FormatTOML, display.FormatJSON, display.FormatYAML); err != nil {
		return err
	}

	if configFormat == display.FormatTable {
		data := pterm.TableData{{"Key", "Value", "Source"}}
		for _, s := range am.GetConfigIntrospection() {
			source := string(s.Source)
			if s.Source != am.SourceDefault && s.SourcePath != "" {
				source += " (" + s.SourcePath + ")"
			}
			data = append(data, []string{s.Key, fmt.Sprint(s.Value), source})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return display.Write(cmd.OutOrStdout(), configFormat, redactConfig(*cfg))
}

// redactConfig masks credentials in a copy of cfg.
func redactConfig(cfg am.Config) am.Config {
	mask := func(s *string) {
		if *s != "" {
			*s = "********"
		}
	}
	mask(&cfg.Endpoint.Auth.Password)
	mask(&cfg.Endpoint.Auth.Token)
	mask(&cfg.Endpoint.Auth.APIKey)
	return cfg
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.WithHint(errors.Newf("configuration key %q not found", key),
			"run 'skosprobe am show' to list keys")
	}
	if am.IsSecret(key) && v.GetString(key) != "" {
		printf(cmd, "********\n")
		return nil
	}
	printf(cmd, "%v\n", v.Get(key))
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, err := am.SetValue(args[0], args[1])
	if err != nil {
		return err
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%s written to %s", args[0], path)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Println("Configuration is valid")
	return nil
}
