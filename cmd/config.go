package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dedupe/internal/dedupe"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect engine configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective engine configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		engCfg, err := engineConfig()
		if err != nil {
			return err
		}
		if err := engCfg.Validate(); err != nil {
			return err
		}
		return printEngineConfig(cmd, engCfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <profile.yaml>",
	Short: "Validate an engine profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engCfg, err := dedupe.LoadConfigFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %s\n", args[0], engCfg)
		return nil
	},
}

func printEngineConfig(cmd *cobra.Command, engCfg dedupe.Config) error {
	out := cmd.OutOrStdout()
	switch configFormat {
	case "json":
		return writeJSON(out, engCfg)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(engCfg); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", configFormat)
	}
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: json or yaml")
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
