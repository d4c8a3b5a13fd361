package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"opline/internal/config"
	"opline/internal/exitcode"
	"opline/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Inspect and change CLI settings"}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if jsonMode() {
				return printJSON(cmd.OutOrStdout(), s.Redacted())
			}
			out, err := yaml.Marshal(s.Redacted())
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Persist one setting into ./.env",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return exitcode.Usagef("config set needs KEY and VALUE arguments.")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := config.NormalizeKey(args[0])
			if err != nil {
				return exitcode.Usagef("%v", err)
			}
			path := config.EnvPath(".")
			if err := config.SetEnvValue(path, key, args[1]); err != nil {
				return err
			}
			// The value is not echoed; it may be a credential.
			fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Saved %s to %s", key, path))
			return nil
		},
	}
}
