package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mingle/internal/config"
	"mingle/internal/secrets"
)

func newSecretCmd(cfg config.Config) *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "secret <name>",
		Short: "Fetch one secret value from the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			provider, err := secrets.New(ctx, nil)
			if err != nil {
				return fmt.Errorf("create secret provider: %w", err)
			}
			defer func() { _ = provider.Close() }()

			value, err := provider.Get(ctx, cfg.Google.ProjectID, args[0], version)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "secret version to fetch (default latest)")

	return cmd
}
