package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolverse/config"
	"github.com/jonwraymond/toolverse/observe"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		b, err := config.Encode(cfg.Redacted())
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired entries from the local cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		store, err := openStore(cfg, observe.NopLogger())
		if err != nil {
			return err
		}
		defer store.Close()

		deleted, err := store.Purge(cmd.Context())
		if err != nil {
			return fmt.Errorf("purging: %w", err)
		}
		if deleted == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to purge.")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired cache entries.\n", deleted)
		}
		return nil
	},
}
