package main

import (
	"github.com/spf13/cobra"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the todo table if it does not exist and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		pool, err := openDB(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		return pool.Close()
	},
}
