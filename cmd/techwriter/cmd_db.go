package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"techwriter/internal/store"
)

func (a *app) dbCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Record store maintenance",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the runs table and index if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := s.EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Table %s is ready.\n", store.TableName)
			return nil
		},
	}

	dbCmd.AddCommand(initCmd)
	return dbCmd
}
