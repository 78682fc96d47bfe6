// migrate.go — команды migrate up/down/version.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigkaa/expedientes/internal/config"
	"github.com/bigkaa/expedientes/internal/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema de base de datos",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplica todas las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			return database.Migrate(cfg, newLogger(cmd))
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revierte las últimas migraciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps debe ser positivo: %d", steps)
			}
			cfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			return database.MigrateDown(cfg, steps, newLogger(cmd))
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Cantidad de migraciones a revertir")

	version := &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión actual del esquema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDatabase()
			if err != nil {
				return err
			}
			v, dirty, err := database.MigrationVersion(cfg)
			if err != nil {
				return err
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "versión %d (sucia)\n", v)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "versión %d\n", v)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
