package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kameti/internal/cli"
	"kameti/internal/config"
	"kameti/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the SQLite schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := sqlitePath()
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		return printVersion(cmd, path)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printVersion(cmd, sqlitePath())
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func sqlitePath() string {
	cli.LoadEnvFile()
	return config.Load().SQLiteDBPath
}

func printVersion(cmd *cobra.Command, path string) error {
	v, dirty, err := storage.SchemaVersion(path)
	if err != nil {
		return err
	}
	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", path, v, state)
	return nil
}
