package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long:  `Manage the database schema and migrations.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'migrate' requires a subcommand (up, down, status)")
		fmt.Println()
		_ = cmd.Help()
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Long: `Apply all pending database migrations.

Example:
  nubomaild migrate up`,
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		if err := st.Migrate(); err != nil {
			fatal(fmt.Errorf("migration failed: %w", err))
		}

		version, _, err := st.MigrateVersion()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Database is at version %d\n", version)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations",
	Long: `Roll back the given number of migrations (default: 1).

Example:
  nubomaild migrate down      # roll back 1 migration
  nubomaild migrate down 2    # roll back 2 migrations`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		steps := 1
		if len(args) > 0 {
			_, _ = fmt.Sscanf(args[0], "%d", &steps)
		}

		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		fmt.Printf("Rolling back %d migration(s)...\n", steps)
		if err := st.MigrateDown(steps); err != nil {
			fatal(fmt.Errorf("rollback failed: %w", err))
		}

		version, _, err := st.MigrateVersion()
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Database is at version %d\n", version)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current migration version",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		version, dirty, err := st.MigrateVersion()
		if err != nil {
			fatal(err)
		}

		if version == 0 {
			fmt.Println("No migrations have been applied yet")
			return
		}
		fmt.Printf("Current version: %d\n", version)
		if dirty {
			fmt.Println("Warning: database is in a dirty state")
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
