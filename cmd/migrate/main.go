package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stevedomin/termtable"

	"github.com/kdimtricp/triakustika/internal/database"
)

var dbPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			fmt.Printf("Running migrations on %s...\n", dbPath)
			if err := migrator.Run(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Println("Migrations completed successfully!")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeDB, err := openMigrator()
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := migrator.Status()
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			t := termtable.NewTable(nil, &termtable.TableOptions{
				Padding:      2,
				UseSeparator: false,
			})
			t.SetHeader([]string{"Version", "Name", "Status", "Applied"})
			for _, s := range statuses {
				status, applied := "pending", ""
				if s.Applied {
					status = "applied"
					applied = s.AppliedAt.Local().Format("2006-01-02 15:04:05")
				}
				t.AddRow([]string{s.Version, s.Name, status, applied})
			}
			fmt.Println(t.Render())
			return nil
		},
	}

	defaultPath := os.Getenv("DB_PATH")
	if defaultPath == "" {
		defaultPath = "./triakustika.db"
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultPath, "SQLite database path")
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func openMigrator() (*database.Migrator, func(), error) {
	db, err := database.NewDB(database.Config{SQLitePath: dbPath, SkipMigrations: true})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database.NewMigrator(db.Conn()), func() { db.Close() }, nil
}
