package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stevedomin/termtable"

	"github.com/kdimtricp/triakustika/internal/database"
)

func main() {
	var (
		dbPath string
		limit  int
	)

	defaultPath := os.Getenv("DB_PATH")
	if defaultPath == "" {
		defaultPath = "./triakustika.db"
	}

	rootCmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepo(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			results, err := repo.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := termtable.NewTable(nil, &termtable.TableOptions{
				Padding:      2,
				UseSeparator: false,
			})
			t.SetHeader([]string{"ID", "Time", "Performer", "Title", "f1/f2/f3", "Buana", "Quality"})
			for _, r := range results {
				t.AddRow([]string{
					r.ID[:8],
					r.Timestamp.Local().Format("2006-01-02 15:04"),
					r.Profile.PerformerName,
					truncate(r.Profile.Title, 24),
					fmt.Sprintf("%d/%d/%d", r.Features.F1, r.Features.F2, r.Features.F3),
					string(r.DominantBuana),
					string(r.Quality),
				})
			}
			fmt.Println(t.Render())
			fmt.Printf("\nTotal: %d analyses\n", len(results))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one analysis in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepo(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			r, err := repo.GetByID(cmd.Context(), args[0])
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("analysis %s not found", args[0])
			}
			if err != nil {
				return err
			}

			fmt.Printf("%s  %s - %s\n", r.Timestamp.Local().Format("2006-01-02 15:04"), r.Profile.PerformerName, r.Profile.Title)
			fmt.Printf("Buana %s, %s (f1=%d f2=%d f3=%d)\n\n", r.DominantBuana, r.Quality, r.Features.F1, r.Features.F2, r.Features.F3)
			fmt.Printf("%s\n\n%s\n\nImage: %s\n", r.NarrativeText, r.CuratorialText, r.ImageReference)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := openRepo(dbPath)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := repo.DeleteByID(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted analysis %s\n", args[0])
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultPath, "SQLite database path")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of analyses (0 for all)")
	rootCmd.AddCommand(showCmd, deleteCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}

func openRepo(path string) (*database.AnalysisRepository, func(), error) {
	db, err := database.NewDB(database.Config{SQLitePath: path})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database.NewAnalysisRepository(db), func() { db.Close() }, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
