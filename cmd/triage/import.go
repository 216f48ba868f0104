package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/collegedesk/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// importSummary counts what an import wrote.
type importSummary struct {
	Colleges        int
	Profiles        int
	Reviews         int
	ReviewsExisting int
}

func importCommand() *cobra.Command {
	var (
		input  string
		dbPath string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load colleges, profiles and reviews from an export into a SQLite database",
		Long: "Load colleges, profiles and reviews from an export into a SQLite database.\n" +
			"Colleges and profiles are upserted. Reviews already present are left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireInput(input); err != nil {
				return err
			}
			if dbPath == "" {
				return errors.New("--db is required")
			}

			export, err := loadExport(input)
			if err != nil {
				return err
			}
			reviews, err := export.reviews()
			if err != nil {
				return err
			}
			profiles, err := export.profiles()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := sqliteadapter.NewDB(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if _, err := sqliteadapter.RunMigrations(db); err != nil {
				return err
			}

			summary, err := importExport(ctx, importTargets{
				eligibility: application.NewEligibilityService(sqliteadapter.NewCollegeRepo(db), logger),
				profiles:    sqliteadapter.NewProfileRepo(db),
				reviews:     sqliteadapter.NewReviewRepo(db),
			}, export.colleges(), profiles, reviews)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d colleges, %d profiles, %d reviews (%d already present)\n",
				summary.Colleges, summary.Profiles, summary.Reviews, summary.ReviewsExisting)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to YAML export")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite database, created if missing")
	return cmd
}

// importTargets are the stores an import writes through.
type importTargets struct {
	eligibility *application.EligibilityService
	profiles    driven.ProfileStore
	reviews     driven.ReviewStore
}

// importExport writes colleges first so reviews can reference them.
func importExport(
	ctx context.Context,
	t importTargets,
	colleges []model.College,
	profiles []model.UserProfile,
	reviews []model.Review,
) (importSummary, error) {
	var s importSummary

	for _, c := range colleges {
		if err := t.eligibility.UpsertCollege(ctx, c); err != nil {
			return s, fmt.Errorf("college %q: %w", c.ID, err)
		}
		s.Colleges++
	}

	for _, p := range profiles {
		if err := t.profiles.UpsertProfile(ctx, p); err != nil {
			return s, fmt.Errorf("profile %q: %w", p.UserID, err)
		}
		s.Profiles++
	}

	for _, r := range reviews {
		err := t.reviews.Create(ctx, r)
		switch {
		case errors.Is(err, driven.ErrAlreadyExists):
			s.ReviewsExisting++
		case err != nil:
			return s, fmt.Errorf("review %q: %w", r.ID, err)
		default:
			s.Reviews++
		}
	}
	return s, nil
}
