package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

func flagsCommand() *cobra.Command {
	var (
		input       string
		nowFlag     string
		flaggedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Evaluate spam flags for every review in an export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireInput(input); err != nil {
				return err
			}

			now := time.Now()
			if nowFlag != "" {
				parsed, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("invalid --now %q: %w", nowFlag, err)
				}
				now = parsed
			}

			export, err := loadExport(input)
			if err != nil {
				return err
			}
			reviews, err := export.reviews()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAUTHOR\tSTATUS\tFLAGS")
			flagged := 0
			for _, r := range reviews {
				flags := application.EvaluateSpamFlags(r, reviews, now)
				if len(flags) > 0 {
					flagged++
				} else if flaggedOnly {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.UserID, r.Status, joinFlags(flags))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d reviews flagged\n", flagged, len(reviews))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to YAML export")
	cmd.Flags().StringVar(&nowFlag, "now", "", "Evaluation time (RFC3339), defaults to now")
	cmd.Flags().BoolVar(&flaggedOnly, "flagged-only", false, "Only list flagged reviews")
	return cmd
}

func eligibleCommand() *cobra.Command {
	var (
		input string
		exam  string
		score float64
	)

	cmd := &cobra.Command{
		Use:   "eligible",
		Short: "List colleges a candidate qualifies for",
		Long:  "List colleges a candidate qualifies for. For rank-based exams --score is the rank.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireInput(input); err != nil {
				return err
			}
			if strings.TrimSpace(exam) == "" {
				return errors.New("--exam is required")
			}
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return errors.New("--score must be a finite number")
			}
			if score < 0 {
				return errors.New("--score must not be negative")
			}

			export, err := loadExport(input)
			if err != nil {
				return err
			}
			colleges := export.colleges()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s mode), score %g\n", model.ExamLabel(exam), model.ExamMode(exam), score)

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			eligible := 0
			for _, c := range colleges {
				if application.CheckEligibility(exam, score, c.Cutoffs) {
					eligible++
					fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "%d of %d colleges eligible\n", eligible, len(colleges))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to YAML export")
	cmd.Flags().StringVar(&exam, "exam", "", "Exam identifier, e.g. neet or \"JEE Advanced\"")
	cmd.Flags().Float64Var(&score, "score", 0, "Candidate score, or rank for rank-based exams")
	return cmd
}

func tiersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tiers",
		Short: "Print the subscription tier table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIER\tCOMPARE\tSAVED\tAI SUMMARY")
			for _, tier := range []model.Tier{model.TierBase, model.TierMid, model.TierTop} {
				limits := application.GetTierLimits(string(tier))
				fmt.Fprintf(tw, "%s\t%d\t%s\t%t\n", tier, limits.CompareSlots, limits.SavedSlots, limits.AISummaryAllowed)
			}
			return tw.Flush()
		},
	}
}

func joinFlags(flags []model.Flag) string {
	if len(flags) == 0 {
		return "-"
	}
	parts := make([]string, len(flags))
	for i, f := range flags {
		parts[i] = string(f)
	}
	return strings.Join(parts, ", ")
}
