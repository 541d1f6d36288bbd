package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gradegraph/internal/dataprocessing"
)

func newSubjectsCmd(c *cli) *cobra.Command {
	var sheet string
	var top int

	cmd := &cobra.Command{
		Use:   "subjects <file.xlsx>",
		Short: "List subjects with their exam types and mark statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := c.analyze(cmd.Context(), args[0], sheet)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SUBJECT\tEXAM TYPES\tAVERAGE\tMAX\tMIN\tSTD")
			for _, subject := range result.Subjects {
				summary, ok := dataprocessing.SubjectSummary(result, subject)
				if !ok {
					fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\n", subject)
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\n", subject,
					strings.Join(summary.ExamTypes, ","), summary.Average, summary.Max, summary.Min, summary.StdDev)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if top <= 0 {
				return nil
			}
			for _, subject := range result.Subjects {
				perf, ok := dataprocessing.SubjectPerformers(result, subject, top)
				if !ok {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s top:", subject)
				for _, m := range perf.Top {
					fmt.Fprintf(cmd.OutOrStdout(), " %s (%.0f)", m.Name, m.Marks)
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to read")
	cmd.Flags().IntVar(&top, "top", 0, "Also list the top N students of each subject")
	return cmd
}

func newStudentCmd(c *cli) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "student <file.xlsx> <query>",
		Short: "Show one student by SR.No, roll number or name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := c.analyze(cmd.Context(), args[0], sheet)
			if err != nil {
				return err
			}

			profile, ok := dataprocessing.FindStudent(result, args[1])
			if !ok {
				return fmt.Errorf("no student matches %q", args[1])
			}

			out := cmd.OutOrStdout()
			s := profile.Student
			fmt.Fprintf(out, "%s  SR.No %s", s.Name, s.SRNo)
			if s.RollNo != "" {
				fmt.Fprintf(out, "  Roll No %s", s.RollNo)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Category: %s\n", s.Category)
			fmt.Fprintf(out, "Academic: %s  Practical: %s\n", percent(s.AcademicPercent), percent(s.PracticalPercent))
			if s.CodingExpertise != "" {
				fmt.Fprintf(out, "Coding expertise: %s\n", s.CodingExpertise)
			}
			if s.Suggestion != "" {
				fmt.Fprintf(out, "Suggestion: %s\n", s.Suggestion)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nASSESSMENT\tMARKS")
			for _, score := range profile.SubjectScores {
				fmt.Fprintf(tw, "%s\t%.0f\n", score.Subject, score.Marks)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to read")
	return cmd
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}
