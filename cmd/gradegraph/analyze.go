package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gradegraph/internal/dataprocessing"
	"gradegraph/internal/exporter"
	"gradegraph/pkg/contracts/domain"
)

type analyzeOptions struct {
	sheet  string
	outDir string
	kinds  []string
	asJSON bool
	record bool
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.xlsx>",
		Short: "Classify every student in a workbook and print the class report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, c, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Sheet to read (defaults to the first sheet with a header row)")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "Write exports into this directory")
	cmd.Flags().StringSliceVar(&opts.kinds, "export", []string{"full", "summary"}, "Export kinds written with --out: "+kindList())
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the analysis report as JSON")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Save the result to upload history")
	return cmd
}

func kindList() string {
	names := make([]string, len(exporter.Kinds))
	for i, k := range exporter.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func runAnalyze(cmd *cobra.Command, c *cli, opts *analyzeOptions, file string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	kinds := make([]exporter.Kind, 0, len(opts.kinds))
	for _, name := range opts.kinds {
		k, err := exporter.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	parsed, result, err := c.analyze(ctx, file, opts.sheet)
	if err != nil {
		return err
	}

	now := c.now().UTC()
	summary := domain.UploadSummary{
		ID:                   uuid.NewString(),
		FileName:             filepath.Base(file),
		Sheet:                parsed.Sheet,
		UploadedAt:           now,
		TotalStudents:        result.StudentCount(),
		Subjects:             result.Subjects,
		CategoryDistribution: result.CategoryDistribution(),
	}
	report := dataprocessing.BuildReport(result)
	report.Metadata.UploadID = summary.ID
	report.Metadata.FileName = summary.FileName
	report.Metadata.GeneratedAt = now

	if opts.asJSON {
		if err := exporter.WriteReport(out, report); err != nil {
			return err
		}
	} else {
		printReport(out, summary, report)
	}

	if opts.record {
		history, err := c.openHistory(ctx)
		if err != nil {
			return err
		}
		defer history.Close()
		if err := history.SaveUpload(ctx, summary, report); err != nil {
			return fmt.Errorf("failed to record upload: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "recorded upload %s\n", summary.ID)
	}

	if opts.outDir == "" {
		return nil
	}
	if err := c.validator.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	paths := *c.paths
	paths.ExportsDir = opts.outDir
	exp := exporter.NewExporter(&paths, c.logger)
	content := exporter.Content{
		Full:    result.Full,
		Summary: result.Summary,
		Bright:  dataprocessing.BuildDashboard(result).BrightLearners,
		Report:  report,
	}
	written, err := exp.Save(summary.ID, content, now, kinds...)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", path, fileSize(path))
	}
	return nil
}

func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return humanize.Bytes(uint64(info.Size()))
}

func printReport(w io.Writer, summary domain.UploadSummary, report domain.Report) {
	stats := report.Statistics
	fmt.Fprintf(w, "%s (sheet %s): %d students, %d subjects\n",
		summary.FileName, summary.Sheet, summary.TotalStudents, len(summary.Subjects))
	if stats.StudentsWithMarks > 0 {
		fmt.Fprintf(w, "Average %.2f%%  median %.2f%%  range %.2f%%..%.2f%%  pass rate %.2f%%\n",
			stats.Average, stats.Median, stats.Min, stats.Max, stats.PassRate)
	}

	categories := make([]string, 0, len(report.CategoryDistribution))
	for name := range report.CategoryDistribution {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nCATEGORY\tSTUDENTS")
	for _, name := range categories {
		fmt.Fprintf(tw, "%s\t%d\n", name, report.CategoryDistribution[name])
	}
	if len(report.Difficulty) > 0 {
		fmt.Fprintln(tw, "\nSUBJECT\tAVERAGE\tFAIL RATE\tDIFFICULTY")
		for _, d := range report.Difficulty {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f%%\t%s\n", d.Subject, d.AverageMarks, d.FailRate, d.Difficulty)
		}
	}
	tw.Flush()

	for _, rec := range report.Recommendations {
		fmt.Fprintf(w, "[%s] %s: %s\n", rec.Priority, rec.Area, rec.Message)
	}
}
