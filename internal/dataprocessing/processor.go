package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"gradegraph/internal/assessment"
	"gradegraph/pkg/contracts/domain"
)

// SummaryColumns is the column order of the learner summary table.
var SummaryColumns = []string{
	assessment.ColSRNo,
	assessment.ColRollNo,
	assessment.ColName,
	assessment.ColAcademicPct,
	assessment.ColPracticalPct,
	assessment.ColCodingExpertise,
	assessment.ColCategory,
	assessment.ColSuggestion,
}

// Result is a classified sheet.
type Result struct {
	// Full is the parsed table with Academic_Performance_%, Practical_% and
	// Category set on every row.
	Full *assessment.Table
	// Summary holds one row per student restricted to SummaryColumns.
	Summary  *assessment.Table
	Subjects []string
	Students []domain.Student
	Policy   assessment.Policy
}

// Processor derives performance columns and learner categories.
type Processor struct {
	policy assessment.Policy
	logger *slog.Logger
}

// NewProcessor creates a processor. A nil logger uses slog.Default.
func NewProcessor(policy assessment.Policy, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		policy: policy,
		logger: logger.With(slog.String("component", "processor")),
	}
}

// Policy returns the cutoffs the processor classifies with.
func (p *Processor) Policy() assessment.Policy {
	return p.policy
}

// codingLabel is the Coding_Expertise value written back for a row.
// Recognized levels are normalized; anything else is kept as entered.
func codingLabel(raw string, level assessment.CodingLevel) string {
	if level == assessment.CodingNone {
		return strings.TrimSpace(raw)
	}
	return string(level)
}

// Process computes per-student percentages and categories. Columns already
// named like a derived column are overwritten.
func (p *Processor) Process(ctx context.Context, table *assessment.Table) (*Result, error) {
	start := time.Now()

	academic := assessment.AcademicColumns(table)
	practical := assessment.PracticalColumns(table)
	hasCoding := table.HasColumn(assessment.ColCodingExpertise)

	n := table.Len()
	academicVals := make([]string, n)
	practicalVals := make([]string, n)
	codingVals := make([]string, n)
	categoryVals := make([]string, n)
	suggestionVals := make([]string, n)
	students := make([]domain.Student, n)

	for i := 0; i < n; i++ {
		if i%500 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		student := domain.Student{
			SRNo:   table.Value(i, assessment.ColSRNo),
			RollNo: table.Value(i, assessment.ColRollNo),
			Name:   table.Value(i, assessment.ColName),
		}

		acad, acadOK := assessment.RowPercentage(table, i, academic)
		if acadOK {
			acad = round2(acad)
			academicVals[i] = assessment.FormatNumber(acad)
			student.AcademicPercent = &acad
		}
		if prac, ok := assessment.RowPercentage(table, i, practical); ok {
			prac = round2(prac)
			practicalVals[i] = assessment.FormatNumber(prac)
			student.PracticalPercent = &prac
		}

		raw := table.Value(i, assessment.ColCodingExpertise)
		level := assessment.ParseCodingLevel(raw)
		codingVals[i] = codingLabel(raw, level)
		student.CodingExpertise = codingVals[i]

		category := assessment.StudentCategory(acad, acadOK, level, p.policy)
		categoryVals[i] = string(category)
		suggestionVals[i] = assessment.Suggestion(category)
		student.Category = string(category)
		student.Suggestion = suggestionVals[i]

		students[i] = student
	}

	full := table.
		WithColumn(assessment.ColAcademicPct, academicVals).
		WithColumn(assessment.ColPracticalPct, practicalVals).
		WithColumn(assessment.ColCategory, categoryVals)
	if hasCoding {
		full = full.WithColumn(assessment.ColCodingExpertise, codingVals)
	}

	summary := full.
		WithColumn(assessment.ColSuggestion, suggestionVals).
		Select(SummaryColumns...)

	result := &Result{
		Full:     full,
		Summary:  summary,
		Subjects: assessment.SubjectList(table),
		Students: students,
		Policy:   p.policy,
	}

	p.logger.InfoContext(ctx, "classified students",
		slog.Int("students", n),
		slog.Int("subjects", len(result.Subjects)),
		slog.Int("academic_columns", len(academic)),
		slog.Int("practical_columns", len(practical)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// CategoryDistribution counts students per category. Categories with no
// students are omitted.
func (r *Result) CategoryDistribution() map[string]int {
	dist := make(map[string]int)
	for _, s := range r.Students {
		dist[s.Category]++
	}
	return dist
}

// StudentCount is the number of student rows.
func (r *Result) StudentCount() int {
	return len(r.Students)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
