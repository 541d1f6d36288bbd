package dataprocessing

import (
	"fmt"
	"sort"
	"strings"

	"gradegraph/internal/assessment"
	"gradegraph/pkg/contracts/domain"
)

// Thresholds used by the class insights.
const (
	// PassPercent is the Academic_Performance_% needed to pass.
	PassPercent = 40.0
	// FailShare is the fraction of attainable subject marks below which a
	// student counts as failing that subject.
	FailShare = 0.4
	// EasyAverage and ModerateAverage bound subject difficulty on the raw
	// average MSE+ESE total.
	EasyAverage     = 60.0
	ModerateAverage = 40.0
	// WeakShareAlert triggers the academic support recommendation.
	WeakShareAlert = 0.30
	// PassRateAlert triggers the pass rate recommendation.
	PassRateAlert = 80.0
	// DefaultLeaderboardSize is used when the dashboard has no weak learners
	// to match.
	DefaultLeaderboardSize = 5
)

// DifficultyFor labels an average subject total.
func DifficultyFor(average float64) domain.Difficulty {
	switch {
	case average >= EasyAverage:
		return domain.DifficultyEasy
	case average >= ModerateAverage:
		return domain.DifficultyModerate
	default:
		return domain.DifficultyDifficult
	}
}

// SubjectDifficulties rates every subject that has MSE or ESE columns,
// hardest first.
func SubjectDifficulties(r *Result) []domain.SubjectDifficulty {
	var out []domain.SubjectDifficulty
	for _, subject := range r.Subjects {
		totals, ok := assessment.SubjectMarks(r.Full, subject)
		if !ok || len(totals) == 0 {
			continue
		}

		var attainable float64
		for _, c := range assessment.SubjectExamColumns(r.Full, subject) {
			attainable += assessment.MaxMarksForHeader(c)
		}

		failing := 0
		for _, t := range totals {
			if t < FailShare*attainable {
				failing++
			}
		}

		avg := assessment.Mean(totals)
		out = append(out, domain.SubjectDifficulty{
			Subject:       subject,
			AverageMarks:  round2(avg),
			MaxAttainable: attainable,
			FailRate:      round2(float64(failing) / float64(len(totals)) * 100),
			Difficulty:    DifficultyFor(avg),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageMarks < out[j].AverageMarks
	})
	return out
}

// Recommendations derives actionable findings from the categories, the
// pass rate and the subject difficulties. difficulties must be ordered
// hardest first as returned by SubjectDifficulties.
func Recommendations(r *Result, difficulties []domain.SubjectDifficulty) []domain.Recommendation {
	var recs []domain.Recommendation

	total := r.StudentCount()
	if total > 0 {
		weak := r.CategoryDistribution()[string(assessment.Weak)]
		share := float64(weak) / float64(total)
		if share > WeakShareAlert {
			recs = append(recs, domain.Recommendation{
				Priority: domain.PriorityHigh,
				Area:     "Academic Support",
				Message:  fmt.Sprintf("%.1f%% of students (%d of %d) are weak learners", share*100, weak, total),
				Action:   "Organize remedial classes and assign mentors to weak learners",
			})
		}
	}

	for _, d := range difficulties {
		if d.Difficulty != domain.DifficultyDifficult {
			continue
		}
		recs = append(recs, domain.Recommendation{
			Priority: domain.PriorityHigh,
			Area:     "Curriculum",
			Message:  fmt.Sprintf("%s is the most difficult subject with an average of %.2f and a fail rate of %.1f%%", d.Subject, d.AverageMarks, d.FailRate),
			Action:   fmt.Sprintf("Review the teaching plan for %s and add practice sessions", d.Subject),
		})
		break
	}

	if rate, counted := PassRate(r); counted > 0 && rate < PassRateAlert {
		recs = append(recs, domain.Recommendation{
			Priority: domain.PriorityHigh,
			Area:     "Pass Rate",
			Message:  fmt.Sprintf("Pass rate is %.1f%%, below the %.0f%% target", rate, PassRateAlert),
			Action:   "Identify students near the pass mark and schedule revision sessions",
		})
	}

	return recs
}

// PassRate returns the percentage of students with academic marks scoring at
// least PassPercent, and how many students had marks.
func PassRate(r *Result) (float64, int) {
	counted, passed := 0, 0
	for _, s := range r.Students {
		if s.AcademicPercent == nil {
			continue
		}
		counted++
		if *s.AcademicPercent >= PassPercent {
			passed++
		}
	}
	if counted == 0 {
		return 0, 0
	}
	return round2(float64(passed) / float64(counted) * 100), counted
}

// SubjectSummary describes the MSE+ESE totals of subject. The bool is false
// when the subject has no exam data.
func SubjectSummary(r *Result, subject string) (domain.SubjectSummary, bool) {
	s, ok := assessment.SubjectMarksSummary(r.Full, subject)
	if !ok {
		return domain.SubjectSummary{}, false
	}
	types := assessment.ExamTypes(r.Full, subject)
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return domain.SubjectSummary{
		Subject:   s.Subject,
		ExamTypes: names,
		Totals:    s.Totals,
		Average:   round2(s.Average),
		Max:       s.Max,
		Min:       s.Min,
		StdDev:    round2(s.StdDev),
	}, true
}

// SubjectMarkList pairs each student with their MSE+ESE total for subject,
// in sheet order.
func SubjectMarkList(r *Result, subject string) ([]domain.StudentMark, bool) {
	totals, ok := assessment.SubjectMarks(r.Full, subject)
	if !ok {
		return nil, false
	}
	marks := make([]domain.StudentMark, len(totals))
	for i, t := range totals {
		s := r.Students[i]
		marks[i] = domain.StudentMark{
			SRNo:     s.SRNo,
			Name:     s.Name,
			Category: s.Category,
			Marks:    t,
		}
	}
	return marks, true
}

// SubjectPerformers returns the n highest and n lowest totals of subject.
// Ties keep sheet order.
func SubjectPerformers(r *Result, subject string, n int) (domain.SubjectPerformers, bool) {
	marks, ok := SubjectMarkList(r, subject)
	if !ok {
		return domain.SubjectPerformers{}, false
	}
	if n <= 0 || n > len(marks) {
		n = len(marks)
	}

	desc := append([]domain.StudentMark(nil), marks...)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Marks > desc[j].Marks })
	asc := append([]domain.StudentMark(nil), marks...)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Marks < asc[j].Marks })

	return domain.SubjectPerformers{
		Subject: subject,
		Top:     desc[:n],
		Bottom:  asc[:n],
	}, true
}

// FindStudent looks a student up by SR.No, then Roll No, then exact name and
// finally a name substring, all case-insensitive.
func FindStudent(r *Result, query string) (domain.StudentProfile, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.StudentProfile{}, false
	}

	matchers := []func(domain.Student) bool{
		func(s domain.Student) bool { return strings.EqualFold(s.SRNo, q) },
		func(s domain.Student) bool { return s.RollNo != "" && strings.EqualFold(s.RollNo, q) },
		func(s domain.Student) bool { return strings.EqualFold(s.Name, q) },
		func(s domain.Student) bool { return strings.Contains(strings.ToLower(s.Name), strings.ToLower(q)) },
	}
	for _, match := range matchers {
		for i, s := range r.Students {
			if match(s) {
				return domain.StudentProfile{
					Student:       s,
					SubjectScores: subjectScores(r.Full, i),
				}, true
			}
		}
	}
	return domain.StudentProfile{}, false
}

// subjectScores lists the positive numeric non-metadata cells of a row,
// highest first.
func subjectScores(t *assessment.Table, row int) []domain.SubjectScore {
	var scores []domain.SubjectScore
	for _, c := range t.Columns() {
		if assessment.IsMetadataColumn(c) {
			continue
		}
		v, ok := t.Number(row, c)
		if !ok || v <= 0 {
			continue
		}
		scores = append(scores, domain.SubjectScore{
			Subject: assessment.NormalizeSubject(c),
			Marks:   v,
		})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Marks > scores[j].Marks })
	return scores
}

// Leaderboard ranks students of category by academic percentage. best
// orders highest first; otherwise lowest first. limit <= 0 returns all.
func Leaderboard(r *Result, category assessment.Category, best bool, limit int) []domain.RankedStudent {
	var picked []domain.Student
	for _, s := range r.Students {
		if s.Category == string(category) && s.AcademicPercent != nil {
			picked = append(picked, s)
		}
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if best {
			return *picked[i].AcademicPercent > *picked[j].AcademicPercent
		}
		return *picked[i].AcademicPercent < *picked[j].AcademicPercent
	})
	if limit > 0 && len(picked) > limit {
		picked = picked[:limit]
	}

	ranked := make([]domain.RankedStudent, len(picked))
	for i, s := range picked {
		ranked[i] = domain.RankedStudent{
			Rank:            i + 1,
			SRNo:            s.SRNo,
			Name:            s.Name,
			AcademicPercent: *s.AcademicPercent,
			Category:        s.Category,
		}
	}
	return ranked
}

// BuildDashboard summarizes a result. The bright list is as long as the weak
// list so the two can be paired for peer mentoring; with no weak learners it
// holds DefaultLeaderboardSize entries.
func BuildDashboard(r *Result) domain.Dashboard {
	weak := Leaderboard(r, assessment.Weak, false, 0)
	size := len(weak)
	if size == 0 {
		size = DefaultLeaderboardSize
	}

	d := domain.Dashboard{
		TotalStudents:        r.StudentCount(),
		TotalSubjects:        len(r.Subjects),
		CategoryDistribution: r.CategoryDistribution(),
		BrightLearners:       Leaderboard(r, assessment.Bright, true, size),
		WeakLearners:         weak,
	}
	if values := academicPercents(r); len(values) > 0 {
		avg := round2(assessment.Mean(values))
		d.AveragePerformance = &avg
	}
	return d
}

// BuildStatistics computes class-wide figures over Academic_Performance_%.
// StdDev is the sample deviation.
func BuildStatistics(r *Result) domain.ReportStatistics {
	values := academicPercents(r)
	if len(values) == 0 {
		return domain.ReportStatistics{}
	}
	rate, _ := PassRate(r)
	needs := 0
	for _, v := range values {
		if v < PassPercent {
			needs++
		}
	}
	return domain.ReportStatistics{
		StudentsWithMarks: len(values),
		Average:           round2(assessment.Mean(values)),
		Median:            round2(assessment.Median(values)),
		StdDev:            round2(assessment.SampleStdDev(values)),
		Max:               assessment.Max(values),
		Min:               assessment.Min(values),
		PassRate:          rate,
		NeedsSupport:      needs,
	}
}

// BuildInsights runs the difficulty analysis and derives recommendations.
func BuildInsights(r *Result) domain.Insights {
	difficulty := SubjectDifficulties(r)
	return domain.Insights{
		Difficulty:      difficulty,
		Recommendations: Recommendations(r, difficulty),
	}
}

// BuildReport assembles the comprehensive analysis document. Metadata is
// left for the caller to fill in.
func BuildReport(r *Result) domain.Report {
	insights := BuildInsights(r)

	var subjects []domain.SubjectSummary
	for _, s := range r.Subjects {
		if summary, ok := SubjectSummary(r, s); ok {
			subjects = append(subjects, summary)
		}
	}

	return domain.Report{
		Metadata: domain.ReportMetadata{
			TotalStudents: r.StudentCount(),
			TotalSubjects: len(r.Subjects),
			Subjects:      r.Subjects,
		},
		Statistics:           BuildStatistics(r),
		CategoryDistribution: r.CategoryDistribution(),
		Subjects:             subjects,
		Difficulty:           insights.Difficulty,
		Recommendations:      insights.Recommendations,
	}
}

func academicPercents(r *Result) []float64 {
	var values []float64
	for _, s := range r.Students {
		if s.AcademicPercent != nil {
			values = append(values, *s.AcademicPercent)
		}
	}
	return values
}
