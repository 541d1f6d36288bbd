package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradegraph/internal/assessment"
	"gradegraph/pkg/contracts/domain"
)

func TestDifficultyFor(t *testing.T) {
	tests := []struct {
		average float64
		want    domain.Difficulty
	}{
		{75, domain.DifficultyEasy},
		{60, domain.DifficultyEasy},
		{59.99, domain.DifficultyModerate},
		{40, domain.DifficultyModerate},
		{39.9, domain.DifficultyDifficult},
		{0, domain.DifficultyDifficult},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DifficultyFor(tt.average), "average %.2f", tt.average)
	}
}

func TestSubjectDifficulties(t *testing.T) {
	result := classResult(t)

	got := SubjectDifficulties(result)
	require.Len(t, got, 2)

	assert.Equal(t, domain.SubjectDifficulty{
		Subject:       "Maths",
		AverageMarks:  42.4,
		MaxAttainable: 85,
		FailRate:      40,
		Difficulty:    domain.DifficultyModerate,
	}, got[0])
	assert.Equal(t, "Dbms", got[1].Subject)
	assert.Equal(t, 45.0, got[1].AverageMarks)
}

func TestRecommendations(t *testing.T) {
	t.Run("class fixture", func(t *testing.T) {
		result := classResult(t)
		recs := Recommendations(result, SubjectDifficulties(result))

		require.Len(t, recs, 1)
		assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
		assert.Equal(t, "Academic Support", recs[0].Area)
		assert.Contains(t, recs[0].Message, "3 of 5")
	})

	t.Run("difficult subject and low pass rate", func(t *testing.T) {
		table := assessment.NewTable(
			[]string{"SR.No", "Name", "PHYSICS MSE", "PHYSICS ESE", "CHEM MSE", "CHEM ESE"},
			[][]string{
				{"1", "A", "5", "10", "20", "50"},
				{"2", "B", "6", "12", "5", "10"},
				{"3", "C", "20", "50", "22", "55"},
			},
		)
		result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
		require.NoError(t, err)

		recs := Recommendations(result, SubjectDifficulties(result))
		areas := make([]string, len(recs))
		for i, r := range recs {
			areas[i] = r.Area
		}
		assert.Equal(t, []string{"Academic Support", "Curriculum", "Pass Rate"}, areas)
		assert.Contains(t, recs[1].Message, "Physics")
	})

	t.Run("healthy class", func(t *testing.T) {
		table := assessment.NewTable(
			[]string{"SR.No", "Name", "MATHS MSE", "MATHS ESE"},
			[][]string{
				{"1", "A", "22", "55"},
				{"2", "B", "20", "50"},
			},
		)
		result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
		require.NoError(t, err)
		assert.Empty(t, Recommendations(result, SubjectDifficulties(result)))
	})
}

func TestPassRate(t *testing.T) {
	rate, counted := PassRate(classResult(t))
	assert.Equal(t, 80.0, rate)
	assert.Equal(t, 5, counted)

	rate, counted = PassRate(&Result{})
	assert.Zero(t, rate)
	assert.Zero(t, counted)
}

func TestSubjectSummary(t *testing.T) {
	result := classResult(t)

	summary, ok := SubjectSummary(result, "Maths")
	require.True(t, ok)
	assert.Equal(t, []string{"ESE", "MSE"}, summary.ExamTypes)
	assert.Equal(t, []float64{82, 45, 20, 65, 0}, summary.Totals)
	assert.Equal(t, 42.4, summary.Average)
	assert.Equal(t, 82.0, summary.Max)
	assert.Equal(t, 0.0, summary.Min)

	_, ok = SubjectSummary(result, "Os")
	assert.False(t, ok)
}

func TestSubjectPerformers(t *testing.T) {
	result := classResult(t)

	perf, ok := SubjectPerformers(result, "Maths", 2)
	require.True(t, ok)
	require.Len(t, perf.Top, 2)
	require.Len(t, perf.Bottom, 2)
	assert.Equal(t, "Asha Patil", perf.Top[0].Name)
	assert.Equal(t, 82.0, perf.Top[0].Marks)
	assert.Equal(t, "John Dsouza", perf.Top[1].Name)
	assert.Equal(t, "Sara Khan", perf.Bottom[0].Name)
	assert.Equal(t, "Meera Nair", perf.Bottom[1].Name)

	all, ok := SubjectPerformers(result, "Maths", 50)
	require.True(t, ok)
	assert.Len(t, all.Top, 5)

	_, ok = SubjectPerformers(result, "History", 3)
	assert.False(t, ok)
}

func TestSubjectMarkList(t *testing.T) {
	marks, ok := SubjectMarkList(classResult(t), "Dbms")
	require.True(t, ok)
	require.Len(t, marks, 5)
	assert.Equal(t, domain.StudentMark{SRNo: "5", Name: "Sara Khan", Category: "Weak", Marks: 32}, marks[4])
}

func TestFindStudent(t *testing.T) {
	result := classResult(t)

	tests := []struct {
		name     string
		query    string
		wantName string
		found    bool
	}{
		{name: "serial number", query: "2", wantName: "Ravi Kumar", found: true},
		{name: "roll number any case", query: "r03", wantName: "Meera Nair", found: true},
		{name: "exact name", query: "john dsouza", wantName: "John Dsouza", found: true},
		{name: "partial name", query: "khan", wantName: "Sara Khan", found: true},
		{name: "blank", query: "  ", found: false},
		{name: "unknown", query: "Zed", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, ok := FindStudent(result, tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.wantName, profile.Student.Name)
			}
		})
	}
}

func TestFindStudentSubjectScores(t *testing.T) {
	profile, ok := FindStudent(classResult(t), "R02")
	require.True(t, ok)

	assert.Equal(t, []domain.SubjectScore{
		{Subject: "Maths Ese", Marks: 30},
		{Subject: "Os Tw", Marks: 30},
		{Subject: "Dbms Ese", Marks: 28},
		{Subject: "Maths Mse", Marks: 15},
		{Subject: "Dbms Practical", Marks: 15},
		{Subject: "Dbms Mse", Marks: 12},
	}, profile.SubjectScores)
}

func TestBuildDashboard(t *testing.T) {
	d := BuildDashboard(classResult(t))

	assert.Equal(t, 5, d.TotalStudents)
	assert.Equal(t, 3, d.TotalSubjects)
	require.NotNil(t, d.AveragePerformance)
	assert.Equal(t, 58.32, *d.AveragePerformance)

	require.Len(t, d.WeakLearners, 3)
	assert.Equal(t, "Meera Nair", d.WeakLearners[0].Name)
	assert.Equal(t, 1, d.WeakLearners[0].Rank)

	require.Len(t, d.BrightLearners, 2)
	assert.Equal(t, "Asha Patil", d.BrightLearners[0].Name)
	assert.Equal(t, "John Dsouza", d.BrightLearners[1].Name)
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(classResult(t))

	assert.Equal(t, 5, report.Metadata.TotalStudents)
	assert.Equal(t, []string{"Dbms", "Maths", "Os"}, report.Metadata.Subjects)
	assert.Len(t, report.Subjects, 2)

	stats := report.Statistics
	assert.Equal(t, 5, stats.StudentsWithMarks)
	assert.Equal(t, 53.06, stats.Median)
	assert.Equal(t, 94.29, stats.Max)
	assert.Equal(t, 26.53, stats.Min)
	assert.Equal(t, 80.0, stats.PassRate)
	assert.Equal(t, 1, stats.NeedsSupport)
	assert.Greater(t, stats.StdDev, 0.0)

	assert.Len(t, report.Difficulty, 2)
	assert.Len(t, report.Recommendations, 1)
}

func TestBuildStatisticsEmpty(t *testing.T) {
	assert.Equal(t, domain.ReportStatistics{}, BuildStatistics(&Result{}))
}
