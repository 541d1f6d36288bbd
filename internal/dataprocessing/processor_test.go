package dataprocessing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gradegraph/internal/assessment"
	"gradegraph/internal/shared/testutil"
)

// classResult parses and processes the shared class fixture.
func classResult(t *testing.T) *Result {
	t.Helper()
	path := testutil.WriteWorkbook(t, t.TempDir(), "class.xlsx", testutil.ClassHeaders, testutil.ClassRows)
	sheet, err := ParseFile(path, ParseOptions{})
	require.NoError(t, err)

	result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), sheet.Table)
	require.NoError(t, err)
	return result
}

func TestProcessScenario(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	sheet, err := ParseReader(bytes.NewReader(testutil.WorkbookBytes(t, testutil.ScenarioHeaders, testutil.ScenarioRows)), ParseOptions{})
	require.NoError(t, err)

	result, err := NewProcessor(assessment.DefaultPolicy(), logger).Process(context.Background(), sheet.Table)
	require.NoError(t, err)

	tests := []struct {
		row       int
		academic  string
		practical string
		category  string
	}{
		{row: 0, academic: "77.27", practical: "80.00", category: "Bright"},
		{row: 1, academic: "50.00", practical: "60.00", category: "Weak"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.academic, result.Full.Value(tt.row, assessment.ColAcademicPct))
		assert.Equal(t, tt.practical, result.Full.Value(tt.row, assessment.ColPracticalPct))
		assert.Equal(t, tt.category, result.Full.Value(tt.row, assessment.ColCategory))
	}
	assert.Equal(t, ptr(77.27), result.Students[0].AcademicPercent)

	marks, ok := assessment.SubjectMarks(result.Full, "Maths")
	require.True(t, ok)
	assert.Equal(t, []float64{65, 40}, marks)

	assert.Equal(t, []string{
		assessment.ColSRNo,
		assessment.ColName,
		assessment.ColAcademicPct,
		assessment.ColPracticalPct,
		assessment.ColCategory,
		assessment.ColSuggestion,
	}, result.Summary.Columns())
	assert.Equal(t, assessment.Suggestion(assessment.Bright), result.Summary.Value(0, assessment.ColSuggestion))
	assert.False(t, result.Full.HasColumn(assessment.ColSuggestion))

	assert.Equal(t, []string{"Dbms", "Maths"}, result.Subjects)
	testutil.AssertLogAttr(t, logs, "component", "processor")
	testutil.AssertLogAttr(t, logs, "students", int64(2))
}

func TestProcessClass(t *testing.T) {
	result := classResult(t)

	tests := []struct {
		row       int
		academic  *float64
		practical *float64
		coding    string
		category  string
	}{
		{row: 0, academic: ptr(94.29), practical: ptr(96), coding: "Advanced", category: "Bright"},
		{row: 1, academic: ptr(53.06), practical: ptr(60), coding: "Intermediate", category: "Weak"},
		{row: 2, academic: ptr(26.53), practical: ptr(36), coding: "Beginner", category: "Weak"},
		{row: 3, academic: ptr(75.51), practical: ptr(80), coding: "Intermediate", category: "Bright"},
		{row: 4, academic: ptr(42.22), practical: nil, coding: "", category: "Weak"},
	}

	require.Len(t, result.Students, 5)
	for _, tt := range tests {
		s := result.Students[tt.row]
		t.Run(s.Name, func(t *testing.T) {
			assert.Equal(t, tt.academic, s.AcademicPercent)
			assert.Equal(t, tt.practical, s.PracticalPercent)
			assert.Equal(t, tt.coding, s.CodingExpertise)
			assert.Equal(t, tt.category, s.Category)
			assert.Equal(t, tt.category, result.Full.Value(tt.row, assessment.ColCategory))
			assert.Equal(t, tt.coding, result.Full.Value(tt.row, assessment.ColCodingExpertise))
		})
	}

	assert.Equal(t, SummaryColumns, result.Summary.Columns())
	assert.Equal(t, "", result.Summary.Value(4, assessment.ColPracticalPct))
	assert.Equal(t, []string{"Dbms", "Maths", "Os"}, result.Subjects)
	assert.Equal(t, map[string]int{"Bright": 2, "Weak": 3}, result.CategoryDistribution())
}

func TestProcessNoMarks(t *testing.T) {
	table := assessment.NewTable([]string{"SR.No", "Name", "MATHS MSE"}, [][]string{
		{"1", "Asha", "AB"},
	})

	result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
	require.NoError(t, err)

	s := result.Students[0]
	assert.Nil(t, s.AcademicPercent)
	assert.Equal(t, string(assessment.Unknown), s.Category)
	assert.Equal(t, "", result.Full.Value(0, assessment.ColAcademicPct))
}

func TestProcessOverwritesStaleDerivedColumns(t *testing.T) {
	table := assessment.NewTable(
		[]string{"SR.No", "Name", "MATHS ESE", assessment.ColCategory, assessment.ColAcademicPct},
		[][]string{{"1", "Asha", "30", "Bright", "99"}},
	)

	result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, append(table.Columns(), assessment.ColPracticalPct), result.Full.Columns())
	assert.Equal(t, "50.00", result.Full.Value(0, assessment.ColAcademicPct))
	assert.Equal(t, "Weak", result.Full.Value(0, assessment.ColCategory))
}

func TestProcessCustomPolicy(t *testing.T) {
	table := assessment.NewTable(testutil.ScenarioHeaders, [][]string{
		{"2", "Ravi", "10", "30", "15"},
	})
	policy := assessment.Policy{BrightMin: 60, AverageMin: 45}

	result, err := NewProcessor(policy, nil).Process(context.Background(), table)
	require.NoError(t, err)
	assert.Equal(t, "Average", result.Students[0].Category)
}

func TestProcessCountsPracticalTowardsAcademic(t *testing.T) {
	table := assessment.NewTable(
		[]string{"SR.No", "Name", "MATHS ESE", "DBMS PR", "OS TW"},
		[][]string{{"1", "Asha", "30", "25", "25"}},
	)

	result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
	require.NoError(t, err)

	// 80 of 135 with the practical, 55 of 110 without it.
	assert.Equal(t, "59.26", result.Full.Value(0, assessment.ColAcademicPct))
	assert.Equal(t, "100.00", result.Full.Value(0, assessment.ColPracticalPct))
}

func TestProcessKeepsUnrecognizedCodingExpertise(t *testing.T) {
	table := assessment.NewTable(
		[]string{"SR.No", "Name", "MATHS ESE", assessment.ColCodingExpertise},
		[][]string{
			{"1", "Asha", "50", "Expert"},
			{"2", "Ravi", "30", " a "},
			{"3", "Meera", "20", ""},
		},
	)

	result, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(context.Background(), table)
	require.NoError(t, err)

	tests := []struct {
		row  int
		want string
	}{
		{row: 0, want: "Expert"},
		{row: 1, want: string(assessment.CodingAdvanced)},
		{row: 2, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, result.Full.Value(tt.row, assessment.ColCodingExpertise))
		assert.Equal(t, tt.want, result.Students[tt.row].CodingExpertise)
	}
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := assessment.NewTable(testutil.ScenarioHeaders, [][]string{{"1", "Asha", "20", "45", "20"}})
	_, err := NewProcessor(assessment.DefaultPolicy(), nil).Process(ctx, table)
	assert.ErrorIs(t, err, context.Canceled)
}

func ptr(f float64) *float64 {
	return &f
}
