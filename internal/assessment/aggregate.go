package assessment

import (
	"math"
	"sort"
	"strings"
)

// MarksSummary describes the distribution of MSE+ESE totals of one subject.
type MarksSummary struct {
	Subject string    `json:"subject"`
	Totals  []float64 `json:"total_marks"`
	Average float64   `json:"average_marks"`
	Max     float64   `json:"max_marks"`
	Min     float64   `json:"min_marks"`
	StdDev  float64   `json:"std_marks"`
}

// RowPercentage returns obtained marks over attainable marks for one row,
// scaled to 100. Only numeric cells count; a blank or non-numeric cell adds
// neither to the obtained sum nor to the maximum. Columns absent from the
// table are ignored. The bool is false when nothing attainable remains.
func RowPercentage(t *Table, row int, columns []string) (float64, bool) {
	var obtained, attainable float64
	for _, c := range columns {
		v, ok := t.Number(row, c)
		if !ok {
			continue
		}
		obtained += v
		attainable += MaxMarksForHeader(c)
	}
	if attainable <= 0 {
		return 0, false
	}
	return obtained / attainable * 100, true
}

// SubjectExamColumns returns the MSE and ESE columns of subject. Header
// underscores are read as spaces so "DATA_STRUCTURES MSE" matches
// "Data Structures".
func SubjectExamColumns(t *Table, subject string) []string {
	needle := strings.ToUpper(strings.TrimSpace(subject))
	if needle == "" {
		return nil
	}
	var cols []string
	for _, h := range t.Columns() {
		if IsMetadataColumn(h) {
			continue
		}
		upper := strings.ToUpper(strings.ReplaceAll(h, "_", " "))
		if !strings.Contains(upper, needle) {
			continue
		}
		if strings.Contains(upper, "MSE") || strings.Contains(upper, "ESE") {
			cols = append(cols, h)
		}
	}
	return cols
}

// SubjectMarks returns each student's MSE+ESE total for subject in table
// row order. Missing or non-numeric cells count as zero. The bool is false
// when the table has no MSE or ESE column for the subject.
func SubjectMarks(t *Table, subject string) ([]float64, bool) {
	cols := SubjectExamColumns(t, subject)
	if len(cols) == 0 {
		return nil, false
	}
	totals := make([]float64, t.Len())
	for i := range totals {
		for _, c := range cols {
			if v, ok := t.Number(i, c); ok {
				totals[i] += v
			}
		}
	}
	return totals, true
}

// SubjectMarksSummary summarizes SubjectMarks for subject. The standard
// deviation is the population form. The bool is false when SubjectMarks has
// no data or the table has no rows.
func SubjectMarksSummary(t *Table, subject string) (MarksSummary, bool) {
	totals, ok := SubjectMarks(t, subject)
	if !ok || len(totals) == 0 {
		return MarksSummary{}, false
	}
	return MarksSummary{
		Subject: subject,
		Totals:  totals,
		Average: Mean(totals),
		Max:     Max(totals),
		Min:     Min(totals),
		StdDev:  PopulationStdDev(totals),
	}, true
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Max returns the largest value, or 0 for an empty slice.
func Max(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

// Min returns the smallest value, or 0 for an empty slice.
func Min(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// PopulationStdDev divides by n.
func PopulationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// SampleStdDev divides by n-1 and returns 0 for fewer than two values.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// Median returns the middle value of xs without modifying it.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
