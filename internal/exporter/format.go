package exporter

import (
	"strconv"

	"gradegraph/internal/assessment"
	"gradegraph/pkg/contracts/domain"
)

// RankedHeaders are the columns of a leaderboard export.
var RankedHeaders = []string{"Rank", assessment.ColSRNo, assessment.ColName, assessment.ColAcademicPct, assessment.ColCategory}

// RankedRecords flattens a leaderboard into CSV records.
func RankedRecords(students []domain.RankedStudent) [][]string {
	out := make([][]string, len(students))
	for i, s := range students {
		out[i] = []string{
			strconv.Itoa(s.Rank),
			s.SRNo,
			s.Name,
			assessment.FormatNumber(s.AcademicPercent),
			s.Category,
		}
	}
	return out
}
