package domain

// Student is one learner row after classification. Percentages are nil when
// the sheet holds no usable marks for them.
type Student struct {
	SRNo             string   `json:"sr_no" validate:"required"`
	RollNo           string   `json:"roll_no,omitempty"`
	Name             string   `json:"name" validate:"required"`
	AcademicPercent  *float64 `json:"academic_performance_pct"`
	PracticalPercent *float64 `json:"practical_pct"`
	CodingExpertise  string   `json:"coding_expertise,omitempty"`
	Category         string   `json:"category"`
	Suggestion       string   `json:"suggestion,omitempty"`
}

// SubjectScore is one assessment column of a student, labelled with the
// title-cased column header.
type SubjectScore struct {
	Subject string  `json:"subject"`
	Marks   float64 `json:"marks"`
}

// StudentProfile is the search result for a single student.
type StudentProfile struct {
	Student       Student        `json:"student"`
	SubjectScores []SubjectScore `json:"subject_scores"`
}

// StudentMark pairs a student with one subject total.
type StudentMark struct {
	SRNo     string  `json:"sr_no"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	Marks    float64 `json:"marks"`
}

// RankedStudent is a row of a leaderboard.
type RankedStudent struct {
	Rank            int     `json:"rank"`
	SRNo            string  `json:"sr_no"`
	Name            string  `json:"name"`
	AcademicPercent float64 `json:"academic_performance_pct"`
	Category        string  `json:"category"`
}
