package domain

import (
	"time"
)

// Difficulty labels a subject by its average MSE+ESE total.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "Easy"
	DifficultyModerate  Difficulty = "Moderate"
	DifficultyDifficult Difficulty = "Difficult"
)

// Priority of a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// SubjectDifficulty describes how hard a subject was for the class.
type SubjectDifficulty struct {
	Subject       string     `json:"subject"`
	AverageMarks  float64    `json:"average_marks"`
	MaxAttainable float64    `json:"max_attainable"`
	FailRate      float64    `json:"fail_rate"`
	Difficulty    Difficulty `json:"difficulty"`
}

// Recommendation is an actionable finding derived from the class results.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Area     string   `json:"area"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

// SubjectSummary is the distribution of MSE+ESE totals of one subject.
type SubjectSummary struct {
	Subject   string    `json:"subject"`
	ExamTypes []string  `json:"exam_types"`
	Totals    []float64 `json:"total_marks"`
	Average   float64   `json:"average_marks"`
	Max       float64   `json:"max_marks"`
	Min       float64   `json:"min_marks"`
	StdDev    float64   `json:"std_marks"`
}

// SubjectPerformers lists the best and worst students of a subject.
type SubjectPerformers struct {
	Subject string        `json:"subject"`
	Top     []StudentMark `json:"top"`
	Bottom  []StudentMark `json:"bottom"`
}

// Dashboard is the overview of one upload.
type Dashboard struct {
	UploadID             string          `json:"upload_id"`
	FileName             string          `json:"file_name"`
	TotalStudents        int             `json:"total_students"`
	TotalSubjects        int             `json:"total_subjects"`
	AveragePerformance   *float64        `json:"average_performance"`
	CategoryDistribution map[string]int  `json:"category_distribution"`
	BrightLearners       []RankedStudent `json:"bright_learners"`
	WeakLearners         []RankedStudent `json:"weak_learners"`
}

// Insights bundles difficulty analysis and recommendations.
type Insights struct {
	Difficulty      []SubjectDifficulty `json:"subject_difficulty"`
	Recommendations []Recommendation    `json:"recommendations"`
}

// ReportStatistics are class-wide figures over Academic_Performance_%.
type ReportStatistics struct {
	StudentsWithMarks int     `json:"students_with_marks"`
	Average           float64 `json:"average"`
	Median            float64 `json:"median"`
	StdDev            float64 `json:"std_dev"`
	Max               float64 `json:"max"`
	Min               float64 `json:"min"`
	PassRate          float64 `json:"pass_rate"`
	NeedsSupport      int     `json:"needs_support"`
}

// ReportMetadata identifies the source of a report.
type ReportMetadata struct {
	UploadID      string    `json:"upload_id"`
	FileName      string    `json:"file_name"`
	GeneratedAt   time.Time `json:"generated_at"`
	TotalStudents int       `json:"total_students"`
	TotalSubjects int       `json:"total_subjects"`
	Subjects      []string  `json:"subjects"`
}

// Report is the comprehensive analysis document of one upload.
type Report struct {
	Metadata             ReportMetadata      `json:"metadata"`
	Statistics           ReportStatistics    `json:"summary_statistics"`
	CategoryDistribution map[string]int      `json:"category_distribution"`
	Subjects             []SubjectSummary    `json:"subject_analysis"`
	Difficulty           []SubjectDifficulty `json:"subject_difficulty"`
	Recommendations      []Recommendation    `json:"recommendations"`
}

// UploadSummary is returned after a sheet has been analyzed, and is the
// unit kept in upload history.
type UploadSummary struct {
	ID                   string         `json:"id" validate:"required,uuid"`
	FileName             string         `json:"file_name" validate:"required"`
	Sheet                string         `json:"sheet,omitempty"`
	UploadedAt           time.Time      `json:"uploaded_at"`
	TotalStudents        int            `json:"total_students"`
	Subjects             []string       `json:"subjects"`
	CategoryDistribution map[string]int `json:"category_distribution"`
}
