// Package api contains the request contracts of the GradeGraph HTTP API.
// Version v1 represents the current stable API version.
package api

// UploadPathRequest addresses one analyzed upload. "latest" selects the
// most recent upload.
type UploadPathRequest struct {
	UploadID string `json:"upload_id" validate:"required,upload_id"`
}

// SubjectQuery selects a subject of an upload.
type SubjectQuery struct {
	UploadID string `json:"upload_id" validate:"required,upload_id"`
	Subject  string `json:"subject" validate:"required,subject,max=100"`
}

// PerformersQuery asks for the top and bottom scorers of a subject.
type PerformersQuery struct {
	SubjectQuery
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// StudentSearchRequest looks a learner up by serial number, roll number or
// name.
type StudentSearchRequest struct {
	UploadID string `json:"upload_id" validate:"required,upload_id"`
	Query    string `json:"query" validate:"required,max=200"`
}

// LeaderboardRequest lists the best or worst students of a category.
type LeaderboardRequest struct {
	UploadID string `json:"upload_id" validate:"required,upload_id"`
	Category string `json:"category" validate:"omitempty,oneof=Bright Average Weak Unknown"`
	Order    string `json:"order" validate:"omitempty,oneof=best worst"`
	Limit    int    `json:"limit" validate:"min=1,max=500"`
}

// ExportRequest selects which table of an upload to download.
type ExportRequest struct {
	UploadID string `json:"upload_id" validate:"required,upload_id"`
	Kind     string `json:"kind" validate:"required,oneof=full summary bright report workbook"`
}

// HistoryRequest pages through persisted uploads.
type HistoryRequest struct {
	Limit int `json:"limit" validate:"min=1,max=200"`
}
