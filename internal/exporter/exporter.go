package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gradegraph/internal/assessment"
	"gradegraph/internal/config"
	"gradegraph/pkg/contracts/domain"
)

// ErrUnsupportedKind is returned for an export kind nobody can produce.
var ErrUnsupportedKind = errors.New("unsupported export kind")

// Kind names a downloadable artifact of an upload.
type Kind string

const (
	KindFull     Kind = "full"
	KindSummary  Kind = "summary"
	KindBright   Kind = "bright"
	KindReport   Kind = "report"
	KindWorkbook Kind = "workbook"
)

// Kinds lists every export kind.
var Kinds = []Kind{KindFull, KindSummary, KindBright, KindReport, KindWorkbook}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
}

// Extension is the file extension of the kind.
func (k Kind) Extension() string {
	switch k {
	case KindReport:
		return "json"
	case KindWorkbook:
		return "xlsx"
	default:
		return "csv"
	}
}

// ContentType is the MIME type served for the kind.
func (k Kind) ContentType() string {
	switch k {
	case KindReport:
		return "application/json"
	case KindWorkbook:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Content is everything an export may draw from.
type Content struct {
	Full    *assessment.Table
	Summary *assessment.Table
	Bright  []domain.RankedStudent
	Report  domain.Report
}

// Exporter renders upload artifacts to writers or to the exports directory.
type Exporter struct {
	csv    *CSVWriter
	paths  *config.Paths
	logger *slog.Logger
}

// NewExporter creates an exporter saving under paths.ExportsDir. paths may
// be nil when only Write is used.
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    NewCSVWriter(logger),
		paths:  paths,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// Write renders one kind of content to w.
func (e *Exporter) Write(w io.Writer, kind Kind, c Content) error {
	switch kind {
	case KindFull:
		return e.writeTable(w, c.Full, kind)
	case KindSummary:
		return e.writeTable(w, c.Summary, kind)
	case KindBright:
		return e.csv.Write(w, WriteOptions{Headers: RankedHeaders, Records: RankedRecords(c.Bright), BOMPrefix: true})
	case KindReport:
		return WriteReport(w, c.Report)
	case KindWorkbook:
		if c.Full == nil || c.Summary == nil {
			return fmt.Errorf("%w: workbook needs full and summary tables", ErrUnsupportedKind)
		}
		return WriteWorkbook(w, Sheet{Name: "Summary", Table: c.Summary}, Sheet{Name: "Full Data", Table: c.Full})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}

func (e *Exporter) writeTable(w io.Writer, t *assessment.Table, kind Kind) error {
	if t == nil {
		return fmt.Errorf("%w: no %s table", ErrUnsupportedKind, kind)
	}
	return e.csv.WriteTable(w, t, true)
}

// FileName is the download name of an export.
func (e *Exporter) FileName(kind Kind, uploadID string, at time.Time) string {
	if e.paths == nil {
		return filepath.Base((&config.Paths{}).GetExportPath(uploadID, string(kind), kind.Extension(), at))
	}
	return filepath.Base(e.paths.GetExportPath(uploadID, string(kind), kind.Extension(), at))
}

// Save renders each kind into the exports directory and returns the written
// paths in order. Content is rendered in memory first so a failed export
// leaves no partial file.
func (e *Exporter) Save(uploadID string, c Content, at time.Time, kinds ...Kind) ([]string, error) {
	if e.paths == nil {
		return nil, errors.New("exporter has no exports directory")
	}
	if err := os.MkdirAll(e.paths.ExportsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}

	written := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		var buf bytes.Buffer
		if err := e.Write(&buf, kind, c); err != nil {
			return written, fmt.Errorf("export %s: %w", kind, err)
		}

		path := e.paths.GetExportPath(uploadID, string(kind), kind.Extension(), at)
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		e.logger.Info("export saved",
			slog.String("kind", string(kind)),
			slog.String("path", path),
			slog.Int("bytes", buf.Len()))
		written = append(written, path)
	}
	return written, nil
}
