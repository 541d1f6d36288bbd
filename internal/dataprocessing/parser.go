package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"gradegraph/internal/assessment"
	apperrors "gradegraph/internal/errors"
)

// ErrMissingIdentityColumns is wrapped by the validation error returned when
// a sheet lacks SR.No or Name.
var ErrMissingIdentityColumns = errors.New("missing required identity columns")

// ErrEmptyWorkbook is wrapped when no sheet holds any rows.
var ErrEmptyWorkbook = errors.New("workbook contains no data")

// RequiredColumns must be present in every analyzed sheet.
var RequiredColumns = []string{assessment.ColSRNo, assessment.ColName}

// headerAliases maps folded header spellings to their canonical names.
var headerAliases = map[string]string{
	"SRNO":            assessment.ColSRNo,
	"SNO":             assessment.ColSRNo,
	"SERIALNO":        assessment.ColSRNo,
	"SRNUMBER":        assessment.ColSRNo,
	"ROLLNO":          assessment.ColRollNo,
	"ROLLNUMBER":      assessment.ColRollNo,
	"NAME":            assessment.ColName,
	"STUDENTNAME":     assessment.ColName,
	"NAMEOFSTUDENT":   assessment.ColName,
	"CODINGEXPERTISE": assessment.ColCodingExpertise,
	"CODINGLEVEL":     assessment.ColCodingExpertise,
}

// ParseOptions controls workbook ingestion.
type ParseOptions struct {
	// Sheet forces a sheet name. When empty the first sheet with a
	// recognizable header row is used.
	Sheet string
	// HeaderScanRows bounds how many leading rows are searched for the
	// header. Zero means 20.
	HeaderScanRows int
	Logger         *slog.Logger
}

func (o ParseOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o ParseOptions) scanRows() int {
	if o.HeaderScanRows <= 0 {
		return 20
	}
	return o.HeaderScanRows
}

// ParsedSheet is a table together with where it was read from.
type ParsedSheet struct {
	Sheet     string
	HeaderRow int
	Table     *assessment.Table
}

// ParseFile reads a student workbook from disk.
func ParseFile(path string, opts ParseOptions) (*ParsedSheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	return parseWorkbook(f, opts)
}

// ParseReader reads a student workbook from a stream such as an upload.
func ParseReader(r io.Reader, opts ParseOptions) (*ParsedSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	return parseWorkbook(f, opts)
}

func parseWorkbook(f *excelize.File, opts ParseOptions) (*ParsedSheet, error) {
	logger := opts.logger()

	sheet, rows, headerIdx, err := selectSheet(f, opts)
	if err != nil {
		return nil, err
	}

	logger.Info("found student sheet",
		slog.String("sheet_name", sheet),
		slog.Int("total_rows", len(rows)),
		slog.Int("header_row", headerIdx+1))

	header := canonicalHeader(rows[headerIdx])
	if missing := missingColumns(header); len(missing) > 0 {
		logger.Warn("sheet is missing identity columns",
			slog.String("sheet_name", sheet),
			slog.Any("missing", missing),
			slog.Any("header", header))
		return nil, apperrors.NewAppValidationError("sheet is missing required identity columns", ErrMissingIdentityColumns).
			WithContext("missing", missing).
			WithContext("sheet", sheet)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}

	data := make([][]string, 0, len(rows)-headerIdx-1)
	skipped := 0
	for _, raw := range rows[headerIdx+1:] {
		row := make([]string, len(header))
		for i := range header {
			if i < len(raw) {
				row[i] = strings.TrimSpace(raw[i])
			}
		}
		if row[idx[assessment.ColSRNo]] == "" && row[idx[assessment.ColName]] == "" {
			skipped++
			continue
		}
		data = append(data, row)
	}

	logger.Debug("parsed student rows",
		slog.Int("students", len(data)),
		slog.Int("skipped_rows", skipped),
		slog.Int("columns", len(header)))

	return &ParsedSheet{
		Sheet:     sheet,
		HeaderRow: headerIdx + 1,
		Table:     assessment.NewTable(header, data),
	}, nil
}

// selectSheet returns the sheet to analyze, its rows and the index of the
// header row within them.
func selectSheet(f *excelize.File, opts ParseOptions) (string, [][]string, int, error) {
	if opts.Sheet != "" {
		rows, err := f.GetRows(opts.Sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return "", nil, 0, apperrors.NewParsingError(fmt.Sprintf("sheet %q not readable", opts.Sheet), err).
				WithContext("sheet", opts.Sheet)
		}
		idx := findHeaderRow(rows, opts.scanRows())
		if idx < 0 {
			idx = firstNonEmptyRow(rows)
		}
		if idx < 0 {
			return "", nil, 0, apperrors.NewAppValidationError(fmt.Sprintf("sheet %q is empty", opts.Sheet), ErrEmptyWorkbook)
		}
		return opts.Sheet, rows, idx, nil
	}

	var (
		fallbackSheet string
		fallbackRows  [][]string
		fallbackIdx   = -1
	)
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			continue
		}
		if idx := findHeaderRow(rows, opts.scanRows()); idx >= 0 {
			return name, rows, idx, nil
		}
		if fallbackIdx < 0 {
			if idx := firstNonEmptyRow(rows); idx >= 0 {
				fallbackSheet, fallbackRows, fallbackIdx = name, rows, idx
			}
		}
	}

	if fallbackIdx < 0 {
		return "", nil, 0, apperrors.NewAppValidationError("workbook contains no data", ErrEmptyWorkbook)
	}
	return fallbackSheet, fallbackRows, fallbackIdx, nil
}

// findHeaderRow returns the first row within limit holding an SR.No or Name
// header cell, or -1.
func findHeaderRow(rows [][]string, limit int) int {
	for i, row := range rows {
		if i >= limit {
			break
		}
		for _, cell := range row {
			switch headerAliases[headerKey(cell)] {
			case assessment.ColSRNo, assessment.ColName:
				return i
			}
		}
	}
	return -1
}

func firstNonEmptyRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}
	return -1
}

// canonicalHeader trims header cells, maps identity aliases such as "SR.No."
// or "Student Name" to their canonical names, names blank cells and makes
// repeated names unique with a ".N" suffix.
func canonicalHeader(row []string) []string {
	last := len(row)
	for last > 0 && strings.TrimSpace(row[last-1]) == "" {
		last--
	}

	header := make([]string, last)
	seen := make(map[string]int, last)
	for i := 0; i < last; i++ {
		h := strings.TrimSpace(row[i])
		if canon, ok := headerAliases[headerKey(h)]; ok {
			h = canon
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			seen[h] = 1
		}
		header[i] = h
	}
	return header
}

func missingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := present[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
