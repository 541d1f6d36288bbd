package assessment

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is the assessment component a subject column belongs to.
type Type string

const (
	ISE       Type = "ISE"
	MSE       Type = "MSE"
	ESE       Type = "ESE"
	Practical Type = "PRACTICAL"
	TermWork  Type = "TW"
)

// Column is a classified subject column.
type Column struct {
	Header  string
	Subject string
	Type    Type
}

type markerRule struct {
	marker string
	kind   Type
	max    int
}

// markerRules is the single source of marker precedence. Longer and more
// specific markers come first so that "PR" never shadows "PRACTICAL".
var markerRules = []markerRule{
	{marker: "ESE", kind: ESE, max: 60},
	{marker: "ISE", kind: ISE, max: 25},
	{marker: "MSE", kind: MSE, max: 25},
	{marker: "PRACTICAL", kind: Practical, max: 25},
	{marker: "TW", kind: TermWork, max: 50},
	{marker: "PR", kind: Practical, max: 25},
}

// DefaultMaxMarks applies to columns with no recognizable assessment type.
const DefaultMaxMarks = 100

// Identity and derived column names.
const (
	ColSRNo             = "SR.No"
	ColRollNo           = "Roll No"
	ColName             = "Name"
	ColAcademicPct      = "Academic_Performance_%"
	ColPracticalPct     = "Practical_%"
	ColCodingExpertise  = "Coding_Expertise"
	ColCategory         = "Category"
	ColPerformance      = "Performance_Analysis"
	ColPreviousAnalysis = "Previous_Performance_Analysis"
	ColSuggestion       = "Suggestion"
)

var metadataColumns = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, c := range []string{
		ColSRNo, ColRollNo, ColName, ColAcademicPct, ColPracticalPct,
		ColCodingExpertise, ColCategory, ColPerformance, ColPreviousAnalysis,
		ColSuggestion, "Rank",
	} {
		m[metadataKey(c)] = struct{}{}
	}
	return m
}()

// metadataKey folds case and drops punctuation so "SR.No", "Sr No" and
// "SR_NO" compare equal.
func metadataKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if isAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsMetadataColumn reports whether header names an identity or derived
// column rather than an assessment.
func IsMetadataColumn(header string) bool {
	_, ok := metadataColumns[metadataKey(header)]
	return ok
}

var titleCaser = cases.Title(language.Und)

// NormalizeSubject converts a raw subject fragment into its display form:
// underscores become spaces, surrounding whitespace is dropped and the
// result is title-cased.
func NormalizeSubject(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "_", " "))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return titleCaser.String(s)
}

// Classify splits a header into subject and assessment type. The second
// return value is false for metadata columns, headers without a marker and
// headers whose marker leaves no subject text in front of it.
//
// Markers are searched as plain substrings in precedence order and the first
// one present splits the header, even when it sits inside a word:
// "CHINESE ESE" yields "Chin" and "PRESENTATION TW" yields "Pr" as ESE.
func Classify(header string) (Column, bool) {
	if IsMetadataColumn(header) {
		return Column{}, false
	}
	upper := strings.ToUpper(header)

	rule, pos, found := findMarker(upper, false)
	if !found {
		return Column{}, false
	}

	subject := NormalizeSubject(strings.Trim(upper[:pos], " _-.:/"))
	if subject == "" {
		return Column{}, false
	}
	return Column{Header: header, Subject: subject, Type: rule.kind}, true
}

func findMarker(upper string, tokenOnly bool) (markerRule, int, bool) {
	for _, r := range markerRules {
		var pos int
		if tokenOnly {
			pos = tokenIndex(upper, r.marker)
		} else {
			pos = strings.Index(upper, r.marker)
		}
		if pos >= 0 {
			return r, pos, true
		}
	}
	return markerRule{}, -1, false
}

// tokenIndex returns the first position of token in s where it is bounded on
// both sides by a non-alphanumeric character or the string edge.
func tokenIndex(s, token string) int {
	from := 0
	for from <= len(s)-len(token) {
		i := strings.Index(s[from:], token)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(token)
		before := i == 0 || !isAlnum(rune(s[i-1]))
		after := end == len(s) || !isAlnum(rune(s[end]))
		if before && after {
			return i
		}
		from = i + 1
	}
	return -1
}

func isAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// IsPracticalColumn reports whether header holds practical marks. A header
// mentioning TW without any PR is term work and never practical.
func IsPracticalColumn(header string) bool {
	if header == "" {
		return false
	}
	upper := strings.ToUpper(header)
	if strings.Contains(upper, "TW") && !strings.Contains(upper, "PR") {
		return false
	}
	return strings.Contains(upper, "PRACTICAL") || tokenIndex(upper, "PR") >= 0
}

// MaxMarksFor returns the maximum obtainable marks for an assessment type.
// The lookup ignores case and surrounding space and accepts marker spellings
// such as "PR". Unknown and empty types use DefaultMaxMarks.
func MaxMarksFor(t Type) int {
	key := Type(strings.ToUpper(strings.TrimSpace(string(t))))
	for _, r := range markerRules {
		if r.kind == key || Type(r.marker) == key {
			return r.max
		}
	}
	return DefaultMaxMarks
}

var trailingMaxPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[\)\]]?\s*$`)

// MaxMarksForHeader returns the maximum marks implied by a header. The
// classified assessment type decides when there is one, then a standalone
// marker, then a trailing number such as "PROJECT (40)". DefaultMaxMarks
// applies otherwise.
func MaxMarksForHeader(header string) float64 {
	if c, ok := Classify(header); ok {
		return float64(MaxMarksFor(c.Type))
	}
	upper := strings.ToUpper(header)
	if r, _, ok := findMarker(upper, true); ok {
		return float64(r.max)
	}
	if m := trailingMaxPattern.FindStringSubmatch(upper); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v
		}
	}
	return DefaultMaxMarks
}

// SubjectColumns classifies every header of the table and returns the
// subject columns in table order.
func SubjectColumns(t *Table) []Column {
	var out []Column
	for _, h := range t.Columns() {
		if c, ok := Classify(h); ok {
			out = append(out, c)
		}
	}
	return out
}

// SubjectList returns the distinct subjects present in the table, sorted.
func SubjectList(t *Table) []string {
	seen := make(map[string]struct{})
	for _, c := range SubjectColumns(t) {
		seen[c.Subject] = struct{}{}
	}
	subjects := make([]string, 0, len(seen))
	for s := range seen {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)
	return subjects
}

// ExamTypes returns the assessment types recorded for subject, sorted.
func ExamTypes(t *Table, subject string) []Type {
	seen := make(map[Type]struct{})
	for _, c := range SubjectColumns(t) {
		if strings.EqualFold(c.Subject, subject) {
			seen[c.Type] = struct{}{}
		}
	}
	types := make([]Type, 0, len(seen))
	for k := range seen {
		types = append(types, k)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// AcademicColumns returns every subject column header in table order.
// Practical columns count towards academic performance too.
func AcademicColumns(t *Table) []string {
	cols := SubjectColumns(t)
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Header)
	}
	return out
}

// PracticalColumns returns the subject columns holding practical marks.
func PracticalColumns(t *Table) []string {
	var out []string
	for _, c := range SubjectColumns(t) {
		if IsPracticalColumn(c.Header) {
			out = append(out, c.Header)
		}
	}
	return out
}
