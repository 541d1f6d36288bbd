// Package assessment implements the column classifier and the aggregation
// engine for student assessment spreadsheets.
//
// # Column Classification
//
// A subject column carries a subject name fused with an assessment marker,
// for example "MATHS MSE", "DBMS_PRACTICAL" or "OS TW". Classify splits such
// a header into a normalized subject and an assessment type using a single
// ordered rule table. Metadata columns (SR.No, Name, derived percentages and
// so on) are never subject columns.
//
//	col, ok := assessment.Classify("DATA_STRUCTURES ESE")
//	// col.Subject == "Data Structures", col.Type == assessment.ESE
//
// # Aggregation
//
// The aggregation functions operate on an immutable *Table:
//
//	subjects := assessment.SubjectList(table)
//	marks, ok := assessment.SubjectMarks(table, "Maths")
//	summary, ok := assessment.SubjectMarksSummary(table, "Maths")
//	pct, ok := assessment.RowPercentage(table, 0, table.Columns())
//
// A false ok always means "no data", which callers must keep distinct from a
// zero result.
//
// # Categories
//
// StudentCategory maps a performance percentage and a coding level onto
// Bright, Average, Weak or Unknown using a caller supplied Policy.
//
// Everything in this package is a pure function of its inputs and is safe
// for concurrent use.
package assessment
