// Package dataprocessing turns uploaded student workbooks into analyzed
// results. It sits between the transport layers and the pure assessment
// engine.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Parser: reads an .xlsx workbook with excelize, locates the header row
// and produces an immutable assessment.Table
// 2. Processor: appends Academic_Performance_%, Practical_% and Category and
// builds the learner summary table
// 3. Analytics: subject difficulty, recommendations, rankings and student
// lookup over a processed Result
//
// # Usage
//
//	sheet, err := dataprocessing.ParseFile("class.xlsx", dataprocessing.ParseOptions{})
//	if err != nil {
//	    return err
//	}
//	result, err := dataprocessing.NewProcessor(policy, logger).Process(ctx, sheet.Table)
//
// # Data Flow
//
//	Workbook → Parser → Table → Processor → Result → Analytics → Reports
//
// # Error Handling
//
// Unreadable workbooks yield a PARSING *errors.AppError. A sheet without the
// SR.No and Name identity columns yields a VALIDATION *errors.AppError that
// wraps ErrMissingIdentityColumns and lists the missing names under the
// "missing" context key. Bad cells never fail a parse; they are read as
// absent marks.
package dataprocessing
