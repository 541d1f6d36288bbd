// Package exporter renders analyzed uploads as downloadable files.
//
// CSVWriter writes tables with a UTF-8 BOM so Excel opens them with the
// right encoding. WriteWorkbook produces an .xlsx file with one sheet per
// table, and WriteReport encodes the comprehensive report as JSON. Exporter
// ties these to export kinds:
//
//	ex := exporter.NewExporter(paths, logger)
//	err := ex.Write(w, exporter.KindSummary, exporter.Content{Summary: result.Summary})
//
//	files, err := ex.Save(uploadID, content, time.Now(), exporter.KindFull, exporter.KindReport)
package exporter
