package exporter

import (
	"encoding/json"
	"fmt"
	"io"

	"gradegraph/pkg/contracts/domain"
)

// WriteReport encodes the report as indented JSON.
func WriteReport(w io.Writer, report domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
