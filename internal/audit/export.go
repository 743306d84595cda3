package audit

import (
	"bytes"
	"encoding/csv"
	"time"
)

// Exporter menulis baris audit timeline sebagai CSV.
type Exporter struct{}

// NewExporter membuat exporter CSV baru.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV menghasilkan payload CSV dengan header tetap.
func (e *Exporter) WriteCSV(rows []TimelineRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"at", "actor", "action", "entity", "entity_id", "meta"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.At.UTC().Format(time.RFC3339),
			row.Actor,
			row.Action,
			row.Entity,
			row.EntityID,
			row.Meta,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
