package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/gocarina/gocsv"
	"github.com/ppiankov/vignette/internal/model"
)

// ErrMissingColumns is returned when the corpus lacks record_id or question
var ErrMissingColumns = errors.New("source corpus must have record_id and question columns")

var utf8BOM = []byte("\ufeff")

type sourceRow struct {
	RecordID string `csv:"record_id"`
	Question string `csv:"question"`
}

// LoadSource reads the corpus at path in file order. Extra columns are
// ignored; rows with an empty record_id or question are dropped.
func LoadSource(path string) ([]model.SourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("parse source header %s: %w", path, err)
	}
	if !slices.Contains(header, "record_id") || !slices.Contains(header, "question") {
		return nil, ErrMissingColumns
	}

	var rows []*sourceRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parse source %s: %w", path, err)
	}

	records := make([]model.SourceRecord, 0, len(rows))
	for _, r := range rows {
		if r.RecordID == "" || r.Question == "" {
			continue
		}
		records = append(records, model.SourceRecord{ID: r.RecordID, Text: r.Question})
	}
	return records, nil
}
