// Package store reads the source corpus and maintains the growing output
// collection of generated records.
package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/google/renameio/v2"
	"github.com/ppiankov/vignette/internal/model"
)

// ErrStoreColumns means an existing store file has a different column layout
var ErrStoreColumns = errors.New("store columns do not match the expected layout")

// Row is one line of the output store. Every column is kept as text so
// rows written by earlier runs are reproduced without reformatting.
type Row struct {
	RecordID      string `csv:"record_id"`
	Question      string `csv:"question"`
	Anchor        string `csv:"anchor"`
	ChoiceA       string `csv:"answerchoice_a"`
	ChoiceB       string `csv:"answerchoice_b"`
	ChoiceC       string `csv:"answerchoice_c"`
	ChoiceD       string `csv:"answerchoice_d"`
	ChoiceE       string `csv:"answerchoice_e"`
	CorrectAnswer string `csv:"correct_answer"`
	Explanation   string `csv:"answer_explanation"`
	Age           string `csv:"age"`
	Subject       string `csv:"subject"`
	Topic         string `csv:"topic"`
	Category      string `csv:"nbme_cat"`
	Type          string `csv:"type"`
}

// Columns is the store's column order
var Columns = []string{
	"record_id", "question", "anchor",
	"answerchoice_a", "answerchoice_b", "answerchoice_c", "answerchoice_d", "answerchoice_e",
	"correct_answer", "answer_explanation", "age", "subject", "topic", "nbme_cat", "type",
}

// RowFromRecord formats a generated record for the store
func RowFromRecord(r model.GeneratedRecord) *Row {
	return &Row{
		RecordID:      r.RecordID,
		Question:      r.Question,
		Anchor:        r.Anchor,
		ChoiceA:       r.Choices[0],
		ChoiceB:       r.Choices[1],
		ChoiceC:       r.Choices[2],
		ChoiceD:       r.Choices[3],
		ChoiceE:       r.Choices[4],
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Age:           strconv.FormatFloat(r.Age, 'f', -1, 64),
		Subject:       strconv.Itoa(r.SubjectCode),
		Topic:         r.Topic,
		Category:      strconv.Itoa(r.CategoryCode),
		Type:          strconv.Itoa(r.TypeCode),
	}
}

// RecordStore is the append-only output file
type RecordStore struct {
	path string
}

// NewRecordStore creates a store backed by path
func NewRecordStore(path string) *RecordStore {
	return &RecordStore{path: path}
}

// Path returns the store file path
func (s *RecordStore) Path() string {
	return s.path
}

// Load returns the rows currently persisted, or none if the file does not exist
func (s *RecordStore) Load() ([]*Row, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if err := checkHeader(data); err != nil {
		return nil, fmt.Errorf("store %s: %w", s.path, err)
	}

	var rows []*Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", s.path, err)
	}
	return rows, nil
}

// checkHeader refuses a store whose columns differ from Columns. A full
// rewrite through Row would otherwise drop unknown columns from old rows.
func checkHeader(data []byte) error {
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, Columns) {
		return fmt.Errorf("%w: got %v", ErrStoreColumns, header)
	}
	return nil
}

// Append adds records after the existing rows and rewrites the file in one
// rename, so readers see either the old or the new file. Appending nothing
// leaves the file untouched.
func (s *RecordStore) Append(records []model.GeneratedRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows, err := s.Load()
	if err != nil {
		return err
	}

	for _, r := range records {
		rows = append(rows, RowFromRecord(r))
	}

	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	if err := renameio.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
