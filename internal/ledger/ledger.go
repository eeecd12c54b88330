// Package ledger persists which source records have already been
// transformed, so repeated runs never regenerate the same content.
//
// The ledger is an append-only CSV file with the header
// "record_id,content_fingerprint". A record counts as processed when
// either its identifier or its fingerprint has been committed before.
package ledger

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/vignette/internal/fingerprint"
	"github.com/ppiankov/vignette/internal/model"
	"go.uber.org/zap"
)

// Header is the column layout of the ledger file
var Header = []string{"record_id", "content_fingerprint"}

// Ledger is the in-memory view of the ledger file plus its append handle path
type Ledger struct {
	path    string
	ids     map[string]struct{}
	prints  map[string]struct{}
	entries int
	skipped int
	logger  *zap.Logger
}

// Open loads the ledger at path. A missing or unreadable file yields an
// empty ledger; corrupt rows are skipped.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if path == "" {
		return nil, errors.New("ledger path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		path:   path,
		ids:    make(map[string]struct{}),
		prints: make(map[string]struct{}),
		logger: logger,
	}

	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("ledger unreadable, treating as empty", zap.String("path", path), zap.Error(err))
		}
		return l, nil
	}
	defer func() { _ = f.Close() }()

	l.load(f)

	if l.skipped > 0 {
		logger.Warn("skipped corrupt ledger rows", zap.String("path", path), zap.Int("skipped", l.skipped))
	}
	logger.Debug("ledger loaded", zap.String("path", path), zap.Int("entries", l.entries))

	return l, nil
}

// maxLineBytes bounds one ledger line; entries are an id plus a 64-char digest
const maxLineBytes = 1 << 20

// load parses line by line so a malformed line, such as an unbalanced
// quote, is skipped on its own instead of swallowing the lines after it
func (l *Ledger) load(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := parseLine(line)
		if err != nil {
			l.skipped++
			first = false
			continue
		}

		if first {
			first = false
			if len(row) == 2 && row[0] == Header[0] && row[1] == Header[1] {
				continue
			}
		}

		if len(row) != 2 || row[0] == "" || !fingerprint.Valid(row[1]) {
			l.skipped++
			continue
		}
		l.add(row[0], row[1])
	}

	if err := scanner.Err(); err != nil {
		l.logger.Warn("ledger read aborted", zap.String("path", l.path), zap.Error(err))
	}
}

// parseLine decodes exactly one CSV record from a single line
func parseLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1

	row, err := reader.Read()
	if err != nil {
		return nil, err
	}
	if _, err := reader.Read(); err != io.EOF {
		return nil, errors.New("ledger line holds more than one record")
	}
	return row, nil
}

func (l *Ledger) add(id, print string) {
	l.ids[id] = struct{}{}
	l.prints[print] = struct{}{}
	l.entries++
}

// IsProcessed reports whether the identifier OR the fingerprint has been committed
func (l *Ledger) IsProcessed(id, print string) bool {
	if _, ok := l.ids[id]; ok {
		return true
	}
	_, ok := l.prints[print]
	return ok
}

// Commit appends an entry and syncs it to disk before returning
func (l *Ledger) Commit(entry model.LedgerEntry) (err error) {
	if entry.RecordID == "" {
		return errors.New("ledger entry has empty record_id")
	}
	if !fingerprint.Valid(entry.Fingerprint) {
		return fmt.Errorf("ledger entry %s has invalid fingerprint", entry.RecordID)
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := w.Write([]string{entry.RecordID, entry.Fingerprint}); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}

	l.add(entry.RecordID, entry.Fingerprint)
	return nil
}

// Len returns the number of entries loaded or committed
func (l *Ledger) Len() int {
	return l.entries
}

// Skipped returns the number of corrupt rows ignored at load
func (l *Ledger) Skipped() int {
	return l.skipped
}

// Path returns the ledger file path
func (l *Ledger) Path() string {
	return l.path
}
