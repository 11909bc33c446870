// Package altnames loads the alternate-name table that canonicalizes raw
// percept ids. The table is a comma-separated file with three columns:
// raw id, alternate display name (may be empty), include flag. Only rows whose
// flag is exactly "1" are loaded; an empty alternate name means the raw id is
// its own canonical name.
package altnames

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corey/percept/internal/ports"
)

// ErrMalformedRow is wrapped when a row has fewer than three columns or an
// empty raw id.
var ErrMalformedRow = errors.New("malformed alternate-name row")

// Table implements ports.AlternateNameTable over a CSV file.
type Table struct {
	path string
}

// New returns a table backed by the file at path. The file is read on each Load.
func New(path string) *Table {
	return &Table{path: path}
}

// Path returns the file the table reads.
func (t *Table) Path() string { return t.path }

// Load reads and parses the file.
func (t *Table) Load(ctx context.Context) (map[string]ports.NameEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open alternate names: %w", err)
	}
	defer f.Close()

	names, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.path, err)
	}
	return names, nil
}

// Parse reads alternate-name rows from r. Rows may carry extra trailing
// columns. A later row for the same raw id replaces an earlier one.
func Parse(r io.Reader) (map[string]ports.NameEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	names := make(map[string]ports.NameEntry)
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read alternate names: %w", err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("%w: line %d has %d columns", ErrMalformedRow, line, len(row))
		}
		if row[2] != "1" {
			continue
		}
		raw := strings.TrimPrefix(row[0], "\ufeff")
		if raw == "" {
			return nil, fmt.Errorf("%w: line %d has an empty raw id", ErrMalformedRow, line)
		}
		canonical := row[1]
		if canonical == "" {
			canonical = raw
		}
		names[raw] = ports.NameEntry{CanonicalID: canonical}
	}
	return names, nil
}
