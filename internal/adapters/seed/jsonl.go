// Package seed reads corpus records from JSON-lines files, one record per
// line, for loading into the embedded store with 'percept import'.
//
//	{"word": "fire", "percepts": ["heat", "light"]}
//	{"percept": "heat", "data": ["fire", "flame", "ember"]}
package seed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/corey/percept/internal/ports"
)

// maxLine bounds a single record line. Membership records for large percepts
// can run to several hundred kilobytes.
const maxLine = 8 << 20

// ReadFrequencyJSONL decodes frequency records from r.
func ReadFrequencyJSONL(r io.Reader) ([]ports.FrequencyRecord, error) {
	var recs []ports.FrequencyRecord
	err := eachLine(r, func(line int, b []byte) error {
		var rec ports.FrequencyRecord
		if err := decodeStrict(b, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

// ReadMembershipJSONL decodes membership records from r.
func ReadMembershipJSONL(r io.Reader) ([]ports.MembershipRecord, error) {
	var recs []ports.MembershipRecord
	err := eachLine(r, func(line int, b []byte) error {
		var rec ports.MembershipRecord
		if err := decodeStrict(b, &rec); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
		return nil
	})
	return recs, err
}

// ReadFrequencyFile opens path and reads frequency records from it.
func ReadFrequencyFile(path string) ([]ports.FrequencyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadFrequencyJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// ReadMembershipFile opens path and reads membership records from it.
func ReadMembershipFile(path string) ([]ports.MembershipRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadMembershipJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// eachLine calls fn for every non-blank line. Line numbers start at 1.
func eachLine(r io.Reader, fn func(line int, b []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		if err := fn(line, b); err != nil {
			return err
		}
	}
	return sc.Err()
}

func decodeStrict(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
