// Package csvparse turns an uploaded CSV byte stream into an ordered
// sequence of column-name -> raw-string rows. It performs no type coercion;
// downstream components interpret the values.
package csvparse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// Expected column names in the header row. Every column except reg_no may be
// absent; absent columns read as "" on every row.
const (
	ColRegNo      = "reg_no"
	ColFirstName  = "first_name"
	ColLastName   = "last_name"
	ColEmail      = "email"
	ColDepartment = "department"
	ColLevel      = "level"
)

var (
	// ErrDecode indicates the file is not valid UTF-8. Fatal for the whole batch.
	ErrDecode = errors.New("file is not valid UTF-8 encoded text")
	// ErrSchema indicates the header row is missing or unusable. Fatal for the whole batch.
	ErrSchema = errors.New("missing or invalid CSV header row")
)

// Row maps a header column name to the raw string value of one record.
type Row map[string]string

// Rows is a lazy, non-restartable iterator over the parsed records.
// Usage mirrors sql.Rows: for rows.Next() { r := rows.Row() }; rows.Err().
type Rows struct {
	reader *csv.Reader
	header []string
	cur    Row
	err    error
}

// Parse validates the whole byte stream up front (encoding, then header) and
// returns a row iterator. Encoding problems fail with ErrDecode and a
// missing/unusable header fails with ErrSchema, in both cases before any row
// is produced.
func Parse(data []byte) (*Rows, error) {
	if !utf8.Valid(data) {
		return nil, ErrDecode
	}

	reader := csv.NewReader(bytes.NewReader(data))
	// Short rows are padded to the header later instead of being rejected.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	hasRegNo := false
	for i, name := range header {
		header[i] = trimBOM(name)
		if header[i] == ColRegNo {
			hasRegNo = true
		}
	}
	if !hasRegNo {
		return nil, fmt.Errorf("%w: header must contain a %q column", ErrSchema, ColRegNo)
	}

	return &Rows{reader: reader, header: header}, nil
}

// Next advances to the next record. It returns false at end of input or on a
// malformed record; Err distinguishes the two.
func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}

	record, err := r.reader.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		r.err = fmt.Errorf("%w: %v", ErrDecode, err)
		return false
	}

	row := make(Row, len(r.header))
	for i, name := range r.header {
		if i < len(record) {
			row[name] = record[i]
		} else {
			row[name] = ""
		}
	}
	r.cur = row
	return true
}

// Row returns the record produced by the last successful Next call.
func (r *Rows) Row() Row {
	return r.cur
}

// Err returns the error that terminated iteration, if any.
func (r *Rows) Err() error {
	return r.err
}

// trimBOM strips a UTF-8 byte order mark from the first header cell, which
// spreadsheet exports commonly prepend.
func trimBOM(s string) string {
	return string(bytes.TrimPrefix([]byte(s), []byte("\xef\xbb\xbf")))
}
