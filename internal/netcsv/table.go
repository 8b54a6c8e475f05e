// Package netcsv persists networks as folders of CSV files: one file of
// metadata, one of snapshots, one per component class and one per time-series
// attribute. Every file other than network.csv and snapshots.csv is optional
// on read; missing columns take documented defaults.
package netcsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// table is one parsed CSV file: the header in file order, a column index and
// the raw record rows.
type table struct {
	file   string
	header []string
	cols   map[string]int
	rows   [][]string
}

// loadTable reads and parses a CSV file. The second return is false when the
// file does not exist, letting callers treat component files as optional.
func loadTable(dir, name string) (*table, bool, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, false, fmt.Errorf("%s: missing header row", name)
	}

	t := &table{file: name, header: records[0], cols: map[string]int{}, rows: records[1:]}
	for i, col := range t.header {
		t.cols[col] = i
	}
	return t, true, nil
}

// fields gives typed, defaulted access to one record. Parse failures stick to
// err so a reader checks once per row instead of once per column.
type fields struct {
	t   *table
	i   int
	err error
}

func (t *table) fields(i int) *fields { return &fields{t: t, i: i} }

// line is the 1-based file line of the record, counting the header.
func (f *fields) line() int { return f.i + 2 }

func (f *fields) raw(col string) (string, bool) {
	j, ok := f.t.cols[col]
	if !ok || j >= len(f.t.rows[f.i]) {
		return "", false
	}
	return f.t.rows[f.i][j], true
}

// need returns a column that must be present and non-empty.
func (f *fields) need(col string) string {
	v, ok := f.raw(col)
	if f.err == nil && (!ok || v == "") {
		f.err = fmt.Errorf("%s line %d: missing required column %q", f.t.file, f.line(), col)
	}
	return v
}

// str returns a column value, or the default when absent or empty.
func (f *fields) str(col, def string) string {
	if v, ok := f.raw(col); ok && v != "" {
		return v
	}
	return def
}

// float parses a column as float64, falling back to the default when the
// column is absent or empty. "Inf" and "+Inf" parse as expected.
func (f *fields) float(col string, def float64) float64 {
	v, ok := f.raw(col)
	if !ok || v == "" {
		return def
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("%s line %d: column %q: %w", f.t.file, f.line(), col, err)
	}
	return x
}

// boolean parses a column as bool, defaulting to false.
func (f *fields) boolean(col string) bool {
	v, ok := f.raw(col)
	if !ok || v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil && f.err == nil {
		f.err = fmt.Errorf("%s line %d: column %q: %w", f.t.file, f.line(), col, err)
	}
	return b
}
