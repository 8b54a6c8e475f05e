package network

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Series is one time-indexed attribute of a component class: a dense table
// with one row per snapshot and one column per component.
type Series struct {
	Columns []string
	Data    *mat.Dense
}

// NewSeries allocates a zero-filled series. Both dimensions must be positive;
// empty attribute tables are represented by absence, not by empty series.
func NewSeries(columns []string, rows int) (*Series, error) {
	if rows <= 0 || len(columns) == 0 {
		return nil, fmt.Errorf("series needs at least one snapshot and one column, got %dx%d", rows, len(columns))
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Series{
		Columns: cols,
		Data:    mat.NewDense(rows, len(cols), nil),
	}, nil
}

// Rows returns the number of snapshots covered by the series.
func (s *Series) Rows() int {
	r, _ := s.Data.Dims()
	return r
}

// ColumnIndex returns the position of a component column.
func (s *Series) ColumnIndex(name string) (int, bool) {
	for i, c := range s.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// At reads the value for a component at a snapshot index.
func (s *Series) At(row int, column string) (float64, bool) {
	j, ok := s.ColumnIndex(column)
	if !ok {
		return 0, false
	}
	return s.Data.At(row, j), true
}

// Set writes the value for a component at a snapshot index.
func (s *Series) Set(row int, column string, v float64) bool {
	j, ok := s.ColumnIndex(column)
	if !ok {
		return false
	}
	s.Data.Set(row, j, v)
	return true
}

// Column copies out one component's values.
func (s *Series) Column(name string) ([]float64, bool) {
	j, ok := s.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, s.Rows())
	mat.Col(out, j, s.Data)
	return out, true
}

// dropColumns returns a series without the named columns, or nil when none
// remain.
func (s *Series) dropColumns(drop map[string]struct{}) *Series {
	var keep []int
	var cols []string
	for j, c := range s.Columns {
		if _, gone := drop[c]; !gone {
			keep = append(keep, j)
			cols = append(cols, c)
		}
	}
	if len(cols) == len(s.Columns) {
		return s
	}
	if len(cols) == 0 {
		return nil
	}
	rows := s.Rows()
	data := mat.NewDense(rows, len(cols), nil)
	for nj, oj := range keep {
		for i := 0; i < rows; i++ {
			data.Set(i, nj, s.Data.At(i, oj))
		}
	}
	return &Series{Columns: cols, Data: data}
}

// SeriesGroup holds all time-indexed attributes of one component class,
// keyed by attribute name (e.g. "p_max_pu", "p_set").
type SeriesGroup map[string]*Series

// DropColumns removes the named components from every attribute; attributes
// left without columns disappear from the group.
func (g SeriesGroup) DropColumns(drop map[string]struct{}) {
	for attr, s := range g {
		if ns := s.dropColumns(drop); ns == nil {
			delete(g, attr)
		} else {
			g[attr] = ns
		}
	}
}
