package ir

import (
	"errors"
)

// Rows is a lazy, finite, single-pass sequence of rows.
// It follows the cursor pattern: Next advances, Row retrieves.
//
// Callers must call Close when they stop iterating early. Err reports the
// error that ended iteration, if any.
type Rows interface {
	Next() bool
	Row() Row
	Err() error
	Close() error
}

// sliceRows iterates over an in-memory slice.
type sliceRows struct {
	rows []Row
	pos  int
}

// SliceRows returns a cursor over rows. The slice is not copied.
func SliceRows(rows []Row) Rows {
	return &sliceRows{rows: rows, pos: -1}
}

func (it *sliceRows) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return it.pos < len(it.rows)
}

func (it *sliceRows) Row() Row {
	if it.pos < 0 || it.pos >= len(it.rows) {
		return nil
	}
	return it.rows[it.pos]
}

func (it *sliceRows) Err() error   { return nil }
func (it *sliceRows) Close() error { it.pos = len(it.rows); return nil }

// FuncRows adapts a pull function to the Rows interface.
//
// next returns the next row, false when the sequence is exhausted, or an
// error that terminates iteration. closeFn may be nil.
type FuncRows struct {
	next    func() (Row, bool, error)
	closeFn func() error
	current Row
	err     error
	done    bool
}

// NewFuncRows creates a cursor driven by next.
func NewFuncRows(next func() (Row, bool, error), closeFn func() error) *FuncRows {
	return &FuncRows{next: next, closeFn: closeFn}
}

func (it *FuncRows) Next() bool {
	if it.done {
		return false
	}
	row, ok, err := it.next()
	if err != nil {
		it.err = err
	}
	if err != nil || !ok {
		it.done = true
		it.current = nil
		return false
	}
	it.current = row
	return true
}

func (it *FuncRows) Row() Row   { return it.current }
func (it *FuncRows) Err() error { return it.err }

func (it *FuncRows) Close() error {
	if it.done && it.closeFn == nil {
		return nil
	}
	it.done = true
	it.current = nil
	if it.closeFn != nil {
		fn := it.closeFn
		it.closeFn = nil
		return fn()
	}
	return nil
}

// Collect drains rows into a slice and closes the cursor.
func Collect(rows Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		out = append(out, rows.Row())
	}
	return out, errors.Join(rows.Err(), rows.Close())
}

// First returns the first row of a cursor and closes it.
// A nil row with a nil error means the sequence was empty.
func First(rows Rows) (Row, error) {
	var row Row
	if rows.Next() {
		row = rows.Row()
	}
	return row, errors.Join(rows.Err(), rows.Close())
}

// FromRecords converts records to the Row slice the engines consume.
func FromRecords(records ...Record) []Row {
	out := make([]Row, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out
}
