package contracts

import (
	"sort"
	"time"
)

// Bar is one daily record of a symbol table.
// A zero Date means the source row had no usable date.
type Bar struct {
	Date   time.Time
	fields map[string]float64
}

// NewBar creates a bar. The fields map is copied.
func NewBar(date time.Time, fields map[string]float64) Bar {
	copied := make(map[string]float64, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Bar{Date: date, fields: copied}
}

// HasDate reports whether the bar carries a date
func (b Bar) HasDate() bool {
	return !b.Date.IsZero()
}

// Get returns a numeric field of the bar
func (b Bar) Get(name string) (float64, bool) {
	v, ok := b.fields[name]
	return v, ok
}

// SymbolTable holds the daily records of one symbol, ascending by date
// ⭐ SSOT: 종목별 일봉 데이터 (Loader → Selector)
type SymbolTable struct {
	code    string
	columns []string
	bars    []Bar
}

// NewSymbolTable sorts bars ascending by date (stable; dateless bars last)
// and returns the table. Duplicate dates are kept.
func NewSymbolTable(code string, columns []string, bars []Bar) *SymbolTable {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.HasDate() || !b.HasDate() {
			return a.HasDate() && !b.HasDate()
		}
		return a.Date.Before(b.Date)
	})

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &SymbolTable{code: code, columns: cols, bars: sorted}
}

// Code returns the symbol code
func (t *SymbolTable) Code() string {
	return t.code
}

// Columns returns the column names of the source table
func (t *SymbolTable) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Len returns the number of rows, dated or not
func (t *SymbolTable) Len() int {
	return len(t.bars)
}

// At returns the i-th row
func (t *SymbolTable) At(i int) Bar {
	return t.bars[i]
}

// MaxDate returns the latest non-null date of the table
func (t *SymbolTable) MaxDate() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, b := range t.bars {
		if b.HasDate() && (!found || b.Date.After(latest)) {
			latest = b.Date
			found = true
		}
	}
	return latest, found
}

// Upto returns a copy of the dated rows on or before date, oldest first
func (t *SymbolTable) Upto(date time.Time) []Bar {
	out := make([]Bar, 0, len(t.bars))
	for _, b := range t.bars {
		if b.HasDate() && !b.Date.After(date) {
			out = append(out, b)
		}
	}
	return out
}

// TradedOn reports whether the table has a row dated on the calendar day of date
func (t *SymbolTable) TradedOn(date time.Time) bool {
	y, m, d := date.Date()
	for _, b := range t.bars {
		if !b.HasDate() {
			continue
		}
		by, bm, bd := b.Date.Date()
		if by == y && bm == m && bd == d {
			return true
		}
	}
	return false
}

// Series returns the named field of the rows on or before date, oldest first.
// Rows missing the field are skipped.
func (t *SymbolTable) Series(field string, date time.Time) []float64 {
	out := make([]float64, 0, len(t.bars))
	for _, b := range t.bars {
		if !b.HasDate() || b.Date.After(date) {
			continue
		}
		if v, ok := b.Get(field); ok {
			out = append(out, v)
		}
	}
	return out
}

// DatasetView maps symbol codes to their tables for one run.
// It is built once and only read afterwards, so selectors may share it.
// ⭐ SSOT: Loader → Selector 데이터 전달
type DatasetView struct {
	tables map[string]*SymbolTable
}

// NewDatasetView creates a view over the given tables
func NewDatasetView(tables []*SymbolTable) *DatasetView {
	m := make(map[string]*SymbolTable, len(tables))
	for _, t := range tables {
		m[t.Code()] = t
	}
	return &DatasetView{tables: m}
}

// Get returns the table of a symbol
func (v *DatasetView) Get(code string) (*SymbolTable, bool) {
	t, ok := v.tables[code]
	return t, ok
}

// Codes returns every symbol code, sorted
func (v *DatasetView) Codes() []string {
	codes := make([]string, 0, len(v.tables))
	for code := range v.tables {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of symbols
func (v *DatasetView) Len() int {
	return len(v.tables)
}

// Empty reports whether no symbol was loaded
func (v *DatasetView) Empty() bool {
	return len(v.tables) == 0
}
