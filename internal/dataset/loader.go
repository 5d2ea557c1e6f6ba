package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// DateColumn is the column every symbol file must carry
const DateColumn = "date"

// AllSymbols selects every symbol file of the data directory
const AllSymbols = "all"

var (
	// ErrNoData is returned when no symbol could be loaded
	ErrNoData = errors.New("no symbol data loaded")

	// ErrDataDirMissing is returned when the data directory does not exist
	ErrDataDirMissing = errors.New("data directory does not exist")

	// ErrEmptyUniverse is returned when the symbol argument resolves to nothing
	ErrEmptyUniverse = errors.New("symbol universe is empty")

	errMissingDateColumn = fmt.Errorf("missing %q column", DateColumn)
)

// dateLayouts are tried in order for date cells and explicit trade dates
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate parses a date cell. ok is false for empty or unparsable values.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Loader reads per-symbol CSV files into a DatasetView
// ⭐ SSOT: 종목 CSV → DatasetView 변환은 여기서만
type Loader struct {
	logger *logger.Logger
}

// NewLoader creates a new loader
func NewLoader(log *logger.Logger) *Loader {
	return &Loader{logger: log}
}

// Load reads <dir>/<code>.csv for every code.
// Missing or malformed files are logged and skipped.
func (l *Loader) Load(ctx context.Context, dir string, codes []string) (*contracts.DatasetView, error) {
	tables := make([]*contracts.SymbolTable, 0, len(codes))

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}

		path := filepath.Join(dir, code+".csv")

		if _, err := os.Stat(path); err != nil {
			l.logger.WithFields(map[string]interface{}{
				"code": code,
				"file": path,
			}).Warn("Symbol file not found, skipping")
			continue
		}

		table, err := ReadSymbolFile(code, path)
		if err != nil {
			l.logger.WithFields(map[string]interface{}{
				"code": code,
				"file": path,
			}).WithError(err).Warn("Symbol file unreadable, skipping")
			continue
		}

		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, ErrNoData
	}

	l.logger.WithFields(map[string]interface{}{
		"requested": len(codes),
		"loaded":    len(tables),
	}).Info("Dataset loaded")

	return contracts.NewDatasetView(tables), nil
}

// ReadSymbolFile parses one symbol CSV file
func ReadSymbolFile(code, path string) (*contracts.SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return readSymbolTable(code, f)
}

func readSymbolTable(code string, r io.Reader) (*contracts.SymbolTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	dateIdx := -1
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if columns[i] == DateColumn {
			dateIdx = i
		}
	}
	if dateIdx < 0 {
		return nil, errMissingDateColumn
	}

	var bars []contracts.Bar
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		var date time.Time
		if dateIdx < len(record) {
			date, _ = ParseDate(record[dateIdx])
		}

		fields := make(map[string]float64, len(columns))
		for i, cell := range record {
			if i == dateIdx || i >= len(columns) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				continue
			}
			fields[columns[i]] = v
		}

		bars = append(bars, contracts.NewBar(date, fields))
	}

	return contracts.NewSymbolTable(code, columns, bars), nil
}

// CheckDataDir verifies that dir exists and is a directory
func CheckDataDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDataDirMissing, dir)
		}
		return fmt.Errorf("stat data dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDataDirMissing, dir)
	}
	return nil
}

// ListSymbols returns the base name of every .csv file in dir, sorted
func ListSymbols(dir string) ([]string, error) {
	if err := CheckDataDir(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".csv" {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(symbols)

	return symbols, nil
}

// ParseSymbols turns the ticker argument into a symbol list.
// "all" (any case) lists the data directory, anything else is a comma separated list.
func ParseSymbols(arg, dir string) ([]string, error) {
	var symbols []string

	if strings.EqualFold(strings.TrimSpace(arg), AllSymbols) {
		listed, err := ListSymbols(dir)
		if err != nil {
			return nil, err
		}
		symbols = listed
	} else {
		for _, part := range strings.Split(arg, ",") {
			if s := strings.TrimSpace(part); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	if len(symbols) == 0 {
		return nil, ErrEmptyUniverse
	}
	return symbols, nil
}
