package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// Columns of every export file
var Columns = []string{"ts_code", "name", "area", "industry"}

const (
	sheetName     = "Sheet1"
	fallbackAlias = "selector"
	stampLayout   = "20060102150405"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "":
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (xlsx, csv)", s)
	}
}

// Exporter writes selector picks to one file per selector per run
// ⭐ SSOT: 선택 결과 파일 저장은 여기서만
type Exporter struct {
	dir      string
	format   Format
	metadata contracts.MetadataLookup
	logger   *logger.Logger
	now      func() time.Time
}

// NewExporter creates an exporter. metadata may be nil, in which case
// the descriptive columns stay empty.
func NewExporter(dir string, format Format, metadata contracts.MetadataLookup, log *logger.Logger) *Exporter {
	return &Exporter{
		dir:      dir,
		format:   format,
		metadata: metadata,
		logger:   log,
		now:      time.Now,
	}
}

// Dir returns the output directory
func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes picks and returns the file path.
// Empty picks write nothing and return "".
// Files of the same alias exported within one second share a name and overwrite.
func (e *Exporter) Export(ctx context.Context, alias string, picks []string) (string, error) {
	if len(picks) == 0 {
		e.logger.WithField("alias", alias).Warn("No picks to export")
		return "", nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		e.logger.WithError(err).WithField("dir", e.dir).Error("Failed to create export directory")
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.%s", SanitizeAlias(alias), e.now().Format(stampLayout), e.format)
	path := filepath.Join(e.dir, name)

	rows := e.rows(ctx, picks)

	var err error
	switch e.format {
	case FormatCSV:
		err = writeCSV(path, rows)
	default:
		err = writeXLSX(path, rows)
	}
	if err != nil {
		e.logger.WithFields(map[string]interface{}{
			"alias": alias,
			"file":  path,
		}).WithError(err).Error("Failed to export picks")
		return "", err
	}

	e.logger.WithFields(map[string]interface{}{
		"alias": alias,
		"file":  path,
		"count": len(picks),
	}).Info("Picks exported")

	return path, nil
}

func (e *Exporter) rows(ctx context.Context, picks []string) [][]string {
	rows := make([][]string, 0, len(picks)+1)
	rows = append(rows, Columns)

	for _, code := range picks {
		var info contracts.StockInfo
		if e.metadata != nil {
			info, _ = e.metadata.Lookup(ctx, code)
		}
		rows = append(rows, []string{code, info.Name, info.Area, info.Industry})
	}
	return rows
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return file.Close()
}

// SanitizeAlias makes an alias safe for file names.
// Letters, digits, space, '-' and '_' are kept, trailing spaces trimmed
// and spaces replaced by '_'.
func SanitizeAlias(alias string) string {
	var b strings.Builder
	for _, r := range alias {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	safe := strings.TrimRight(b.String(), " ")
	safe = strings.ReplaceAll(safe, " ", "_")
	if safe == "" {
		return fallbackAlias
	}
	return safe
}
