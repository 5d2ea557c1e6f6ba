package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
)

// AuditStatus is the outcome of auditing the date column of one file
type AuditStatus string

const (
	AuditOK           AuditStatus = "ok"
	AuditNullDates    AuditStatus = "null_dates"
	AuditAllNull      AuditStatus = "all_null"
	AuditEmpty        AuditStatus = "empty"
	AuditNoDateColumn AuditStatus = "no_date_column"
	AuditUnreadable   AuditStatus = "unreadable"
)

// IsIssue reports whether the status needs attention
func (s AuditStatus) IsIssue() bool {
	return s != AuditOK
}

// DateAudit is the audit result of one symbol file
type DateAudit struct {
	File           string      `json:"file"`
	Path           string      `json:"path"`
	Status         AuditStatus `json:"status"`
	TotalRows      int         `json:"total_rows"`
	NullCount      int         `json:"null_count"`
	NullPercentage float64     `json:"null_percentage"`
	Error          string      `json:"error,omitempty"`
}

// AuditReport summarizes a data directory audit
type AuditReport struct {
	Dir     string      `json:"dir"`
	Files   []DateAudit `json:"files"`
	OKFiles int         `json:"ok_files"`
	Issues  []DateAudit `json:"issues"`
}

// TotalFiles returns the number of audited files
func (r *AuditReport) TotalFiles() int {
	return len(r.Files)
}

// AuditFile checks the date column of one CSV file.
// Unparsable date cells count as null, the same way the loader treats them.
func AuditFile(path string) DateAudit {
	audit := DateAudit{
		File: filepath.Base(path),
		Path: path,
	}

	f, err := os.Open(path)
	if err != nil {
		audit.Status = AuditUnreadable
		audit.Error = err.Error()
		return audit
	}
	defer f.Close()

	table, err := readSymbolTable(audit.File, f)
	if err != nil {
		audit.Status = AuditUnreadable
		if errors.Is(err, errMissingDateColumn) {
			audit.Status = AuditNoDateColumn
		}
		audit.Error = err.Error()
		return audit
	}

	audit.TotalRows = table.Len()
	for i := 0; i < table.Len(); i++ {
		if !table.At(i).HasDate() {
			audit.NullCount++
		}
	}

	switch {
	case audit.TotalRows == 0:
		audit.Status = AuditEmpty
	case audit.NullCount == audit.TotalRows:
		audit.Status = AuditAllNull
	case audit.NullCount > 0:
		audit.Status = AuditNullDates
	default:
		audit.Status = AuditOK
	}

	if audit.TotalRows > 0 {
		pct := float64(audit.NullCount) / float64(audit.TotalRows) * 100
		audit.NullPercentage = math.Round(pct*100) / 100
	}

	return audit
}

// AuditDir audits every .csv file of dir in name order
func AuditDir(dir string) (*AuditReport, error) {
	symbols, err := ListSymbols(dir)
	if err != nil {
		return nil, err
	}

	report := &AuditReport{
		Dir:    dir,
		Files:  make([]DateAudit, 0, len(symbols)),
		Issues: []DateAudit{},
	}

	for _, symbol := range symbols {
		audit := AuditFile(filepath.Join(dir, symbol+".csv"))
		report.Files = append(report.Files, audit)
		if audit.Status.IsIssue() {
			report.Issues = append(report.Issues, audit)
		} else {
			report.OKFiles++
		}
	}

	return report, nil
}
