package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/dataset"
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "CSV 날짜 컬럼 점검",
	Long: `데이터 디렉토리의 모든 CSV 파일에서 date 컬럼 상태를 점검합니다.

점검 항목:
- date 컬럼 존재 여부
- 비어있거나 해석 불가능한 날짜 행 수와 비율
- 데이터 행이 없는 파일
- 읽을 수 없는 파일

디렉토리가 없을 때만 실패 종료합니다.

Example:
  go run ./cmd/selector data-check --data-dir ./data
  go run ./cmd/selector data-check --data-dir ./data --verbose
  go run ./cmd/selector data-check --json`,
	RunE: runDataCheck,
}

var (
	dataCheckDir  string
	dataCheckJSON bool
)

func init() {
	rootCmd.AddCommand(dataCheckCmd)

	// Flags
	dataCheckCmd.Flags().StringVar(&dataCheckDir, "data-dir", "", "종목별 CSV 디렉토리 (default: DATA_DIR)")
	dataCheckCmd.Flags().BoolVar(&dataCheckJSON, "json", false, "JSON 으로 출력")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	dir := dataCheckDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Selection.DataDir
	}

	report, err := dataset.AuditDir(dir)
	if err != nil {
		return err
	}

	if dataCheckJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	printAuditReport(report, verbose)
	return nil
}

func printAuditReport(report *dataset.AuditReport, detailed bool) {
	fmt.Printf("=== Data Check: %s ===\n\n", report.Dir)

	if detailed {
		fmt.Println("📋 파일별 상태")
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		for _, f := range report.Files {
			fmt.Printf("  %-20s %-15s rows=%-6d null=%-6d (%.2f%%)\n",
				f.File, f.Status, f.TotalRows, f.NullCount, f.NullPercentage)
		}
		fmt.Println()
	}

	fmt.Println("📊 요약")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  전체 파일: %d\n", report.TotalFiles())
	fmt.Printf("  정상:      %d\n", report.OKFiles)
	fmt.Printf("  문제:      %d\n", len(report.Issues))

	if len(report.Issues) == 0 {
		fmt.Println("\n✅ 모든 파일의 date 컬럼이 정상입니다")
		return
	}

	fmt.Println("\n⚠️  문제 파일")
	for _, f := range report.Issues {
		switch f.Status {
		case dataset.AuditNullDates, dataset.AuditAllNull:
			fmt.Printf("  %s: %s, %d/%d rows (%.2f%%)\n", f.File, f.Status, f.NullCount, f.TotalRows, f.NullPercentage)
		case dataset.AuditUnreadable, dataset.AuditNoDateColumn:
			fmt.Printf("  %s: %s, %s\n", f.File, f.Status, f.Error)
		default:
			fmt.Printf("  %s: %s\n", f.File, f.Status)
		}
	}
}
