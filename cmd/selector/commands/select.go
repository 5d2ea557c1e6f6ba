package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/selection"
)

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "선택기 실행",
	Long: `설정 파일의 활성 선택기를 순서대로 실행합니다.

이 명령어는:
- 데이터 디렉토리에서 종목별 CSV 로드
- 거래일 결정 (미지정 시 데이터의 최신 날짜)
- 선택기별 결과 보고 (로그 + select_results.log)
- --export 시 선택기별 xlsx/csv 파일 저장
- --save-db 시 결과를 PostgreSQL 에 저장

Example:
  go run ./cmd/selector select
  go run ./cmd/selector select --date 2024-01-12 --tickers 000001,600000
  go run ./cmd/selector select --export --export-format csv --export-dir ./out`,
	RunE: runSelect,
}

var (
	selectDataDir      string
	selectConfigPath   string
	selectDate         string
	selectTickers      string
	selectExport       bool
	selectExportDir    string
	selectExportFormat string
	selectTimeout      time.Duration
	selectSaveDB       bool
)

func init() {
	rootCmd.AddCommand(selectCmd)

	// Flags
	selectCmd.Flags().StringVar(&selectDataDir, "data-dir", "", "종목별 CSV 디렉토리 (default: DATA_DIR)")
	selectCmd.Flags().StringVar(&selectConfigPath, "config", "", "선택기 설정 파일 (default: SELECTOR_CONFIG)")
	selectCmd.Flags().StringVar(&selectDate, "date", "", "거래일 YYYY-MM-DD (default: 데이터 최신 날짜)")
	selectCmd.Flags().StringVar(&selectTickers, "tickers", "", "'all' 또는 쉼표 구분 종목코드 (default: SELECT_TICKERS)")
	selectCmd.Flags().BoolVar(&selectExport, "export", false, "선택 결과를 파일로 저장")
	selectCmd.Flags().StringVar(&selectExportDir, "export-dir", "", "저장 디렉토리 (default: EXPORT_DIR)")
	selectCmd.Flags().StringVar(&selectExportFormat, "export-format", "", "저장 형식 xlsx|csv (default: EXPORT_FORMAT)")
	selectCmd.Flags().DurationVar(&selectTimeout, "timeout", 0, "선택기별 제한 시간 (0: 제한 없음)")
	selectCmd.Flags().BoolVar(&selectSaveDB, "save-db", false, "결과를 DB 에 저장 (DATABASE_URL 필요)")
}

func runSelect(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{
		exportDir:    selectExportDir,
		exportFormat: selectExportFormat,
		requireDB:    selectSaveDB,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := a.defaultOptions()
	if selectDataDir != "" {
		opts.DataDir = selectDataDir
	}
	if selectConfigPath != "" {
		opts.ConfigPath = selectConfigPath
	}
	if selectTickers != "" {
		opts.Symbols = selectTickers
	}
	opts.Date = selectDate
	opts.Export = selectExport
	opts.SelectorTimeout = selectTimeout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := a.runner.Run(ctx, opts)
	if err != nil {
		a.log.WithError(err).Error("Selection run failed")
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(summary *selection.RunSummary) {
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Run %s  trade date %s  (%d/%d symbols loaded)\n",
		summary.RunID, summary.TradeDate.Format("2006-01-02"), summary.Loaded, summary.Requested)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	for _, result := range summary.Results {
		status := "✅"
		if result.Failed() {
			status = "❌"
		}
		fmt.Printf("  %s %-20s %3d picks", status, result.Alias, result.Count())
		if result.ExportPath != "" {
			fmt.Printf("  → %s", result.ExportPath)
		}
		fmt.Println()
	}
	for _, failure := range summary.Failures {
		fmt.Printf("  ⚠️  #%d %s (%s): %s\n", failure.Index, failure.Alias, failure.Type, failure.Error)
	}
	if summary.Skipped > 0 {
		fmt.Printf("  %d inactive selector(s) skipped\n", summary.Skipped)
	}
}
