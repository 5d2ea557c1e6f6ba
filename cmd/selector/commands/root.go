package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "selector",
	Short: "Stockpick - 설정 기반 종목 선택 엔진",
	Long: `Stockpick Selector CLI

종목별 CSV 일봉 데이터를 읽고, 설정 파일에 정의된 선택기를 순서대로 실행합니다.
선택 결과는 로그로 보고되고, 필요하면 xlsx/csv 로 내보내거나 DB 에 저장합니다.

Usage:
  go run ./cmd/selector [command]

Examples:
  go run ./cmd/selector select --data-dir ./data --config ./configs.json
  go run ./cmd/selector select --date 2024-01-12 --tickers 000001,600000 --export
  go run ./cmd/selector data-check --data-dir ./data
  go run ./cmd/selector selectors
  go run ./cmd/selector api --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
