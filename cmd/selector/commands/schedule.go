package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/scheduler"
	"github.com/wonny/stockpick/internal/scheduler/jobs"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 선택 스케줄러 시작",
	Long: `선택 작업을 cron 스케줄로 반복 실행합니다.

- 거래일은 매 실행마다 데이터의 최신 날짜로 결정됩니다
- 종목 메타데이터 캐시는 프로세스 동안 공유됩니다
- 실패한 실행은 --retries 만큼 재시도합니다

cron 형식은 초 단위 필드를 포함합니다 (초 분 시 일 월 요일).

스케줄러는 Ctrl+C로 종료할 수 있습니다.

Example:
  go run ./cmd/selector schedule
  go run ./cmd/selector schedule --cron "0 30 16 * * 1-5" --export
  go run ./cmd/selector schedule --run-now --save-db`,
	RunE: runSchedule,
}

var (
	scheduleCron    string
	scheduleDataDir string
	scheduleConfig  string
	scheduleTickers string
	scheduleExport  bool
	scheduleSaveDB  bool
	scheduleRunNow  bool
	scheduleRetries int
	scheduleTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	// Flags
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron 스케줄 (default: SELECT_SCHEDULE)")
	scheduleCmd.Flags().StringVar(&scheduleDataDir, "data-dir", "", "종목별 CSV 디렉토리 (default: DATA_DIR)")
	scheduleCmd.Flags().StringVar(&scheduleConfig, "config", "", "선택기 설정 파일 (default: SELECTOR_CONFIG)")
	scheduleCmd.Flags().StringVar(&scheduleTickers, "tickers", "", "'all' 또는 쉼표 구분 종목코드")
	scheduleCmd.Flags().BoolVar(&scheduleExport, "export", false, "선택 결과를 파일로 저장")
	scheduleCmd.Flags().BoolVar(&scheduleSaveDB, "save-db", false, "결과를 DB 에 저장 (DATABASE_URL 필요)")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "시작 직후 한 번 실행")
	scheduleCmd.Flags().IntVar(&scheduleRetries, "retries", 0, "실패 시 재시도 횟수")
	scheduleCmd.Flags().DurationVar(&scheduleTimeout, "timeout", 0, "선택기별 제한 시간 (0: 제한 없음)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stockpick Scheduler ===")

	a, err := newApp(appOptions{requireDB: scheduleSaveDB})
	if err != nil {
		return err
	}
	defer a.Close()

	spec := scheduleCron
	if spec == "" {
		spec = a.cfg.Selection.Schedule
	}
	if err := scheduler.ValidateSchedule(spec); err != nil {
		return err
	}

	opts := a.defaultOptions()
	if scheduleDataDir != "" {
		opts.DataDir = scheduleDataDir
	}
	if scheduleConfig != "" {
		opts.ConfigPath = scheduleConfig
	}
	if scheduleTickers != "" {
		opts.Symbols = scheduleTickers
	}
	opts.Export = scheduleExport
	opts.SelectorTimeout = scheduleTimeout

	sched := scheduler.New(a.log).WithRetry(scheduleRetries, 30*time.Second)
	job := jobs.NewSelectionJob(a.runner, opts, spec, a.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	if scheduleRunNow {
		result, err := sched.RunJobSync(job.Name())
		if err != nil {
			return fmt.Errorf("run job: %w", err)
		}
		if !result.Success {
			fmt.Printf("❌ Initial run failed: %s\n", result.Error)
		}
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Printf("  - %s (%s)\n", job.Name(), spec)
	if next, ok := sched.NextRun(job.Name()); ok {
		fmt.Printf("  Next run: %s\n", next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	printJobStats(sched.GetJobStats())
	return nil
}

func printJobStats(stats map[string]scheduler.JobStats) {
	for jobName, stat := range stats {
		fmt.Printf("\n📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}
	}
}
