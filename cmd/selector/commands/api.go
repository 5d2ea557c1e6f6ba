package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/api"
	"github.com/wonny/stockpick/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 선택기 목록 및 선택 실행 엔드포인트 제공
- DATABASE_URL 이 있으면 저장된 결과 조회 제공

Endpoints:
  GET  /health                        - Health check
  GET  /api/selectors                 - 선택기 목록
  POST /api/runs                      - 선택 실행
  GET  /api/runs?limit=20             - 최근 실행 목록
  GET  /api/picks?date=YYYY-MM-DD     - 저장된 선택 결과
  GET  /api/stocks?industry=&area=    - 종목 메타데이터 조회
  GET  /api/stocks/{code}             - 종목 단건 조회
  POST /api/stocks/refresh            - 메타데이터 캐시 갱신

Example:
  go run ./cmd/selector api
  go run ./cmd/selector api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Stockpick API Server ===")

	a, err := newApp(appOptions{withDB: true})
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// PicksStore must stay a nil interface when no repository is configured
	var store handlers.PicksStore
	if a.repo != nil {
		store = a.repo
	}

	selectionHandler := handlers.NewSelectionHandler(a.runner, a.registry, store, a.defaultOptions(), a.log)
	stocksHandler := handlers.NewStocksHandler(a.metadata, a.log)
	router := api.NewRouter(selectionHandler, stocksHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, 30*time.Second); err != nil {
		return err
	}

	a.log.Info("Server stopped")
	return nil
}
