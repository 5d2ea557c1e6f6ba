package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/metadata"
)

// stocksCmd represents the stocks command
var stocksCmd = &cobra.Command{
	Use:   "stocks [code]",
	Short: "종목 메타데이터 조회",
	Long: `tushare stock_basic 테이블을 조회합니다 (Redis 캐시 사용).

- 종목코드를 주면 한 종목만 출력 (ts_code 또는 6자리 코드)
- --industry, --area 로 필터링
- --refresh 로 캐시를 비우고 다시 받아옴

Example:
  go run ./cmd/selector stocks 000001.SZ
  go run ./cmd/selector stocks --industry 银行
  go run ./cmd/selector stocks --area 深圳 --refresh`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStocks,
}

var (
	stocksIndustry string
	stocksArea     string
	stocksRefresh  bool
)

func init() {
	rootCmd.AddCommand(stocksCmd)

	// Flags
	stocksCmd.Flags().StringVar(&stocksIndustry, "industry", "", "업종 필터")
	stocksCmd.Flags().StringVar(&stocksArea, "area", "", "지역 필터")
	stocksCmd.Flags().BoolVar(&stocksRefresh, "refresh", false, "캐시를 비우고 다시 조회")
}

func runStocks(cmd *cobra.Command, args []string) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stocksRefresh {
		if err := a.metadata.Refresh(ctx); err != nil {
			return err
		}
	}

	if len(args) == 1 {
		info, ok := a.metadata.Lookup(ctx, args[0])
		if !ok {
			if err := a.metadata.Err(); err != nil {
				return fmt.Errorf("%w: %v", metadata.ErrUnavailable, err)
			}
			return fmt.Errorf("stock %s not found", args[0])
		}
		printStocks([]contracts.StockInfo{info})
		return nil
	}

	stocks, err := a.metadata.Stocks(ctx, metadata.Filter{
		Industry: stocksIndustry,
		Area:     stocksArea,
	})
	if err != nil {
		return err
	}

	printStocks(stocks)
	fmt.Printf("\n총 %d종목\n", len(stocks))
	return nil
}

func printStocks(stocks []contracts.StockInfo) {
	fmt.Printf("%-10s %-8s %-12s %-8s %-12s %s\n", "ts_code", "symbol", "name", "area", "industry", "list_date")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, s := range stocks {
		fmt.Printf("%-10s %-8s %-12s %-8s %-12s %s\n", s.TSCode, s.Symbol, s.Name, s.Area, s.Industry, s.ListDate)
	}
}
