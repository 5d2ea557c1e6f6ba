package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpick/internal/selector"
)

// selectorsCmd represents the selectors command
var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "등록된 선택기 목록",
	Long: `설정 파일의 "type" 으로 사용할 수 있는 선택기와 기본 파라미터를 출력합니다.

Example:
  go run ./cmd/selector selectors`,
	RunE: listSelectors,
}

func init() {
	rootCmd.AddCommand(selectorsCmd)
}

func listSelectors(cmd *cobra.Command, args []string) error {
	registry := selector.NewDefaultRegistry()

	fmt.Println("=== Registered Selectors ===")
	for _, e := range registry.Entries() {
		fmt.Printf("\n%s\n  %s\n", e.Name, e.Description)
		if e.Defaults == nil {
			continue
		}
		params, err := json.Marshal(e.Defaults)
		if err != nil {
			return fmt.Errorf("encode defaults of %s: %w", e.Name, err)
		}
		fmt.Printf("  parameters: %s\n", params)
	}
	return nil
}
