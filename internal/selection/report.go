package selection

import (
	"fmt"
	"strings"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/logger"
)

// NoPicksText is reported when a selector picks nothing
const NoPicksText = "No qualifying stocks"

// ReportLines renders the human-readable report of one result
func ReportLines(result contracts.RunResult) []string {
	picks := NoPicksText
	if len(result.Picks) > 0 {
		picks = strings.Join(result.Picks, ", ")
	}

	return []string{
		fmt.Sprintf("============== Selection result [%s] ==============", result.Alias),
		fmt.Sprintf("Trade date: %s", result.TradeDate.Format("2006-01-02")),
		fmt.Sprintf("Qualifying stocks: %d", len(result.Picks)),
		picks,
	}
}

// report writes the result report to the log channel
func (r *Runner) report(log *logger.Logger, result contracts.RunResult) {
	log.Info("")
	for _, line := range ReportLines(result) {
		log.Info(line)
	}
}
