package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/pipeline"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [symbols...]",
	Short: "종목 시그널 분석",
	Long: `종목별 시그널을 계산하고 리포트를 출력합니다.

심볼을 생략하면 watchlist 전체를 분석합니다.
6자리 숫자 코드는 Naver, 그 외는 Yahoo에서 가져옵니다.

Example:
  go run ./cmd/signal analyze AAPL
  go run ./cmd/signal analyze 005930 000660 --period 2y
  go run ./cmd/signal analyze --notify
  go run ./cmd/signal analyze TSLA --json`,
	RunE: runAnalyze,
}

var (
	analyzePeriod   string
	analyzeInterval string
	analyzeNotify   bool
	analyzeJSON     bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzePeriod, "period", "", "조회 기간 (1mo, 3mo, 6mo, 1y, 2y, 5y, max)")
	analyzeCmd.Flags().StringVar(&analyzeInterval, "interval", "", "봉 간격 (1d, 1wk, 1mo)")
	analyzeCmd.Flags().BoolVar(&analyzeNotify, "notify", false, "Telegram/Discord로 발송")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if analyzePeriod != "" {
		if _, err := contracts.ParsePeriod(analyzePeriod); err != nil {
			return err
		}
		cfg.MarketData.DefaultPeriod = analyzePeriod
	}
	if analyzeInterval != "" {
		if err := contracts.ValidateInterval(analyzeInterval); err != nil {
			return err
		}
		cfg.MarketData.DefaultInterval = analyzeInterval
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	symbols := args
	if len(symbols) == 0 {
		symbols, err = a.watchlist.List(ctx)
		if err != nil {
			return fmt.Errorf("read watchlist: %w", err)
		}
		if len(symbols) == 0 {
			return fmt.Errorf("no symbols given and the watchlist is empty")
		}
	}

	analyzer := a.analyzer
	if analyzeNotify {
		analyzer = a.notifyingAnalyzer()
	}

	report := analyzer.RunBatch(ctx, symbols)
	summary := pipeline.Summary(report)

	if analyzeNotify && len(report.Results) > 1 {
		if err := analyzer.Deliver(ctx, summary); err != nil {
			a.log.WithError(err).Warn("Failed to deliver summary")
		}
	}

	if analyzeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	} else {
		printReport(report, summary)
	}

	if report.Succeeded() == 0 {
		return fmt.Errorf("all %d symbols failed", report.Failed())
	}
	return nil
}

func printReport(report *pipeline.Report, summary string) {
	for i, res := range report.Results {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(res.Text)
	}

	if len(report.Results) > 1 {
		fmt.Println()
		fmt.Println(divider)
		fmt.Println(summary)
	}
}
