package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "signal",
	Short: "chartsignal - 기술적 지표 기반 매매 시그널",
	Long: `chartsignal CLI

일봉 OHLCV로 기술적 지표를 계산하고 규칙 기반 점수로
buy/sell 시그널과 텍스트 리포트를 생성합니다.

Usage:
  go run ./cmd/signal [command]

Examples:
  go run ./cmd/signal analyze AAPL 005930
  go run ./cmd/signal analyze --notify
  go run ./cmd/signal watchlist add MSFT
  go run ./cmd/signal scheduler start
  go run ./cmd/signal api --port 8080`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C cancels the command context so running batches stop between symbols.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
