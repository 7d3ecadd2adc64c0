package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/chartsignal/internal/api"
	"github.com/wonny/chartsignal/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET    /health                        - Health check
  GET    /metrics                       - Prometheus metrics
  GET    /api/signals                   - 캐시된 시그널
  GET    /api/signals/stream            - 실시간 시그널 (WebSocket)
  GET    /api/signals/{symbol}          - 종목 시그널 (?period=, ?format=text)
  GET    /api/signals/{symbol}/history  - 저장된 시그널 이력
  GET    /api/watchlist                 - 관심 종목
  POST   /api/watchlist                 - 관심 종목 추가
  DELETE /api/watchlist/{symbol}        - 관심 종목 삭제
  POST   /api/reports/run               - 리포트 즉시 실행

Example:
  go run ./cmd/signal api
  go run ./cmd/signal api --port 8080 --with-scheduler`,
	Args: cobra.NoArgs,
	RunE: runAPIServer,
}

var (
	apiPort          string
	apiWithScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본 PORT)")
	apiCmd.Flags().BoolVar(&apiWithScheduler, "with-scheduler", false, "스케줄러 함께 실행")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	printHeader("API Server")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	h := api.Handlers{
		Signals:   handlers.NewSignalHandler(a.analyzer, a.cache, a.store, a.log),
		Watchlist: handlers.NewWatchlistHandler(a.watchlist, a.log),
		Reports:   handlers.NewReportHandler(a.analyzer, a.notifyingAnalyzer(), a.watchlist, a.log),
		Stream:    a.hub,
	}
	if cfg.MetricsEnabled {
		h.Metrics = a.metrics.Handler()
	}
	server := api.New(cfg, a.log, api.NewRouter(h, a.log))

	if apiWithScheduler {
		sched, err := newScheduler(a)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
