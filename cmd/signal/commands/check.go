package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "연결 및 설정 점검",
	Long: `설정과 외부 연결 상태를 점검합니다.

이 명령어는:
- config 로드 및 요약 출력
- PostgreSQL Ping / Health Check / Pool 통계 (DATABASE_URL 설정 시)
- Redis Ping (REDIS_ENABLED=true 시)
- 알림 채널 확인 (--send-test 로 테스트 메시지 발송)

Example:
  go run ./cmd/signal check
  go run ./cmd/signal check --send-test`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkSendTest bool

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkSendTest, "send-test", false, "알림 채널로 테스트 메시지 발송")
}

func runCheck(cmd *cobra.Command, args []string) error {
	printHeader("Connection Check")

	fmt.Println("Loading configuration...")
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n", maskPassword(cfg.Database.URL))
	fmt.Printf("   Watchlist: %s %s\n", cfg.Watchlist.Backend, cfg.Watchlist.Path)
	fmt.Printf("   Report schedule: %s (%s)\n\n", cfg.Scheduler.ReportSpec, cfg.Scheduler.Timezone)

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("❌ %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// Database
	if a.db == nil {
		fmt.Println("⏭  Database: disabled (DATABASE_URL not set)")
	} else {
		status, err := a.db.HealthCheck(ctx)
		if err != nil {
			return fmt.Errorf("❌ Database health check failed: %w", err)
		}
		fmt.Println("✅ Database Health Check:")
		fmt.Printf("   Response Time: %v\n", status.ResponseTime)
		fmt.Printf("   Connections: %d total / %d idle / %d max\n",
			status.Stats.TotalConns, status.Stats.IdleConns, status.Stats.MaxConns)
	}

	// Redis
	if !a.redis.Enabled() {
		fmt.Println("⏭  Redis: disabled (series cache and shared rate limits off)")
	} else if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("❌ Redis ping failed: %w", err)
	} else {
		fmt.Println("✅ Redis: ping successful")
	}

	// Notification
	n := cfg.Notification
	fmt.Printf("   Telegram: %v | Discord: %v\n", n.TelegramEnabled(), n.DiscordEnabled())
	if checkSendTest {
		text := fmt.Sprintf("🔔 chartsignal test message (%s)", time.Now().Format("2006-01-02 15:04:05"))
		if err := a.notifyingAnalyzer().Deliver(ctx, text); err != nil {
			return fmt.Errorf("❌ Test message failed: %w", err)
		}
		fmt.Println("✅ Test message sent")
	}

	fmt.Println("\n✅ All checks passed!")
	return nil
}

// maskPassword hides the password in a connection URL for display
func maskPassword(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
