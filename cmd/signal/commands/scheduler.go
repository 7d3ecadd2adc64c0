package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/chartsignal/internal/scheduler"
	"github.com/wonny/chartsignal/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 시그널 리포트 스케줄러를 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/signal scheduler start
  go run ./cmd/signal scheduler list
  go run ./cmd/signal scheduler run signal_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- signal_report: 평일 16:30 (SCHEDULER_REPORT_SPEC, 기본 Asia/Seoul)
- cache_cleanup: 5분마다 (시그널 캐시 정리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		Args: cobra.NoArgs,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		Args:  cobra.NoArgs,
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the report and cleanup jobs
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	opts := []scheduler.Option{
		scheduler.WithRetry(a.cfg.Scheduler.MaxRetries, a.cfg.Scheduler.RetryDelay),
	}
	if tz := a.cfg.Scheduler.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load timezone %s: %w", tz, err)
		}
		opts = append(opts, scheduler.WithLocation(loc))
	}

	sched := scheduler.New(a.log, opts...)

	report := jobs.NewSignalReportJob(a.notifyingAnalyzer(), a.watchlist, a.cfg.Scheduler.ReportSpec, a.log)
	if err := sched.AddJob(report); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewCacheCleanupJob(a.cache, a.log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	printHeader("Scheduler")

	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-cmd.Context().Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		next, _ := sched.NextRun(name)
		var nextPtr *time.Time
		if !next.IsZero() {
			nextPtr = &next
		}
		fmt.Printf("  - %-15s %-22s next: %s\n", name, stats[name].Schedule, formatTime(nextPtr))
	}
}

// runJob runs a job in the foreground; the process would exit before a
// background run finished
func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := appFromFlags(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJobSync(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println(divider)
	fmt.Printf("Duration: %s (attempts: %d)\n", result.Duration.Round(time.Millisecond), result.Attempts)
	if result.Summary != "" {
		fmt.Printf("Summary:  %s\n", result.Summary)
	}
	if !result.Success {
		return fmt.Errorf("job %s failed: %s", jobName, result.Error)
	}
	fmt.Println("✅ Job completed")
	return nil
}
