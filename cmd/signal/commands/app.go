package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/data/repos"
	"github.com/wonny/chartsignal/internal/external/naver"
	"github.com/wonny/chartsignal/internal/external/yahoo"
	"github.com/wonny/chartsignal/internal/marketdata"
	"github.com/wonny/chartsignal/internal/metrics"
	"github.com/wonny/chartsignal/internal/notification"
	"github.com/wonny/chartsignal/internal/pipeline"
	"github.com/wonny/chartsignal/internal/scorer"
	"github.com/wonny/chartsignal/internal/signalcache"
	"github.com/wonny/chartsignal/internal/stream"
	"github.com/wonny/chartsignal/internal/watchlist"
	"github.com/wonny/chartsignal/pkg/config"
	"github.com/wonny/chartsignal/pkg/database"
	"github.com/wonny/chartsignal/pkg/httputil"
	"github.com/wonny/chartsignal/pkg/logger"
	"github.com/wonny/chartsignal/pkg/redis"
)

// app holds the wired dependencies shared by commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	db    *database.DB  // nil without DATABASE_URL
	redis *redis.Client // no-op when disabled

	provider  marketdata.Provider
	notifier  contracts.Notifier // nil when no channel is configured
	watchlist contracts.WatchlistStore
	store     contracts.SignalStore // nil without a database
	cache     *signalcache.Cache
	hub       *stream.Hub
	metrics   *metrics.Metrics
	scorer    *scorer.Scorer
	analyzer  *pipeline.Analyzer // silent: no notifier attached
}

// loadConfig reads config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// appFromFlags loads config and wires the app for a command
func appFromFlags(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg)
}

// newApp wires every component from config
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(cfg)
	a := &app{
		cfg:     cfg,
		log:     log,
		cache:   signalcache.New(redis.TTLDaily, log),
		metrics: metrics.New(),
	}
	a.hub = stream.NewHub(log, a.cachedSignals)

	// 1. Storage (optional)
	rc, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc

	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		if err := db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.store = repos.NewSignalRepository(db.Pool)
		log.Info("Connected to database")
	}

	// 2. Watchlist
	switch cfg.Watchlist.Backend {
	case "postgres":
		if a.db == nil {
			a.Close()
			return nil, fmt.Errorf("watchlist backend postgres requires DATABASE_URL")
		}
		a.watchlist = watchlist.NewPostgresStore(a.db.Pool)
	default:
		a.watchlist = watchlist.NewFileStore(cfg.Watchlist.Path, cfg.Watchlist.Defaults)
	}

	// 3. Market data
	a.provider = a.newProvider()

	// 4. Notification
	a.notifier = a.newNotifier()

	// 5. Scorer + analyzer
	weights, err := scorer.LoadWeights(cfg.Scoring.WeightsPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load weights: %w", err)
	}

	a.scorer = scorer.New(weights)
	a.analyzer = a.newAnalyzer(nil)

	return a, nil
}

// newProvider routes KRX codes to Naver and everything else to Yahoo,
// each behind its own paced client and the shared series cache
func (a *app) newProvider() marketdata.Provider {
	md := a.cfg.MarketData
	limiter := redis.NewRateLimiter(a.redis, "chartsignal")

	yahooHTTP := httputil.New(a.cfg, a.log).
		WithLimiter(localLimiter(redis.YahooRateLimit)).
		WithRateLimiter(limiter, redis.YahooRateLimit)
	naverHTTP := httputil.New(a.cfg, a.log).
		WithLimiter(localLimiter(redis.NaverRateLimit)).
		WithRateLimiter(limiter, redis.NaverRateLimit)

	var global marketdata.Provider = yahoo.NewClient(yahooHTTP, a.log, md.YahooBaseURL)
	var krx marketdata.Provider = naver.NewClient(naverHTTP, a.log, md.NaverChartURL, md.NaverFinanceURL)

	if a.redis.Enabled() {
		cache := redis.NewCache(a.redis, "chartsignal")
		global = marketdata.NewCachedProvider(global, cache, md.CacheTTL, a.log)
		krx = marketdata.NewCachedProvider(krx, cache, md.CacheTTL, a.log)
	}
	return marketdata.NewRouter(krx, global)
}

// localLimiter mirrors a shared limit in-process for runs without redis
func localLimiter(cfg redis.RateLimitConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Limit)), 1)
}

// newNotifier fans out to every configured channel; nil when none is
func (a *app) newNotifier() contracts.Notifier {
	n := a.cfg.Notification
	var channels []contracts.Notifier

	limiter := redis.NewRateLimiter(a.redis, "chartsignal")
	if n.TelegramEnabled() {
		client := httputil.NewWithTimeout(a.cfg, a.log, n.Timeout).WithRateLimiter(limiter, redis.TelegramRateLimit)
		channels = append(channels, notification.NewTelegramNotifier(client, a.log, n.TelegramBaseURL, n.TelegramBotToken, n.TelegramChatID))
	}
	if n.DiscordEnabled() {
		client := httputil.NewWithTimeout(a.cfg, a.log, n.Timeout).WithRateLimiter(limiter, redis.DiscordRateLimit)
		channels = append(channels, notification.NewDiscordNotifier(client, a.log, n.DiscordWebhookURL))
	}
	if len(channels) == 0 {
		return nil
	}
	return notification.NewMultiNotifier(channels...)
}

// newAnalyzer builds an analyzer over the shared provider, cache and store
func (a *app) newAnalyzer(n contracts.Notifier) *pipeline.Analyzer {
	md := a.cfg.MarketData
	an := pipeline.NewAnalyzer(a.provider, a.scorer, pipeline.Config{
		Period:            md.DefaultPeriod,
		Interval:          md.DefaultInterval,
		Workers:           md.Workers,
		RequestsPerSecond: md.RequestsPerSecond,
		Burst:             md.Burst,
	}, a.log).
		WithCache(a.cache).
		WithMetrics(a.metrics).
		WithPublisher(a.hub)
	if a.store != nil {
		an.WithStore(a.store)
	}
	if n != nil {
		an.WithNotifier(n)
	}
	return an
}

// notifyingAnalyzer delivers every result through the configured channels,
// or through the log when none is configured
func (a *app) notifyingAnalyzer() *pipeline.Analyzer {
	if a.notifier == nil {
		a.log.Warn("No notification channel configured, messages go to the log")
		return a.newAnalyzer(notification.NewLogNotifier(a.log))
	}
	return a.newAnalyzer(a.notifier)
}

// cachedSignals is the snapshot sent to new stream clients
func (a *app) cachedSignals() []*contracts.Signal {
	entries := a.cache.GetAll()
	out := make([]*contracts.Signal, 0, len(entries))
	for _, e := range entries {
		if !e.IsStale {
			out = append(out, e.Signal)
		}
	}
	return out
}

// Close releases connections
func (a *app) Close() {
	a.hub.Close()
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
