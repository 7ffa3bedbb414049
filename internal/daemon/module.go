// Package daemon composes the bot process: config, storage, transport
// and the digest engine, wired together with fx.
package daemon

import (
	"context"

	"github.com/matheus3301/chatzip/internal/bot"
	"github.com/matheus3301/chatzip/internal/bus"
	"github.com/matheus3301/chatzip/internal/config"
	"github.com/matheus3301/chatzip/internal/digest"
	"github.com/matheus3301/chatzip/internal/home"
	"github.com/matheus3301/chatzip/internal/lock"
	"github.com/matheus3301/chatzip/internal/logging"
	"github.com/matheus3301/chatzip/internal/stories"
	"github.com/matheus3301/chatzip/internal/store"
	"github.com/matheus3301/chatzip/internal/summarize"
	"github.com/matheus3301/chatzip/internal/telegram"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds startup options passed to the fx module.
type Params struct {
	ConfigPath string // optional override; empty = use the default path
}

// Module returns the fx module for the daemon, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideTelegramClient,
			providePoller,
			provideSummarizer,
			provideExtractor,
			provideEngine,
			provideJanitor,
			provideRouter,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	if err := home.EnsureDir(); err != nil {
		return nil, err
	}
	path := p.ConfigPath
	if path == "" {
		path = home.ConfigPath()
	}
	return config.Load(path)
}

func provideLogger() (*zap.Logger, error) {
	return logging.New(home.LogPath())
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring instance lock", zap.String("dir", home.Dir()))
	l, err := lock.Acquire(home.Dir())
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

func provideStore(logger *zap.Logger) (*store.DB, error) {
	dbPath := home.DBPath()
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideTelegramClient(cfg *config.Config) *telegram.Client {
	return telegram.NewClient(cfg.TelegramToken, cfg.TelegramBaseURL)
}

func providePoller(client *telegram.Client, b *bus.Bus, logger *zap.Logger) *telegram.Poller {
	return telegram.NewPoller(client, b, logger)
}

func provideSummarizer(cfg *config.Config) (digest.Summarizer, error) {
	return summarize.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL)
}

func provideExtractor(cfg *config.Config) stories.Extractor {
	return stories.NewClient(cfg.FirecrawlKey, cfg.FirecrawlBaseURL)
}

func provideEngine(db *store.DB, s digest.Summarizer, b *bus.Bus, logger *zap.Logger, cfg *config.Config) *digest.Engine {
	return digest.NewEngine(db, s, b, logger, cfg.MessageLimit, cfg.TimeWindow())
}

func provideJanitor(client *telegram.Client, db *store.DB, b *bus.Bus, logger *zap.Logger) *bot.Janitor {
	return bot.NewJanitor(client, db, b, logger)
}

func provideRouter(cfg *config.Config, engine *digest.Engine, client *telegram.Client, extractor stories.Extractor, janitor *bot.Janitor, b *bus.Bus, logger *zap.Logger) *bot.Router {
	return bot.NewRouter(cfg, engine, client, extractor, janitor, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, poller *telegram.Poller, router *bot.Router, janitor *bot.Janitor, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Consumers first, then the poller that feeds them.
			router.Start(context.Background())
			janitor.Start(context.Background())
			poller.Start(context.Background())
			logger.Info("daemon started")
			return nil
		},
		OnStop: func(_ context.Context) error {
			poller.Stop()
			router.Stop()
			janitor.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
