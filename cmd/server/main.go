package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/massage_booking/internal/app"
	"github.com/Freeeeeet/massage_booking/internal/availability"
	"github.com/Freeeeeet/massage_booking/internal/catalog"
	"github.com/Freeeeeet/massage_booking/internal/config"
	"github.com/Freeeeeet/massage_booking/internal/controller"
	"github.com/Freeeeeet/massage_booking/internal/controller/handlers"
	"github.com/Freeeeeet/massage_booking/internal/controller/httpapi"
	"github.com/Freeeeeet/massage_booking/internal/gcal"
	"github.com/Freeeeeet/massage_booking/internal/lock"
	"github.com/Freeeeeet/massage_booking/internal/metrics"
	"github.com/Freeeeeet/massage_booking/internal/repository"
	"github.com/Freeeeeet/massage_booking/internal/repository/memory"
	"github.com/Freeeeeet/massage_booking/internal/service"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

const (
	tokenRefreshInterval = 50 * time.Minute
	keepAliveInterval    = 10 * time.Minute
	lockTTL              = 30 * time.Second
	shutdownTimeout      = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("👋 Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cat, err := config.LoadShop(cfg.ShopConfig)
	if err != nil {
		return err
	}

	logger.Info("🚀 Starting massage booking server",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store),
		zap.String("time_zone", cat.Location().String()),
		zap.Int("services", len(cat.Services())))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("massage_booking", reg)

	var tokens *gcal.TokenManager
	if cfg.GoogleEnabled() {
		tokens = gcal.NewTokenManager(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, cfg.GoogleTokenPath, logger)
		if err := tokens.Load(); err != nil {
			return err
		}
	}

	store, audit, cleanup, err := openStore(ctx, cfg, cat, tokens, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	locker, closeLocker, err := openLocker(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	observed := repository.NewObservedStore(store, m)
	resolver := availability.NewResolver(cat, observed, m, logger)
	search, err := availability.NewSearch(resolver, cfg.SearchStep, availability.DefaultHorizon)
	if err != nil {
		return err
	}
	bookingService := service.NewBookingService(cat, resolver, search, observed, audit, locker, cfg.LockTimeout, m, logger)

	opts := httpapi.Options{
		CORSOrigin: cfg.CORSOrigin,
		RateLimit:  cfg.RateLimit,
		Gatherer:   reg,
		AdminToken: cfg.AdminToken,
	}
	if tokens != nil {
		opts.Tokens = tokens
	}
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(bookingService, opts, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler := app.NewScheduler(logger)
	if tokens != nil {
		scheduler.Add(app.Job{Name: "token_refresh", Interval: tokenRefreshInterval, Run: tokens.Refresh})
	}
	if cfg.KeepAliveURL != "" {
		scheduler.Add(app.KeepAliveJob(cfg.KeepAliveURL, keepAliveInterval, nil))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.TelegramToken != "" {
		g.Go(func() error {
			return runBot(gctx, cfg.TelegramToken, bookingService, logger)
		})
	} else {
		logger.Info("TELEGRAM_TOKEN is not set, bot disabled")
	}

	scheduler.Start(gctx)
	defer scheduler.Stop()

	return g.Wait()
}

// openStore выбирает хранилище событий и журнал по STORE
func openStore(
	ctx context.Context,
	cfg *config.Config,
	cat *catalog.Catalog,
	tokens *gcal.TokenManager,
	logger *zap.Logger,
) (repository.EventStore, repository.AuditWriter, func(), error) {
	var (
		store   repository.EventStore
		audit   repository.AuditWriter
		cleanup = func() {}
	)

	switch cfg.Store {
	case config.StorePostgres:
		pool, err := app.OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := migrate(ctx, pool, cfg.MigrationsPath, logger); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		store = repository.NewEventRepository(pool, logger)
		audit = repository.NewAuditRepository(pool)
		cleanup = pool.Close

	case config.StoreGoogle:
		gstore, err := gcal.NewStore(ctx, cfg.CalendarID, cat, logger, option.WithHTTPClient(tokens.HTTPClient(ctx)))
		if err != nil {
			return nil, nil, nil, err
		}
		store = gstore

	default:
		logger.Warn("⚠️ Using in-memory calendar, bookings are lost on restart")
		store = memory.NewStore()
	}

	// журнал в Google Sheets имеет приоритет, если настроен
	if cfg.SpreadsheetID != "" && tokens != nil {
		sheet, err := gcal.NewSheetAudit(ctx, cfg.SpreadsheetID, cfg.AuditSheet, option.WithHTTPClient(tokens.HTTPClient(ctx)))
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		audit = sheet
	}

	return store, audit, cleanup, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, path string, logger *zap.Logger) error {
	migrator, err := app.NewMigrator(pool, path, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Run(ctx)
}

// openLocker Redis при REDIS_ADDR, иначе блокировка в памяти процесса
func openLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lock.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("✅ Connected to Redis, using distributed booking lock", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedisLocker(client, "massage_booking:lock:", lockTTL), func() { client.Close() }, nil
}

func runBot(ctx context.Context, token string, bookingService *service.BookingService, logger *zap.Logger) error {
	// бот не обязателен: без Telegram API продолжаем обслуживать HTTP
	b, err := bot.New(token, bot.WithMiddlewares(handlers.LogUpdates(logger)))
	if err != nil {
		logger.Error("Failed to create bot, continuing without it", zap.Error(err))
		return nil
	}

	botController := controller.NewBotController(b, bookingService, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}
	return botController.Start(ctx)
}
