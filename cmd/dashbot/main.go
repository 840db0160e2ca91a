package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/dashbot/internal/broker"
	"github.com/xela07ax/dashbot/internal/console/handler"
	"github.com/xela07ax/dashbot/internal/console/server"
	"github.com/xela07ax/dashbot/internal/console/service"
	"github.com/xela07ax/dashbot/internal/gate"
	"github.com/xela07ax/dashbot/internal/infra"
	"github.com/xela07ax/dashbot/internal/infra/auth"
	"github.com/xela07ax/dashbot/internal/repository/postgres"
	"github.com/xela07ax/dashbot/internal/statuscache"
	"github.com/xela07ax/dashbot/internal/ws"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инфраструктура и ресурсы
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store, err := postgres.NewStore(appCtx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to init postgres", zap.Error(err))
	}
	defer store.Close()

	// При старте в docker-compose база и Redis могут подниматься дольше нас
	pinger := retry.New(
		retry.Context(appCtx),
		retry.Attempts(5),
		retry.Delay(time.Second),
	)
	if err := pinger.Do(func() error {
		ctx, cancel := context.WithTimeout(appCtx, 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("postgres unreachable: %w", err)
		}
		return rdb.Ping(ctx).Err()
	}); err != nil {
		logger.Fatal("dependencies unreachable", zap.Error(err))
	}

	if err := store.EnsureSchema(appCtx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	// 3. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint started", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 4. Ядро: брокер, шина команд, гейт, кэш статуса
	publisher := broker.NewRedisPublisher(rdb, logger, metrics)
	commandBus := broker.NewCommandBus(publisher, logger, metrics)
	viewerGate := gate.NewViewerGate(commandBus, logger, metrics)
	cache := statuscache.New(cfg.Status.TTL)

	// 5. Сервисный слой
	statusService := service.NewStatusService(cache, publisher, logger)
	eventService := service.NewEventService(store, publisher, logger, metrics, cfg.Events.Keep)
	chatService := service.NewChatService(store, publisher, logger)
	commandService := service.NewCommandService(commandBus, logger)
	authService := service.NewAuthService(store, []byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)

	// 6. HTTP-слой и WebSocket-хаб
	hub := ws.NewHub(viewerGate, chatService, chatService, logger, metrics)
	go hub.Run(appCtx, rdb)

	srvHandler := server.NewServer(
		cfg,
		logger,
		metrics,
		auth.NewPluginValidator(cfg.Auth.PluginToken),
		auth.NewSessionValidator([]byte(cfg.Auth.JWTSecret)),
		handler.NewAuthHandler(authService, cfg.Auth.LoginRPS, cfg.Auth.LoginBurst),
		handler.NewPluginHandler(statusService, eventService, chatService),
		handler.NewDashboardHandler(eventService, statusService),
		handler.NewChatHandler(chatService),
		handler.NewCommandHandler(commandService),
		hub,
	)

	// 7. Периодическая уборка журнала (не per-append)
	go func() {
		ticker := time.NewTicker(cfg.Events.PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pruneCtx, pruneCancel := context.WithTimeout(appCtx, 30*time.Second)
				eventService.Prune(pruneCtx)
				pruneCancel()
			case <-appCtx.Done():
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srvHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("dashbot started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop // Ждем сигнал
	logger.Info("dashbot stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	cancel()
	logger.Info("dashbot exited properly")
}
