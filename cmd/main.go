package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/leaguehq/team-workspace/board"
	"github.com/leaguehq/team-workspace/config"
	"github.com/leaguehq/team-workspace/db"
	"github.com/leaguehq/team-workspace/handlers"
	"github.com/leaguehq/team-workspace/realtime"
	api "github.com/leaguehq/team-workspace/routes"
	"github.com/leaguehq/team-workspace/services"
	"github.com/leaguehq/team-workspace/slug"
	"github.com/leaguehq/team-workspace/storage"
	"github.com/leaguehq/team-workspace/store"
)

// Как часто планировщик чистит просроченные приглашения.
const invitePurgeInterval = time.Hour

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := store.EnsureSchema(context.Background(), dbConn); err != nil {
		logger.Error("failed to ensure document schema", slog.Any("error", err))
		os.Exit(1)
	}

	// Документное хранилище с push-подписками поверх LISTEN/NOTIFY
	docs, err := store.NewPostgresDocumentStore(store.PostgresStoreConfig{
		DB:     dbConn,
		DSN:    cfg.DatabaseURL,
		Logger: logger,
	})
	if err != nil {
		logger.Error("failed to initialize document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := docs.Close(); err != nil {
			logger.Error("failed to close document store", slog.Any("error", err))
		}
	}()
	logger.Info("document store initialized")

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, media image uploads disabled")
	}

	// Инициализация WebSocket Hub и менеджера досок
	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	boardManager := board.NewManager(docs, wsHub, logger)
	logger.Info("WebSocket hub started")

	// Инициализация сервисов
	slugResolver := slug.NewResolver(docs)
	teamService := services.NewTeamService(docs, slugResolver, logger)
	rosterService := services.NewRosterService(docs, logger)
	membershipService := services.NewMembershipService(docs, logger)
	mediaService := services.NewMediaService(docs, uploader, logger)
	suggestionService := services.NewSuggestionService()
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	teamHandler := handlers.NewTeamHandler(teamService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	membershipHandler := handlers.NewMembershipHandler(membershipService)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, boardManager, teamService, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		[]byte(cfg.JWTSecretKey),
		teamHandler,
		rosterHandler,
		membershipHandler,
		mediaHandler,
		suggestionHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Планировщик чистки просроченных приглашений
	group.Go(func() error {
		ticker := time.NewTicker(invitePurgeInterval)
		defer ticker.Stop()
		logger.Info("invite purge scheduler started", slog.Duration("interval", invitePurgeInterval))

		// Первый проход сразу при старте, дальше по тикеру.
		if purged, err := membershipService.PurgeExpiredInvites(groupCtx); err != nil {
			logger.Error("scheduler: initial invite purge failed", slog.Any("error", err))
		} else if purged > 0 {
			logger.Info("scheduler: purged expired invites", slog.Int("count", purged))
		}

		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if purged, err := membershipService.PurgeExpiredInvites(groupCtx); err != nil {
					logger.Error("scheduler: invite purge failed", slog.Any("error", err))
				} else if purged > 0 {
					logger.Info("scheduler: purged expired invites", slog.Int("count", purged))
				}
			}
		}
	})

	// Остановка сервера по сигналу или первой фатальной ошибке группы
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}

		// Доски закрываем после сервера: Close дожидается записей позиций
		// в полете, чтобы не потерять последнее перетаскивание.
		boardManager.CloseAll()
		wsHub.Stop()
		logger.Info("server shutdown complete")
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
