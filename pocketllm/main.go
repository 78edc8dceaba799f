package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/cache"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/controllers"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/middlewares"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/routes"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/inference"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/services/llm"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/dao"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/storage"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/telemetry"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	userDAO := dao.NewUserDAO(db.DB)
	chatDAO := dao.NewChatDAO(db.DB)

	responseCache := cache.New(
		time.Duration(cfg.CacheTTLSeconds)*time.Second,
		cfg.CacheMaxSizeBytes,
	)
	recorder := telemetry.NewRecorder(cfg.TelemetryCapacity)

	model, err := llm.NewFromConfig(llm.Config{
		Provider: cfg.LLMProvider,
		Endpoint: cfg.LLMEndpoint,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
	})
	if err != nil {
		logging.ErrorLogger.Error("llm configuration error", zap.Error(err))
		os.Exit(1)
	}
	logging.AppLogger.Info("inference provider ready", zap.String("provider", model.Name()))
	gateway := inference.New(responseCache, model, recorder)

	// Transcript archive is optional; the portal runs without it.
	var archive *storage.MinIOClient
	if cfg.MinIOEndpoint != "" {
		archive, err = storage.NewMinIOClient(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
	}

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	chatCtrl := controllers.NewChatController(chatDAO, gateway)
	adminCtrl := controllers.NewAdminController(responseCache, recorder, chatDAO, userDAO, archive)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogging)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/auth", routes.AuthRoutes(authCtrl, cfg))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/admin", routes.AdminRoutes(adminCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	// Expired cache entries get purged in the background so stats stay
	// honest even when traffic is idle.
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := responseCache.Sweep(); n > 0 {
					logging.AppLogger.Info("cache sweep", zap.Int("expired", n))
				}
			case <-sweepDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("portal listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	close(sweepDone)
	recorder.Close()
	logging.AppLogger.Info("server shutdown complete")
}
