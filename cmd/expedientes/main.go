// Точка входа expedientes — веб-интерфейс учёта expedientes и JSON API.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт репозитории, сервисы и обработчики, запускает мониторинг
// зависимостей и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/expedientes/internal/api/handlers"
	"github.com/bigkaa/expedientes/internal/api/middleware"
	"github.com/bigkaa/expedientes/internal/config"
	"github.com/bigkaa/expedientes/internal/database"
	"github.com/bigkaa/expedientes/internal/repository"
	"github.com/bigkaa/expedientes/internal/server"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/auth"
	uihandlers "github.com/bigkaa/expedientes/internal/ui/handlers"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("expedientes запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if cfg.SessionKey == "" {
		logger.Warn("EX_SESSION_KEY не задан, UI-сессии не сохраняются между рестартами")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	repos := repository.NewRepos(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Services
	buildingCache := service.NewBuildingOptionsCache(cfg.BuildingCacheSize, cfg.BuildingCacheTTL)
	caseFilesSvc := service.NewCaseFileService(repos, txRunner, logger)
	buildingsSvc := service.NewBuildingService(repos.Buildings, buildingCache, logger)
	usersSvc := service.NewUserService(repos.Users, logger)

	// 7. JWT для API
	jwtAuth, err := middleware.NewJWTAuth(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, logger)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 8. API handler
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		caseFilesSvc,
		buildingsSvc,
		usersSvc,
		jwtAuth,
		logger,
	)

	// 9. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, err := service.NewDephealthService(
		"expedientes",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", err.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Веб-интерфейс
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sessionMgr, err := auth.NewSessionManager(cfg.SessionKey, cfg.CookieSecure, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Manager", slog.String("error", err.Error()))
		os.Exit(1)
	}

	uiComponents := &server.UIComponents{
		AuthHandler:      uihandlers.NewAuthHandler(usersSvc, sessionMgr, logger),
		AuthMiddleware:   uimiddleware.NewUIAuth(sessionMgr, logger),
		CaseFilesHandler: uihandlers.NewCaseFilesHandler(caseFilesSvc, logger),
		DetailHandler:    uihandlers.NewDetailHandler(caseFilesSvc, buildingsSvc, logger),
		NewHandler:       uihandlers.NewNewCaseFileHandler(caseFilesSvc, buildingsSvc, logger),
		BuildingsHandler: uihandlers.NewBuildingsHandler(buildingsSvc, logger),
		SettingsHandler:  uihandlers.NewSettingsHandler(logger),
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, jwtAuth, uiComponents)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("expedientes остановлен")
}
