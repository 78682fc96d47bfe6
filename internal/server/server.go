// Пакет server — HTTP-сервер expedientes с graceful shutdown.
// Веб-интерфейс, JSON API v1 и служебные endpoints на одном порту.
package server

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
	chimw "github.com/go-chi/chi/v5/middleware"

	apierrors "github.com/bigkaa/expedientes/internal/api/errors"
	"github.com/bigkaa/expedientes/internal/api/handlers"
	"github.com/bigkaa/expedientes/internal/api/middleware"
	"github.com/bigkaa/expedientes/internal/config"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	uihandlers "github.com/bigkaa/expedientes/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
	"github.com/bigkaa/expedientes/internal/ui/static"
)

// UIComponents — обработчики и middleware веб-интерфейса.
type UIComponents struct {
	AuthHandler      *uihandlers.AuthHandler
	AuthMiddleware   *uimiddleware.UIAuth
	CaseFilesHandler *uihandlers.CaseFilesHandler
	DetailHandler    *uihandlers.DetailHandler
	NewHandler       *uihandlers.NewCaseFileHandler
	BuildingsHandler *uihandlers.BuildingsHandler
	SettingsHandler  *uihandlers.SettingsHandler
}

// Server — HTTP-сервер expedientes.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
// ui может быть nil (только API и служебные endpoints).
func New(cfg *config.Config, logger *slog.Logger, api *handlers.APIHandler, jwtAuth *middleware.JWTAuth, ui *UIComponents) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, api, jwtAuth, ui),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "http_server")),
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер всех маршрутов.
func NewRouter(logger *slog.Logger, api *handlers.APIHandler, jwtAuth *middleware.JWTAuth, ui *UIComponents) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Служебные endpoints без аутентификации
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)

	// JSON API v1
	router.Route("/api/v1", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			apierrors.NotFound(w, "Recurso no encontrado")
		})
		r.Post("/auth/token", api.IssueToken)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware())

			r.Get("/case-files", api.ListCaseFiles)
			r.Get("/case-files/{id}", api.GetCaseFile)
			r.Delete("/case-files/{id}", api.DeleteCaseFile)
			r.Post("/case-files/{id}/history", api.AppendHistory)
			r.Patch("/case-files/{id}/status-tag", api.SetStatusTag)
			r.Get("/buildings", api.ListBuildings)
		})
	})

	if ui != nil {
		mountUI(router, ui)
	}

	return router
}

// mountUI регистрирует маршруты веб-интерфейса.
func mountUI(router chi.Router, ui *UIComponents) {
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Group(func(r chi.Router) {
		r.Use(i18n.Middleware())

		r.Post("/idioma", uihandlers.HandleSetLanguage)

		// Публичные экраны: авторизованный пользователь уходит на список
		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.RedirectAuthenticated())
			r.Get(uimiddleware.LoginPath, ui.AuthHandler.HandleLoginPage)
			r.Post(uimiddleware.LoginPath, ui.AuthHandler.HandleLogin)
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, uimiddleware.LoginPath, http.StatusFound)
			})
		})

		// Защищённые экраны
		r.Group(func(r chi.Router) {
			r.Use(ui.AuthMiddleware.Middleware())

			r.Post("/logout", ui.AuthHandler.HandleLogout)

			r.Route("/expedientes", func(r chi.Router) {
				r.Get("/", ui.CaseFilesHandler.HandleList)
				r.Get("/imprimir", ui.CaseFilesHandler.HandlePrint)
				r.Get("/nuevo", ui.NewHandler.HandleForm)
				r.Post("/nuevo", ui.NewHandler.HandleSubmit)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", ui.DetailHandler.HandleDetail)
					r.Get("/imprimir", ui.DetailHandler.HandlePrint)
					r.Post("/etiqueta", ui.CaseFilesHandler.HandleSetTag)
					r.Post("/eliminar", ui.CaseFilesHandler.HandleDelete)
					r.Post("/estado", ui.DetailHandler.HandleSetTag)
					r.Post("/tramite", ui.DetailHandler.HandleSetProcedure)
					r.Post("/resolucion", ui.DetailHandler.HandleSetResolution)
					r.Post("/edificios", ui.DetailHandler.HandleSetBuildings)
					r.Post("/gestiones", ui.DetailHandler.HandleAppendHistory)
				})
			})

			r.Get("/configuracion", ui.SettingsHandler.HandleSettings)

			r.Route("/edificios", func(r chi.Router) {
				r.Get("/", ui.BuildingsHandler.HandleList)
				r.Post("/", ui.BuildingsHandler.HandleCreate)
				r.Post("/{id}/renombrar", ui.BuildingsHandler.HandleRename)
				r.Post("/{id}/activo", ui.BuildingsHandler.HandleSetActive)
				r.Post("/{id}/eliminar", ui.BuildingsHandler.HandleDelete)
			})
		})
	})

	// Неизвестный адрес — экран "no encontrado" для авторизованных
	router.NotFound(chi.Chain(i18n.Middleware(), ui.AuthMiddleware.Middleware()).
		HandlerFunc(ui.SettingsHandler.HandleNotFound).ServeHTTP)
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
