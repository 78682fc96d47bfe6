// Пакет handlers — HTTP-обработчики веб-интерфейса expedientes.
// Формы отправляются обычным POST; успешное изменение завершается
// редиректом, ошибка — повторным рендером страницы с сообщением.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
	"github.com/bigkaa/expedientes/internal/ui/pages"
)

// CaseFiles — операции над expedientes, нужные экранам.
// Реализуется service.CaseFileService.
type CaseFiles interface {
	List(ctx context.Context, includeInactive bool) ([]model.CaseFileRow, error)
	Detail(ctx context.Context, id string) (detail.View, error)
	SetStatusTag(ctx context.Context, id, tag, actor string) error
	SetProcedureType(ctx context.Context, id, procedure, actor string) error
	SetResolution(ctx context.Context, id, text, actor string) error
	SetBuildings(ctx context.Context, id string, buildingIDs []string, actor string) error
	SoftDelete(ctx context.Context, id, actor string) error
	AppendHistory(ctx context.Context, id string, in detail.HistoryInput, actor string) (*model.HistoryEntry, error)
	Create(ctx context.Context, in service.NewCaseFileInput, actor string) (*model.CaseFile, error)
}

// Buildings — операции справочника зданий.
// Реализуется service.BuildingService.
type Buildings interface {
	List(ctx context.Context, includeInactive bool) ([]model.Building, error)
	ActiveOptions(ctx context.Context) ([]model.Building, error)
	Create(ctx context.Context, name string) (*model.Building, error)
	Rename(ctx context.Context, id, name string) error
	SetActive(ctx context.Context, id string, active bool) error
}

// render отдаёт страницу с кодом status.
func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// base заполняет каркас страницы данными сессии и языком запроса.
func base(r *http.Request, nav string) pages.Base {
	b := pages.Base{Lang: i18n.LangFromContext(r.Context()), Nav: nav}
	if s := uimiddleware.SessionFromContext(r.Context()); s != nil {
		b.User = s.DisplayName()
	}
	return b
}

// actor — email текущего пользователя для last_modified_by.
func actor(r *http.Request) string {
	if s := uimiddleware.SessionFromContext(r.Context()); s != nil {
		return s.Email
	}
	return ""
}

// notFound отдаёт терминальную страницу «не найдено».
func notFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	render(w, r, logger, http.StatusNotFound, pages.NotFound(base(r, "")))
}

// errorStatus подбирает HTTP-код и текст для ошибки сервиса.
// Ошибка хранилища показывается у поля как есть, с пометкой.
func errorStatus(r *http.Request, err error) (int, string) {
	var pf *service.PartialFailureError
	switch {
	case errors.As(err, &pf):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, i18n.T(r.Context(), "notfound.title")
	default:
		return http.StatusInternalServerError, i18n.T(r.Context(), "error.backend") + ": " + err.Error()
	}
}

// safeReturn принимает только локальный путь, иначе возвращает def.
func safeReturn(target, def string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return def
	}
	return target
}
