// settings.go — экран настроек: вход в справочник зданий.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/expedientes/internal/ui/pages"
)

// SettingsHandler — экран настроек.
type SettingsHandler struct {
	logger *slog.Logger
}

// NewSettingsHandler создаёт новый SettingsHandler.
func NewSettingsHandler(logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		logger: logger.With(slog.String("component", "ui.settings")),
	}
}

// HandleSettings — GET /configuracion.
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.Settings(base(r, "settings")))
}

// HandleNotFound — неизвестный адрес внутри интерфейса.
func (h *SettingsHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	notFound(w, r, h.logger)
}
