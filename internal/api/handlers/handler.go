// handler.go — основной обработчик JSON API v1.
// Объединяет доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
)

// CaseFiles — операции над expedientes, доступные через API.
// Реализуется service.CaseFileService.
type CaseFiles interface {
	ListView(ctx context.Context, state listing.State, includeInactive bool) (listing.View, error)
	Detail(ctx context.Context, id string) (detail.View, error)
	SetStatusTag(ctx context.Context, id, tag, actor string) error
	SoftDelete(ctx context.Context, id, actor string) error
	AppendHistory(ctx context.Context, id string, in detail.HistoryInput, actor string) (*model.HistoryEntry, error)
}

// Buildings — чтение справочника зданий. Реализуется service.BuildingService.
type Buildings interface {
	List(ctx context.Context, includeInactive bool) ([]model.Building, error)
}

// Authenticator проверяет учётные данные. Реализуется service.UserService.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// TokenIssuer выпускает bearer-токены. Реализуется middleware.JWTAuth.
type TokenIssuer interface {
	Issue(u *model.User) (token string, expiresIn int, err error)
}

// APIHandler — основной обработчик API.
type APIHandler struct {
	health    *HealthHandler
	caseFiles CaseFiles
	buildings Buildings
	users     Authenticator
	tokens    TokenIssuer
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	caseFiles CaseFiles,
	buildings Buildings,
	users Authenticator,
	tokens TokenIssuer,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		caseFiles: caseFiles,
		buildings: buildings,
		users:     users,
		tokens:    tokens,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — проверка liveness (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — проверка readiness (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
