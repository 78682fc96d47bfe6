// auth.go — вход по email и паролю, выход.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/auth"
	"github.com/bigkaa/expedientes/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
	"github.com/bigkaa/expedientes/internal/ui/pages"
)

// Authenticator проверяет учётные данные. Реализуется service.UserService.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// AuthHandler — обработчики входа и выхода.
type AuthHandler struct {
	users          Authenticator
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(users Authenticator, sessionManager *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:          users,
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui.auth")),
	}
}

// HandleLoginPage — GET /login.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.Login(pages.LoginData{Base: base(r, "")}))
}

// HandleLogin — POST /login. При успехе ставит cookie сессии
// и перенаправляет на список expedientes.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := pages.LoginData{Base: base(r, ""), Email: email}

	user, err := h.users.Authenticate(r.Context(), email, password)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, service.ErrInvalidCredentials) {
			data.Error = i18n.T(r.Context(), "login.invalid")
		} else {
			h.logger.Error("Ошибка аутентификации", slog.String("error", err.Error()))
			status = http.StatusInternalServerError
			data.Error = i18n.T(r.Context(), "error.internal")
		}
		render(w, r, h.logger, status, pages.Login(data))
		return
	}

	session := h.sessionManager.NewSession(user)
	if err := h.sessionManager.SetSessionCookie(w, session); err != nil {
		h.logger.Error("Ошибка установки session cookie", slog.String("error", err.Error()))
		data.Error = i18n.T(r.Context(), "error.internal")
		render(w, r, h.logger, http.StatusInternalServerError, pages.Login(data))
		return
	}

	h.logger.Info("Пользователь вошёл", slog.String("email", user.Email))
	http.Redirect(w, r, uimiddleware.HomePath, http.StatusSeeOther)
}

// HandleLogout — POST /logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if s := uimiddleware.SessionFromContext(r.Context()); s != nil {
		h.logger.Info("Пользователь вышел", slog.String("email", s.Email))
	}
	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, uimiddleware.LoginPath, http.StatusSeeOther)
}
