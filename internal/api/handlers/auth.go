// auth.go — выпуск bearer-токена по email и паролю.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/expedientes/internal/api/errors"
)

// tokenRequest — тело POST /api/v1/auth/token.
type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse — выпущенный токен.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// IssueToken — POST /api/v1/auth/token.
func (h *APIHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "JSON inválido: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		apierrors.ValidationError(w, "Email y contraseña son obligatorios")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if apierrors.FromService(w, err) {
			h.logger.Error("Ошибка аутентификации", slog.String("error", err.Error()))
		}
		return
	}

	token, expiresIn, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("Ошибка выпуска токена", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Error interno")
		return
	}

	h.logger.Info("Выпущен API-токен", slog.String("email", user.Email))
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	})
}
