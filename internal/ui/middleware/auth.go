// Пакет middleware — HTTP middleware веб-интерфейса.
// auth.go — проверка сессии (cookie) и перенаправления входа.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bigkaa/expedientes/internal/ui/auth"
)

// Адреса перенаправления.
const (
	LoginPath = "/login"
	HomePath  = "/expedientes"
)

type contextKey string

// ContextKeyUISession — данные сессии в контексте запроса.
const ContextKeyUISession contextKey = "ui_session"

// UIAuth — охрана защищённых экранов.
type UIAuth struct {
	sessionManager *auth.SessionManager
	logger         *slog.Logger
}

// NewUIAuth создаёт UIAuth.
func NewUIAuth(sessionManager *auth.SessionManager, logger *slog.Logger) *UIAuth {
	return &UIAuth{
		sessionManager: sessionManager,
		logger:         logger.With(slog.String("component", "ui_auth_middleware")),
	}
}

// session читает сессию; повреждённый или истёкший cookie очищается.
func (ua *UIAuth) session(w http.ResponseWriter, r *http.Request) *auth.SessionData {
	session, err := ua.sessionManager.GetSessionFromRequest(r)
	if err != nil {
		ua.logger.Debug("Ошибка чтения UI-сессии",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr),
		)
		ua.sessionManager.ClearSessionCookie(w)
		return nil
	}
	if session == nil {
		return nil
	}
	if session.IsExpired() {
		ua.logger.Info("Сессия истекла", slog.String("email", session.Email))
		ua.sessionManager.ClearSessionCookie(w)
		return nil
	}
	return session
}

// Middleware пропускает только запросы с действующей сессией,
// остальные перенаправляет на /login.
func (ua *UIAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := ua.session(w, r)
			if session == nil {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyUISession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated перенаправляет пользователя с действующей
// сессией на список expedientes (для /login и /).
func (ua *UIAuth) RedirectAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ua.session(w, r) != nil {
				http.Redirect(w, r, HomePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext извлекает SessionData из контекста запроса.
// nil — запрос не прошёл через UIAuth.
func SessionFromContext(ctx context.Context) *auth.SessionData {
	session, ok := ctx.Value(ContextKeyUISession).(*auth.SessionData)
	if !ok {
		return nil
	}
	return session
}

// WithSession помещает сессию в контекст (для тестов обработчиков).
func WithSession(ctx context.Context, s *auth.SessionData) context.Context {
	return context.WithValue(ctx, ContextKeyUISession, s)
}
