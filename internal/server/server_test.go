package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/expedientes/internal/api/handlers"
	"github.com/bigkaa/expedientes/internal/api/middleware"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/auth"
	uihandlers "github.com/bigkaa/expedientes/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
)

type stubUsers struct{}

func (stubUsers) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	if email == "ana@example.com" && password == "correcta" {
		return &model.User{ID: "u1", Email: email, FullName: "Ana"}, nil
	}
	return nil, service.ErrInvalidCredentials
}

type stubBuildings struct{}

func (stubBuildings) List(context.Context, bool) ([]model.Building, error) {
	return []model.Building{{ID: "b1", Name: "Anexo", Active: true}}, nil
}

type testEnv struct {
	router http.Handler
	sm     *auth.SessionManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sm, err := auth.NewSessionManager("", false, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	jwtAuth, err := middleware.NewJWTAuth("0123456789abcdef0123", "expedientes", time.Hour, logger)
	if err != nil {
		t.Fatalf("NewJWTAuth: %v", err)
	}

	api := handlers.NewAPIHandler(handlers.NewHealthHandler(nil), nil, stubBuildings{}, stubUsers{}, jwtAuth, logger)
	ui := &UIComponents{
		AuthHandler:      uihandlers.NewAuthHandler(stubUsers{}, sm, logger),
		AuthMiddleware:   uimiddleware.NewUIAuth(sm, logger),
		CaseFilesHandler: uihandlers.NewCaseFilesHandler(nil, logger),
		DetailHandler:    uihandlers.NewDetailHandler(nil, nil, logger),
		NewHandler:       uihandlers.NewNewCaseFileHandler(nil, nil, logger),
		BuildingsHandler: uihandlers.NewBuildingsHandler(nil, logger),
		SettingsHandler:  uihandlers.NewSettingsHandler(logger),
	}
	return &testEnv{router: NewRouter(logger, api, jwtAuth, ui), sm: sm}
}

// sessionCookie выпускает cookie действующей сессии.
func (e *testEnv) sessionCookie(t *testing.T) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	data := e.sm.NewSession(&model.User{ID: "u1", Email: "ana@example.com", FullName: "Ana"})
	if err := e.sm.SetSessionCookie(rec, data); err != nil {
		t.Fatalf("SetSessionCookie: %v", err)
	}
	return rec.Result().Cookies()[0]
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Redirects(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t)

	tests := []struct {
		name     string
		path     string
		session  bool
		location string
	}{
		{"список без сессии", "/expedientes", false, "/login"},
		{"карточка без сессии", "/expedientes/abc", false, "/login"},
		{"корень без сессии", "/", false, "/login"},
		{"корень с сессией", "/", true, "/expedientes"},
		{"вход с сессией", "/login", true, "/expedientes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.session {
				req.AddCookie(cookie)
			}
			rec := env.do(req)

			if rec.Code != http.StatusFound {
				t.Fatalf("статус = %d, ожидается 302", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.location {
				t.Errorf("Location = %q, ожидается %q", loc, tt.location)
			}
		})
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/health/live", http.StatusOK},
		{"/health/ready", http.StatusServiceUnavailable},
		{"/metrics", http.StatusOK},
		{"/static/css/app.css", http.StatusOK},
		{"/login", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := env.do(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRouter_AuthenticatedScreens(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.sessionCookie(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/configuracion", http.StatusOK},
		{"/desconocido", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.AddCookie(cookie)
			rec := env.do(req)

			if rec.Code != tt.status {
				t.Errorf("статус = %d, ожидается %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRouter_APIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/buildings", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("без токена статус = %d, ожидается 401", rec.Code)
	}

	// Сессия веб-интерфейса не открывает API
	req := httptest.NewRequest(http.MethodGet, "/api/v1/buildings", nil)
	req.AddCookie(env.sessionCookie(t))
	if rec := env.do(req); rec.Code != http.StatusUnauthorized {
		t.Errorf("с cookie статус = %d, ожидается 401", rec.Code)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("неизвестный API-адрес: статус = %d, ожидается 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, ожидается application/json", ct)
	}
}

func TestRouter_TokenFlow(t *testing.T) {
	env := newTestEnv(t)

	body := `{"email":"ana@example.com","password":"correcta"}`
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("статус выпуска = %d, ожидается 200", rec.Code)
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		t.Fatalf("токен не получен: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/buildings", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec = env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d, ожидается 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Anexo") {
		t.Errorf("ответ без здания: %s", rec.Body.String())
	}
}
