// auth.go — выпуск и проверка bearer-токенов JSON API.
// Токены подписываются HS256 общим секретом сервиса; subject — ID
// пользователя, email передаётся отдельным claim.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/bigkaa/expedientes/internal/api/errors"
	"github.com/bigkaa/expedientes/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyClaims — извлечённые claims в контексте запроса.
	ContextKeyClaims contextKey = "jwt_claims"
)

// AuthClaims — claims API-токена, помещаются в контекст запроса.
type AuthClaims struct {
	jwt.RegisteredClaims
	// Email — автор изменений (last_modified_by).
	Email string `json:"email"`
	// Name — отображаемое имя.
	Name string `json:"name,omitempty"`
}

// JWTAuth — выпуск и проверка HS256-токенов.
type JWTAuth struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewJWTAuth создаёт JWTAuth. secret — общий секрет HS256, ttl — время
// жизни выпускаемых токенов.
func NewJWTAuth(secret, issuer string, ttl time.Duration, logger *slog.Logger) (*JWTAuth, error) {
	if secret == "" {
		return nil, errors.New("пустой секрет JWT")
	}
	return &JWTAuth{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		leeway: 30 * time.Second,
		now:    time.Now,
		logger: logger.With(slog.String("component", "jwt_auth")),
	}, nil
}

// Issue выпускает токен для пользователя. Возвращает токен и срок
// жизни в секундах.
func (j *JWTAuth) Issue(u *model.User) (string, int, error) {
	now := j.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		Email: u.Email,
		Name:  u.FullName,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", 0, fmt.Errorf("подпись токена: %w", err)
	}
	return token, int(j.ttl.Seconds()), nil
}

// Parse проверяет подпись, срок действия и issuer токена.
func (j *JWTAuth) Parse(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(j.leeway),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("невалидный токен")
	}
	if claims.Subject == "" {
		return nil, errors.New("отсутствует sub в токене")
	}
	return claims, nil
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует его и помещает claims в контекст.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Falta el encabezado Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				apierrors.Unauthorized(w, "Formato esperado: Bearer <token>")
				return
			}

			claims, err := j.Parse(parts[1])
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Token inválido o vencido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

// ActorFromContext возвращает email автора запроса или пустую строку.
func ActorFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.Email
	}
	return ""
}
