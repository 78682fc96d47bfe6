// language.go — обработчик переключения языка UI.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/bigkaa/expedientes/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
)

// HandleSetLanguage обрабатывает POST /idioma.
// Устанавливает cookie "lang" и перенаправляет обратно.
// Параметр lang: "es" или "en" (из query или form).
func HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if !i18n.IsSupported(lang) {
		lang = i18n.DefaultLang
	}

	// Устанавливаем cookie "lang" на 1 год
	http.SetCookie(w, &http.Cookie{
		Name:     i18n.LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
	})

	http.Redirect(w, r, refererPath(r), http.StatusSeeOther)
}

// refererPath возвращает локальную часть Referer или домашнюю страницу.
func refererPath(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return uimiddleware.HomePath
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return uimiddleware.HomePath
	}
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return safeReturn(target, uimiddleware.HomePath)
}
