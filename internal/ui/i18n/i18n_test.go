package i18n

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept string
		want   string
	}{
		{"es-AR,es;q=0.9", "es"},
		{"en-US,en;q=0.8", "en"},
		{"ru-RU", "es"},
		{"fr;q=0.9, en;q=0.5", "en"},
	}
	for _, tt := range tests {
		if got := MatchLanguage(tt.accept); got != tt.want {
			t.Errorf("MatchLanguage(%q) = %q, ожидается %q", tt.accept, got, tt.want)
		}
	}
}

func TestMiddleware_DetectsLanguage(t *testing.T) {
	var got string
	h := Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = LangFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		cookie string
		accept string
		want   string
	}{
		{"по умолчанию", "", "", "es"},
		{"Accept-Language", "", "en-GB", "en"},
		{"cookie важнее заголовка", "es", "en-GB", "es"},
		{"неизвестный cookie", "ru", "en", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("язык = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestBundle_Fallback(t *testing.T) {
	b := NewBundle(nil)
	if err := b.LoadMessages("es", []byte(`{"a":"uno","b":"dos %d"}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadMessages("en", []byte(`{"a":"one"}`)); err != nil {
		t.Fatal(err)
	}

	if got := b.Translate("en", "a"); got != "one" {
		t.Errorf("Translate(en, a) = %q", got)
	}
	if got := b.Translate("en", "b"); got != "dos %d" {
		t.Errorf("нет ключа в en: ожидается испанский, получено %q", got)
	}
	if got := b.Translate("en", "nope"); got != "nope" {
		t.Errorf("неизвестный ключ = %q", got)
	}
	if got := b.Translatef("es", "b", 2); got != "dos 2" {
		t.Errorf("Translatef = %q", got)
	}
	if err := b.LoadMessages("xx", []byte(`{`)); err == nil {
		t.Error("ожидалась ошибка парсинга")
	}
}

// TestLocales_SameKeys проверяет, что каталоги содержат одинаковые ключи.
func TestLocales_SameKeys(t *testing.T) {
	load := func(lang string) map[string]string {
		data, err := LocaleFS.ReadFile("locales/" + lang + ".json")
		if err != nil {
			t.Fatalf("чтение каталога %s: %v", lang, err)
		}
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("каталог %s: %v", lang, err)
		}
		return m
	}
	es, en := load("es"), load("en")
	for k := range es {
		if _, ok := en[k]; !ok {
			t.Errorf("ключ %q отсутствует в en", k)
		}
	}
	for k := range en {
		if _, ok := es[k]; !ok {
			t.Errorf("ключ %q отсутствует в es", k)
		}
	}
}
