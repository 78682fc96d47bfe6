package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
)

func buildingsFixture() (*fakeBuildings, *BuildingsHandler) {
	b := &fakeBuildings{rows: []model.Building{
		{ID: "b-1", Name: "Palacio", Active: true},
		{ID: "b-2", Name: "Anexo", Active: false},
	}}
	return b, NewBuildingsHandler(b, testLogger())
}

func TestBuildingsList_FilterAndEdit(t *testing.T) {
	_, h := buildingsFixture()

	w := httptest.NewRecorder()
	h.HandleList(w, withSession(httptest.NewRequest(http.MethodGet, "/edificios?editar=b-1", nil)))

	body := w.Body.String()
	if strings.Contains(body, "Anexo") {
		t.Error("выключенное здание показано без inactivos")
	}
	if !strings.Contains(body, `action="/edificios/b-1/renombrar"`) {
		t.Error("не открыта форма переименования")
	}

	w = httptest.NewRecorder()
	h.HandleList(w, withSession(httptest.NewRequest(http.MethodGet, "/edificios?inactivos=1", nil)))
	if !strings.Contains(w.Body.String(), "Anexo") {
		t.Error("выключенное здание не показано с inactivos")
	}
}

func TestBuildingsCreate(t *testing.T) {
	t.Run("успех", func(t *testing.T) {
		b, h := buildingsFixture()

		w := httptest.NewRecorder()
		h.HandleCreate(w, withSession(postForm("/edificios", url.Values{"nombre": {"Torre"}, "volver": {"/edificios?q=t"}})))

		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/edificios?q=t" {
			t.Errorf("ответ %d → %q", w.Code, w.Header().Get("Location"))
		}
		if len(b.created) != 1 {
			t.Error("здание не создано")
		}
	})

	t.Run("дубликат", func(t *testing.T) {
		b, h := buildingsFixture()
		b.err = &service.ConflictError{ExistingID: "b-1", Message: "Ya existe un edificio activo con ese nombre."}

		w := httptest.NewRecorder()
		h.HandleCreate(w, withSession(postForm("/edificios", url.Values{"nombre": {"palacio"}})))

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("код = %d, ожидается 422", w.Code)
		}
		body := w.Body.String()
		if !strings.Contains(body, "Ya existe un edificio activo") || !strings.Contains(body, `value="palacio"`) {
			t.Error("нет ошибки или введённого имени")
		}
	})
}

func TestBuildingsRename_Error(t *testing.T) {
	b, h := buildingsFixture()
	b.err = &service.ValidationError{Message: "El nombre no puede estar vacío."}

	w := httptest.NewRecorder()
	req := postForm("/edificios/b-1/renombrar", url.Values{"nombre": {" "}})
	h.HandleRename(w, withID(withSession(req), "b-1"))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("код = %d, ожидается 422", w.Code)
	}
	if !strings.Contains(w.Body.String(), "El nombre no puede estar vacío.") {
		t.Error("нет сообщения об ошибке")
	}
}

func TestBuildingsSetActive(t *testing.T) {
	b, h := buildingsFixture()

	w := httptest.NewRecorder()
	req := postForm("/edificios/b-2/activo", url.Values{"activo": {"true"}})
	h.HandleSetActive(w, withID(withSession(req), "b-2"))
	if w.Code != http.StatusSeeOther || !b.rows[1].Active {
		t.Errorf("здание не включено (код %d)", w.Code)
	}

	w = httptest.NewRecorder()
	req = postForm("/edificios/b-2/activo", url.Values{"activo": {"quizás"}})
	h.HandleSetActive(w, withID(withSession(req), "b-2"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("код = %d, ожидается 400", w.Code)
	}

	w = httptest.NewRecorder()
	h.HandleDelete(w, withID(withSession(postForm("/edificios/b-1/eliminar", nil)), "b-1"))
	if w.Code != http.StatusSeeOther || b.rows[0].Active {
		t.Errorf("здание не выключено (код %d)", w.Code)
	}
}
