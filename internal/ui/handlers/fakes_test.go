package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
	"github.com/bigkaa/expedientes/internal/ui/auth"
	uimiddleware "github.com/bigkaa/expedientes/internal/ui/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// fakeCaseFiles — CaseFiles в памяти.
type fakeCaseFiles struct {
	rows    []model.CaseFileRow
	history map[string][]model.HistoryEntry

	// err возвращается всеми изменяющими операциями
	err     error
	partial bool

	deleted   []string
	tags      map[string]string
	resolved  map[string]string
	buildings map[string][]string
	created   []service.NewCaseFileInput
	appended  []detail.HistoryInput
}

func newFakeCaseFiles(rows ...model.CaseFileRow) *fakeCaseFiles {
	return &fakeCaseFiles{
		rows:      rows,
		history:   map[string][]model.HistoryEntry{},
		tags:      map[string]string{},
		resolved:  map[string]string{},
		buildings: map[string][]string{},
	}
}

func (f *fakeCaseFiles) find(id string) *model.CaseFileRow {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i]
		}
	}
	return nil
}

func (f *fakeCaseFiles) List(_ context.Context, includeInactive bool) ([]model.CaseFileRow, error) {
	var out []model.CaseFileRow
	for _, r := range f.rows {
		if r.Active || includeInactive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCaseFiles) Detail(_ context.Context, id string) (detail.View, error) {
	r := f.find(id)
	if r == nil {
		return detail.View{}, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}
	return detail.Build(r.CaseFile, f.history[id]), nil
}

func (f *fakeCaseFiles) SetStatusTag(_ context.Context, id, tag, _ string) error {
	if f.err != nil {
		return f.err
	}
	if f.find(id) == nil {
		return service.ErrNotFound
	}
	f.tags[id] = tag
	return nil
}

func (f *fakeCaseFiles) SetProcedureType(_ context.Context, id, _, _ string) error {
	if f.find(id) == nil {
		return service.ErrNotFound
	}
	return f.err
}

func (f *fakeCaseFiles) SetResolution(_ context.Context, id, text, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.resolved[id] = text
	return nil
}

func (f *fakeCaseFiles) SetBuildings(_ context.Context, id string, ids []string, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.buildings[id] = ids
	return nil
}

func (f *fakeCaseFiles) SoftDelete(_ context.Context, id, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	if r := f.find(id); r != nil {
		r.Active = false
	}
	return nil
}

func (f *fakeCaseFiles) AppendHistory(_ context.Context, id string, in detail.HistoryInput, _ string) (*model.HistoryEntry, error) {
	if _, err := in.Validate(); err != nil {
		return nil, &service.ValidationError{Message: err.Error()}
	}
	f.appended = append(f.appended, in)
	return &model.HistoryEntry{ID: "h-new", CaseFileID: id}, nil
}

func (f *fakeCaseFiles) Create(_ context.Context, in service.NewCaseFileInput, _ string) (*model.CaseFile, error) {
	cf, err := in.Validate()
	if err != nil {
		return nil, err
	}
	f.created = append(f.created, in)
	cf.ID = "cf-new"
	if f.partial {
		return cf, &service.PartialFailureError{CaseFileID: cf.ID, Err: fmt.Errorf("fallo de enlace")}
	}
	return cf, nil
}

// fakeBuildings — Buildings в памяти.
type fakeBuildings struct {
	rows    []model.Building
	err     error
	created []string
}

func (f *fakeBuildings) List(_ context.Context, includeInactive bool) ([]model.Building, error) {
	var out []model.Building
	for _, b := range f.rows {
		if b.Active || includeInactive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBuildings) ActiveOptions(ctx context.Context) ([]model.Building, error) {
	return f.List(ctx, false)
}

func (f *fakeBuildings) Create(_ context.Context, name string) (*model.Building, error) {
	if f.err != nil {
		return nil, f.err
	}
	b := model.Building{ID: "b-" + strings.ToLower(strings.ReplaceAll(name, " ", "-")), Name: strings.TrimSpace(name), Active: true}
	f.rows = append(f.rows, b)
	f.created = append(f.created, name)
	return &b, nil
}

func (f *fakeBuildings) Rename(_ context.Context, id, name string) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Name = name
			return nil
		}
	}
	return service.ErrNotFound
}

func (f *fakeBuildings) SetActive(_ context.Context, id string, active bool) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Active = active
			return nil
		}
	}
	return service.ErrNotFound
}

// caseRow создаёт активную строку списка.
func caseRow(id, code string, year int) model.CaseFileRow {
	return model.CaseFileRow{CaseFile: model.CaseFile{
		ID:        id,
		ExpteCode: code,
		Year:      intPtr(year),
		Active:    true,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
}

// withSession добавляет в запрос сессию пользователя.
func withSession(r *http.Request) *http.Request {
	s := &auth.SessionData{UserID: "u1", Email: "ana@example.com", Name: "Ana", ExpiresAt: time.Now().Add(time.Hour).Unix()}
	return r.WithContext(uimiddleware.WithSession(r.Context(), s))
}

// withID подставляет параметр маршрута chi {id}.
func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
