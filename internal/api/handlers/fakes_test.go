package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/expedientes/internal/api/middleware"
	"github.com/bigkaa/expedientes/internal/domain/detail"
	"github.com/bigkaa/expedientes/internal/domain/listing"
	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/service"
)

type fakeCaseFiles struct {
	rows    []model.CaseFileRow
	history map[string][]model.HistoryEntry
	err     error

	tags     map[string]string
	deleted  []string
	appended []detail.HistoryInput
	actors   []string
}

func (f *fakeCaseFiles) ListView(_ context.Context, state listing.State, includeInactive bool) (listing.View, error) {
	if f.err != nil {
		return listing.View{State: state}, f.err
	}
	var out []model.CaseFileRow
	for _, r := range f.rows {
		if r.Active || includeInactive {
			out = append(out, r)
		}
	}
	return listing.Build(out, state), nil
}

func (f *fakeCaseFiles) find(id string) (*model.CaseFile, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			return &f.rows[i].CaseFile, nil
		}
	}
	return nil, service.ErrNotFound
}

func (f *fakeCaseFiles) Detail(_ context.Context, id string) (detail.View, error) {
	if f.err != nil {
		return detail.View{}, f.err
	}
	cf, err := f.find(id)
	if err != nil {
		return detail.View{}, err
	}
	return detail.Build(*cf, f.history[id]), nil
}

func (f *fakeCaseFiles) SetStatusTag(_ context.Context, id, tag, actor string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := f.find(id); err != nil {
		return err
	}
	if tag != "" && !model.IsValidStatusTag(tag) {
		return &service.ValidationError{Message: "Etiqueta inválida"}
	}
	if f.tags == nil {
		f.tags = make(map[string]string)
	}
	f.tags[id] = tag
	f.actors = append(f.actors, actor)
	return nil
}

func (f *fakeCaseFiles) SoftDelete(_ context.Context, id, actor string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := f.find(id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	f.actors = append(f.actors, actor)
	return nil
}

func (f *fakeCaseFiles) AppendHistory(_ context.Context, id string, in detail.HistoryInput, actor string) (*model.HistoryEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := f.find(id); err != nil {
		return nil, err
	}
	entry, err := in.Validate()
	if err != nil {
		return nil, &service.ValidationError{Message: err.Error()}
	}
	f.appended = append(f.appended, in)
	f.actors = append(f.actors, actor)
	return &model.HistoryEntry{
		ID:                "h-new",
		CaseFileID:        id,
		Date:              &entry.Date,
		Description:       &entry.Description,
		SentTo:            entry.SentTo,
		CurrentDepartment: entry.CurrentDepartment,
		LastModifiedBy:    model.NilIfBlank(actor),
		CreatedAt:         time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

type fakeBuildings struct {
	rows []model.Building
	err  error
}

func (f *fakeBuildings) List(_ context.Context, includeInactive bool) ([]model.Building, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Building
	for _, b := range f.rows {
		if b.Active || includeInactive {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeAuthenticator struct {
	user *model.User
	err  error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, email, password string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil || email != f.user.Email || password != "correcta" {
		return nil, service.ErrInvalidCredentials
	}
	return f.user, nil
}

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(u *model.User) (string, int, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	return "token-" + u.ID, 3600, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI(cf *fakeCaseFiles, b *fakeBuildings, users *fakeAuthenticator, tokens *fakeIssuer) *APIHandler {
	if cf == nil {
		cf = &fakeCaseFiles{}
	}
	if b == nil {
		b = &fakeBuildings{}
	}
	if users == nil {
		users = &fakeAuthenticator{}
	}
	if tokens == nil {
		tokens = &fakeIssuer{}
	}
	return NewAPIHandler(NewHealthHandler(nil), cf, b, users, tokens, testLogger())
}

func caseRow(id, code string, active bool) model.CaseFileRow {
	return model.CaseFileRow{CaseFile: model.CaseFile{ID: id, ExpteCode: code, Active: active}}
}

func strPtr(s string) *string { return &s }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// withID добавляет параметр маршрута {id}.
func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withActor помещает claims автора в контекст, как это делает JWT middleware.
func withActor(r *http.Request, email string) *http.Request {
	claims := &middleware.AuthClaims{Email: email}
	return r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyClaims, claims))
}
