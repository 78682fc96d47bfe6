package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bigkaa/expedientes/internal/domain/model"
	"github.com/bigkaa/expedientes/internal/repository"
)

// store — общее in-memory хранилище для фейковых репозиториев.
type store struct {
	mu        sync.Mutex
	clock     time.Time
	caseFiles map[string]*model.CaseFile
	links     map[string][]string
	history   []model.HistoryEntry
	buildings map[string]*model.Building
	users     map[string]*model.User

	// Ошибки, внедряемые тестами
	linkErr   error
	listErr   error
	createErr error
	writes    int
}

func newStore() *store {
	return &store{
		clock:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		caseFiles: map[string]*model.CaseFile{},
		links:     map[string][]string{},
		buildings: map[string]*model.Building{},
		users:     map[string]*model.User{},
	}
}

// tick возвращает монотонно растущее время вставки.
func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *store) repos() repository.Repos {
	return repository.Repos{
		CaseFiles: &fakeCaseFiles{s},
		Links:     &fakeLinks{s},
		History:   &fakeHistory{s},
		Buildings: &fakeBuildings{s},
		Users:     &fakeUsers{s},
	}
}

// InTx — транзакция без отката; достаточно для проверки вызовов.
func (s *store) InTx(_ context.Context, fn func(repository.Repos) error) error {
	return fn(s.repos())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- case files ---

type fakeCaseFiles struct{ s *store }

func (f *fakeCaseFiles) Create(_ context.Context, cf *model.CaseFile) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return f.s.createErr
	}
	f.s.writes++
	cf.CreatedAt = f.s.tick()
	cp := *cf
	f.s.caseFiles[cf.ID] = &cp
	return nil
}

func (f *fakeCaseFiles) GetByID(_ context.Context, id string) (*model.CaseFile, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cf, ok := f.s.caseFiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *cf
	cp.Buildings = nil
	for _, bid := range f.s.links[id] {
		name := ""
		if b, ok := f.s.buildings[bid]; ok {
			name = b.Name
		}
		cp.Buildings = append(cp.Buildings, model.BuildingRef{ID: bid, Name: name})
	}
	return &cp, nil
}

func (f *fakeCaseFiles) ListWithLatest(ctx context.Context, includeInactive bool) ([]model.CaseFileRow, error) {
	if f.s.listErr != nil {
		return nil, f.s.listErr
	}
	f.s.mu.Lock()
	var ids []string
	for id, cf := range f.s.caseFiles {
		if includeInactive || cf.Active {
			ids = append(ids, id)
		}
	}
	f.s.mu.Unlock()

	var rows []model.CaseFileRow
	for _, id := range ids {
		cf, _ := f.GetByID(ctx, id)
		row := model.CaseFileRow{CaseFile: *cf}
		if latest, err := (&fakeHistory{f.s}).Latest(ctx, id); err == nil {
			row.Latest = latest
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

func (f *fakeCaseFiles) UpdateField(_ context.Context, id string, field repository.CaseFileField, value *string, by string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cf, ok := f.s.caseFiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.s.writes++
	switch field {
	case repository.FieldStatusTag:
		cf.StatusTag = value
	case repository.FieldProcedureType:
		cf.ProcedureType = value
	case repository.FieldResolution:
		cf.Resolution = value
	case repository.FieldBuilding:
		cf.Building = value
	default:
		return errors.New("недопустимое поле")
	}
	cf.LastModifiedBy = &by
	return nil
}

func (f *fakeCaseFiles) Touch(_ context.Context, id, by string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cf, ok := f.s.caseFiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	cf.LastModifiedBy = &by
	return nil
}

func (f *fakeCaseFiles) SoftDelete(_ context.Context, id, by string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cf, ok := f.s.caseFiles[id]
	if !ok {
		return repository.ErrNotFound
	}
	if cf.Active {
		cf.Active = false
		cf.LastModifiedBy = &by
	}
	return nil
}

// --- links ---

type fakeLinks struct{ s *store }

func (f *fakeLinks) Add(_ context.Context, caseFileID string, ids []string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.linkErr != nil {
		return f.s.linkErr
	}
	f.s.links[caseFileID] = append(f.s.links[caseFileID], ids...)
	return nil
}

func (f *fakeLinks) Replace(ctx context.Context, caseFileID string, ids []string) error {
	f.s.mu.Lock()
	delete(f.s.links, caseFileID)
	f.s.mu.Unlock()
	return f.Add(ctx, caseFileID, ids)
}

// --- history ---

type fakeHistory struct{ s *store }

func (f *fakeHistory) Append(_ context.Context, e *model.HistoryEntry) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.caseFiles[e.CaseFileID]; !ok {
		return repository.ErrNotFound
	}
	e.CreatedAt = f.s.tick()
	f.s.history = append(f.s.history, *e)
	return nil
}

func (f *fakeHistory) ListByCaseFile(_ context.Context, id string) ([]model.HistoryEntry, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []model.HistoryEntry
	for _, e := range f.s.history {
		if e.CaseFileID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeHistory) Latest(ctx context.Context, id string) (*model.HistoryEntry, error) {
	entries, _ := f.ListByCaseFile(ctx, id)
	if len(entries) == 0 {
		return nil, repository.ErrNotFound
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.CreatedAt.After(latest.CreatedAt) || (e.CreatedAt.Equal(latest.CreatedAt) && e.ID > latest.ID) {
			latest = e
		}
	}
	return &latest, nil
}

// --- buildings ---

type fakeBuildings struct{ s *store }

func (f *fakeBuildings) Create(_ context.Context, b *model.Building) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.writes++
	b.CreatedAt = f.s.tick()
	cp := *b
	f.s.buildings[b.ID] = &cp
	return nil
}

func (f *fakeBuildings) GetByID(_ context.Context, id string) (*model.Building, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.buildings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBuildings) List(_ context.Context, includeInactive bool) ([]model.Building, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.listErr != nil {
		return nil, f.s.listErr
	}
	var out []model.Building
	for _, b := range f.s.buildings {
		if includeInactive || b.Active {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeBuildings) Rename(_ context.Context, id, name string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.buildings[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.s.writes++
	b.Name = name
	return nil
}

func (f *fakeBuildings) SetActive(_ context.Context, id string, active bool) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	b, ok := f.s.buildings[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.s.writes++
	b.Active = active
	return nil
}

// --- users ---

type fakeUsers struct{ s *store }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	cp := *u
	f.s.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
