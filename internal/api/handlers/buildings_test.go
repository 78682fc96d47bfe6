package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bigkaa/expedientes/internal/domain/model"
)

func TestListBuildings(t *testing.T) {
	b := &fakeBuildings{rows: []model.Building{
		{ID: "b1", Name: "Anexo", Active: true},
		{ID: "b2", Name: "Depósito", Active: false},
	}}
	h := newTestAPI(nil, b, nil, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?include_inactive=true", 2},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ListBuildings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/buildings"+tt.query, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("статус = %d, ожидается 200", rec.Code)
		}
		resp := decode[buildingListResponse](t, rec)
		if resp.Total != tt.want || len(resp.Items) != tt.want {
			t.Errorf("%q: total = %d, ожидается %d", tt.query, resp.Total, tt.want)
		}
	}
}

func TestListBuildings_Error(t *testing.T) {
	h := newTestAPI(nil, &fakeBuildings{err: errors.New("db down")}, nil, nil)
	rec := httptest.NewRecorder()
	h.ListBuildings(rec, httptest.NewRequest(http.MethodGet, "/api/v1/buildings", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("статус = %d, ожидается 500", rec.Code)
	}
}
