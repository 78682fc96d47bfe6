// buildings.go — обработчик /api/v1/buildings.
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/expedientes/internal/api/errors"
)

type buildingDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type buildingListResponse struct {
	Items []buildingDTO `json:"items"`
	Total int           `json:"total"`
}

// ListBuildings — GET /api/v1/buildings?include_inactive=true.
func (h *APIHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))

	rows, err := h.buildings.List(r.Context(), includeInactive)
	if err != nil {
		h.logger.Error("Ошибка получения зданий", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Error al cargar los edificios")
		return
	}

	items := make([]buildingDTO, 0, len(rows))
	for _, b := range rows {
		items = append(items, buildingDTO{ID: b.ID, Name: b.Name, Active: b.Active})
	}
	writeJSON(w, http.StatusOK, buildingListResponse{Items: items, Total: len(items)})
}
