package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// StationsHandler handles station and person endpoints.
type StationsHandler struct {
	DB *sql.DB
}

// List handles GET /api/stations.
func (h *StationsHandler) List(w http.ResponseWriter, r *http.Request) {
	stations, err := store.ListStations(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list stations")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(stations))
}

// Create handles POST /api/stations.
func (h *StationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if model.NormalizeName(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	s, err := store.CreateStation(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create station")
		return
	}

	slog.Info("station created", "user", actorFrom(r).Username, "station", s.Name, "id", s.ID)
	jsonResponse(w, http.StatusCreated, s)
}

// Update handles PUT /api/stations/{id}.
func (h *StationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid station id")
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateStation(r.Context(), h.DB, id, req.Name); err != nil {
		storeError(w, err, "failed to update station")
		return
	}

	s, _ := store.GetStation(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, s)
}

// Delete handles DELETE /api/stations/{id}.
func (h *StationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid station id")
		return
	}

	if err := store.DeleteStation(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete station")
		return
	}

	slog.Info("station deleted", "user", actorFrom(r).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "station deleted"})
}

// Persons handles GET /api/persons.
func (h *StationsHandler) Persons(w http.ResponseWriter, r *http.Request) {
	names, err := store.ListPersonNames(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list persons")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(names))
}
