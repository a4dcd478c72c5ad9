package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// MarathonsHandler handles marathon endpoints and the per-marathon reports.
type MarathonsHandler struct {
	DB *sql.DB
}

type nameRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/marathons. Users see only their assigned marathons.
func (h *MarathonsHandler) List(w http.ResponseWriter, r *http.Request) {
	marathons, err := store.ListMarathonsForActor(r.Context(), h.DB, actorFrom(r))
	if err != nil {
		storeError(w, err, "failed to list marathons")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(marathons))
}

// Create handles POST /api/marathons. An existing marathon with the same name
// is returned instead of creating a duplicate.
func (h *MarathonsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if model.NormalizeName(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	m, err := store.CreateMarathon(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create marathon")
		return
	}

	slog.Info("marathon created", "user", actorFrom(r).Username, "marathon", m.Name, "id", m.ID)
	jsonResponse(w, http.StatusCreated, m)
}

// Update handles PUT /api/marathons/{id}.
func (h *MarathonsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid marathon id")
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateMarathon(r.Context(), h.DB, id, req.Name); err != nil {
		storeError(w, err, "failed to update marathon")
		return
	}

	m, _ := store.GetMarathon(r.Context(), h.DB, id)
	slog.Info("marathon renamed", "user", actorFrom(r).Username, "id", id, "name", req.Name)
	jsonResponse(w, http.StatusOK, m)
}

// Delete handles DELETE /api/marathons/{id}.
func (h *MarathonsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid marathon id")
		return
	}

	if err := store.DeleteMarathon(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete marathon")
		return
	}

	slog.Info("marathon deleted", "user", actorFrom(r).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "marathon deleted"})
}

// accessibleMarathon parses {id} and checks the caller may see that marathon.
// It writes the error response and returns false when not.
func (h *MarathonsHandler) accessibleMarathon(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid marathon id")
		return 0, false
	}

	m, err := store.GetMarathon(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get marathon")
		return 0, false
	}
	if m == nil {
		jsonError(w, http.StatusNotFound, "marathon not found")
		return 0, false
	}

	allowed, err := store.CanAccessMarathon(r.Context(), h.DB, actorFrom(r), id)
	if err != nil {
		storeError(w, err, "failed to check marathon access")
		return 0, false
	}
	if !allowed {
		jsonError(w, http.StatusForbidden, "not allowed for this marathon")
		return 0, false
	}
	return id, true
}

// Outstanding handles GET /api/marathons/{id}/outstanding[?station=].
func (h *MarathonsHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleMarathon(w, r)
	if !ok {
		return
	}

	var stationID int64
	if s := r.URL.Query().Get("station"); s != "" {
		var err error
		if stationID, err = strconv.ParseInt(s, 10, 64); err != nil || stationID <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid station id")
			return
		}
	}

	list, err := store.ListOutstanding(r.Context(), h.DB, id, stationID)
	if err != nil {
		storeError(w, err, "failed to list outstanding equipment")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(list))
}

// Summary handles GET /api/marathons/{id}/summary.
func (h *MarathonsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleMarathon(w, r)
	if !ok {
		return
	}

	summary, err := store.EquipmentSummary(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to summarise equipment")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(summary))
}

// StoreOutstanding handles GET /api/marathons/{id}/store-outstanding.
func (h *MarathonsHandler) StoreOutstanding(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleMarathon(w, r)
	if !ok {
		return
	}

	list, err := store.ListStoreOutstanding(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to list store outstanding")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(list))
}

// Transactions handles GET /api/marathons/{id}/transactions?scope=station|store.
func (h *MarathonsHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleMarathon(w, r)
	if !ok {
		return
	}

	scope := model.TransactionScope(r.URL.Query().Get("scope"))
	switch scope {
	case "":
		scope = model.ScopeStation
	case model.ScopeStation, model.ScopeStore:
	default:
		jsonError(w, http.StatusBadRequest, "scope must be station or store")
		return
	}
	if scope == model.ScopeStore && !model.RoleAtLeast(actorFrom(r).Role, model.RoleStorekeeper) {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	txs, err := store.TransactionHistory(r.Context(), h.DB, id, scope)
	if err != nil {
		storeError(w, err, "failed to list transactions")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(txs))
}

// Export handles GET /api/marathons/{id}/export.xlsx.
func (h *MarathonsHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := h.accessibleMarathon(w, r)
	if !ok {
		return
	}
	writeWorkbook(w, r, h.DB, id)
}

// writeWorkbook streams the XLSX report of a marathon.
func writeWorkbook(w http.ResponseWriter, r *http.Request, db *sql.DB, marathonID int64) {
	report, err := store.MarathonReport(r.Context(), db, marathonID)
	if err != nil {
		storeError(w, err, "failed to build report")
		return
	}
	storeReport, err := store.StoreReport(r.Context(), db, marathonID)
	if err != nil {
		storeError(w, err, "failed to build store report")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(report.Marathon)))
	if err := export.WriteMarathon(w, report, storeReport); err != nil {
		slog.Error("failed to write workbook", "marathon", marathonID, "error", err)
	}
}
