package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// LedgerHandler handles ledger submissions and admin corrections.
type LedgerHandler struct {
	DB *sql.DB
}

type ledgerRequest struct {
	Marathon model.Ref          `json:"marathon"`
	Station  model.Ref          `json:"station"`
	Person   string             `json:"person"`
	Lines    []model.LedgerLine `json:"lines"`
}

func pathKind(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return kind, true
}

// Append handles POST /api/ledger/{kind}.
func (h *LedgerHandler) Append(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}

	var req ledgerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := actorFrom(r)
	result, err := store.AppendLedger(r.Context(), h.DB, actor, model.LedgerSubmission{
		Kind:     kind,
		Marathon: req.Marathon,
		Station:  req.Station,
		Person:   req.Person,
		Lines:    req.Lines,
	})
	if err != nil {
		slog.Warn("ledger submission rejected", "user", actor.Username, "kind", kind, "error", err)
		storeError(w, err, "failed to record submission")
		return
	}

	result.Records = emptyIfNil(result.Records)
	slog.Info("ledger submission recorded",
		"user", actor.Username,
		"kind", kind,
		"records", len(result.Records),
		"skipped", result.Skipped,
	)
	jsonResponse(w, http.StatusCreated, result)
}

// UpdateRecord handles PUT /api/records/{kind}/{id}.
func (h *LedgerHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req store.RecordUpdate
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateRecord(r.Context(), h.DB, kind, id, req); err != nil {
		storeError(w, err, "failed to update record")
		return
	}

	slog.Info("ledger record corrected", "user", actorFrom(r).Username, "kind", kind, "id", id)
	rec, _ := store.GetRecord(r.Context(), h.DB, kind, id)
	jsonResponse(w, http.StatusOK, rec)
}

// DeleteRecord handles DELETE /api/records/{kind}/{id}.
func (h *LedgerHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	kind, ok := pathKind(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	if err := store.DeleteRecord(r.Context(), h.DB, kind, id); err != nil {
		storeError(w, err, "failed to delete record")
		return
	}

	slog.Info("ledger record deleted", "user", actorFrom(r).Username, "kind", kind, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "record deleted"})
}
