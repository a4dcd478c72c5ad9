package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

func optionalID(value string) *int64 {
	id := formID(value)
	if id == 0 {
		return nil
	}
	return &id
}

// recordPath parses {kind} and {id} and enforces the admin role.
func recordPath(w http.ResponseWriter, r *http.Request) (model.Kind, int64, bool) {
	if !requireRole(w, r, model.RoleAdmin) {
		return "", 0, false
	}
	kind, err := model.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.NotFound(w, r)
		return "", 0, false
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return "", 0, false
	}
	return kind, id, true
}

func recordReturnPath(rec *model.Record) string {
	if rec == nil || rec.MarathonID == nil {
		return "/"
	}
	target := "/report"
	if rec.Kind.IsStore() {
		target = "/reconciliation"
	}
	return fmt.Sprintf("%s?marathon=%d", target, *rec.MarathonID)
}

// RecordEditPage handles GET /records/{kind}/{id} (admin).
func (s *Server) RecordEditPage(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := recordPath(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	rec, err := store.GetRecord(ctx, s.DB, kind, id)
	if err != nil {
		slog.Error("failed to get record", "kind", kind, "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		redirectError(w, r, "/", "That record no longer exists.")
		return
	}

	marathons, _ := store.ListMarathons(ctx, s.DB)
	stations, _ := store.ListStations(ctx, s.DB)
	equipment, _ := store.ListEquipment(ctx, s.DB)

	s.Templates.Render(w, "record_edit.html", &struct {
		PageData
		Record    *model.Record
		Back      string
		Marathons []model.Marathon
		Stations  []model.Station
		Equipment []model.Equipment
	}{
		PageData:  s.page(r, "Edit record"),
		Record:    rec,
		Back:      recordReturnPath(rec),
		Marathons: marathons,
		Stations:  stations,
		Equipment: equipment,
	})
}

// RecordUpdateSubmit handles POST /records/{kind}/{id} (admin).
func (s *Server) RecordUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := recordPath(w, r)
	if !ok {
		return
	}
	self := fmt.Sprintf("/records/%s/%d", kind, id)

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		redirectError(w, r, self, "Enter a whole number.")
		return
	}

	u := store.RecordUpdate{
		MarathonID:  optionalID(r.FormValue("marathon")),
		StationID:   optionalID(r.FormValue("station")),
		EquipmentID: formID(r.FormValue("equipment")),
		PersonName:  r.FormValue("person"),
		Quantity:    qty,
	}

	err = store.UpdateRecord(r.Context(), s.DB, kind, id, u)
	switch {
	case errors.Is(err, store.ErrInvalidQuantity):
		redirectError(w, r, self, "Quantity must be a positive number.")
		return
	case errors.Is(err, store.ErrNoEquipment):
		redirectError(w, r, self, "Choose the equipment.")
		return
	case errors.Is(err, store.ErrNotFound):
		redirectError(w, r, "/", "That record no longer exists.")
		return
	case err != nil:
		slog.Error("failed to update record", "kind", kind, "id", id, "error", err)
		redirectError(w, r, self, "Saving failed.")
		return
	}

	slog.Info("record updated", "user", webActor(r).Username, "kind", kind, "id", id)
	rec, _ := store.GetRecord(r.Context(), s.DB, kind, id)
	redirectNotice(w, r, recordReturnPath(rec), "Record saved.")
}

// RecordDeleteSubmit handles POST /records/{kind}/{id}/delete (admin).
func (s *Server) RecordDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := recordPath(w, r)
	if !ok {
		return
	}

	rec, _ := store.GetRecord(r.Context(), s.DB, kind, id)
	if err := store.DeleteRecord(r.Context(), s.DB, kind, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			redirectError(w, r, "/", "That record no longer exists.")
			return
		}
		slog.Error("failed to delete record", "kind", kind, "id", id, "error", err)
		redirectError(w, r, recordReturnPath(rec), "Deleting failed.")
		return
	}

	slog.Info("record deleted", "user", webActor(r).Username, "kind", kind, "id", id)
	redirectNotice(w, r, recordReturnPath(rec), "Record deleted.")
}
