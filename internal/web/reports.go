package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/export"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// ReportPage handles GET /report?marathon=, the event-level report.
func (s *Server) ReportPage(w http.ResponseWriter, r *http.Request) {
	id := formID(r.URL.Query().Get("marathon"))
	if id == 0 {
		redirectError(w, r, "/", "Choose a marathon first.")
		return
	}
	if !s.marathonAccess(w, r, id) {
		return
	}

	report, err := store.MarathonReport(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		redirectError(w, r, "/", "That marathon no longer exists.")
		return
	}
	if err != nil {
		slog.Error("failed to build marathon report", "marathon", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "report.html", &struct {
		PageData
		Report *model.MarathonReport
	}{
		PageData: s.page(r, "Report: "+report.Marathon.Name),
		Report:   report,
	})
}

// ReconciliationPage handles GET /reconciliation?marathon= (storekeeper+).
func (s *Server) ReconciliationPage(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}
	id := formID(r.URL.Query().Get("marathon"))
	if id == 0 {
		redirectError(w, r, "/", "Choose a marathon first.")
		return
	}

	report, err := store.StoreReport(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		redirectError(w, r, "/", "That marathon no longer exists.")
		return
	}
	if err != nil {
		slog.Error("failed to build store report", "marathon", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "reconciliation.html", &struct {
		PageData
		Report *model.StoreReport
	}{
		PageData: s.page(r, "Reconciliation: "+report.Marathon.Name),
		Report:   report,
	})
}

// ExportWorkbook handles GET /marathons/{id}/export.xlsx (storekeeper+).
func (s *Server) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	report, err := store.MarathonReport(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to build marathon report", "marathon", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	storeReport, err := store.StoreReport(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to build store report", "marathon", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(report.Marathon)))
	if err := export.WriteMarathon(w, report, storeReport); err != nil {
		slog.Error("failed to write workbook", "marathon", id, "error", err)
	}
}
