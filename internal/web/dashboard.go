package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Dashboard handles GET /, the marathon picker.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	marathons, err := store.ListMarathonsForActor(r.Context(), s.DB, webActor(r))
	if err != nil {
		slog.Error("failed to list marathons for dashboard", "error", err)
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Marathons []model.Marathon
	}{
		PageData:  s.page(r, "Marathons"),
		Marathons: marathons,
	})
}
