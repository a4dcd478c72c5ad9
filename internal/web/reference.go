package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// referenceKind describes one named reference table managed from the
// /stations and /marathons pages.
type referenceKind struct {
	Path   string
	Title  string
	Noun   string
	list   func(ctx context.Context, r *http.Request, q db.DBTX) ([]namedRow, error)
	create func(ctx context.Context, q db.DBTX, name string) (int64, string, error)
	rename func(ctx context.Context, q db.DBTX, id int64, name string) error
	remove func(ctx context.Context, q db.DBTX, id int64) error
}

type namedRow struct {
	ID   int64
	Name string
}

var stationKind = referenceKind{
	Path:  "/stations",
	Title: "Stations",
	Noun:  "station",
	list: func(ctx context.Context, _ *http.Request, q db.DBTX) ([]namedRow, error) {
		stations, err := store.ListStations(ctx, q)
		rows := make([]namedRow, 0, len(stations))
		for _, st := range stations {
			rows = append(rows, namedRow{ID: st.ID, Name: st.Name})
		}
		return rows, err
	},
	create: func(ctx context.Context, q db.DBTX, name string) (int64, string, error) {
		st, err := store.CreateStation(ctx, q, name)
		if err != nil {
			return 0, "", err
		}
		return st.ID, st.Name, nil
	},
	rename: store.UpdateStation,
	remove: store.DeleteStation,
}

var marathonKind = referenceKind{
	Path:  "/marathons",
	Title: "Marathons",
	Noun:  "marathon",
	list: func(ctx context.Context, r *http.Request, q db.DBTX) ([]namedRow, error) {
		marathons, err := store.ListMarathonsForActor(ctx, q, webActor(r))
		rows := make([]namedRow, 0, len(marathons))
		for _, m := range marathons {
			rows = append(rows, namedRow{ID: m.ID, Name: m.Name})
		}
		return rows, err
	},
	create: func(ctx context.Context, q db.DBTX, name string) (int64, string, error) {
		m, err := store.CreateMarathon(ctx, q, name)
		if err != nil {
			return 0, "", err
		}
		return m.ID, m.Name, nil
	},
	rename: store.UpdateMarathon,
	remove: store.DeleteMarathon,
}

// ReferencePage returns the GET handler listing one reference table.
func (s *Server) ReferencePage(k referenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := k.list(r.Context(), r, s.DB)
		if err != nil {
			slog.Error("failed to list reference data", "kind", k.Noun, "error", err)
		}

		s.Templates.Render(w, "reference.html", &struct {
			PageData
			Kind referenceKind
			Rows []namedRow
		}{
			PageData: s.page(r, k.Title),
			Kind:     k,
			Rows:     rows,
		})
	}
}

// ReferenceCreate returns the quick-create handler (storekeeper+). Creating
// a name that already exists returns the existing row.
func (s *Server) ReferenceCreate(k referenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, model.RoleStorekeeper) {
			return
		}
		name := model.NormalizeName(r.FormValue("name"))
		if name == "" {
			redirectError(w, r, k.Path, "Enter a name.")
			return
		}

		id, saved, err := k.create(r.Context(), s.DB, name)
		if err != nil {
			slog.Error("failed to create reference data", "kind", k.Noun, "error", err)
			redirectError(w, r, k.Path, fmt.Sprintf("Creating the %s failed.", k.Noun))
			return
		}

		slog.Info(k.Noun+" created", "user", webActor(r).Username, "name", saved, "id", id)
		redirectNotice(w, r, k.Path, fmt.Sprintf("%s saved.", saved))
	}
}

// ReferenceRename returns the rename handler (admin).
func (s *Server) ReferenceRename(k referenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, model.RoleAdmin) {
			return
		}
		id, ok := pathID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}

		if err := k.rename(r.Context(), s.DB, id, r.FormValue("name")); err != nil {
			redirectError(w, r, k.Path, renameMessage(err))
			return
		}
		redirectNotice(w, r, k.Path, "Renamed.")
	}
}

// ReferenceDelete returns the soft-delete handler (admin).
func (s *Server) ReferenceDelete(k referenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireRole(w, r, model.RoleAdmin) {
			return
		}
		id, ok := pathID(r)
		if !ok {
			http.NotFound(w, r)
			return
		}

		if err := k.remove(r.Context(), s.DB, id); err != nil {
			slog.Error("failed to delete reference data", "kind", k.Noun, "id", id, "error", err)
			redirectError(w, r, k.Path, fmt.Sprintf("Deleting the %s failed.", k.Noun))
			return
		}

		slog.Info(k.Noun+" deleted", "user", webActor(r).Username, "id", id)
		redirectNotice(w, r, k.Path, "Deleted.")
	}
}
