package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// EquipmentPage handles GET /equipment.
func (s *Server) EquipmentPage(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListEquipment(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list equipment", "error", err)
	}

	s.Templates.Render(w, "equipment.html", &struct {
		PageData
		Equipment []model.Equipment
	}{
		PageData:  s.page(r, "Equipment"),
		Equipment: list,
	})
}

// EquipmentCreateSubmit handles POST /equipment (storekeeper+).
func (s *Server) EquipmentCreateSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}
	name := model.NormalizeName(r.FormValue("name"))
	if name == "" {
		redirectError(w, r, "/equipment", "Enter a name.")
		return
	}

	e, err := store.CreateEquipment(r.Context(), s.DB, name)
	if err != nil {
		slog.Error("failed to create equipment", "error", err)
		redirectError(w, r, "/equipment", "Creating equipment failed.")
		return
	}

	slog.Info("equipment created", "user", webActor(r).Username, "equipment", e.Name, "id", e.ID)
	redirectNotice(w, r, "/equipment", fmt.Sprintf("%s saved.", e.Name))
}

// EquipmentRenameSubmit handles POST /equipment/{id} (admin).
func (s *Server) EquipmentRenameSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	err := store.UpdateEquipment(r.Context(), s.DB, id, r.FormValue("name"))
	if err != nil {
		redirectError(w, r, "/equipment", renameMessage(err))
		return
	}
	redirectNotice(w, r, "/equipment", "Equipment renamed.")
}

// EquipmentDeleteSubmit handles POST /equipment/{id}/delete (admin).
func (s *Server) EquipmentDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleAdmin) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := store.DeleteEquipment(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to delete equipment", "id", id, "error", err)
		redirectError(w, r, "/equipment", "Deleting equipment failed.")
		return
	}

	slog.Info("equipment deleted", "user", webActor(r).Username, "id", id)
	redirectNotice(w, r, "/equipment", "Equipment deleted.")
}

// QuantitySubmit handles POST /equipment/{id}/quantity (storekeeper+).
func (s *Server) QuantitySubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		redirectError(w, r, "/equipment", "Enter a whole number.")
		return
	}

	err = store.SetAvailableQuantity(r.Context(), s.DB, id, qty)
	switch {
	case errors.Is(err, store.ErrInvalidQuantity):
		redirectError(w, r, "/equipment", "Quantity cannot be negative.")
		return
	case err != nil:
		slog.Error("failed to set quantity", "id", id, "error", err)
		redirectError(w, r, "/equipment", "Saving the quantity failed.")
		return
	}

	slog.Info("stock set", "user", webActor(r).Username, "equipment", id, "quantity", qty)
	redirectNotice(w, r, "/equipment", "Quantity saved.")
}

// QuantityAllSubmit handles POST /equipment/quantity (storekeeper+), setting
// every equipment's available quantity at once.
func (s *Server) QuantityAllSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}

	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		redirectError(w, r, "/equipment", "Enter a whole number.")
		return
	}

	n, err := store.SetAllAvailableQuantity(r.Context(), s.DB, qty)
	switch {
	case errors.Is(err, store.ErrInvalidQuantity):
		redirectError(w, r, "/equipment", "Quantity cannot be negative.")
		return
	case err != nil:
		slog.Error("failed to set quantities", "error", err)
		redirectError(w, r, "/equipment", "Saving quantities failed.")
		return
	}

	slog.Info("stock set for all equipment", "user", webActor(r).Username, "quantity", qty, "updated", n)
	redirectNotice(w, r, "/equipment", fmt.Sprintf("Quantity set for %d equipment.", n))
}

// ImageSubmit handles POST /equipment/{id}/image (storekeeper+).
func (s *Server) ImageSubmit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, model.RoleStorekeeper) {
		return
	}
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		redirectError(w, r, "/equipment", "The file is too large.")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		redirectError(w, r, "/equipment", "Choose a photo to upload.")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		slog.Warn("rejected equipment photo", "id", id, "error", err)
		redirectError(w, r, "/equipment", "Only JPEG and PNG photos up to 5 MB are accepted.")
		return
	}

	if err := store.SetEquipmentImage(r.Context(), s.DB, id, photo.Data, imaging.MIME); err != nil {
		slog.Error("failed to save image", "id", id, "error", err)
		redirectError(w, r, "/equipment", "Saving the photo failed.")
		return
	}
	redirectNotice(w, r, "/equipment", "Photo saved.")
}

// ImageGet handles GET /equipment/{id}/image.
func (s *Server) ImageGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, mime, err := store.GetEquipmentImage(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func renameMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNameRequired):
		return "Enter a name."
	case errors.Is(err, store.ErrNameTaken):
		return "That name is already in use."
	case errors.Is(err, store.ErrNotFound):
		return "It no longer exists."
	default:
		slog.Error("failed to rename", "error", err)
		return "Renaming failed."
	}
}
