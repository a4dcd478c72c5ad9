package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/oprema/internal/imaging"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// EquipmentHandler handles equipment endpoints.
type EquipmentHandler struct {
	DB *sql.DB
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// List handles GET /api/equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListEquipment(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list equipment")
		return
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(list))
}

// Create handles POST /api/equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if model.NormalizeName(req.Name) == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	e, err := store.CreateEquipment(r.Context(), h.DB, req.Name)
	if err != nil {
		storeError(w, err, "failed to create equipment")
		return
	}

	slog.Info("equipment created", "user", actorFrom(r).Username, "equipment", e.Name, "id", e.ID)
	jsonResponse(w, http.StatusCreated, e)
}

// Update handles PUT /api/equipment/{id}.
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateEquipment(r.Context(), h.DB, id, req.Name); err != nil {
		storeError(w, err, "failed to update equipment")
		return
	}

	e, _ := store.GetEquipment(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	if err := store.DeleteEquipment(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete equipment")
		return
	}

	slog.Info("equipment deleted", "user", actorFrom(r).Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "equipment deleted"})
}

// SetQuantity handles PUT /api/equipment/{id}/quantity.
func (h *EquipmentHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		jsonError(w, http.StatusBadRequest, "quantity required")
		return
	}

	if err := store.SetAvailableQuantity(r.Context(), h.DB, id, *req.Quantity); err != nil {
		storeError(w, err, "failed to set quantity")
		return
	}

	slog.Info("stock set", "user", actorFrom(r).Username, "equipment", id, "quantity", *req.Quantity)
	e, _ := store.GetEquipment(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, e)
}

// SetAllQuantities handles PUT /api/equipment/quantity.
func (h *EquipmentHandler) SetAllQuantities(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil || req.Quantity == nil {
		jsonError(w, http.StatusBadRequest, "quantity required")
		return
	}

	n, err := store.SetAllAvailableQuantity(r.Context(), h.DB, *req.Quantity)
	if err != nil {
		storeError(w, err, "failed to set quantities")
		return
	}

	slog.Info("stock set for all equipment", "user", actorFrom(r).Username, "quantity", *req.Quantity, "updated", n)
	jsonResponse(w, http.StatusOK, map[string]int64{"updated": n})
}

// UploadImage handles PUT /api/equipment/{id}/image.
func (h *EquipmentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	if err := store.SetEquipmentImage(r.Context(), h.DB, id, photo.Data, imaging.MIME); err != nil {
		storeError(w, err, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/equipment/{id}/image.
func (h *EquipmentHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	data, mime, err := store.GetEquipmentImage(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
