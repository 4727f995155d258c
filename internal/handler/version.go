package handler

import (
	"errors"
	"net/http"

	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/service"
	"github.com/plantcare/plantcare-api/internal/upload"
)

// VersionHandler handles HTTP requests for plant versions.
type VersionHandler struct {
	service *service.VersionService
	uploads UploadOptions
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler(svc *service.VersionService, uploads UploadOptions) *VersionHandler {
	return &VersionHandler{service: svc, uploads: uploads}
}

// ids resolves the caller, plant id and (when withVersion) version id.
func (h *VersionHandler) ids(w http.ResponseWriter, r *http.Request, withVersion bool) (owner, plantID, versionID int64, ok bool) {
	id, ok := identity(w, r)
	if !ok {
		return 0, 0, 0, false
	}
	plantID, ok = pathID(w, r, "id_plant")
	if !ok {
		return 0, 0, 0, false
	}
	if withVersion {
		versionID, ok = pathID(w, r, "versionId")
		if !ok {
			return 0, 0, 0, false
		}
	}
	return id.UserID, plantID, versionID, true
}

// HandleCreate handles POST /api/plants/{id_plant}/versions requests.
func (h *VersionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, plantID, _, ok := h.ids(w, r, false)
	if !ok {
		return
	}
	if !parseUpload(w, r, h.uploads.MaxBytes) {
		return
	}
	f, ok := receiveImage(w, r, h.uploads.Dir)
	if !ok {
		return
	}
	if f == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("No file uploaded"))
		return
	}
	defer f.Close()

	v, err := h.service.Append(r.Context(), plantID, owner, upload.Field(r, "updated_health_status"), imageFile(f))
	if err != nil {
		writeServiceError(w, r, err, "Failed to create version")
		return
	}

	writeJSON(w, http.StatusCreated, versionResponse(v))
}

// HandleList handles GET /api/plants/{id_plant}/versions requests.
func (h *VersionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, plantID, _, ok := h.ids(w, r, false)
	if !ok {
		return
	}

	versions, err := h.service.List(r.Context(), plantID, owner)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch versions")
		return
	}

	resp := make([]model.VersionResponse, 0, len(versions))
	for i := range versions {
		resp = append(resp, versionResponse(&versions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/plants/{id_plant}/versions/{versionId} requests.
func (h *VersionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, plantID, versionID, ok := h.ids(w, r, true)
	if !ok {
		return
	}

	v, err := h.service.Get(r.Context(), plantID, versionID, owner)
	if err != nil {
		if errors.Is(err, service.ErrVersionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Version not found or not related to this plant"))
			return
		}
		writeServiceError(w, r, err, "Failed to fetch version")
		return
	}

	writeJSON(w, http.StatusOK, versionResponse(v))
}

// HandleUpdate handles PUT /api/plants/{id_plant}/versions/{versionId} requests.
func (h *VersionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, plantID, versionID, ok := h.ids(w, r, true)
	if !ok {
		return
	}
	if !parseUpload(w, r, h.uploads.MaxBytes) {
		return
	}
	f, ok := receiveImage(w, r, h.uploads.Dir)
	if !ok {
		return
	}

	upd := service.VersionUpdate{HealthStatus: upload.Field(r, "updated_health_status")}
	if f != nil {
		defer f.Close()
		img := imageFile(f)
		upd.Image = &img
	}

	v, err := h.service.Update(r.Context(), plantID, versionID, owner, upd)
	if err != nil {
		if errors.Is(err, service.ErrVersionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Version not found or not related to this plant"))
			return
		}
		writeServiceError(w, r, err, "Failed to update version")
		return
	}

	writeJSON(w, http.StatusOK, versionResponse(v))
}

// HandleDelete handles DELETE /api/plants/{id_plant}/versions/{versionId} requests.
func (h *VersionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, plantID, versionID, ok := h.ids(w, r, true)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), plantID, versionID, owner); err != nil {
		if errors.Is(err, service.ErrVersionNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Version not found for this plant"))
			return
		}
		writeServiceError(w, r, err, "Failed to delete version")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Version deleted successfully"})
}

// HandleHeatmap handles GET /api/plants/{id_plant}/versions/{versionId}/heatmap requests.
func (h *VersionHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	owner, plantID, versionID, ok := h.ids(w, r, true)
	if !ok {
		return
	}

	hm, err := h.service.Heatmap(r.Context(), plantID, versionID, owner)
	if err != nil {
		if errors.Is(err, service.ErrVersionNotFound) || errors.Is(err, service.ErrImageNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse("Version not found or has no image"))
			return
		}
		writeServiceError(w, r, err, "Failed to generate heatmap")
		return
	}

	writeImage(w, hm.ContentType, hm.Data)
}
