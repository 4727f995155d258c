package handler

import (
	"net/http"

	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/service"
	"github.com/plantcare/plantcare-api/internal/upload"
)

// UploadOptions bounds and places multipart uploads.
type UploadOptions struct {
	Dir      string
	MaxBytes int64
}

// PlantHandler handles HTTP requests for plants.
type PlantHandler struct {
	service *service.PlantService
	uploads UploadOptions
}

// NewPlantHandler creates a new PlantHandler.
func NewPlantHandler(svc *service.PlantService, uploads UploadOptions) *PlantHandler {
	return &PlantHandler{service: svc, uploads: uploads}
}

// requireImage parses the upload and insists on a "file" part.
func (h *PlantHandler) requireImage(w http.ResponseWriter, r *http.Request) (*upload.File, bool) {
	if !parseUpload(w, r, h.uploads.MaxBytes) {
		return nil, false
	}
	f, ok := receiveImage(w, r, h.uploads.Dir)
	if ok && f == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("No file uploaded"))
		return nil, false
	}
	return f, ok
}

// HandlePredict handles POST /api/plants/predict requests.
func (h *PlantHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	f, ok := h.requireImage(w, r)
	if !ok {
		return
	}
	defer f.Close()

	resp, err := h.service.Predict(r.Context(), imageFile(f))
	if err != nil {
		writeServiceError(w, r, err, "Failed to predict plant health")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate handles POST /api/plants requests.
func (h *PlantHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	f, ok := h.requireImage(w, r)
	if !ok {
		return
	}
	defer f.Close()

	p, err := h.service.Create(r.Context(), id.UserID, r.PostFormValue("description"), imageFile(f))
	if err != nil {
		writeServiceError(w, r, err, "Failed to create plant")
		return
	}

	writeJSON(w, http.StatusCreated, plantResponse(p))
}

// HandleList handles GET /api/plants requests.
func (h *PlantHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	plants, err := h.service.List(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch plants")
		return
	}

	resp := make([]model.PlantResponse, 0, len(plants))
	for i := range plants {
		resp = append(resp, plantResponse(&plants[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/plants/{id_plant} requests.
func (h *PlantHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plantID, ok := pathID(w, r, "id_plant")
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), plantID, id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch plant")
		return
	}

	writeJSON(w, http.StatusOK, plantResponse(p))
}

// HandleImage handles GET /api/plants/{id_plant}/image requests.
func (h *PlantHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plantID, ok := pathID(w, r, "id_plant")
	if !ok {
		return
	}

	data, err := h.service.Image(r.Context(), plantID, id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to fetch plant image")
		return
	}

	writeImage(w, http.DetectContentType(data), data)
}

// HandleUpdate handles PUT /api/plants/{id_plant} requests. Only fields that
// are present in the form are changed.
func (h *PlantHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plantID, ok := pathID(w, r, "id_plant")
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

	upd := service.PlantUpdate{
		Description:  upload.Field(r, "description"),
		HealthStatus: upload.Field(r, "health_status"),
	}
	if f != nil {
		defer f.Close()
		img := imageFile(f)
		upd.Image = &img
	}

	p, err := h.service.Update(r.Context(), plantID, id.UserID, upd)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update plant")
		return
	}

	writeJSON(w, http.StatusOK, plantResponse(p))
}

// HandleDelete handles DELETE /api/plants/{id_plant} requests.
func (h *PlantHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plantID, ok := pathID(w, r, "id_plant")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), plantID, id.UserID); err != nil {
		writeServiceError(w, r, err, "Failed to delete plant")
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Plant deleted successfully"})
}

// HandleStoredHeatmap handles GET /api/plants/{id_plant}/heatmapdb requests.
func (h *PlantHandler) HandleStoredHeatmap(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	plantID, ok := pathID(w, r, "id_plant")
	if !ok {
		return
	}

	hm, err := h.service.StoredHeatmap(r.Context(), plantID, id.UserID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate heatmap")
		return
	}

	writeImage(w, hm.ContentType, hm.Data)
}

// HandleUploadHeatmap handles POST /api/plants/heatmap requests.
func (h *PlantHandler) HandleUploadHeatmap(w http.ResponseWriter, r *http.Request) {
	f, ok := h.requireImage(w, r)
	if !ok {
		return
	}
	defer f.Close()

	hm, err := h.service.UploadHeatmap(r.Context(), imageFile(f))
	if err != nil {
		writeServiceError(w, r, err, "Failed to generate heatmap")
		return
	}

	writeImage(w, hm.ContentType, hm.Data)
}
