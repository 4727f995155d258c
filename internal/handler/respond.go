package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/plantcare/plantcare-api/internal/imageproc"
	"github.com/plantcare/plantcare-api/internal/inference"
	"github.com/plantcare/plantcare-api/internal/middleware"
	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/service"
	"github.com/plantcare/plantcare-api/internal/upload"
)

const (
	msgPlantNotFound = "Plant not found or not owned by user"
	msgInternal      = "Internal Server Error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func errorDetails(msg, details string) map[string]string {
	return map[string]string{"error": msg, "details": details}
}

func writeImage(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleUnavailable answers every request with 503. It stands in for the data
// routes when the server runs without a database.
func HandleUnavailable(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse("Database unavailable"))
}

// writeServiceError maps the errors shared by plant and version endpoints.
// Anything unrecognized is a 500 labeled with failMsg.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	var (
		perr *imageproc.ProcessingError
		uerr *inference.UpstreamError
		rerr *inference.ResponseError
		nerr *url.Error
	)

	switch {
	case errors.Is(err, service.ErrPlantNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(msgPlantNotFound))
	case errors.Is(err, service.ErrEmptyUpdate):
		writeJSON(w, http.StatusBadRequest, errorDetails("Validation error", "nothing to update"))
	case errors.Is(err, service.ErrNoInitialImage):
		writeJSON(w, http.StatusBadRequest, errorResponse("No initial image found for this plant"))
	case errors.Is(err, service.ErrImageNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse("Image not found"))
	case errors.As(err, &perr):
		writeJSON(w, http.StatusInternalServerError, errorDetails("Failed to process image", perr.Err.Error()))
	case errors.As(err, &uerr), errors.As(err, &rerr), errors.As(err, &nerr):
		slog.Warn("inference call failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorDetails(failMsg, err.Error()))
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(failMsg))
	}
}

// identity returns the caller attached by the auth gate.
func identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusForbidden, errorResponse("Token is required"))
	}
	return id, ok
}

// pathID parses a positive numeric URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorDetails("Validation error", "invalid "+name))
		return 0, false
	}
	return id, true
}

// parseUpload limits and parses a multipart body. It writes the error
// response itself.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := upload.ParseForm(r)
	if err == nil {
		return true
	}

	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("Payload too large"))
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorDetails("Validation error", "invalid multipart body"))
	return false
}

// receiveImage stores the "file" part of a parsed upload. A nil file with ok
// set means the request carried none.
func receiveImage(w http.ResponseWriter, r *http.Request, dir string) (*upload.File, bool) {
	f, err := upload.Receive(r, "file", dir)
	if errors.Is(err, upload.ErrNoFile) {
		return nil, true
	}
	if err != nil {
		slog.Error("store upload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternal))
		return nil, false
	}
	return f, true
}

func imageFile(f *upload.File) service.ImageFile {
	return service.ImageFile{Path: f.Path, Filename: f.Filename}
}

func plantResponse(p *model.Plant) model.PlantResponse {
	return model.PlantResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		HealthStatus: p.HealthStatus,
		Image:        imageproc.DataURL(p.Image),
		UserID:       p.UserID,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func versionResponse(v *model.Version) model.VersionResponse {
	return model.VersionResponse{
		ID:           v.ID,
		PlantID:      v.PlantID,
		UserID:       v.UserID,
		HealthStatus: v.HealthStatus,
		Image:        imageproc.DataURL(v.Image),
		CreatedAt:    v.CreatedAt,
	}
}
