package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/plantcare/plantcare-api/internal/imageproc"
	"github.com/plantcare/plantcare-api/internal/inference"
	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/repository"
)

// PlantService runs the normalize, classify and persist pipeline for plants.
type PlantService struct {
	plants    *repository.PlantRepository
	inference Inference
	now       func() time.Time
}

// NewPlantService creates a new PlantService.
func NewPlantService(plants *repository.PlantRepository, inf Inference) *PlantService {
	return &PlantService{plants: plants, inference: inf, now: utcNow}
}

// PlantUpdate carries the optional fields of a plant update. A new image
// re-runs classification and replaces name and health status.
type PlantUpdate struct {
	Description  *string
	HealthStatus *string
	Image        *ImageFile
}

// Predict classifies an image without storing anything.
func (s *PlantService) Predict(ctx context.Context, img ImageFile) (model.PredictionResponse, error) {
	normalized, err := imageproc.NormalizeFile(img.Path)
	if err != nil {
		return model.PredictionResponse{}, err
	}

	c, err := s.inference.Classify(ctx, img.Filename, normalized)
	if err != nil {
		return model.PredictionResponse{}, err
	}

	return model.PredictionResponse{
		PlantName:    c.PlantName,
		HealthStatus: c.HealthStatus,
		Confidence:   c.Percent(),
		Message:      c.Message,
	}, nil
}

// Create classifies the image and stores a new plant owned by owner.
func (s *PlantService) Create(ctx context.Context, owner int64, description string, img ImageFile) (*model.Plant, error) {
	normalized, c, err := s.classify(ctx, img)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &model.Plant{
		UserID:       owner,
		Name:         c.PlantName,
		Description:  description,
		HealthStatus: c.HealthStatus,
		Image:        normalized,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.plants.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// List returns every plant of owner.
func (s *PlantService) List(ctx context.Context, owner int64) ([]model.Plant, error) {
	return s.plants.ListByOwner(ctx, owner)
}

// Get returns one plant of owner.
func (s *PlantService) Get(ctx context.Context, id, owner int64) (*model.Plant, error) {
	p, err := s.plants.GetForOwner(ctx, id, owner)
	return p, mapPlantErr(err)
}

// Image returns the stored image bytes of a plant.
func (s *PlantService) Image(ctx context.Context, id, owner int64) ([]byte, error) {
	p, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if len(p.Image) == 0 {
		return nil, ErrImageNotFound
	}
	return p.Image, nil
}

// Update merges upd into the plant. Ownership is checked before any image
// work and again by the conditional update itself.
func (s *PlantService) Update(ctx context.Context, id, owner int64, upd PlantUpdate) (*model.Plant, error) {
	if upd.Description == nil && upd.HealthStatus == nil && upd.Image == nil {
		return nil, ErrEmptyUpdate
	}
	if err := s.plants.CheckOwner(ctx, id, owner); err != nil {
		return nil, mapPlantErr(err)
	}

	patch := repository.PlantPatch{
		Description:  upd.Description,
		HealthStatus: upd.HealthStatus,
	}
	if upd.Image != nil {
		normalized, c, err := s.classify(ctx, *upd.Image)
		if err != nil {
			return nil, err
		}
		patch.Name = &c.PlantName
		patch.HealthStatus = &c.HealthStatus
		patch.Image = normalized
	}

	p, err := s.plants.UpdateForOwner(ctx, id, owner, patch, s.now())
	return p, mapPlantErr(err)
}

// Delete removes a plant and its versions.
func (s *PlantService) Delete(ctx context.Context, id, owner int64) error {
	return mapPlantErr(s.plants.DeleteForOwner(ctx, id, owner))
}

// StoredHeatmap renders the heatmap of the plant's current image.
func (s *PlantService) StoredHeatmap(ctx context.Context, id, owner int64) (inference.HeatmapImage, error) {
	p, err := s.Get(ctx, id, owner)
	if err != nil {
		return inference.HeatmapImage{}, err
	}
	if len(p.Image) == 0 {
		return inference.HeatmapImage{}, ErrNoInitialImage
	}
	return s.inference.Heatmap(ctx, "initial_image.jpg", p.Image)
}

// UploadHeatmap renders the heatmap of an uploaded image. The raw upload is
// forwarded without normalization.
func (s *PlantService) UploadHeatmap(ctx context.Context, img ImageFile) (inference.HeatmapImage, error) {
	raw, err := os.ReadFile(img.Path)
	if err != nil {
		return inference.HeatmapImage{}, fmt.Errorf("read upload: %w", err)
	}
	return s.inference.Heatmap(ctx, img.Filename, raw)
}

func (s *PlantService) classify(ctx context.Context, img ImageFile) ([]byte, inference.Classification, error) {
	normalized, err := imageproc.NormalizeFile(img.Path)
	if err != nil {
		return nil, inference.Classification{}, err
	}

	c, err := s.inference.Classify(ctx, img.Filename, normalized)
	if err != nil {
		return nil, inference.Classification{}, err
	}
	return normalized, c, nil
}

func mapPlantErr(err error) error {
	if errors.Is(err, repository.ErrPlantNotFound) {
		return ErrPlantNotFound
	}
	return err
}
