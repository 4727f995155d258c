package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/plantcare/plantcare-api/internal/imageproc"
	"github.com/plantcare/plantcare-api/internal/inference"
	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/repository"
)

// VersionService manages the version history of plants. Appending a version
// never changes the parent plant.
type VersionService struct {
	plants    *repository.PlantRepository
	versions  *repository.VersionRepository
	inference Inference
	now       func() time.Time
}

// NewVersionService creates a new VersionService.
func NewVersionService(plants *repository.PlantRepository, versions *repository.VersionRepository, inf Inference) *VersionService {
	return &VersionService{plants: plants, versions: versions, inference: inf, now: utcNow}
}

// VersionUpdate carries the optional fields of a version update. A new image
// is normalized but not re-classified.
type VersionUpdate struct {
	HealthStatus *string
	Image        *ImageFile
}

// Append classifies img and stores it as the newest version of the plant. A
// non-empty status overrides the classifier's verdict.
func (s *VersionService) Append(ctx context.Context, plantID, owner int64, status *string, img ImageFile) (*model.Version, error) {
	if err := s.plants.CheckOwner(ctx, plantID, owner); err != nil {
		return nil, mapPlantErr(err)
	}

	normalized, err := imageproc.NormalizeFile(img.Path)
	if err != nil {
		return nil, err
	}
	c, err := s.inference.Classify(ctx, img.Filename, normalized)
	if err != nil {
		return nil, err
	}

	health := c.HealthStatus
	if status != nil && strings.TrimSpace(*status) != "" {
		health = *status
	}

	v := &model.Version{
		PlantID:      plantID,
		HealthStatus: health,
		Image:        normalized,
		CreatedAt:    s.now(),
	}
	if err := s.versions.Append(ctx, v, owner); err != nil {
		return nil, mapPlantErr(err)
	}

	return v, nil
}

// List returns the versions of a plant, newest first.
func (s *VersionService) List(ctx context.Context, plantID, owner int64) ([]model.Version, error) {
	if err := s.plants.CheckOwner(ctx, plantID, owner); err != nil {
		return nil, mapPlantErr(err)
	}
	return s.versions.ListForOwner(ctx, plantID, owner)
}

// Get returns one version of a plant.
func (s *VersionService) Get(ctx context.Context, plantID, versionID, owner int64) (*model.Version, error) {
	if err := s.plants.CheckOwner(ctx, plantID, owner); err != nil {
		return nil, mapPlantErr(err)
	}
	v, err := s.versions.GetForOwner(ctx, plantID, versionID, owner)
	return v, mapVersionErr(err)
}

// Update replaces the status and/or image of a version in place.
func (s *VersionService) Update(ctx context.Context, plantID, versionID, owner int64, upd VersionUpdate) (*model.Version, error) {
	if upd.HealthStatus == nil && upd.Image == nil {
		return nil, ErrEmptyUpdate
	}
	if err := s.plants.CheckOwner(ctx, plantID, owner); err != nil {
		return nil, mapPlantErr(err)
	}

	patch := repository.VersionPatch{HealthStatus: upd.HealthStatus}
	if upd.Image != nil {
		normalized, err := imageproc.NormalizeFile(upd.Image.Path)
		if err != nil {
			return nil, err
		}
		patch.Image = normalized
	}

	v, err := s.versions.UpdateForOwner(ctx, plantID, versionID, owner, patch)
	return v, mapVersionErr(err)
}

// Delete removes one version. Deleting it again reports ErrVersionNotFound.
func (s *VersionService) Delete(ctx context.Context, plantID, versionID, owner int64) error {
	if err := s.plants.CheckOwner(ctx, plantID, owner); err != nil {
		return mapPlantErr(err)
	}
	return mapVersionErr(s.versions.DeleteForOwner(ctx, plantID, versionID, owner))
}

// Heatmap renders the heatmap of a version's image.
func (s *VersionService) Heatmap(ctx context.Context, plantID, versionID, owner int64) (inference.HeatmapImage, error) {
	v, err := s.Get(ctx, plantID, versionID, owner)
	if err != nil {
		return inference.HeatmapImage{}, err
	}
	if len(v.Image) == 0 {
		return inference.HeatmapImage{}, ErrImageNotFound
	}
	return s.inference.Heatmap(ctx, "image.jpg", v.Image)
}

func mapVersionErr(err error) error {
	if errors.Is(err, repository.ErrVersionNotFound) {
		return ErrVersionNotFound
	}
	return err
}
