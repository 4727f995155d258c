package service

import (
	"context"
	"errors"
	"time"

	"github.com/plantcare/plantcare-api/internal/inference"
)

var (
	ErrPlantNotFound   = errors.New("plant not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrNoInitialImage  = errors.New("no initial image found for this plant")
	ErrEmptyUpdate     = errors.New("nothing to update")
)

// Inference classifies images and renders heatmaps.
type Inference interface {
	Classify(ctx context.Context, filename string, image []byte) (inference.Classification, error)
	Heatmap(ctx context.Context, filename string, image []byte) (inference.HeatmapImage, error)
}

// ImageFile is an uploaded image waiting on disk. The caller owns the file
// and removes it.
type ImageFile struct {
	Path     string
	Filename string
}

func utcNow() time.Time { return time.Now().UTC() }
