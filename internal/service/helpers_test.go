package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/plantcare/plantcare-api/internal/inference"
	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/repository"
	"github.com/plantcare/plantcare-api/internal/repository/repotest"
)

type fakeInference struct {
	mu       sync.Mutex
	status   string
	err      error
	classify int
	heatmaps [][]byte
}

func (f *fakeInference) Classify(_ context.Context, _ string, img []byte) (inference.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classify++
	if f.err != nil {
		return inference.Classification{}, f.err
	}
	return inference.Classification{PlantName: "Tomato", HealthStatus: f.status, Confidence: 0.9, Message: "done"}, nil
}

func (f *fakeInference) Heatmap(_ context.Context, _ string, img []byte) (inference.HeatmapImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return inference.HeatmapImage{}, f.err
	}
	f.heatmaps = append(f.heatmaps, img)
	return inference.HeatmapImage{ContentType: "image/png", Data: []byte("heat")}, nil
}

type fixture struct {
	users    *repository.UserRepository
	plants   *PlantService
	versions *VersionService
	inf      *fakeInference
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := repotest.NewDB(t)
	plants := repository.NewPlantRepository(db)
	inf := &fakeInference{status: "healthy"}
	return &fixture{
		users:    repository.NewUserRepository(db),
		plants:   NewPlantService(plants, inf),
		versions: NewVersionService(plants, repository.NewVersionRepository(db), inf),
		inf:      inf,
	}
}

func (f *fixture) user(t *testing.T, email string) int64 {
	t.Helper()

	u := &model.User{Email: email, PasswordHash: "x", Role: model.RoleClient, CreatedAt: time.Now().UTC()}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return u.ID
}

// pngFile writes a w x h PNG into the test's temp dir.
func pngFile(t *testing.T, w, h int) ImageFile {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "leaf.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	return ImageFile{Path: path, Filename: "leaf.png"}
}

func ptr(s string) *string { return &s }
