package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendVersionKeepsPlant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))

	f.inf.status = "sick"
	v, err := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 30, 30))
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	if v.HealthStatus != "sick" || v.UserID != owner || v.PlantID != p.ID {
		t.Errorf("Append() = %+v", v)
	}

	got, _ := f.plants.Get(ctx, p.ID, owner)
	if got.HealthStatus != "healthy" {
		t.Errorf("plant status = %q after append, want healthy", got.HealthStatus)
	}

	versions, err := f.versions.List(ctx, p.ID, owner)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(versions) != 1 || versions[0].HealthStatus != "sick" {
		t.Errorf("List() = %+v", versions)
	}
}

func TestAppendVersionClientStatus(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))

	v, err := f.versions.Append(ctx, p.ID, owner, ptr("recovering"), pngFile(t, 10, 10))
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	if v.HealthStatus != "recovering" {
		t.Errorf("status = %q, want recovering", v.HealthStatus)
	}

	v, err = f.versions.Append(ctx, p.ID, owner, ptr("  "), pngFile(t, 10, 10))
	if err != nil {
		t.Fatalf("Append() unexpected error: %v", err)
	}
	if v.HealthStatus != "healthy" {
		t.Errorf("blank status = %q, want classifier's healthy", v.HealthStatus)
	}
}

func TestVersionsNewestFirst(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.versions.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	var ids []int64
	for i := 0; i < 3; i++ {
		v, err := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 10, 10))
		if err != nil {
			t.Fatalf("Append() unexpected error: %v", err)
		}
		ids = append(ids, v.ID)
	}

	versions, _ := f.versions.List(ctx, p.ID, owner)
	for i := 1; i < len(versions); i++ {
		if versions[i-1].CreatedAt.Before(versions[i].CreatedAt) {
			t.Fatalf("versions not newest first: %v before %v", versions[i-1].CreatedAt, versions[i].CreatedAt)
		}
	}
	if versions[0].ID != ids[2] {
		t.Errorf("first version = %d, want newest %d", versions[0].ID, ids[2])
	}
}

func TestVersionOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	v, _ := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 10, 10))
	calls := f.inf.classify

	if _, err := f.versions.Append(ctx, p.ID, other, nil, pngFile(t, 10, 10)); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("Append() error = %v, want ErrPlantNotFound", err)
	}
	if f.inf.classify != calls {
		t.Error("classifier called for a foreign plant")
	}
	if _, err := f.versions.List(ctx, p.ID, other); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("List() error = %v, want ErrPlantNotFound", err)
	}
	if _, err := f.versions.Get(ctx, p.ID, v.ID, other); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("Get() error = %v, want ErrPlantNotFound", err)
	}
	if _, err := f.versions.Update(ctx, p.ID, v.ID, other, VersionUpdate{HealthStatus: ptr("x")}); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("Update() error = %v, want ErrPlantNotFound", err)
	}
	if err := f.versions.Delete(ctx, p.ID, v.ID, other); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("Delete() error = %v, want ErrPlantNotFound", err)
	}
	if _, err := f.versions.Heatmap(ctx, p.ID, v.ID, other); !errors.Is(err, ErrPlantNotFound) {
		t.Errorf("Heatmap() error = %v, want ErrPlantNotFound", err)
	}
}

func TestVersionWrongPlant(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p1, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	p2, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	v, _ := f.versions.Append(ctx, p1.ID, owner, nil, pngFile(t, 10, 10))

	if _, err := f.versions.Get(ctx, p2.ID, v.ID, owner); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Get() error = %v, want ErrVersionNotFound", err)
	}
	if _, err := f.versions.Update(ctx, p2.ID, v.ID, owner, VersionUpdate{HealthStatus: ptr("x")}); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Update() error = %v, want ErrVersionNotFound", err)
	}
	if err := f.versions.Delete(ctx, p2.ID, v.ID, owner); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("Delete() error = %v, want ErrVersionNotFound", err)
	}
}

func TestUpdateVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	v, _ := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 10, 10))
	calls := f.inf.classify

	if _, err := f.versions.Update(ctx, p.ID, v.ID, owner, VersionUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("Update() empty error = %v, want ErrEmptyUpdate", err)
	}

	got, err := f.versions.Update(ctx, p.ID, v.ID, owner, VersionUpdate{
		HealthStatus: ptr("better"),
		Image:        ptrFile(pngFile(t, 40, 40)),
	})
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if got.HealthStatus != "better" {
		t.Errorf("status = %q, want better", got.HealthStatus)
	}
	if f.inf.classify != calls {
		t.Error("version image update re-ran classification")
	}
}

func TestDeleteVersionTwice(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	v, _ := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 10, 10))

	if err := f.versions.Delete(ctx, p.ID, v.ID, owner); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if err := f.versions.Delete(ctx, p.ID, v.ID, owner); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrVersionNotFound", err)
	}
}

func TestVersionHeatmap(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner@example.com")
	ctx := context.Background()
	p, _ := f.plants.Create(ctx, owner, "", pngFile(t, 10, 10))
	v, _ := f.versions.Append(ctx, p.ID, owner, nil, pngFile(t, 10, 10))

	hm, err := f.versions.Heatmap(ctx, p.ID, v.ID, owner)
	if err != nil {
		t.Fatalf("Heatmap() unexpected error: %v", err)
	}
	if string(hm.Data) != "heat" {
		t.Errorf("Heatmap() = %+v", hm)
	}
}
