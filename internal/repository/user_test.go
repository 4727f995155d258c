package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plantcare/plantcare-api/internal/model"
	"github.com/plantcare/plantcare-api/internal/repository"
	"github.com/plantcare/plantcare-api/internal/repository/repotest"
)

func createUser(t *testing.T, repo *repository.UserRepository, email string) *model.User {
	t.Helper()

	u := &model.User{
		Name:         "Ada",
		Email:        email,
		PasswordHash: "hash",
		Role:         model.RoleClient,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	return u
}

func TestUserCreateAndGet(t *testing.T) {
	repo := repository.NewUserRepository(repotest.NewDB(t))
	u := createUser(t, repo, "ada@example.com")

	if u.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	got, err := repo.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if got.ID != u.ID || got.Name != "Ada" || got.Role != model.RoleClient {
		t.Errorf("GetByEmail() = %+v, want id %d name Ada role Client", got, u.ID)
	}

	byID, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if byID.Email != "ada@example.com" {
		t.Errorf("GetByID() email = %q", byID.Email)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	repo := repository.NewUserRepository(repotest.NewDB(t))
	createUser(t, repo, "dup@example.com")

	err := repo.Create(context.Background(), &model.User{
		Email:        "dup@example.com",
		PasswordHash: "other",
		Role:         model.RoleClient,
		CreatedAt:    time.Now().UTC(),
	})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Fatalf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserNotFound(t *testing.T) {
	repo := repository.NewUserRepository(repotest.NewDB(t))

	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}
