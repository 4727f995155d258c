package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/plantcare/plantcare-api/internal/model"
)

var ErrPlantNotFound = errors.New("plant not found")

// PlantRepository persists the current state of plants. Every single-plant
// query filters on the owner so absent and foreign plants look the same.
type PlantRepository struct {
	db *sql.DB
}

// NewPlantRepository creates a new PlantRepository.
func NewPlantRepository(db *sql.DB) *PlantRepository {
	return &PlantRepository{db: db}
}

// PlantPatch lists the fields an update replaces; nil fields are kept.
type PlantPatch struct {
	Name         *string
	Description  *string
	HealthStatus *string
	Image        []byte
}

const plantColumns = `id_plant, user_id, plant_name, description, health_status, plant_image, created_at, updated_at`

// Create inserts a plant and sets its generated ID.
func (r *PlantRepository) Create(ctx context.Context, p *model.Plant) error {
	query := `INSERT INTO plants (user_id, plant_name, description, health_status, plant_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Name, p.Description, p.HealthStatus, p.Image, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	p.ID = id
	return nil
}

// GetForOwner retrieves a plant by ID if it belongs to ownerID.
func (r *PlantRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*model.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE id_plant = ? AND user_id = ?`

	p := &model.Plant{}
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.Description, &p.HealthStatus, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlantNotFound
		}
		return nil, err
	}

	return p, nil
}

// CheckOwner returns ErrPlantNotFound unless plant id exists and belongs to ownerID.
func (r *PlantRepository) CheckOwner(ctx context.Context, id, ownerID int64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM plants WHERE id_plant = ? AND user_id = ?`, id, ownerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlantNotFound
	}
	return err
}

// ListByOwner retrieves all plants of ownerID in creation order.
func (r *PlantRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Plant, error) {
	query := `SELECT ` + plantColumns + ` FROM plants WHERE user_id = ? ORDER BY id_plant ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plants := make([]model.Plant, 0)
	for rows.Next() {
		var p model.Plant
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Name, &p.Description, &p.HealthStatus, &p.Image, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		plants = append(plants, p)
	}

	return plants, rows.Err()
}

// UpdateForOwner merges patch into the plant in a single conditional statement
// and returns the stored result.
func (r *PlantRepository) UpdateForOwner(ctx context.Context, id, ownerID int64, patch PlantPatch, now time.Time) (*model.Plant, error) {
	query := `UPDATE plants SET
			plant_name    = COALESCE(?, plant_name),
			description   = COALESCE(?, description),
			health_status = COALESCE(?, health_status),
			plant_image   = COALESCE(?, plant_image),
			updated_at    = ?
		WHERE id_plant = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query,
		nullString(patch.Name), nullString(patch.Description), nullString(patch.HealthStatus), nullBytes(patch.Image),
		now, id, ownerID,
	)
	if err != nil {
		return nil, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrPlantNotFound
	}

	return r.GetForOwner(ctx, id, ownerID)
}

// DeleteForOwner removes a plant and its version history in one transaction.
func (r *PlantRepository) DeleteForOwner(ctx context.Context, id, ownerID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM versions WHERE plant_id IN (SELECT id_plant FROM plants WHERE id_plant = ? AND user_id = ?)`,
		id, ownerID,
	); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM plants WHERE id_plant = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlantNotFound
	}

	return tx.Commit()
}

// nullString and nullBytes turn absent patch fields into SQL NULL so COALESCE
// keeps the stored value.
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}
