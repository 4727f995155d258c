package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/plantcare/plantcare-api/internal/model"
)

var ErrVersionNotFound = errors.New("version not found")

// VersionRepository persists the version history of plants. Versions carry no
// owner column; authorization always joins through the parent plant.
type VersionRepository struct {
	db *sql.DB
}

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository(db *sql.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

// VersionPatch lists the fields an update replaces; nil fields are kept.
type VersionPatch struct {
	HealthStatus *string
	Image        []byte
}

const versionSelect = `SELECT v.id_version, v.plant_id, p.user_id, v.updated_health_status, v.updated_image, v.date_created
	FROM versions v JOIN plants p ON p.id_plant = v.plant_id`

// ownedPlant restricts a versions statement to plants of one owner.
const ownedPlant = `plant_id IN (SELECT id_plant FROM plants WHERE user_id = ?)`

// Append inserts v under its plant only if that plant belongs to ownerID. The
// ownership check and the insert are the same statement.
func (r *VersionRepository) Append(ctx context.Context, v *model.Version, ownerID int64) error {
	query := `INSERT INTO versions (plant_id, updated_health_status, updated_image, date_created)
		SELECT id_plant, ?, ?, ? FROM plants WHERE id_plant = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, v.HealthStatus, v.Image, v.CreatedAt, v.PlantID, ownerID)
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

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	v.ID = id
	v.UserID = ownerID
	return nil
}

// ListForOwner returns the versions of a plant, most recent first.
func (r *VersionRepository) ListForOwner(ctx context.Context, plantID, ownerID int64) ([]model.Version, error) {
	query := versionSelect + ` WHERE v.plant_id = ? AND p.user_id = ?
		ORDER BY v.date_created DESC, v.id_version DESC`

	rows, err := r.db.QueryContext(ctx, query, plantID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]model.Version, 0)
	for rows.Next() {
		var v model.Version
		if err := rows.Scan(&v.ID, &v.PlantID, &v.UserID, &v.HealthStatus, &v.Image, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}

	return versions, rows.Err()
}

// GetForOwner retrieves one version of one plant of ownerID.
func (r *VersionRepository) GetForOwner(ctx context.Context, plantID, versionID, ownerID int64) (*model.Version, error) {
	query := versionSelect + ` WHERE v.id_version = ? AND v.plant_id = ? AND p.user_id = ?`

	v := &model.Version{}
	err := r.db.QueryRowContext(ctx, query, versionID, plantID, ownerID).Scan(
		&v.ID, &v.PlantID, &v.UserID, &v.HealthStatus, &v.Image, &v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVersionNotFound
		}
		return nil, err
	}

	return v, nil
}

// UpdateForOwner replaces status and/or image of a version in place. The
// parent plant's current owner is checked in the same statement.
func (r *VersionRepository) UpdateForOwner(ctx context.Context, plantID, versionID, ownerID int64, patch VersionPatch) (*model.Version, error) {
	query := `UPDATE versions SET
			updated_health_status = COALESCE(?, updated_health_status),
			updated_image         = COALESCE(?, updated_image)
		WHERE id_version = ? AND plant_id = ? AND ` + ownedPlant

	result, err := r.db.ExecContext(ctx, query,
		nullString(patch.HealthStatus), nullBytes(patch.Image), versionID, plantID, ownerID,
	)
	if err != nil {
		return nil, err
	}

	// MySQL reports changed rows rather than matched rows unless the DSN sets
	// clientFoundRows, so a zero count is confirmed by the read below.
	if _, err := result.RowsAffected(); err != nil {
		return nil, err
	}

	return r.GetForOwner(ctx, plantID, versionID, ownerID)
}

// DeleteForOwner removes a version matching both IDs under a plant of ownerID.
// Nothing matched is reported as ErrVersionNotFound.
func (r *VersionRepository) DeleteForOwner(ctx context.Context, plantID, versionID, ownerID int64) error {
	query := `DELETE FROM versions WHERE id_version = ? AND plant_id = ? AND ` + ownedPlant

	result, err := r.db.ExecContext(ctx, query, versionID, plantID, ownerID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionNotFound
	}

	return nil
}
