package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT AUTO_INCREMENT PRIMARY KEY,
		nom           VARCHAR(255) NOT NULL DEFAULT '',
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(32)  NOT NULL DEFAULT 'Client',
		created_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS plants (
		id_plant      BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id       BIGINT       NOT NULL,
		plant_name    VARCHAR(255) NOT NULL DEFAULT '',
		description   TEXT         NOT NULL,
		health_status VARCHAR(255) NOT NULL DEFAULT '',
		plant_image   LONGBLOB     NULL,
		created_at    DATETIME(6)  NOT NULL,
		updated_at    DATETIME(6)  NOT NULL,
		KEY idx_plants_user (user_id),
		CONSTRAINT fk_plants_user FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS versions (
		id_version            BIGINT AUTO_INCREMENT PRIMARY KEY,
		plant_id              BIGINT       NOT NULL,
		updated_health_status VARCHAR(255) NOT NULL DEFAULT '',
		updated_image         LONGBLOB     NULL,
		date_created          DATETIME(6)  NOT NULL,
		KEY idx_versions_plant_created (plant_id, date_created),
		CONSTRAINT fk_versions_plant FOREIGN KEY (plant_id) REFERENCES plants (id_plant) ON DELETE CASCADE
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		nom           TEXT     NOT NULL DEFAULT '',
		email         TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		role          TEXT     NOT NULL DEFAULT 'Client',
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS plants (
		id_plant      INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id       INTEGER  NOT NULL REFERENCES users (id),
		plant_name    TEXT     NOT NULL DEFAULT '',
		description   TEXT     NOT NULL DEFAULT '',
		health_status TEXT     NOT NULL DEFAULT '',
		plant_image   BLOB,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plants_user ON plants (user_id)`,
	`CREATE TABLE IF NOT EXISTS versions (
		id_version            INTEGER PRIMARY KEY AUTOINCREMENT,
		plant_id              INTEGER  NOT NULL REFERENCES plants (id_plant) ON DELETE CASCADE,
		updated_health_status TEXT     NOT NULL DEFAULT '',
		updated_image         BLOB,
		date_created          DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_versions_plant_created ON versions (plant_id, date_created)`,
}

// Migrate creates the tables the repositories use if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
