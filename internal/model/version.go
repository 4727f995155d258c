package model

import "time"

// Version is a snapshot of a plant's assessment at a point in time. UserID is
// not stored with the version; it is read from the parent plant.
type Version struct {
	ID           int64
	PlantID      int64
	UserID       int64
	HealthStatus string
	Image        []byte
	CreatedAt    time.Time
}

// VersionResponse is the JSON form of a version.
type VersionResponse struct {
	ID           int64     `json:"id_version"`
	PlantID      int64     `json:"plantId"`
	UserID       int64     `json:"userId"`
	HealthStatus string    `json:"updated_health_status"`
	Image        *string   `json:"updated_image"`
	CreatedAt    time.Time `json:"date_created"`
}
