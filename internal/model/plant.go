package model

import "time"

// Plant is the current state of one tracked plant. Image holds the latest
// normalized photo.
type Plant struct {
	ID           int64
	UserID       int64
	Name         string
	Description  string
	HealthStatus string
	Image        []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PlantResponse is the JSON form of a plant; the image is a data URL or null.
type PlantResponse struct {
	ID           int64     `json:"id_plant"`
	Name         string    `json:"plant_name"`
	Description  string    `json:"description"`
	HealthStatus string    `json:"health_status"`
	Image        *string   `json:"plant_image"`
	UserID       int64     `json:"userId"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PredictionResponse is returned by the predict endpoint. Confidence is a
// percentage with two decimals.
type PredictionResponse struct {
	PlantName    string `json:"plant_name"`
	HealthStatus string `json:"health_status"`
	Confidence   string `json:"confidence"`
	Message      string `json:"message,omitempty"`
}

// MessageResponse carries a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
