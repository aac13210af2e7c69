package models

// Location is a free-form address with optional geocoded coordinates.
type Location struct {
	Address   string   `json:"address,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
}
