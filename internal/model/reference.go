package model

import "time"

// UnknownLabel is shown in place of a station, equipment or marathon name that
// is unassigned or no longer exists.
const UnknownLabel = "—"

// UnknownPerson is recorded when a submission names no person.
const UnknownPerson = "Unknown"

// Marathon is one event instance scoping a batch of ledger activity.
type Marathon struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Station is a checkpoint where equipment is deployed.
type Station struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Equipment is an equipment type tracked by quantity.
type Equipment struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	AvailableQuantity int        `json:"available_quantity"`
	ImageMime         string     `json:"image_mime,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// Person is someone equipment was handed to or received from.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
