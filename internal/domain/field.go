package domain

import "time"

// Field is a bookable futsal field.
type Field struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Surface    string    `json:"surface"`
	HourlyRate int64     `json:"hourly_rate"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
