// internal/models/meal.go
package models

import (
	"time"
)

// Request is one planning session's input as persisted.
type Request struct {
	ID        int64     `json:"id"`
	Budget    float64   `json:"budget"`
	Diets     []string  `json:"diets"`
	CreatedAt time.Time `json:"created_at"`
}

// Meal is a suggestion tied to the request that produced it. Its diets are
// whatever the provider tagged, not a copy of the request's.
type Meal struct {
	ID        int64    `json:"id"`
	RequestID int64    `json:"request_id"`
	Title     string   `json:"title"`
	Price     float64  `json:"price"`
	Diets     []string `json:"diets"`
	SourceURL string   `json:"source_url"`
}

type Feedback struct {
	ID        int64  `json:"id"`
	RequestID int64  `json:"request_id"`
	Satisfied bool   `json:"satisfied"`
	Comments  string `json:"comments"`
}

// SessionRecord is the read model of one request with everything linked to it.
type SessionRecord struct {
	Request  Request   `json:"request"`
	Meals    []Meal    `json:"meals"`
	Feedback *Feedback `json:"feedback,omitempty"`
}
