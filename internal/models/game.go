package models

import "time"

type Game struct {
	ID          int64      `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description,omitempty"`
	Status      GameStatus `yaml:"status" json:"status"`
	SortOrder   int64      `yaml:"sort_order" json:"sort_order"`
	IsActive    bool       `yaml:"is_active" json:"is_active"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updated_at"`
}

// Offerable reports whether the game can be requested for a new rental.
func (g *Game) Offerable() bool {
	return g.IsActive && g.Status.Offerable()
}
