package models

import "strings"

// Person represents a person in a tree. It corresponds to the 'people' table.
// Latitude, Longitude and PlaceName form one optional location triple: either
// all three are set or all three are null.
type Person struct {
	ID        uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	TreeID    uint     `json:"treeId" gorm:"index;not null"`
	FirstName string   `json:"firstName" gorm:"not null"`
	LastName  string   `json:"lastName" gorm:"not null"`
	Gender    *string  `json:"gender,omitempty"`
	BirthYear *int     `json:"birthYear,omitempty"`
	DeathYear *int     `json:"deathYear,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PlaceName *string  `json:"placeName,omitempty"`
	CreatedAt int64    `json:"createdAt" gorm:"not null"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt int64    `json:"updatedAt" gorm:"not null"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// FullName returns "First Last" with single-space joining; either part may
// be empty without producing stray whitespace.
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// HasLocation reports whether the location triple is fully populated.
func (p *Person) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil && p.PlaceName != nil
}
