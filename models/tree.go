package models

import "time"

// Tree is a named, user-owned collection of people and relations.
// It corresponds to the 'trees' table.
type Tree struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	OwnerID   uint      `json:"ownerId" gorm:"index;not null"`
	Owner     User      `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	People    []Person   `json:"people,omitempty" gorm:"foreignKey:TreeID;constraint:OnDelete:CASCADE"`
	Relations []Relation `json:"relations,omitempty" gorm:"foreignKey:TreeID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (Tree) TableName() string {
	return "trees"
}
