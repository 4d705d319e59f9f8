package models

import "time"

// Relation links two distinct people within the same tree. Type holds a
// relation catalog key (parent, partner, sibling, cousin, other).
// The (tree, from, to, type) tuple is unique.
type Relation struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TreeID       uint      `json:"treeId" gorm:"index;not null;uniqueIndex:idx_relation_tuple"`
	FromPersonID uint      `json:"fromPersonId" gorm:"not null;uniqueIndex:idx_relation_tuple"`
	ToPersonID   uint      `json:"toPersonId" gorm:"not null;uniqueIndex:idx_relation_tuple"`
	Type         string    `json:"type" gorm:"not null;uniqueIndex:idx_relation_tuple"`
	CreatedAt    time.Time `json:"createdAt"`

	FromPerson *Person `json:"fromPerson,omitempty" gorm:"foreignKey:FromPersonID"`
	ToPerson   *Person `json:"toPerson,omitempty" gorm:"foreignKey:ToPersonID"`
}

// TableName explicitly sets the table name for GORM.
func (Relation) TableName() string {
	return "relations"
}
