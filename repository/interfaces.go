package repository

import "github.com/slakttrad/slakttradbackend/models"

// UserRepository defines the methods for user data operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

// TreeRepository defines the methods for tree data operations
type TreeRepository interface {
	Create(tree *models.Tree) error
	GetByIDForOwner(id, ownerID uint) (*models.Tree, error)
	ListByOwner(ownerID uint) ([]models.Tree, error)
	Update(tree *models.Tree) error
	Delete(id uint) error
	Touch(id uint) error
}

// PersonFilter holds the optional search filters for listing people.
type PersonFilter struct {
	Query      string
	BornAfter  *int
	BornBefore *int
}

// PersonRepository defines the methods for person data operations
type PersonRepository interface {
	Create(person *models.Person) error
	GetByTree(treeID, personID uint) (*models.Person, error)
	ListByTree(treeID uint) ([]models.Person, error)
	Search(treeID uint, filter PersonFilter) ([]models.Person, error)
	Update(person *models.Person) error
	Delete(treeID, personID uint) error
}

// RelationRepository defines the methods for relation data operations
type RelationRepository interface {
	Create(relation *models.Relation) error
	GetByTree(treeID, relationID uint) (*models.Relation, error)
	ListByTree(treeID uint) ([]models.Relation, error)
	Delete(treeID, relationID uint) error
	Exists(treeID, fromPersonID, toPersonID uint, relationType string) (bool, error)
}
