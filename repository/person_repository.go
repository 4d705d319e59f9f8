package repository

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/slakttrad/slakttradbackend/models"
	"gorm.io/gorm"
)

// PersonRepositoryImpl handles database operations for people within a tree
type PersonRepositoryImpl struct {
	DB *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepositoryImpl {
	return &PersonRepositoryImpl{DB: db}
}

// Create creates a new person record in the database
func (r *PersonRepositoryImpl) Create(person *models.Person) error {
	now := time.Now().Unix()
	if person.CreatedAt == 0 {
		person.CreatedAt = now
	}
	if person.UpdatedAt == 0 {
		person.UpdatedAt = now
	}

	if err := r.DB.Create(person).Error; err != nil {
		return fmt.Errorf("failed to create person %s: %w", person.FullName(), err)
	}
	return nil
}

// GetByTree retrieves a person by id scoped to the given tree. A person
// belonging to another tree reads as gorm.ErrRecordNotFound.
func (r *PersonRepositoryImpl) GetByTree(treeID, personID uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.Where("id = ? AND tree_id = ?", personID, treeID).First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// ListByTree retrieves all of a tree's people, ordered by name
func (r *PersonRepositoryImpl) ListByTree(treeID uint) ([]models.Person, error) {
	var people []models.Person
	err := r.DB.Where("tree_id = ?", treeID).Order("last_name ASC, first_name ASC").Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list people for tree %d: %w", treeID, err)
	}
	return people, nil
}

// Search lists a tree's people with optional filters: a name substring and
// a birth-year range. The query is built dynamically with squirrel and run
// through GORM's raw interface.
func (r *PersonRepositoryImpl) Search(treeID uint, filter PersonFilter) ([]models.Person, error) {
	qb := sq.Select("*").
		From("people").
		Where(sq.Eq{"tree_id": treeID}).
		OrderBy("last_name ASC", "first_name ASC")

	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		qb = qb.Where(sq.Or{
			sq.Like{"first_name": like},
			sq.Like{"last_name": like},
		})
	}
	if filter.BornAfter != nil {
		qb = qb.Where(sq.GtOrEq{"birth_year": *filter.BornAfter})
	}
	if filter.BornBefore != nil {
		qb = qb.Where(sq.LtOrEq{"birth_year": *filter.BornBefore})
	}

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build person search query: %w", err)
	}

	var people []models.Person
	if err := r.DB.Raw(sqlStr, args...).Scan(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to search people in tree %d: %w", treeID, err)
	}
	return people, nil
}

// Update updates an existing person's details
func (r *PersonRepositoryImpl) Update(person *models.Person) error {
	person.UpdatedAt = time.Now().Unix()
	result := r.DB.Model(&models.Person{}).
		Where("id = ? AND tree_id = ?", person.ID, person.TreeID).
		Updates(map[string]interface{}{
			"first_name": person.FirstName,
			"last_name":  person.LastName,
			"gender":     person.Gender,
			"birth_year": person.BirthYear,
			"death_year": person.DeathYear,
			"latitude":   person.Latitude,
			"longitude":  person.Longitude,
			"place_name": person.PlaceName,
			"updated_at": person.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update person ID %d: %w", person.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a person and any relations referencing them, scoped to the
// given tree.
func (r *PersonRepositoryImpl) Delete(treeID, personID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tree_id = ? AND (from_person_id = ? OR to_person_id = ?)", treeID, personID, personID).
			Delete(&models.Relation{}).Error; err != nil {
			return fmt.Errorf("failed to delete relations for person %d: %w", personID, err)
		}
		result := tx.Where("id = ? AND tree_id = ?", personID, treeID).Delete(&models.Person{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete person ID %d: %w", personID, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
