package repository

import (
	"fmt"

	"github.com/slakttrad/slakttradbackend/models"
	"gorm.io/gorm"
)

// RelationRepositoryImpl handles database operations for relations within a tree
type RelationRepositoryImpl struct {
	DB *gorm.DB
}

func NewRelationRepository(db *gorm.DB) *RelationRepositoryImpl {
	return &RelationRepositoryImpl{DB: db}
}

func (r *RelationRepositoryImpl) Create(relation *models.Relation) error {
	if err := r.DB.Create(relation).Error; err != nil {
		return fmt.Errorf("failed to create relation %d -> %d (%s): %w",
			relation.FromPersonID, relation.ToPersonID, relation.Type, err)
	}
	return nil
}

// GetByTree retrieves a relation by id scoped to the given tree.
func (r *RelationRepositoryImpl) GetByTree(treeID, relationID uint) (*models.Relation, error) {
	var relation models.Relation
	err := r.DB.Where("id = ? AND tree_id = ?", relationID, treeID).First(&relation).Error
	if err != nil {
		return nil, err
	}
	return &relation, nil
}

// ListByTree retrieves all of a tree's relations with both endpoints preloaded
func (r *RelationRepositoryImpl) ListByTree(treeID uint) ([]models.Relation, error) {
	var relations []models.Relation
	err := r.DB.Preload("FromPerson").Preload("ToPerson").
		Where("tree_id = ?", treeID).Order("id ASC").Find(&relations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list relations for tree %d: %w", treeID, err)
	}
	return relations, nil
}

func (r *RelationRepositoryImpl) Delete(treeID, relationID uint) error {
	result := r.DB.Where("id = ? AND tree_id = ?", relationID, treeID).Delete(&models.Relation{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete relation ID %d: %w", relationID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Exists reports whether the (tree, from, to, type) tuple is already stored.
func (r *RelationRepositoryImpl) Exists(treeID, fromPersonID, toPersonID uint, relationType string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Relation{}).
		Where("tree_id = ? AND from_person_id = ? AND to_person_id = ? AND type = ?",
			treeID, fromPersonID, toPersonID, relationType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check relation existence in tree %d: %w", treeID, err)
	}
	return count > 0, nil
}
