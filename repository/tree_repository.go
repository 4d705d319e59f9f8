package repository

import (
	"fmt"
	"time"

	"github.com/slakttrad/slakttradbackend/models"
	"gorm.io/gorm"
)

// TreeRepositoryImpl handles database operations for trees, including the
// cascade delete of a tree's people and relations.
type TreeRepositoryImpl struct {
	DB *gorm.DB
}

func NewTreeRepository(db *gorm.DB) *TreeRepositoryImpl {
	return &TreeRepositoryImpl{DB: db}
}

func (r *TreeRepositoryImpl) Create(tree *models.Tree) error {
	if err := r.DB.Create(tree).Error; err != nil {
		return fmt.Errorf("failed to create tree '%s': %w", tree.Name, err)
	}
	return nil
}

// GetByIDForOwner fetches a tree only if it belongs to the given owner. A
// tree owned by someone else reads as gorm.ErrRecordNotFound; callers must
// not learn whether the id exists at all.
func (r *TreeRepositoryImpl) GetByIDForOwner(id, ownerID uint) (*models.Tree, error) {
	var tree models.Tree
	err := r.DB.Where("id = ? AND owner_id = ?", id, ownerID).First(&tree).Error
	if err != nil {
		return nil, err
	}
	return &tree, nil
}

func (r *TreeRepositoryImpl) ListByOwner(ownerID uint) ([]models.Tree, error) {
	var trees []models.Tree
	err := r.DB.Where("owner_id = ?", ownerID).Order("name ASC").Find(&trees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trees for owner %d: %w", ownerID, err)
	}
	return trees, nil
}

func (r *TreeRepositoryImpl) Update(tree *models.Tree) error {
	result := r.DB.Model(&models.Tree{}).Where("id = ?", tree.ID).Updates(models.Tree{
		Name: tree.Name,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update tree ID %d: %w", tree.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a tree along with all of its people and relations in one
// transaction.
func (r *TreeRepositoryImpl) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tree_id = ?", id).Delete(&models.Relation{}).Error; err != nil {
			return fmt.Errorf("failed to delete relations for tree %d: %w", id, err)
		}
		if err := tx.Where("tree_id = ?", id).Delete(&models.Person{}).Error; err != nil {
			return fmt.Errorf("failed to delete people for tree %d: %w", id, err)
		}
		result := tx.Delete(&models.Tree{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete tree ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Touch bumps the tree's updated_at. It deliberately runs outside any
// surrounding write; a crash in between leaves the timestamp stale, which
// is accepted.
func (r *TreeRepositoryImpl) Touch(id uint) error {
	return r.DB.Model(&models.Tree{}).Where("id = ?", id).Update("updated_at", time.Now()).Error
}
