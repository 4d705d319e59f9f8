package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/slakttrad/slakttradbackend/catalog"
	"github.com/slakttrad/slakttradbackend/models"
)

func year(y int) *int { return &y }

func TestPersonGetByTreeScoping(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "agda")
	treeA := createTree(t, db, owner.ID, "Träd A")
	treeB := createTree(t, db, owner.ID, "Träd B")
	anna := createPerson(t, db, treeA.ID, "Anna", "Andersson", nil)

	repo := NewPersonRepository(db)

	got, err := repo.GetByTree(treeA.ID, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.FirstName)

	_, err = repo.GetByTree(treeB.ID, anna.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPersonSearchFilters(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "agda")
	tree := createTree(t, db, owner.ID, "Agdas släkt")
	createPerson(t, db, tree.ID, "Anna", "Andersson", year(1901))
	createPerson(t, db, tree.ID, "Karl", "Karlsson", year(1875))
	createPerson(t, db, tree.ID, "Eva", "Andersson", year(1920))

	repo := NewPersonRepository(db)

	all, err := repo.Search(tree.ID, PersonFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byName, err := repo.Search(tree.ID, PersonFilter{Query: "andersson"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	after, err := repo.Search(tree.ID, PersonFilter{BornAfter: year(1900)})
	require.NoError(t, err)
	assert.Len(t, after, 2)

	window, err := repo.Search(tree.ID, PersonFilter{BornAfter: year(1900), BornBefore: year(1910)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "Anna", window[0].FirstName)
}

func TestPersonUpdate(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "agda")
	tree := createTree(t, db, owner.ID, "Agdas släkt")
	anna := createPerson(t, db, tree.ID, "Anna", "Andersson", year(1901))

	repo := NewPersonRepository(db)
	lat, lng, place := 59.8586, 17.6389, "Uppsala"
	anna.BirthYear = year(1902)
	anna.Latitude, anna.Longitude, anna.PlaceName = &lat, &lng, &place
	require.NoError(t, repo.Update(anna))

	got, err := repo.GetByTree(tree.ID, anna.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BirthYear)
	assert.Equal(t, 1902, *got.BirthYear)
	assert.True(t, got.HasLocation())

	// clearing one coordinate clears the whole triple upstream; the
	// repository persists whatever it is handed
	got.Latitude, got.Longitude, got.PlaceName = nil, nil, nil
	require.NoError(t, repo.Update(got))
	cleared, err := repo.GetByTree(tree.ID, anna.ID)
	require.NoError(t, err)
	assert.False(t, cleared.HasLocation())
}

func TestPersonDeleteRemovesItsRelations(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, "agda")
	tree := createTree(t, db, owner.ID, "Agdas släkt")
	anna := createPerson(t, db, tree.ID, "Anna", "Andersson", nil)
	karl := createPerson(t, db, tree.ID, "Karl", "Karlsson", nil)
	eva := createPerson(t, db, tree.ID, "Eva", "Svensson", nil)

	relationRepo := NewRelationRepository(db)
	require.NoError(t, relationRepo.Create(&models.Relation{
		TreeID: tree.ID, FromPersonID: anna.ID, ToPersonID: karl.ID, Type: catalog.TypeParent,
	}))
	require.NoError(t, relationRepo.Create(&models.Relation{
		TreeID: tree.ID, FromPersonID: karl.ID, ToPersonID: eva.ID, Type: catalog.TypePartner,
	}))

	require.NoError(t, NewPersonRepository(db).Delete(tree.ID, karl.ID))

	relations, err := relationRepo.ListByTree(tree.ID)
	require.NoError(t, err)
	assert.Empty(t, relations)

	people, err := NewPersonRepository(db).ListByTree(tree.ID)
	require.NoError(t, err)
	assert.Len(t, people, 2)
}
