package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/slakttrad/slakttradbackend/database"
	"github.com/slakttrad/slakttradbackend/models"
)

// newTestDB opens a private in-memory sqlite database named after the test,
// so parallel tests never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, user.SetPassword("hemligt-losenord"))
	require.NoError(t, NewGormUserRepository(db).Create(user))
	return user
}

func createTree(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Tree {
	t.Helper()
	tree := &models.Tree{Name: name, OwnerID: ownerID}
	require.NoError(t, NewTreeRepository(db).Create(tree))
	return tree
}

func createPerson(t *testing.T, db *gorm.DB, treeID uint, first, last string, birthYear *int) *models.Person {
	t.Helper()
	person := &models.Person{TreeID: treeID, FirstName: first, LastName: last, BirthYear: birthYear}
	require.NoError(t, NewPersonRepository(db).Create(person))
	return person
}
