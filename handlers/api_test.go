package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/slakttrad/slakttradbackend/catalog"
	"github.com/slakttrad/slakttradbackend/config"
	"github.com/slakttrad/slakttradbackend/database"
	"github.com/slakttrad/slakttradbackend/importer"
	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

type testEnv struct {
	router *chi.Mux
}

// newTestEnv wires the full router against a private in-memory database,
// mirroring the wiring in main.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))

	cfg := config.Config{JWTSecret: "test-secret", JWTTTLHours: 1}

	userRepo := repository.NewGormUserRepository(db)
	treeRepo := repository.NewTreeRepository(db)
	personRepo := repository.NewPersonRepository(db)
	relationRepo := repository.NewRelationRepository(db)

	authHandler := NewAuthHandler(userRepo, cfg)
	treeHandler := NewTreeHandler(treeRepo)
	personHandler := NewPersonHandler(treeRepo, personRepo)
	relationHandler := NewRelationHandler(treeRepo, personRepo, relationRepo)
	importHandler := NewImportHandler(treeRepo, personRepo, relationRepo)
	exportHandler := NewExportHandler(treeRepo, personRepo, relationRepo)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(userRepo, cfg.JWTSecret))
		r.Get("/me", authHandler.CurrentUser)
		r.Get("/relation-types", relationHandler.ListRelationTypes)
		r.Route("/trees", func(r chi.Router) {
			r.Get("/", treeHandler.ListTrees)
			r.Post("/", treeHandler.CreateTree)
			r.Route("/{treeID}", func(r chi.Router) {
				r.Get("/", treeHandler.GetTree)
				r.Patch("/", treeHandler.UpdateTree)
				r.Delete("/", treeHandler.DeleteTree)
				r.Route("/people", func(r chi.Router) {
					r.Get("/", personHandler.ListPeople)
					r.Post("/", personHandler.CreatePerson)
					r.Route("/{personID}", func(r chi.Router) {
						r.Get("/", personHandler.GetPerson)
						r.Patch("/", personHandler.UpdatePerson)
						r.Delete("/", personHandler.DeletePerson)
					})
				})
				r.Route("/relations", func(r chi.Router) {
					r.Get("/", relationHandler.ListRelations)
					r.Post("/", relationHandler.CreateRelation)
					r.Delete("/{relationID}", relationHandler.DeleteRelation)
				})
				r.Route("/import", func(r chi.Router) {
					r.Post("/people/preview", importHandler.PreviewPeopleImport)
					r.Post("/people", importHandler.CommitPeopleImport)
					r.Post("/relations/preview", importHandler.PreviewRelationsImport)
					r.Post("/relations", importHandler.CommitRelationsImport)
				})
				r.Route("/export", func(r chi.Router) {
					r.Get("/people", exportHandler.ExportPeople)
					r.Get("/relations", exportHandler.ExportRelations)
				})
			})
		})
	})

	return &testEnv{router: r}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "hemligt-losenord"}
	rec := e.do(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[LoginResponse](t, rec)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (e *testEnv) createTree(t *testing.T, token, name string) models.Tree {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/trees", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[models.Tree](t, rec)
}

func (e *testEnv) createPerson(t *testing.T, token string, treeID uint, first, last string) models.Person {
	t.Helper()
	rec := e.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/people", treeID), token,
		map[string]string{"firstName": first, "lastName": last})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[models.Person](t, rec)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	creds := map[string]string{"username": "agda", "password": "hemligt-losenord"}
	rec := env.do(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	// duplicate username
	rec = env.do(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// short password
	rec = env.do(t, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "bertil", "password": "kort"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// wrong password
	rec = env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"username": "agda", "password": "fel-losenord"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[LoginResponse](t, rec)
	require.NotEmpty(t, resp.AccessToken)

	rec = env.do(t, http.MethodGet, "/me", resp.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[models.User](t, rec)
	assert.Equal(t, "agda", me.Username)

	rec = env.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/me", "inte-en-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTreeCRUDAndOwnership(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	bertil := env.registerAndLogin(t, "bertil")

	tree := env.createTree(t, agda, "Agdas släkt")
	treePath := fmt.Sprintf("/trees/%d", tree.ID)

	rec := env.do(t, http.MethodGet, treePath, agda, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// another user's tree reads as missing
	rec = env.do(t, http.MethodGet, treePath, bertil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, treePath, bertil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, treePath, agda, map[string]string{"name": "Nya namnet"})
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decodeBody[models.Tree](t, rec)
	assert.Equal(t, "Nya namnet", renamed.Name)

	rec = env.do(t, http.MethodPost, "/trees", agda, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, treePath, agda, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, treePath, agda, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersonValidation(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")
	peoplePath := fmt.Sprintf("/trees/%d/people", tree.ID)

	rec := env.do(t, http.MethodPost, peoplePath, agda, map[string]string{"firstName": "Anna"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// partial location triple
	rec = env.do(t, http.MethodPost, peoplePath, agda, map[string]interface{}{
		"firstName": "Anna", "lastName": "Andersson", "latitude": 59.8586,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["error"], "Plats")

	rec = env.do(t, http.MethodPost, peoplePath, agda, map[string]interface{}{
		"firstName": "Anna", "lastName": "Andersson", "birthYear": 1901,
		"latitude": 59.8586, "longitude": 17.6389, "placeName": "Uppsala",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	anna := decodeBody[models.Person](t, rec)
	assert.True(t, anna.HasLocation())

	rec = env.do(t, http.MethodGet, fmt.Sprintf("%s/%d", peoplePath, anna.ID), agda, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("%s/99999", peoplePath), agda, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPersonSearchEndpoint(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")
	env.createPerson(t, agda, tree.ID, "Anna", "Andersson")
	env.createPerson(t, agda, tree.ID, "Karl", "Karlsson")

	rec := env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/people?query=anders", tree.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	people := decodeBody[[]models.Person](t, rec)
	require.Len(t, people, 1)
	assert.Equal(t, "Anna", people[0].FirstName)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/people?bornAfter=abc", tree.ID), agda, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRelationRules(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")
	other := env.createTree(t, agda, "Annat träd")
	anna := env.createPerson(t, agda, tree.ID, "Anna", "Andersson")
	karl := env.createPerson(t, agda, tree.ID, "Karl", "Karlsson")
	utanfor := env.createPerson(t, agda, other.ID, "Ulla", "Utanför")

	relationsPath := fmt.Sprintf("/trees/%d/relations", tree.ID)

	// self-relation
	rec := env.do(t, http.MethodPost, relationsPath, agda, map[string]interface{}{
		"fromPersonId": anna.ID, "toPersonId": anna.ID, "type": "förälder",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// endpoint from another tree
	rec = env.do(t, http.MethodPost, relationsPath, agda, map[string]interface{}{
		"fromPersonId": anna.ID, "toPersonId": utanfor.ID, "type": "förälder",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// raw label normalizes through the catalog
	rec = env.do(t, http.MethodPost, relationsPath, agda, map[string]interface{}{
		"fromPersonId": anna.ID, "toPersonId": karl.ID, "type": "Syster",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[models.Relation](t, rec)
	assert.Equal(t, catalog.TypeSibling, created.Type)

	// duplicate tuple
	rec = env.do(t, http.MethodPost, relationsPath, agda, map[string]interface{}{
		"fromPersonId": anna.ID, "toPersonId": karl.ID, "type": "syskon",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("%s/%d", relationsPath, created.ID), agda, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPeopleImportPreviewAndCommit(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")

	csv := "förnamn;efternamn;födelseår\n" +
		"Anna;Andersson;1901\n" +
		"Karl;;1899\n" +
		"Eva;Svensson;cirka 1920\n"

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/people/preview", tree.ID), agda, csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeBody[importer.PersonPreview](t, rec)
	require.Len(t, preview.Accepted, 2)
	assert.Len(t, preview.Warnings, 2)
	assert.NotEmpty(t, preview.BatchID)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/people", tree.ID), agda,
		map[string]interface{}{"batchId": preview.BatchID, "rows": preview.Accepted})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 2, result["created"])

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/people", tree.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	people := decodeBody[[]models.Person](t, rec)
	assert.Len(t, people, 2)
}

func TestRelationsImportWithManualMapping(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")
	anna := env.createPerson(t, agda, tree.ID, "Anna", "Andersson")
	env.createPerson(t, agda, tree.ID, "Karl", "Karlsson")
	eva1 := env.createPerson(t, agda, tree.ID, "Eva", "Svensson")
	env.createPerson(t, agda, tree.ID, "Eva", "Svensson") // ambiguous twin

	csv := "person a;relation;person b\n" +
		"Anna Andersson;förälder;Karl Karlsson\n" +
		"Anna Andersson;syskon;Eva Svensson\n" +
		"anna andersson;barn;karl karlsson\n"

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/relations/preview", tree.ID), agda, csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeBody[importer.RelationPreview](t, rec)
	require.Len(t, preview.Rows, 3)
	assert.Equal(t, 1, preview.DuplicateCount)
	assert.Equal(t, []string{"Eva Svensson"}, preview.UnmatchedNames)
	// ambiguity surfaces candidates for the manual mapping table
	assert.Len(t, preview.Rows[1].ToCandidates, 2)

	// commit with the ambiguity resolved manually
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/relations", tree.ID), agda,
		map[string]interface{}{
			"batchId": preview.BatchID,
			"rows":    preview.Rows,
			"mapping": map[string]uint{"Eva Svensson": eva1.ID},
		})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decodeBody[map[string]json.RawMessage](t, rec)
	var created, skipped int
	require.NoError(t, json.Unmarshal(result["created"], &created))
	require.NoError(t, json.Unmarshal(result["skipped"], &skipped))
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, skipped) // the duplicate row

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/relations", tree.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	relations := decodeBody[[]models.Relation](t, rec)
	require.Len(t, relations, 2)
	assert.Equal(t, anna.ID, relations[0].FromPersonID)
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	source := env.createTree(t, agda, "Källträdet")
	anna := env.createPerson(t, agda, source.ID, "Anna", "Andersson")
	karl := env.createPerson(t, agda, source.ID, "Karl", "Karlsson")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/relations", source.ID), agda,
		map[string]interface{}{"fromPersonId": anna.ID, "toPersonId": karl.ID, "type": "förälder"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/export/people", source.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "personer.csv")
	peopleCSV := rec.Body.Bytes()

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/export/relations", source.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	relationsCSV := rec.Body.Bytes()

	// replay both files into an empty tree
	target := env.createTree(t, agda, "Målträdet")

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/people/preview", target.ID), agda, peopleCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	peoplePreview := decodeBody[importer.PersonPreview](t, rec)
	require.Len(t, peoplePreview.Accepted, 2)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/people", target.ID), agda,
		map[string]interface{}{"batchId": peoplePreview.BatchID, "rows": peoplePreview.Accepted})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/relations/preview", target.ID), agda, relationsCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	relationPreview := decodeBody[importer.RelationPreview](t, rec)
	assert.Empty(t, relationPreview.UnmatchedNames)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/import/relations", target.ID), agda,
		map[string]interface{}{"batchId": relationPreview.BatchID, "rows": relationPreview.Rows})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// the (name, type, name) label set survives the round trip
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/relations", target.ID), agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	relations := decodeBody[[]models.Relation](t, rec)
	require.Len(t, relations, 1)
	assert.Equal(t, catalog.TypeParent, relations[0].Type)
	require.NotNil(t, relations[0].FromPerson)
	assert.Equal(t, "Anna Andersson", relations[0].FromPerson.FullName())
	require.NotNil(t, relations[0].ToPerson)
	assert.Equal(t, "Karl Karlsson", relations[0].ToPerson.FullName())
}

func TestCascadeDeleteViaAPI(t *testing.T) {
	env := newTestEnv(t)
	agda := env.registerAndLogin(t, "agda")
	tree := env.createTree(t, agda, "Agdas släkt")
	anna := env.createPerson(t, agda, tree.ID, "Anna", "Andersson")
	karl := env.createPerson(t, agda, tree.ID, "Karl", "Karlsson")

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/trees/%d/relations", tree.ID), agda,
		map[string]interface{}{"fromPersonId": anna.ID, "toPersonId": karl.ID, "type": "kusin"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/trees/%d", tree.ID), agda, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/trees/%d/people", tree.ID), agda, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/trees", agda, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]models.Tree](t, rec))
}
