package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/slakttrad/slakttradbackend/catalog"
	"github.com/slakttrad/slakttradbackend/importer"
	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

// ImportHandler serves the CSV import flow: the client uploads raw CSV for
// a preview, resolves ambiguous name matches, then commits the reviewed
// rows. Commits run row by row and halt on the first error with no rollback
// of already-created rows.
type ImportHandler struct {
	TreeRepo     repository.TreeRepository
	PersonRepo   repository.PersonRepository
	RelationRepo repository.RelationRepository
}

func NewImportHandler(treeRepo repository.TreeRepository, personRepo repository.PersonRepository, relationRepo repository.RelationRepository) *ImportHandler {
	return &ImportHandler{TreeRepo: treeRepo, PersonRepo: personRepo, RelationRepo: relationRepo}
}

// PreviewPeopleImport parses the raw CSV request body into accepted rows
// and warnings without writing anything.
func (h *ImportHandler) PreviewPeopleImport(w http.ResponseWriter, r *http.Request) {
	if _, ok := ownedTree(w, r, h.TreeRepo); !ok {
		return
	}
	preview, err := importer.ParsePeopleCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Printf("Person import preview %s: %d accepted, %d warnings, %d skipped",
		preview.BatchID, len(preview.Accepted), len(preview.Warnings), preview.SkippedCount)
	writeJSON(w, http.StatusOK, preview)
}

type commitPeoplePayload struct {
	BatchID string               `json:"batchId"`
	Rows    []importer.PersonRow `json:"rows" validate:"required,min=1"`
}

type commitPeopleResult struct {
	Created int `json:"created"`
}

// CommitPeopleImport persists the reviewed rows sequentially. A repository
// error aborts the remaining rows; prior rows stay committed.
func (h *ImportHandler) CommitPeopleImport(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}

	var payload commitPeoplePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created := 0
	for _, row := range payload.Rows {
		if strings.TrimSpace(row.FirstName) == "" || strings.TrimSpace(row.LastName) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":   fmt.Sprintf("Rad %d saknar förnamn eller efternamn", row.Line),
				"created": created,
			})
			return
		}
		person := &models.Person{
			TreeID:    tree.ID,
			FirstName: strings.TrimSpace(row.FirstName),
			LastName:  strings.TrimSpace(row.LastName),
			Gender:    row.Gender,
			BirthYear: row.BirthYear,
			DeathYear: row.DeathYear,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			PlaceName: row.PlaceName,
		}
		if !person.HasLocation() {
			person.Latitude, person.Longitude, person.PlaceName = nil, nil, nil
		}
		if err := h.PersonRepo.Create(person); err != nil {
			log.Printf("Person import %s aborted at row %d in tree %d: %v", payload.BatchID, row.Line, tree.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   msgInternal,
				"created": created,
			})
			return
		}
		created++
	}

	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after person import: %v", tree.ID, err)
	}
	log.Printf("Person import %s: created %d people in tree %d", payload.BatchID, created, tree.ID)
	writeJSON(w, http.StatusCreated, commitPeopleResult{Created: created})
}

// PreviewRelationsImport parses the raw CSV body, normalizes types, marks
// in-batch duplicates and runs the name matcher against the tree's people.
func (h *ImportHandler) PreviewRelationsImport(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	preview, err := importer.ParseRelationsCSV(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	people, err := h.PersonRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing people for relation import in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	preview.Rows = importer.MatchNames(preview.Rows, people)
	preview.UnmatchedNames = importer.UnmatchedNames(preview.Rows)

	log.Printf("Relation import preview %s: %d rows, %d duplicates, %d unmatched names in tree %d",
		preview.BatchID, len(preview.Rows), preview.DuplicateCount, len(preview.UnmatchedNames), tree.ID)
	writeJSON(w, http.StatusOK, preview)
}

type commitRelationsPayload struct {
	BatchID string                 `json:"batchId"`
	Rows    []importer.RelationRow `json:"rows" validate:"required,min=1"`
	// Mapping is the user-adjusted name-to-person table; keys are matched
	// case-insensitively against row names.
	Mapping map[string]uint `json:"mapping,omitempty"`
}

type commitRelationsResult struct {
	Created  int                `json:"created"`
	Skipped  int                `json:"skipped"`
	Warnings []importer.Warning `json:"warnings"`
}

// CommitRelationsImport resolves each row's endpoints via the manual
// mapping, then via exact unique name match, and persists the resolved
// rows. Rows with an unresolved endpoint, equal endpoints, in-batch
// duplicates and relations that already exist are skipped with a warning.
func (h *ImportHandler) CommitRelationsImport(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}

	var payload commitRelationsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	people, err := h.PersonRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing people for relation commit in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	nameIndex := importer.NameIndex(people)
	treePeople := make(map[uint]bool, len(people))
	for i := range people {
		treePeople[people[i].ID] = true
	}
	mapping := make(map[string]uint, len(payload.Mapping))
	for name, id := range payload.Mapping {
		mapping[strings.ToLower(strings.TrimSpace(name))] = id
	}

	resolve := func(name string) (uint, bool) {
		key := strings.ToLower(strings.TrimSpace(name))
		if id, ok := mapping[key]; ok {
			return id, treePeople[id]
		}
		if ids := nameIndex[key]; len(ids) == 1 {
			return ids[0], true
		}
		return 0, false
	}

	result := commitRelationsResult{Warnings: []importer.Warning{}}
	skip := func(line int, message string) {
		result.Skipped++
		result.Warnings = append(result.Warnings, importer.Warning{Line: line, Message: message})
	}

	for _, row := range payload.Rows {
		if row.Duplicate {
			skip(row.Line, "dubblettrad hoppas över")
			continue
		}
		fromID, ok := resolve(row.FromName)
		if !ok {
			skip(row.Line, fmt.Sprintf("namnet '%s' kunde inte kopplas till en person", row.FromName))
			continue
		}
		toID, ok := resolve(row.ToName)
		if !ok {
			skip(row.Line, fmt.Sprintf("namnet '%s' kunde inte kopplas till en person", row.ToName))
			continue
		}
		if fromID == toID {
			skip(row.Line, "person A och person B är samma person")
			continue
		}

		relationType := catalog.Normalize(row.Type)
		exists, err := h.RelationRepo.Exists(tree.ID, fromID, toID, relationType)
		if err != nil {
			log.Printf("Relation import %s: duplicate check failed at row %d: %v", payload.BatchID, row.Line, err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   msgInternal,
				"created": result.Created,
			})
			return
		}
		if exists {
			skip(row.Line, "relationen finns redan i trädet")
			continue
		}

		relation := &models.Relation{
			TreeID:       tree.ID,
			FromPersonID: fromID,
			ToPersonID:   toID,
			Type:         relationType,
		}
		if err := h.RelationRepo.Create(relation); err != nil {
			log.Printf("Relation import %s aborted at row %d in tree %d: %v", payload.BatchID, row.Line, tree.ID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error":   msgInternal,
				"created": result.Created,
			})
			return
		}
		result.Created++
	}

	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after relation import: %v", tree.ID, err)
	}
	log.Printf("Relation import %s: created %d, skipped %d in tree %d",
		payload.BatchID, result.Created, result.Skipped, tree.ID)
	writeJSON(w, http.StatusCreated, result)
}
