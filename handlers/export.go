package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/slakttrad/slakttradbackend/importer"
	"github.com/slakttrad/slakttradbackend/repository"
)

// ExportHandler serves a tree's people and relations as downloadable
// semicolon-delimited CSV files (UTF-8 with BOM).
type ExportHandler struct {
	TreeRepo     repository.TreeRepository
	PersonRepo   repository.PersonRepository
	RelationRepo repository.RelationRepository
}

func NewExportHandler(treeRepo repository.TreeRepository, personRepo repository.PersonRepository, relationRepo repository.RelationRepository) *ExportHandler {
	return &ExportHandler{TreeRepo: treeRepo, PersonRepo: personRepo, RelationRepo: relationRepo}
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (h *ExportHandler) ExportPeople(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	people, err := h.PersonRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing people for export of tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	setCSVHeaders(w, fmt.Sprintf("trad-%d-personer.csv", tree.ID))
	if err := importer.WritePeopleCSV(w, people); err != nil {
		// headers are already out; only the log can tell the whole story
		log.Printf("Error writing people CSV for tree %d: %v", tree.ID, err)
	}
}

func (h *ExportHandler) ExportRelations(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	relations, err := h.RelationRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing relations for export of tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	people, err := h.PersonRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing people for relation export of tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	setCSVHeaders(w, fmt.Sprintf("trad-%d-relationer.csv", tree.ID))
	if err := importer.WriteRelationsCSV(w, relations, people); err != nil {
		log.Printf("Error writing relations CSV for tree %d: %v", tree.ID, err)
	}
}
