package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/slakttrad/slakttradbackend/catalog"
	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

const msgRelationNotFound = "Relationen hittades inte"

type RelationHandler struct {
	TreeRepo     repository.TreeRepository
	PersonRepo   repository.PersonRepository
	RelationRepo repository.RelationRepository
}

func NewRelationHandler(treeRepo repository.TreeRepository, personRepo repository.PersonRepository, relationRepo repository.RelationRepository) *RelationHandler {
	return &RelationHandler{TreeRepo: treeRepo, PersonRepo: personRepo, RelationRepo: relationRepo}
}

type relationPayload struct {
	FromPersonID uint   `json:"fromPersonId" validate:"required"`
	ToPersonID   uint   `json:"toPersonId" validate:"required"`
	Type         string `json:"type" validate:"required"`
}

func (h *RelationHandler) ListRelations(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	relations, err := h.RelationRepo.ListByTree(tree.ID)
	if err != nil {
		log.Printf("Error listing relations for tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if relations == nil {
		relations = []models.Relation{}
	}
	writeJSON(w, http.StatusOK, relations)
}

// CreateRelation stores a typed relation between two people of the tree.
// Both endpoints must belong to the tree, a self-relation is a 400 and a
// duplicate (from, to, type) tuple is a 409.
func (h *RelationHandler) CreateRelation(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}

	var payload relationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if payload.FromPersonID == payload.ToPersonID {
		writeError(w, http.StatusBadRequest, "En relation kan inte gå från en person till sig själv")
		return
	}

	for _, personID := range []uint{payload.FromPersonID, payload.ToPersonID} {
		if _, err := h.PersonRepo.GetByTree(tree.ID, personID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeError(w, http.StatusBadRequest, "Båda personerna måste tillhöra trädet")
			} else {
				log.Printf("Error verifying person %d in tree %d: %v", personID, tree.ID, err)
				writeError(w, http.StatusInternalServerError, msgInternal)
			}
			return
		}
	}

	relationType := catalog.Normalize(payload.Type)
	exists, err := h.RelationRepo.Exists(tree.ID, payload.FromPersonID, payload.ToPersonID, relationType)
	if err != nil {
		log.Printf("Error checking relation duplicate in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "Relationen finns redan")
		return
	}

	relation := &models.Relation{
		TreeID:       tree.ID,
		FromPersonID: payload.FromPersonID,
		ToPersonID:   payload.ToPersonID,
		Type:         relationType,
	}
	if err := h.RelationRepo.Create(relation); err != nil {
		log.Printf("Error creating relation in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after relation create: %v", tree.ID, err)
	}
	writeJSON(w, http.StatusCreated, relation)
}

func (h *RelationHandler) DeleteRelation(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	relationID, ok := uintParam(r, "relationID")
	if !ok {
		writeError(w, http.StatusNotFound, msgRelationNotFound)
		return
	}
	if err := h.RelationRepo.Delete(tree.ID, relationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, msgRelationNotFound)
		} else {
			log.Printf("Error deleting relation %d in tree %d: %v", relationID, tree.ID, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after relation delete: %v", tree.ID, err)
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ListRelationTypes exposes the fixed relation catalog so clients can render
// pickers without hardcoding it.
func (h *RelationHandler) ListRelationTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Types())
}
