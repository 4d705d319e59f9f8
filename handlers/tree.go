package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

type TreeHandler struct {
	TreeRepo repository.TreeRepository
}

func NewTreeHandler(treeRepo repository.TreeRepository) *TreeHandler {
	return &TreeHandler{TreeRepo: treeRepo}
}

type treePayload struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (h *TreeHandler) ListTrees(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	trees, err := h.TreeRepo.ListByOwner(user.ID)
	if err != nil {
		log.Printf("Error listing trees for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if trees == nil {
		trees = []models.Tree{}
	}
	writeJSON(w, http.StatusOK, trees)
}

func (h *TreeHandler) CreateTree(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	var payload treePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tree := &models.Tree{Name: payload.Name, OwnerID: user.ID}
	if err := h.TreeRepo.Create(tree); err != nil {
		log.Printf("Error creating tree '%s' for user %d: %v", payload.Name, user.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusCreated, tree)
}

func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *TreeHandler) UpdateTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}

	var payload treePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	tree.Name = payload.Name
	if err := h.TreeRepo.Update(tree); err != nil {
		log.Printf("Error updating tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *TreeHandler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	if err := h.TreeRepo.Delete(tree.ID); err != nil {
		log.Printf("Error deleting tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
