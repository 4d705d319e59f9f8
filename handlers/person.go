package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

const msgPersonNotFound = "Personen hittades inte"

type PersonHandler struct {
	TreeRepo   repository.TreeRepository
	PersonRepo repository.PersonRepository
}

func NewPersonHandler(treeRepo repository.TreeRepository, personRepo repository.PersonRepository) *PersonHandler {
	return &PersonHandler{TreeRepo: treeRepo, PersonRepo: personRepo}
}

type personPayload struct {
	FirstName string   `json:"firstName" validate:"required,max=120"`
	LastName  string   `json:"lastName" validate:"required,max=120"`
	Gender    *string  `json:"gender,omitempty" validate:"omitempty,max=32"`
	BirthYear *int     `json:"birthYear,omitempty"`
	DeathYear *int     `json:"deathYear,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	PlaceName *string  `json:"placeName,omitempty" validate:"omitempty,max=200"`
}

// locationComplete enforces the all-or-nothing location triple.
func (p *personPayload) locationComplete() bool {
	set := 0
	if p.Latitude != nil {
		set++
	}
	if p.Longitude != nil {
		set++
	}
	if p.PlaceName != nil {
		set++
	}
	return set == 0 || set == 3
}

func (p *personPayload) apply(person *models.Person) {
	person.FirstName = strings.TrimSpace(p.FirstName)
	person.LastName = strings.TrimSpace(p.LastName)
	person.Gender = p.Gender
	person.BirthYear = p.BirthYear
	person.DeathYear = p.DeathYear
	person.Latitude = p.Latitude
	person.Longitude = p.Longitude
	person.PlaceName = p.PlaceName
}

func decodePersonPayload(w http.ResponseWriter, r *http.Request) (*personPayload, bool) {
	var payload personPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return nil, false
	}
	if strings.TrimSpace(payload.FirstName) == "" || strings.TrimSpace(payload.LastName) == "" {
		writeError(w, http.StatusBadRequest, "Förnamn och efternamn krävs")
		return nil, false
	}
	if !payload.locationComplete() {
		writeError(w, http.StatusBadRequest, "Plats kräver latitud, longitud och platsnamn tillsammans")
		return nil, false
	}
	return &payload, true
}

// ListPeople lists a tree's people, optionally filtered by ?query=,
// ?bornAfter= and ?bornBefore=.
func (h *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}

	filter := repository.PersonFilter{Query: strings.TrimSpace(r.URL.Query().Get("query"))}
	if raw := r.URL.Query().Get("bornAfter"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Ogiltigt värde för bornAfter")
			return
		}
		filter.BornAfter = &year
	}
	if raw := r.URL.Query().Get("bornBefore"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Ogiltigt värde för bornBefore")
			return
		}
		filter.BornBefore = &year
	}

	people, err := h.PersonRepo.Search(tree.ID, filter)
	if err != nil {
		log.Printf("Error searching people in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	payload, ok := decodePersonPayload(w, r)
	if !ok {
		return
	}

	person := &models.Person{TreeID: tree.ID}
	payload.apply(person)
	if err := h.PersonRepo.Create(person); err != nil {
		log.Printf("Error creating person in tree %d: %v", tree.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after person create: %v", tree.ID, err)
	}
	writeJSON(w, http.StatusCreated, person)
}

func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	personID, ok := uintParam(r, "personID")
	if !ok {
		writeError(w, http.StatusNotFound, msgPersonNotFound)
		return
	}
	person, err := h.PersonRepo.GetByTree(tree.ID, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, msgPersonNotFound)
		} else {
			log.Printf("Error fetching person %d in tree %d: %v", personID, tree.ID, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	personID, ok := uintParam(r, "personID")
	if !ok {
		writeError(w, http.StatusNotFound, msgPersonNotFound)
		return
	}
	person, err := h.PersonRepo.GetByTree(tree.ID, personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, msgPersonNotFound)
		} else {
			log.Printf("Error fetching person %d for update: %v", personID, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	payload, ok := decodePersonPayload(w, r)
	if !ok {
		return
	}
	payload.apply(person)
	if err := h.PersonRepo.Update(person); err != nil {
		log.Printf("Error updating person %d: %v", person.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after person update: %v", tree.ID, err)
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	tree, ok := ownedTree(w, r, h.TreeRepo)
	if !ok {
		return
	}
	personID, ok := uintParam(r, "personID")
	if !ok {
		writeError(w, http.StatusNotFound, msgPersonNotFound)
		return
	}
	if err := h.PersonRepo.Delete(tree.ID, personID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, msgPersonNotFound)
		} else {
			log.Printf("Error deleting person %d in tree %d: %v", personID, tree.ID, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}
	if err := h.TreeRepo.Touch(tree.ID); err != nil {
		log.Printf("Error touching tree %d after person delete: %v", tree.ID, err)
	}
	writeJSON(w, http.StatusNoContent, nil)
}
