package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// UserContextKey is the key used to store the user object in the request context.
	UserContextKey ContextKey = "user"
)

// Client-facing messages are Swedish; server logs keep the detail.
const (
	msgInvalidBody  = "Ogiltig förfrågan"
	msgTreeNotFound = "Trädet hittades inte"
	msgInternal     = "Ett oväntat fel inträffade"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// currentUser pulls the authenticated user that AuthMiddleware stored in the
// request context.
func currentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

func uintParam(r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ownedTree loads the tree named by the treeID route parameter, scoped to
// the authenticated user. Trees owned by other users read as 404; callers
// must not learn whether the id exists.
func ownedTree(w http.ResponseWriter, r *http.Request, treeRepo repository.TreeRepository) (*models.Tree, bool) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return nil, false
	}
	treeID, ok := uintParam(r, "treeID")
	if !ok {
		writeError(w, http.StatusNotFound, msgTreeNotFound)
		return nil, false
	}
	tree, err := treeRepo.GetByIDForOwner(treeID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, msgTreeNotFound)
		} else {
			log.Printf("Error fetching tree %d for user %d: %v", treeID, user.ID, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return nil, false
	}
	return tree, true
}

// validatePayload runs the shared validator over a payload struct and turns
// the first failure into a Swedish message.
func validatePayload(payload interface{}) (string, bool) {
	err := validate.Struct(payload)
	if err == nil {
		return "", true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("Fältet %s är obligatoriskt", jsonFieldName(fe)), false
		case "min":
			return fmt.Sprintf("Fältet %s är för kort (minst %s tecken)", jsonFieldName(fe), fe.Param()), false
		case "max":
			return fmt.Sprintf("Fältet %s är för långt (högst %s tecken)", jsonFieldName(fe), fe.Param()), false
		case "gte", "lte":
			return fmt.Sprintf("Fältet %s ligger utanför tillåtet intervall", jsonFieldName(fe)), false
		}
		return fmt.Sprintf("Fältet %s är ogiltigt", jsonFieldName(fe)), false
	}
	return msgInvalidBody, false
}

func jsonFieldName(fe validator.FieldError) string {
	// struct field names here match the camelCase json tags apart from the
	// leading capital
	name := fe.Field()
	if name == "" {
		return "?"
	}
	return string(name[0]|0x20) + name[1:]
}
