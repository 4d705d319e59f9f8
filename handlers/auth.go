package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/slakttrad/slakttradbackend/config"
	"github.com/slakttrad/slakttradbackend/models"
	"github.com/slakttrad/slakttradbackend/repository"
)

type AuthHandler struct {
	UserRepo repository.UserRepository
	Cfg      config.Config
}

func NewAuthHandler(userRepo repository.UserRepository, cfg config.Config) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, Cfg: cfg}
}

type RegisterPayload struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
	ExpiresAt   time.Time   `json:"expiresAt"`
}

// Register creates a new account. Duplicate usernames are a 409.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	newUser := &models.User{Username: strings.TrimSpace(payload.Username)}
	if err := newUser.SetPassword(payload.Password); err != nil {
		log.Printf("Error hashing password for '%s': %v", payload.Username, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	if err := h.UserRepo.Create(newUser); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			writeError(w, http.StatusConflict, "Användarnamnet är upptaget")
		} else {
			log.Printf("Error creating user '%s': %v", payload.Username, err)
			writeError(w, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	writeJSON(w, http.StatusCreated, newUser)
}

// Login verifies credentials and issues an HS256 JWT with the user id as
// subject.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if msg, ok := validatePayload(payload); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := h.UserRepo.GetByUsername(payload.Username)
	if err != nil || !user.CheckPassword(payload.Password) {
		writeError(w, http.StatusUnauthorized, "Fel användarnamn eller lösenord")
		return
	}

	expirationTime := time.Now().Add(time.Duration(h.Cfg.JWTTTLHours) * time.Hour)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(user.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "slakttradbackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.Cfg.JWTSecret))
	if err != nil {
		log.Printf("Error signing token for user %d: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: tokenString,
		User:        *user,
		ExpiresAt:   expirationTime,
	})
}

// CurrentUser returns the authenticated user from the request context. It
// must be mounted behind AuthMiddleware.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
