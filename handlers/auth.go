// handlers/auth.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"farmwise/config"
	"farmwise/middleware"
	"farmwise/models"
)

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Location string `json:"location,omitempty"`
}

type loginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type userPayload struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Location string    `json:"location,omitempty"`
}

type loginResp struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Phone == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "phone and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "error hashing password")
		return
	}

	u := models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Location:     req.Location,
	}
	if err := config.DB.Create(&u).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			respondError(w, http.StatusConflict, "an account with that phone or email already exists")
		} else {
			respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, userPayload{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Location: u.Location,
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var u models.User
	if err := config.DB.Where("phone = ?", req.Phone).First(&u).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(u.ID.String(), u.Name, u.Phone)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "couldn't create token")
		return
	}

	respondJSON(w, http.StatusOK, loginResp{
		Token: token,
		User: userPayload{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Phone:    u.Phone,
			Location: u.Location,
		},
	})
}

func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var u models.User
	if err := config.DB.First(&u, "id = ?", userID).Error; err != nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, userPayload{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Location: u.Location,
	})
}
