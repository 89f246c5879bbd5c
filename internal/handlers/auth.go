package handlers

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/rdevries/kantoor/internal/auth"
	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/models"
	"github.com/rdevries/kantoor/internal/store"
)

type AuthHandler struct {
	Store  store.Store
	Tokens *auth.TokenManager
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Name           string `json:"name" validate:"required"`
		Email          string `json:"email" validate:"required,email"`
		Password       string `json:"password" validate:"required,min=8"`
		OrganizationID string `json:"organization_id" validate:"required"`
	}

	var req SignupRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		Name:           req.Name,
		Email:          req.Email,
		Password:       string(hashedPassword),
		OrganizationID: req.OrganizationID,
	}

	if err := h.Store.CreateUser(user); err != nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	type Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	var creds Credentials
	if err := decodeValid(r, &creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByEmail(creds.Email)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   auth.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe updates the caller's own profile. Absent fields keep their
// current value.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	type ProfileRequest struct {
		Name      *string `json:"name" validate:"omitempty,min=1"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
		Status    *string `json:"status" validate:"omitempty,oneof=Online Offline Busy"`
	}

	var req ProfileRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.Status != nil {
		user.Status = *req.Status
	}

	if err := h.Store.UpdateUserProfile(user); err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

// SearchUsers finds org members by name prefix for the DM picker.
func (h *AuthHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []models.User{})
		return
	}

	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.Store.SearchUsers(me.OrganizationID, query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Team lists every member of the caller's organization.
func (h *AuthHandler) Team(w http.ResponseWriter, r *http.Request) {
	me, err := h.Store.GetUserByID(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.Store.ListOrgMembers(me.OrganizationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
