package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dropskill/dropskill/internal/auth"
	"github.com/dropskill/dropskill/internal/storage"
)

// userStore is the subset of the storage layer the auth handler needs.
type userStore interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*storage.User, error)
	UserByEmail(ctx context.Context, email string) (*storage.User, error)
	UserByID(ctx context.Context, id int64) (*storage.User, error)
}

// tokenIssuer issues bearer tokens for authenticated users.
type tokenIssuer interface {
	Issue(userID int64) string
}

type authHandler struct {
	users  userStore
	tokens tokenIssuer
	logger *slog.Logger
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        *storage.User `json:"user"`
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hashing password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create account")
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Email, hash, strings.TrimSpace(req.FullName), storage.RoleSeller)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "email_taken", "email already registered")
			return
		}
		h.logger.Error("creating user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not create account")
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: h.tokens.Issue(user.ID),
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password")
			return
		}
		h.logger.Error("looking up user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not log in")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusForbidden, "account_disabled", "account is disabled")
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "incorrect email or password")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: h.tokens.Issue(user.ID),
		TokenType:   "bearer",
		User:        user,
	})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := h.users.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
			return
		}
		h.logger.Error("loading user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load account")
		return
	}

	writeJSON(w, http.StatusOK, user)
}
