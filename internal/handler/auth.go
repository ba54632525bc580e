// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/keepreverse/newsline-go/internal/model"
)

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	user, err := h.registry.CreateUser(r.Context(), req.Login, req.Password, req.Nickname, req.Role)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteCreated(w, user)
}

// Login verifies credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	user, err := h.registry.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Login, user.Role, user.Nick)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, loginResponse{Token: token, User: user})
}

// Logout acknowledges the logout. Tokens are stateless; clients discard them.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, map[string]string{"message": "logged out"})
}
