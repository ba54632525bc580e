// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/keepreverse/newsline-go/internal/identity"
)

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// ListPending returns the moderation queue.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.ListPending(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, items)
}

type moderateRequest struct {
	Approve bool `json:"approve"`
}

// ModerateNews applies an approve/reject decision to a pending item.
func (h *Handler) ModerateNews(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := h.engine.Moderate(r.Context(), id, claims.UserID, req.Approve); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "moderation applied"})
}

// ArchiveNews moves an item into the archive.
func (h *Handler) ArchiveNews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	if err := h.engine.Archive(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "news archived"})
}

// ListArchived returns the archive.
func (h *Handler) ListArchived(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.ListArchived(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, items)
}

// RestoreArchived takes an item out of the archive. With ?publish=true it
// goes live with a fresh publish date, otherwise back to Pending.
func (h *Handler) RestoreArchived(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	publish := r.URL.Query().Get("publish") == "true"

	if err := h.engine.RestoreArchived(r.Context(), id, publish); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "news restored from archive"})
}

// ListTrash returns trashed items, most recently deleted first.
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.ListTrash(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, items)
}

type trashManyRequest struct {
	IDs []int64 `json:"ids"`
}

// TrashMany soft-deletes several items in one transaction.
func (h *Handler) TrashMany(w http.ResponseWriter, r *http.Request) {
	var req trashManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		WriteError(w, http.StatusBadRequest, "bad_request", "a non-empty ids list is required")
		return
	}
	if err := h.engine.SoftDeleteMany(r.Context(), req.IDs); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]any{"message": "news moved to trash", "count": len(req.IDs)})
}

// RestoreFromTrash returns a trashed item to Pending.
func (h *Handler) RestoreFromTrash(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	if err := h.engine.RestoreFromTrash(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "news restored from trash"})
}

// PurgeNews permanently deletes a trashed item.
func (h *Handler) PurgeNews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	if err := h.engine.Purge(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "news permanently deleted"})
}

// GetCounts returns the dashboard badge counts.
func (h *Handler) GetCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.engine.GetCounts(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, counts)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.registry.ListCategories(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, categories)
}

// CreateCategory adds a category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	category, err := h.registry.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteCreated(w, category)
}

// UpdateCategory renames a category.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid category id")
		return
	}
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	category, err := h.registry.UpdateCategory(r.Context(), id, req.Name, req.Description)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, category)
}

// DeleteCategory removes a category, clearing it from referencing news.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid category id")
		return
	}
	if err := h.registry.DeleteCategory(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "category deleted"})
}

// ListUsers returns all user accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.registry.ListUsers(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, users)
}

type userUpdateRequest struct {
	Login *string `json:"login"`
	Nick  *string `json:"nickname"`
	Role  *string `json:"role"`
}

// UpdateUser applies a partial update to a user account.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}
	var req userUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	user, err := h.registry.UpdateUser(r.Context(), id, identity.UserUpdate{
		Login: req.Login,
		Nick:  req.Nick,
		Role:  req.Role,
	})
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, user)
}

// DeleteUser removes a user and purges everything they published.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid user id")
		return
	}
	if id == claims.UserID {
		WriteError(w, http.StatusConflict, "business_rule", "you cannot delete your own account")
		return
	}
	if err := h.engine.DeleteUser(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "user deleted"})
}
