// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keepreverse/newsline-go/internal/apperr"
	"github.com/keepreverse/newsline-go/internal/attach"
	"github.com/keepreverse/newsline-go/internal/auth"
	"github.com/keepreverse/newsline-go/internal/model"
	"github.com/keepreverse/newsline-go/internal/news"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing.
const maxMultipartMemory = 32 << 20

// ListPublished returns the public news feed.
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	items, err := h.engine.ListPublished(r.Context())
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, items)
}

// GetNews returns a single news item. Trashed items are not served here.
func (h *Handler) GetNews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}

	item, err := h.engine.Get(r.Context(), id)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, item)
}

// CreateNews accepts a multipart form with the news fields and attachments.
func (h *Handler) CreateNews(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	form, err := h.parseNewsForm(r)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}

	item, err := h.engine.Create(r.Context(), news.CreateParams{
		PublisherID: claims.UserID,
		Title:       form.title,
		Body:        form.body,
		CategoryID:  form.categoryID,
		EventStart:  form.eventStart,
		EventEnd:    form.eventEnd,
		Uploads:     form.uploads,
	})
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteCreated(w, item)
}

// UpdateNews edits a news item, reconciling attachments against the
// submitted keep-set. Moderators may force-approve as part of the edit.
func (h *Handler) UpdateNews(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	if err := h.requireOwnershipOrModerator(r, claims, id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}

	form, err := h.parseNewsForm(r)
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}

	editor := model.User{Role: claims.Role}
	forceApprove := form.approve && editor.CanModerate()

	// Moderators may reassign an item to another publisher by nickname.
	var publisherID *int64
	if form.publisherNick != "" {
		if !editor.CanModerate() {
			WriteAppError(w, h.logger, apperr.New(apperr.ErrAuth, "you cannot reassign news to another publisher"))
			return
		}
		publisher, err := h.registry.FindUserByNick(r.Context(), form.publisherNick)
		if err != nil {
			WriteAppError(w, h.logger, err)
			return
		}
		publisherID = &publisher.ID
	}

	item, err := h.engine.Update(r.Context(), news.UpdateParams{
		ID:           id,
		EditorID:     claims.UserID,
		PublisherID:  publisherID,
		Title:        form.title,
		Body:         form.body,
		CategoryID:   form.categoryID,
		EventStart:   form.eventStart,
		EventEnd:     form.eventEnd,
		KeepFileIDs:  form.keepFileIDs,
		Uploads:      form.uploads,
		ForceApprove: forceApprove,
	})
	if err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, item)
}

// DeleteNews soft-deletes a news item into the trash.
func (h *Handler) DeleteNews(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid news id")
		return
	}
	if err := h.requireOwnershipOrModerator(r, claims, id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}

	if err := h.engine.SoftDelete(r.Context(), id); err != nil {
		WriteAppError(w, h.logger, err)
		return
	}
	WriteSuccess(w, map[string]string{"message": "news moved to trash"})
}

// ServeUpload delivers an attachment blob. Blob refs are opaque hex tokens;
// anything with a path separator is rejected outright.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	blobRef := chi.URLParam(r, "blobRef")
	if blobRef == "" || blobRef != filepath.Base(blobRef) || strings.ContainsAny(blobRef, "./\\") {
		WriteError(w, http.StatusBadRequest, "bad_request", "invalid file reference")
		return
	}
	http.ServeFile(w, r, h.files.BlobPath(blobRef))
}

type newsForm struct {
	title         string
	body          string
	categoryID    *int64
	eventStart    time.Time
	eventEnd      *time.Time
	keepFileIDs   []int64
	uploads       []attach.Upload
	approve       bool
	publisherNick string
}

func (h *Handler) parseNewsForm(r *http.Request) (newsForm, error) {
	var form newsForm
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return form, apperr.Validation("invalid multipart form")
	}

	form.title = r.FormValue("title")
	form.body = r.FormValue("body")
	form.approve = r.FormValue("approve") == "true"
	form.publisherNick = strings.TrimSpace(r.FormValue("publisherNick"))

	if v := r.FormValue("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return form, apperr.Validation("invalid category id")
		}
		form.categoryID = &id
	}

	if v := r.FormValue("eventStart"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return form, apperr.Validation("invalid event start date")
		}
		form.eventStart = t.UTC()
	}
	if v := r.FormValue("eventEnd"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return form, apperr.Validation("invalid event end date")
		}
		end := t.UTC()
		form.eventEnd = &end
	}

	for _, v := range r.Form["keepFileIds"] {
		for _, raw := range strings.Split(v, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return form, apperr.Validation("invalid keep file id")
			}
			form.keepFileIDs = append(form.keepFileIDs, id)
		}
	}

	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			upload, err := readUpload(fh)
			if err != nil {
				return form, err
			}
			form.uploads = append(form.uploads, upload)
		}
	}
	return form, nil
}

// readUpload validates one uploaded file against the size limit and the
// format allow-list, then reads its bytes.
func readUpload(fh *multipart.FileHeader) (attach.Upload, error) {
	if fh.Size > model.MaxAttachmentSize {
		return attach.Upload{}, apperr.Newf(apperr.ErrValidation,
			"file %s exceeds the %d MiB limit", fh.Filename, model.MaxAttachmentSize>>20)
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !model.SupportedFormat(format) {
		return attach.Upload{}, apperr.Newf(apperr.ErrValidation,
			"file %s has an unsupported format", fh.Filename)
	}

	f, err := fh.Open()
	if err != nil {
		return attach.Upload{}, apperr.FileSystem(fmt.Errorf("opening upload %s: %w", fh.Filename, err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, model.MaxAttachmentSize+1))
	if err != nil {
		return attach.Upload{}, apperr.FileSystem(fmt.Errorf("reading upload %s: %w", fh.Filename, err))
	}
	if int64(len(data)) > model.MaxAttachmentSize {
		return attach.Upload{}, apperr.Newf(apperr.ErrValidation,
			"file %s exceeds the %d MiB limit", fh.Filename, model.MaxAttachmentSize>>20)
	}

	return attach.Upload{Data: data, Filename: fh.Filename}, nil
}

// requireOwnershipOrModerator lets moderators touch any item and publishers
// only their own.
func (h *Handler) requireOwnershipOrModerator(r *http.Request, claims *auth.Claims, newsID int64) error {
	actor := model.User{Role: claims.Role}
	if actor.CanModerate() {
		return nil
	}
	item, err := h.engine.Get(r.Context(), newsID)
	if err != nil {
		return err
	}
	if item.PublisherID != claims.UserID {
		return apperr.New(apperr.ErrAuth, "you can only modify your own news")
	}
	return nil
}
