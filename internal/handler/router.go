// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter assembles the API routes with the standard middleware stack.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/uploads/{blobRef}", h.ServeUpload)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Get("/news", h.ListPublished)
		r.Get("/news/{id}", h.GetNews)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Post("/news", h.CreateNews)
			r.Put("/news/{id}", h.UpdateNews)
			r.Delete("/news/{id}", h.DeleteNews)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Use(h.RequireModerator)

			r.Get("/counts", h.GetCounts)
			r.Get("/pending-news", h.ListPending)
			r.Post("/moderate-news/{id}", h.ModerateNews)

			r.Post("/news/{id}/archive", h.ArchiveNews)
			r.Get("/archive", h.ListArchived)
			r.Post("/archive/{id}/restore", h.RestoreArchived)

			r.Get("/trash", h.ListTrash)
			r.Post("/trash", h.TrashMany)
			r.Post("/trash/{id}/restore", h.RestoreFromTrash)
			r.Delete("/trash/{id}", h.PurgeNews)

			r.Get("/categories", h.ListCategories)
			r.Post("/categories", h.CreateCategory)
			r.Put("/categories/{id}", h.UpdateCategory)
			r.Delete("/categories/{id}", h.DeleteCategory)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdministrator)
				r.Get("/users", h.ListUsers)
				r.Put("/users/{id}", h.UpdateUser)
				r.Delete("/users/{id}", h.DeleteUser)
			})
		})
	})

	return r
}
