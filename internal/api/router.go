// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/curtains/internal/apperr"
	"github.com/tomtom215/curtains/internal/auth"
	"github.com/tomtom215/curtains/internal/authz"
	"github.com/tomtom215/curtains/internal/middleware"
)

// Router assembles handlers and middleware into the service's routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	gate          *auth.Gate
	admin         *authz.Middleware
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, mw *ChiMiddleware, gate *auth.Gate, admin *authz.Middleware) *Router {
	return &Router{handler: handler, chiMiddleware: mw, gate: gate, admin: admin}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(router.chiMiddleware.RealIP())
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.gate.Middleware)
	r.Use(router.chiMiddleware.RateLimit())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperr.Write(w, apperr.NotFound("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apperr.Write(w, &apperr.Error{Kind: apperr.KindBadRequest, Status: http.StatusMethodNotAllowed, Detail: "Method not allowed"})
	})

	// ========================
	// Operational
	// ========================
	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Session
	// ========================
	r.Get("/", h.Root)
	r.Get("/login", h.Login)
	r.Get("/logout", h.Logout)
	r.Get("/check-auth", h.CheckAuth)
	r.Get(auth.CallbackPath, h.Callback)
	r.Get("/referral/{code}", h.Referral)

	// ========================
	// Curtains and Statistics
	// ========================
	r.Get("/register/{room}", h.Register)
	r.With(router.chiMiddleware.RateLimitStrict()).Get("/control/{room}/{action}", h.Control)
	r.Get("/stats", h.Stats)
	r.Get("/stats/all", h.AllStats)

	// ========================
	// Feedback
	// ========================
	r.Get("/submit-report/{report}", h.SubmitReport)
	r.Get("/submit-tshirt-request/{content}", h.SubmitTShirtRequest)

	// ========================
	// User API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Get("/user/profile", h.Profile)
		r.Get("/user/rooms", h.UserRooms)
		r.Get("/user/referral", h.ReferralInfo)
		r.Get("/premium/status", h.PremiumStatus)
		r.Get("/messages", h.Messages)

		r.Get("/chat/messages", h.ChatMessages)
		r.With(router.chiMiddleware.RateLimitStrict()).Post("/chat/send", h.ChatSend)

		r.Route("/admin", func(r chi.Router) {
			r.Use(router.admin.RequireAdmin)
			r.Get("/users", h.AdminUsers)
			r.Get("/grant-points/{user}/{points}", h.GrantPoints)
			r.Post("/send-message", h.SendMessage)
		})
	})

	// ========================
	// Static Frontend
	// ========================
	r.Get("/Frontend", h.Static)
	r.Get("/Frontend/*", h.Static)
	r.Head("/Frontend/*", h.Static)

	return r
}
