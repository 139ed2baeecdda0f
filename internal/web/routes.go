package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	ledger := attendance.NewLedger(database.NewLedgerStore(s.stores))
	reconciler := attendance.NewReconciler(s.stores.Attendance)

	// Create handlers
	authHandler := handlers.NewAuthHandler(s.stores, sessionManager)
	recognizeHandler := handlers.NewRecognizeHandler(
		s.encoder, s.stores, ledger, s.config.Face.Tolerance, s.config.MaxImageSize())
	faceHandler := handlers.NewFaceHandler(
		s.encoder, s.stores, s.dedup, s.config.Face.ImagesDir, s.config.Face.Tolerance, s.config.MaxImageSize())
	attendanceHandler := handlers.NewAttendanceHandler(
		s.stores, reconciler, s.config.DashboardDays(), s.config.ListDays())
	employeesHandler := handlers.NewEmployeesHandler(s.stores)
	exportHandler := handlers.NewExportHandler(s.stores, reconciler)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// The kiosk capture endpoint is unauthenticated: the camera terminal
		// has no user session, identity comes from the face itself.
		r.Post("/recognize", recognizeHandler.Recognize)

		// All other routes require a session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Post("/employees/{id}/face", faceHandler.Register)
			r.Get("/dashboard", attendanceHandler.Dashboard)
			r.Get("/attendance", attendanceHandler.List)

			// Admin-only views
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/employees", employeesHandler.List)
				r.Get("/export", exportHandler.Export)
			})
		})
	})
}
