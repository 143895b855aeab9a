package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/medidesk/medidesk-platform/internal/bookings"
	"github.com/medidesk/medidesk-platform/internal/clinics"
	"github.com/medidesk/medidesk-platform/internal/doctors"
	httpmiddleware "github.com/medidesk/medidesk-platform/internal/http/middleware"
	"github.com/medidesk/medidesk-platform/internal/reporting"
	"github.com/medidesk/medidesk-platform/internal/scheduling"
	"github.com/medidesk/medidesk-platform/internal/slots"
	"github.com/medidesk/medidesk-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger           *logging.Logger
	SlotsHandler     *slots.Handler
	BookingsHandler  *bookings.Handler
	DirectoryHandler *doctors.Handler
	ClinicsHandler   *clinics.Handler
	Dashboard        *reporting.DashboardHandler
	MetricsHandler   http.Handler

	AuthJWTSecret      string
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	auth := httpmiddleware.AuthJWT(cfg.AuthJWTSecret)
	staffOnly := httpmiddleware.RequireRoles(
		scheduling.RoleAdmin, scheduling.RoleDoctor, scheduling.RoleAssistant,
	)
	adminOnly := httpmiddleware.RequireRoles(scheduling.RoleAdmin)

	// Public surface: browsing slots, booking a token, checking a token.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Get("/appointments", cfg.SlotsHandler.List)
		public.Get("/appointments/available", cfg.SlotsHandler.ListAvailable)

		public.Group(func(booking chi.Router) {
			booking.Use(httpmiddleware.ClinicHeader)
			if cfg.RateLimitPerSec > 0 {
				booking.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
			}
			booking.Post("/token-appointments", cfg.BookingsHandler.Create)
			booking.Get("/token-appointments/{id}", cfg.BookingsHandler.Get)
		})

		public.Get("/clinics", cfg.ClinicsHandler.List)
		public.Get("/clinics/{id}", cfg.ClinicsHandler.Get)
		public.Get("/doctors", cfg.DirectoryHandler.ListDoctors)
		public.Get("/doctors/{id}", cfg.DirectoryHandler.GetDoctor)
	})

	// Authenticated surface. Patients reach only the booking status route;
	// the role check inside the transition table scopes what they may do.
	r.Group(func(authed chi.Router) {
		authed.Use(auth)
		authed.Patch("/token-appointments/{id}/status", cfg.BookingsHandler.UpdateStatus)

		authed.Group(func(staff chi.Router) {
			staff.Use(staffOnly)
			staff.Post("/doctors/dashboard/create-schedule", cfg.SlotsHandler.CreateSchedule)
			staff.Patch("/appointments/{id}/status", cfg.SlotsHandler.UpdateStatus)

			staff.Get("/doctors/profile/exists", cfg.DirectoryHandler.DoctorExists)
			staff.Get("/assistants", cfg.DirectoryHandler.ListAssistants)
			staff.Get("/assistants/{id}", cfg.DirectoryHandler.GetAssistant)
			staff.Get("/assistants/profile/exists", cfg.DirectoryHandler.AssistantExists)

			staff.Route("/global-dashboard", func(dash chi.Router) {
				dash.Get("/stats", cfg.Dashboard.Stats)
				dash.Get("/today-appointments", cfg.Dashboard.TodayAppointments)
				dash.Get("/doctor-wise-stats", cfg.Dashboard.DoctorWiseStats)
				dash.Get("/appointments-by-date-range", cfg.Dashboard.AppointmentsByDateRange)
				dash.Get("/search-appointments", cfg.Dashboard.SearchAppointments)
			})
		})

		authed.Group(func(admin chi.Router) {
			admin.Use(adminOnly)
			admin.Post("/doctors", cfg.DirectoryHandler.CreateDoctor)
			admin.Post("/assistants", cfg.DirectoryHandler.CreateAssistant)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
