package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"wedding-site/internal/auth"
	"wedding-site/internal/handler"
	"wedding-site/internal/spreadsheet"
)

type Config struct {
	Addr      string
	Gate      *auth.Gate
	Guard     *handler.RoleGuard
	RSVP      *handler.RSVPHandler
	Itinerary *handler.ItineraryHandler
	Admin     *handler.AdminHandler
	// Messages is nil when WhatsApp is disabled
	Messages *handler.MessageHandler
	// Sheets is nil when no Google service account is configured
	Sheets *spreadsheet.SheetsSource
	// MediaDir is served at /media/ when set
	MediaDir       string
	MaxUploadBytes int64
	Log            zerolog.Logger
}

type Server struct {
	cfg Config
	log zerolog.Logger
}

// New builds the HTTP server for the site
func New(cfg Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
}

// NewRouter returns the routes without a listener
func NewRouter(cfg Config) http.Handler {
	s := &Server{cfg: cfg, log: cfg.Log.With().Str("component", "HTTP").Logger()}

	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/auth", http.StatusFound)
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	if cfg.MediaDir != "" {
		r.PathPrefix("/media/").Handler(http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir)))).
			Methods(http.MethodGet, http.MethodHead)
	}

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(s.requireSession, s.requireAdmin)
	admin.HandleFunc("/guests", s.listGuests).Methods(http.MethodGet)
	admin.HandleFunc("/guests", s.createGuest).Methods(http.MethodPost)
	admin.HandleFunc("/guests/import", s.importGuests).Methods(http.MethodPost)
	admin.HandleFunc("/guests/import/sheets", s.importSheet).Methods(http.MethodPost)
	admin.HandleFunc("/guests/export", s.exportGuests).Methods(http.MethodGet)
	admin.HandleFunc("/guests/{id}", s.updateGuest).Methods(http.MethodPut)
	admin.HandleFunc("/guests/{id}", s.deleteGuest).Methods(http.MethodDelete)
	admin.HandleFunc("/guests/{id}/invitations", s.setInvitations).Methods(http.MethodPut)
	admin.HandleFunc("/guests/{id}/reset-password", s.resetPassword).Methods(http.MethodPost)
	admin.HandleFunc("/guests/{id}/invite", s.sendInvitation).Methods(http.MethodPost)
	admin.HandleFunc("/guests/{id}/admin", s.grantAdmin).Methods(http.MethodPost)
	admin.HandleFunc("/guests/{id}/admin", s.revokeAdmin).Methods(http.MethodDelete)
	admin.HandleFunc("/slides", s.listSlides).Methods(http.MethodGet)
	admin.HandleFunc("/slides", s.createSlide).Methods(http.MethodPost)
	admin.HandleFunc("/slides/{id}", s.updateSlide).Methods(http.MethodPut)
	admin.HandleFunc("/slides/{id}", s.deleteSlide).Methods(http.MethodDelete)
	admin.HandleFunc("/slides/{id}/background", s.slideBackground).Methods(http.MethodPost)
	admin.HandleFunc("/travel", s.listTravel).Methods(http.MethodGet)
	admin.HandleFunc("/travel", s.createTravel).Methods(http.MethodPost)
	admin.HandleFunc("/travel/{id}", s.updateTravel).Methods(http.MethodPut)
	admin.HandleFunc("/travel/{id}", s.deleteTravel).Methods(http.MethodDelete)
	admin.HandleFunc("/travel/{id}/background", s.travelBackground).Methods(http.MethodPost)
	admin.HandleFunc("/settings", s.putSetting).Methods(http.MethodPut)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/lookup", s.lookup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/code", s.requestCode).Methods(http.MethodPost)
	api.HandleFunc("/auth/code/verify", s.verifyCode).Methods(http.MethodPost)
	api.HandleFunc("/settings", s.settings).Methods(http.MethodGet)

	api.Handle("/me", s.withSession(s.me)).Methods(http.MethodGet)
	api.Handle("/itinerary", s.withSession(s.itinerary)).Methods(http.MethodGet)
	api.Handle("/rsvp", s.withSession(s.loadRSVP)).Methods(http.MethodGet)
	api.Handle("/rsvp", s.withSession(s.submitRSVP)).Methods(http.MethodPut)
	api.Handle("/travel", s.withSession(s.travel)).Methods(http.MethodGet)

	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
