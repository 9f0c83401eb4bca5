package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"wedding-site/internal/auth"
	"wedding-site/internal/handler"
)

type phoneRequest struct {
	Phone string `json:"phone" validate:"required,max=40"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required,max=40"`
	Password string `json:"password" validate:"required"`
}

type codeRequest struct {
	Phone string `json:"phone" validate:"required,max=40"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := s.decodeValid(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Gate.Lookup(r.Context(), req.Phone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeValid(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Gate.LoginWithPassword(r.Context(), req.Phone, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) requestCode(w http.ResponseWriter, r *http.Request) {
	var req phoneRequest
	if err := s.decodeValid(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Gate.RequestCode(r.Context(), req.Phone); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifyCode(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := s.decodeValid(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Gate.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.cfg.Itinerary.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

type meResponse struct {
	GuestID   uuid.UUID `json:"guest_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	isAdmin, err := s.cfg.Guard.IsAdmin(r.Context(), session.GuestID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		GuestID:   session.GuestID,
		Name:      session.GuestName,
		Phone:     session.Phone,
		IsAdmin:   isAdmin,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *Server) itinerary(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	view, err := s.cfg.Itinerary.Itinerary(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) travel(w http.ResponseWriter, r *http.Request, _ *auth.Session) {
	items, err := s.cfg.Itinerary.Travel(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) loadRSVP(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	view, err := s.cfg.RSVP.Load(r.Context(), session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) submitRSVP(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var sub handler.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.cfg.RSVP.Submit(r.Context(), session, sub)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := decodeJSON(w, r, v); err != nil {
		return err
	}
	return handler.Validate(v)
}
