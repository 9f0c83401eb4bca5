package server

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"wedding-site/internal/auth"
	"wedding-site/internal/handler"
	"wedding-site/internal/media"
	"wedding-site/internal/models"
	"wedding-site/internal/spreadsheet"
)

const multipartMemory = 8 << 20

func (s *Server) listGuests(w http.ResponseWriter, r *http.Request) {
	var (
		guests []models.GuestDetail
		err    error
	)
	if state := r.URL.Query().Get("state"); state != "" {
		guests, err = s.cfg.Admin.GuestsByState(r.Context(), models.RSVPState(state))
	} else {
		guests, err = s.cfg.Admin.ListGuests(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guests)
}

func (s *Server) createGuest(w http.ResponseWriter, r *http.Request) {
	var in handler.GuestInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	guest, err := s.cfg.Admin.CreateGuest(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, guest)
}

func (s *Server) updateGuest(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in handler.GuestInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	guest, err := s.cfg.Admin.UpdateGuest(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, guest)
}

func (s *Server) deleteGuest(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.DeleteGuest(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invitationsRequest struct {
	Events []string `json:"events"`
}

func (s *Server) setInvitations(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req invitationsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.SetInvitations(r.Context(), id, req.Events); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resetResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	outcome, err := s.cfg.Admin.ResetPassword(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg := "Password reset. The guest sets a new password on the next login."
	if outcome != auth.ResetDone {
		msg = "Guest has no account to reset"
	}
	writeJSON(w, http.StatusOK, resetResponse{Outcome: string(outcome), Message: msg})
}

func (s *Server) grantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.GrantAdmin(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// revokeAdmin refuses to let an admin remove their own role
func (s *Server) revokeAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sess, ok := auth.FromContext(r.Context()); ok && sess.GuestID == id {
		s.writeError(w, r, fmt.Errorf("%w: cannot revoke your own admin role", errBadRequest))
		return
	}
	if err := s.cfg.Admin.RevokeAdmin(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendInvitation(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Messages == nil {
		s.writeError(w, r, fmt.Errorf("%w: WhatsApp", errUnavailable))
		return
	}
	id, err := uuidParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Messages.SendInvitation(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) importGuests(w http.ResponseWriter, r *http.Request) {
	up, closeFile, err := s.formFile(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	rows, err := spreadsheet.ReadRows(up.Filename, up.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Admin.ImportGuests(r.Context(), rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type sheetImportRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required"`
	Range         string `json:"range" validate:"required"`
}

func (s *Server) importSheet(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Sheets == nil {
		s.writeError(w, r, fmt.Errorf("%w: Google Sheets", errUnavailable))
		return
	}
	var req sheetImportRequest
	if err := s.decodeValid(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.cfg.Sheets.ReadRows(r.Context(), req.SpreadsheetID, req.Range)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cfg.Admin.ImportGuests(r.Context(), rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) exportGuests(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		s.writeError(w, r, fmt.Errorf("%w: format must be csv or xlsx", errBadRequest))
		return
	}

	details, err := s.cfg.Admin.ExportGuests(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="guests.%s"`, format))
	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = spreadsheet.WriteXLSX(w, details)
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = spreadsheet.WriteCSV(w, details)
	}
	if err != nil {
		// Headers are gone already
		s.log.Error().Err(err).Msg("Export failed")
	}
}

func (s *Server) listSlides(w http.ResponseWriter, r *http.Request) {
	slides, err := s.cfg.Admin.ListSlides(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slides)
}

func (s *Server) createSlide(w http.ResponseWriter, r *http.Request) {
	var in handler.SlideInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	slide, err := s.cfg.Admin.CreateSlide(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, slide)
}

func (s *Server) updateSlide(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in handler.SlideInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	slide, err := s.cfg.Admin.UpdateSlide(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

func (s *Server) deleteSlide(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.DeleteSlide(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) slideBackground(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	up, closeFile, err := s.formFile(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	slide, err := s.cfg.Admin.SetSlideBackground(r.Context(), id, up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, slide)
}

func (s *Server) listTravel(w http.ResponseWriter, r *http.Request) {
	items, err := s.cfg.Admin.ListTravel(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createTravel(w http.ResponseWriter, r *http.Request) {
	var in handler.TravelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.cfg.Admin.CreateTravel(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateTravel(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in handler.TravelInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.cfg.Admin.UpdateTravel(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteTravel(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.DeleteTravel(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) travelBackground(w http.ResponseWriter, r *http.Request) {
	id, err := uintParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	up, closeFile, err := s.formFile(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	item, err := s.cfg.Admin.SetTravelBackground(r.Context(), id, up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	var in handler.SettingInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.cfg.Admin.PutSetting(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// formFile reads the "file" part of a multipart upload
func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (handler.Upload, func(), error) {
	if s.cfg.MaxUploadBytes > 0 {
		// Leave room for the multipart framing around the file
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return handler.Upload{}, nil, fmt.Errorf("%w: limit is %d bytes", media.ErrTooLarge, s.cfg.MaxUploadBytes)
		}
		return handler.Upload{}, nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return handler.Upload{}, nil, fmt.Errorf("%w: missing file", errBadRequest)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); byExt != "" {
			contentType = byExt
		}
	}
	up := handler.Upload{Filename: header.Filename, ContentType: contentType, Body: file}
	return up, func() {
		file.Close()
		_ = r.MultipartForm.RemoveAll()
	}, nil
}
