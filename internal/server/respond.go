package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"wedding-site/internal/auth"
	"wedding-site/internal/handler"
	"wedding-site/internal/media"
	"wedding-site/internal/phone"
	"wedding-site/internal/spreadsheet"
	"wedding-site/internal/storage"
)

const maxJSONBody = 1 << 20

var errUnavailable = errors.New("feature is not configured")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeError maps an error onto a status code. Unexpected errors are logged
// and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, handler.ErrValidation),
		errors.Is(err, phone.ErrInvalid),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, media.ErrUnsupportedMedia),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, spreadsheet.ErrMissingColumn),
		errors.Is(err, errBadRequest):
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, media.ErrTooLarge):
		writeErrorCode(w, http.StatusRequestEntityTooLarge, "too_large", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrNoSession):
		writeErrorCode(w, http.StatusUnauthorized, "unauthorized", "invalid credentials or session")
	case errors.Is(err, auth.ErrNotInvited):
		writeErrorCode(w, http.StatusNotFound, "not_invited", err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeErrorCode(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, storage.ErrDuplicatePhone),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrAlreadyLinked):
		writeErrorCode(w, http.StatusConflict, "conflict", conflictMessage(err))
	case errors.Is(err, errUnavailable):
		writeErrorCode(w, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		s.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeErrorCode(w, http.StatusInternalServerError, "internal", "something went wrong")
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, storage.ErrDuplicatePhone) {
		return storage.ErrDuplicatePhone.Error()
	}
	return "conflicting record"
}

var errBadRequest = errors.New("bad request")

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func uuidParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad id", errBadRequest)
	}
	return id, nil
}

func uintParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id", errBadRequest)
	}
	return uint(id), nil
}
