package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"wedding-site/internal/models"
	"wedding-site/internal/spreadsheet"
	"wedding-site/internal/storage"
)

// ImportFailure explains why a row was skipped
type ImportFailure struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Success  int             `json:"success"`
	Errors   int             `json:"errors"`
	Failures []ImportFailure `json:"failures"`
}

// ImportGuests adds rows one at a time. A bad row is recorded and skipped,
// rows already added stay added.
func (h *AdminHandler) ImportGuests(ctx context.Context, rows []spreadsheet.Row) (*ImportResult, error) {
	res := &ImportResult{Failures: []ImportFailure{}}
	seen := make(map[string]int, len(rows))

	fail := func(row spreadsheet.Row, reason string) {
		res.Errors++
		res.Failures = append(res.Failures, ImportFailure{
			Line: row.Line, Name: row.Name, Phone: row.Phone, Reason: reason,
		})
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name := strings.TrimSpace(row.Name)
		if name == "" {
			fail(row, "missing name")
			continue
		}
		normalized, err := h.phones.Normalize(row.Phone)
		if err != nil {
			fail(row, "invalid phone number")
			continue
		}
		if line, dup := seen[normalized]; dup {
			fail(row, "duplicate of line "+strconv.Itoa(line))
			continue
		}
		seen[normalized] = row.Line

		guest := &models.Guest{
			Name:     name,
			Phone:    normalized,
			Email:    strings.TrimSpace(row.Email),
			Category: strings.TrimSpace(row.Category),
		}
		err = h.storage.CreateGuest(ctx, guest, models.InvitableEvents)
		switch {
		case errors.Is(err, storage.ErrDuplicatePhone):
			fail(row, "phone number already on the guest list")
		case err != nil:
			h.log.Error().Err(err).Int("line", row.Line).Msg("Import row failed")
			fail(row, "could not be saved")
		default:
			res.Success++
		}
	}

	h.log.Info().Int("success", res.Success).Int("errors", res.Errors).Msg("Guest import finished")
	return res, nil
}
