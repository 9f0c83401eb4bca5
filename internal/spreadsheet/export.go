package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"wedding-site/internal/models"
)

var exportHeader = []string{
	"Name", "Category", "Phone", "Email", "Attending", "Trek", "Dietary", "Family Members", "Invited Events",
}

func exportRecord(d models.GuestDetail) []string {
	attending, trek, dietary := "Pending", "", ""
	if d.RSVP != nil {
		attending = yesNo(d.RSVP.Attending)
		trek = yesNo(d.RSVP.IncludingTrek)
		dietary = d.RSVP.DietaryRequirements
	}

	family := make([]string, 0, len(d.FamilyMembers))
	for _, m := range d.FamilyMembers {
		if m.DietaryRequirements != "" {
			family = append(family, fmt.Sprintf("%s (%s)", m.Name, m.DietaryRequirements))
			continue
		}
		family = append(family, m.Name)
	}

	var invited string
	switch {
	case d.Unrestricted:
		invited = "All"
	case len(d.Invitations) == 0:
		invited = "Welcome only"
	default:
		names := make([]string, len(d.Invitations))
		for i, e := range d.Invitations {
			names[i] = string(e)
		}
		invited = strings.Join(names, ", ")
	}

	return []string{
		d.Guest.Name, d.Guest.Category, d.Guest.Phone, d.Guest.Email,
		attending, trek, dietary, strings.Join(family, "; "), invited,
	}
}

// escapeFormula stops spreadsheet apps from evaluating free text typed by
// guests or organizers as a formula. Phones are E.164 and written as is.
func escapeFormula(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + v
	}
	return v
}

func escapeRecord(record []string) []string {
	const phoneColumn = 2
	out := make([]string, len(record))
	for i, v := range record {
		if i == phoneColumn {
			out[i] = v
			continue
		}
		out[i] = escapeFormula(v)
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteCSV writes the guest list with RSVP answers as CSV
func WriteCSV(w io.Writer, details []models.GuestDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, d := range details {
		if err := cw.Write(escapeRecord(exportRecord(d))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same table as WriteCSV into a single-sheet workbook
func WriteXLSX(w io.Writer, details []models.GuestDetail) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Guests"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	write := func(row int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		vals := make([]interface{}, len(values))
		for i, v := range values {
			vals[i] = v
		}
		return f.SetSheetRow(sheet, cell, &vals)
	}

	if err := write(1, exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, d := range details {
		if err := write(i+2, escapeRecord(exportRecord(d))); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}
