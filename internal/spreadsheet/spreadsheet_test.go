package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wedding-site/internal/models"
)

func TestReadRowsCSV(t *testing.T) {
	in := "Name,Phone,Category,Email\n" +
		"Ayesha Khan,0301 2345678,Family,ayesha@example.com\n" +
		",,,\n" +
		"Bilal,+92 300 1112223,,\n"

	rows, err := ReadRows("guests.CSV", strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Line: 2, Name: "Ayesha Khan", Category: "Family", Phone: "0301 2345678", Email: "ayesha@example.com"}, rows[0])
	assert.Equal(t, Row{Line: 4, Name: "Bilal", Phone: "+92 300 1112223"}, rows[1])
}

func TestReadRowsHeaderCaseInsensitive(t *testing.T) {
	rows, err := ReadRows("g.csv", strings.NewReader("\ufeffNAME, phone\nZara,03001234567\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Zara", rows[0].Name)
	assert.Equal(t, "03001234567", rows[0].Phone)
}

func TestReadRowsErrors(t *testing.T) {
	_, err := ReadRows("guests.txt", strings.NewReader("Name,Phone\n"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = ReadRows("guests.csv", strings.NewReader("Name,Email\nA,a@b.c\n"))
	assert.True(t, errors.Is(err, ErrMissingColumn))

	_, err = ReadRows("guests.csv", strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadRowsXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Category", "Name", "Phone"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Friends", "Omar", "03211234567"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := ReadRows("guests.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{Line: 2, Name: "Omar", Category: "Friends", Phone: "03211234567"}, rows[0])
}

func exportFixture() []models.GuestDetail {
	return []models.GuestDetail{
		{
			Guest: models.Guest{Name: "Ayesha", Phone: "+923012345678", Category: "Family"},
			RSVP:  &models.RSVP{Attending: true, IncludingTrek: true, DietaryRequirements: "vegetarian"},
			FamilyMembers: []models.FamilyMember{
				{Name: "Sara", DietaryRequirements: "nut allergy"},
				{Name: "Ali"},
			},
			Invitations: []models.EventType{models.EventNikah, models.EventReception},
		},
		{
			Guest:        models.Guest{Name: "Bilal", Phone: "+923001112223"},
			Unrestricted: true,
		},
		{
			Guest:       models.Guest{Name: "=HYPERLINK(\"http://x\")", Phone: "+923001112224", Category: "-friends"},
			RSVP:        &models.RSVP{DietaryRequirements: "@halal"},
			Invitations: []models.EventType{},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportFixture()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{
		"Ayesha", "Family", "+923012345678", "", "Yes", "Yes", "vegetarian",
		"Sara (nut allergy); Ali", "nikah, reception",
	}, records[1])
	assert.Equal(t, []string{"Bilal", "", "+923001112223", "", "Pending", "", "", "", "All"}, records[2])
	assert.Equal(t, []string{
		"'=HYPERLINK(\"http://x\")", "'-friends", "+923001112224", "", "No", "No", "'@halal", "", "Welcome only",
	}, records[3])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, exportFixture()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Guests")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Invited Events", rows[0][8])
	assert.Equal(t, "Ayesha", rows[1][0])
	assert.Equal(t, "All", rows[2][8])
	assert.Equal(t, "'=HYPERLINK(\"http://x\")", rows[3][0])
	assert.Equal(t, "Welcome only", rows[3][8])

	formula, err := f.GetCellFormula("Guests", "A4")
	require.NoError(t, err)
	assert.Empty(t, formula)
}

func TestToRecords(t *testing.T) {
	got := toRecords([][]interface{}{{"Name", "Phone"}, {"Ali", 923001234567.0}})
	assert.Equal(t, "Ali", got[1][0])
	assert.Len(t, got, 2)
}
