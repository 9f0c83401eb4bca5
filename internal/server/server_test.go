package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wedding-site/internal/auth"
	"wedding-site/internal/handler"
	"wedding-site/internal/media"
	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/storage"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *storage.Storage
	admin   *handler.AdminHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "wedding.db"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.SeedSlides(ctx, models.DefaultSlides()))
	t.Cleanup(func() { _ = s.Close() })

	phones := phone.NewNormalizer("PK")
	gate := auth.NewGate(auth.Config{
		Store:      s,
		Phones:     phones,
		Tokens:     auth.NewTokens("test-secret", time.Hour),
		Codes:      auth.NewMemoryCodeStore(),
		Sender:     auth.NewLogSender(zerolog.Nop()),
		BcryptCost: bcrypt.MinCost,
		Log:        zerolog.Nop(),
	})
	mediaDir := t.TempDir()
	mediaStore, err := media.NewDirStore(mediaDir, "/media")
	require.NoError(t, err)

	admin := handler.NewAdminHandler(handler.AdminConfig{
		Storage:        s,
		Phones:         phones,
		Gate:           gate,
		Media:          mediaStore,
		MaxUploadBytes: 1 << 20,
		Log:            zerolog.Nop(),
	})
	h := NewRouter(Config{
		Gate:           gate,
		Guard:          handler.NewRoleGuard(s),
		RSVP:           handler.NewRSVPHandler(s, zerolog.Nop()),
		Itinerary:      handler.NewItineraryHandler(s),
		Admin:          admin,
		MediaDir:       mediaDir,
		MaxUploadBytes: 1 << 20,
		Log:            zerolog.Nop(),
	})
	return &testServer{t: t, handler: h, store: s, admin: admin}
}

func (ts *testServer) addGuest(name, rawPhone string, events ...string) *models.Guest {
	ts.t.Helper()
	in := handler.GuestInput{Name: name, Phone: rawPhone}
	if len(events) > 0 {
		in.Events = events
	}
	g, err := ts.admin.CreateGuest(context.Background(), in)
	require.NoError(ts.t, err)
	return g
}

// login signs the guest in with a password and returns the bearer token
func (ts *testServer) login(rawPhone string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"phone": rawPhone, "password": "mehndi-night"})
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.Token
}

func (ts *testServer) adminToken() string {
	ts.t.Helper()
	g := ts.addGuest("Admin", "0333 1234567")
	require.NoError(ts.t, ts.admin.GrantAdmin(context.Background(), g.ID))
	return ts.login("0333 1234567")
}

func (ts *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) upload(path, token, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(ts.t, err)
	_, err = part.Write(data)
	require.NoError(ts.t, err)
	require.NoError(ts.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthAndRedirect(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))
}

func TestAccessGateFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.addGuest("Ayesha", "0301 2345678")

	rec := ts.do(http.MethodPost, "/api/auth/lookup", "", map[string]string{"phone": "+92 301 234 5678"})
	require.Equal(t, http.StatusOK, rec.Code)
	var lookup auth.LookupResult
	decode(t, rec, &lookup)
	assert.Equal(t, "Ayesha", lookup.GuestName)
	assert.False(t, lookup.HasPassword)

	rec = ts.do(http.MethodPost, "/api/auth/lookup", "", map[string]string{"phone": "0301 7654321"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "not_invited", body.Error)

	rec = ts.do(http.MethodPost, "/api/auth/lookup", "", map[string]string{"phone": "12"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"phone": "0301 2345678", "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := ts.login("0301 2345678")

	rec = ts.do(http.MethodPost, "/api/auth/login", "", map[string]string{"phone": "0301 2345678", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me meResponse
	decode(t, rec, &me)
	assert.Equal(t, "Ayesha", me.Name)
	assert.Equal(t, "+923012345678", me.Phone)
	assert.False(t, me.IsAdmin)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/me", "garbage", nil).Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	ts := newTestServer(t)
	ts.addGuest("Ayesha", "0301 2345678")
	guestToken := ts.login("0301 2345678")
	adminToken := ts.adminToken()

	rec := ts.do(http.MethodGet, "/api/admin/guests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/guests", guestToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "forbidden", body.Error)
	assert.NotContains(t, rec.Body.String(), "Ayesha")

	rec = ts.do(http.MethodPost, "/api/admin/guests", guestToken, map[string]string{"name": "Sneaky", "phone": "0300 1112223"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ayesha, err := ts.store.GetGuestByPhone(context.Background(), "+923012345678")
	require.NoError(t, err)
	guestPath := "/api/admin/guests/" + ayesha.ID.String()
	routes := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/admin/guests"},
		{http.MethodGet, "/api/admin/guests?state=pending"},
		{http.MethodPost, "/api/admin/guests"},
		{http.MethodPost, "/api/admin/guests/import"},
		{http.MethodPost, "/api/admin/guests/import/sheets"},
		{http.MethodGet, "/api/admin/guests/export?format=csv"},
		{http.MethodGet, "/api/admin/guests/export?format=xlsx"},
		{http.MethodPut, guestPath},
		{http.MethodDelete, guestPath},
		{http.MethodPut, guestPath + "/invitations"},
		{http.MethodPost, guestPath + "/reset-password"},
		{http.MethodPost, guestPath + "/invite"},
		{http.MethodPost, guestPath + "/admin"},
		{http.MethodDelete, guestPath + "/admin"},
		{http.MethodGet, "/api/admin/slides"},
		{http.MethodPost, "/api/admin/slides"},
		{http.MethodPut, "/api/admin/slides/1"},
		{http.MethodDelete, "/api/admin/slides/1"},
		{http.MethodPost, "/api/admin/slides/1/background"},
		{http.MethodGet, "/api/admin/travel"},
		{http.MethodPost, "/api/admin/travel"},
		{http.MethodPut, "/api/admin/travel/1"},
		{http.MethodDelete, "/api/admin/travel/1"},
		{http.MethodPost, "/api/admin/travel/1/background"},
		{http.MethodPut, "/api/admin/settings"},
	}
	for _, rt := range routes {
		rec := ts.do(rt.method, rt.path, guestToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", rt.method, rt.path)
		assert.NotContains(t, rec.Body.String(), "Ayesha", "%s %s", rt.method, rt.path)
		assert.NotContains(t, rec.Body.String(), "+923012345678", "%s %s", rt.method, rt.path)

		rec = ts.do(rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}

	// nothing above may have changed the guest
	_, err = ts.store.GetGuest(context.Background(), ayesha.ID)
	require.NoError(t, err)
	isAdmin, err := ts.store.HasRole(context.Background(), ayesha.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	rec = ts.do(http.MethodGet, "/api/admin/guests", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var guests []models.GuestDetail
	decode(t, rec, &guests)
	assert.Len(t, guests, 2)

	rec = ts.do(http.MethodGet, "/api/me", adminToken, nil)
	var me meResponse
	decode(t, rec, &me)
	assert.True(t, me.IsAdmin)
}

func TestGrantAndRevokeAdmin(t *testing.T) {
	ts := newTestServer(t)
	ayesha := ts.addGuest("Ayesha", "0301 2345678")
	guestToken := ts.login("0301 2345678")
	adminToken := ts.adminToken()
	path := "/api/admin/guests/" + ayesha.ID.String() + "/admin"

	rec := ts.do(http.MethodPost, path, guestToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/api/admin/guests", guestToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, path, adminToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodGet, "/api/admin/guests", guestToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	self, err := ts.store.GetGuestByPhone(context.Background(), "+923331234567")
	require.NoError(t, err)
	rec = ts.do(http.MethodDelete, "/api/admin/guests/"+self.ID.String()+"/admin", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGuestManagement(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken()

	rec := ts.do(http.MethodPost, "/api/admin/guests", token, map[string]interface{}{
		"name": "Ayesha", "phone": "0301 2345678", "email": "bad",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/admin/guests", token, map[string]interface{}{
		"name": "Ayesha", "phone": "0301 2345678", "events": []string{"nikah", "reception"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var guest models.Guest
	decode(t, rec, &guest)
	assert.Equal(t, "+923012345678", guest.Phone)

	rec = ts.do(http.MethodPost, "/api/admin/guests", token, map[string]interface{}{
		"name": "Again", "phone": "+923012345678",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	guestToken := ts.login("0301 2345678")
	rec = ts.do(http.MethodGet, "/api/itinerary", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view handler.ItineraryView
	decode(t, rec, &view)
	var shown []models.EventType
	for _, s := range view.Slides {
		shown = append(shown, s.EventType)
	}
	assert.Equal(t, []models.EventType{models.EventWelcome, models.EventNikah, models.EventReception}, shown)

	rec = ts.do(http.MethodPut, "/api/admin/guests/"+guest.ID.String()+"/invitations", token, map[string]interface{}{
		"events": []string{"trek"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = ts.do(http.MethodGet, "/api/itinerary", guestToken, nil)
	decode(t, rec, &view)
	require.Len(t, view.Slides, 2)
	assert.Equal(t, models.EventTrek, view.Slides[1].EventType)

	rec = ts.do(http.MethodPost, "/api/admin/guests/"+guest.ID.String()+"/reset-password", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reset resetResponse
	decode(t, rec, &reset)
	assert.Equal(t, "reset", reset.Outcome)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/itinerary", guestToken, nil).Code)

	rec = ts.do(http.MethodPost, "/api/admin/guests/"+guest.ID.String()+"/reset-password", token, nil)
	decode(t, rec, &reset)
	assert.Equal(t, "no_account", reset.Outcome)
	assert.Equal(t, "Guest has no account to reset", reset.Message)

	rec = ts.do(http.MethodPut, "/api/admin/guests/"+guest.ID.String(), token, map[string]interface{}{
		"name": "Ayesha Khan", "phone": "0301 2345678",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodDelete, "/api/admin/guests/not-a-uuid", token, nil).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/admin/guests/"+guest.ID.String(), token, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/admin/guests/"+guest.ID.String(), token, nil).Code)

	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodPost, "/api/admin/guests/"+guest.ID.String()+"/invite", token, nil).Code)
}

func TestRSVPRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	ts.addGuest("Ayesha", "0301 2345678")
	token := ts.login("0301 2345678")

	rec := ts.do(http.MethodGet, "/api/rsvp", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view handler.RSVPView
	decode(t, rec, &view)
	assert.Nil(t, view.RSVP)

	rec = ts.do(http.MethodPut, "/api/rsvp", token, map[string]interface{}{
		"attending":      true,
		"family_members": []map[string]string{{"name": ""}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, name := range []string{"Sara", "Zara"} {
		rec = ts.do(http.MethodPut, "/api/rsvp", token, map[string]interface{}{
			"attending":      true,
			"including_trek": true,
			"family_members": []map[string]string{{"name": name}},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/rsvp", token, nil)
	decode(t, rec, &view)
	require.NotNil(t, view.RSVP)
	assert.True(t, view.RSVP.IncludingTrek)
	require.Len(t, view.FamilyMembers, 1)
	assert.Equal(t, "Zara", view.FamilyMembers[0].Name)

	adminToken := ts.adminToken()
	rec = ts.do(http.MethodGet, "/api/admin/guests?state=attending", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var attending []models.GuestDetail
	decode(t, rec, &attending)
	require.Len(t, attending, 1)
	assert.Equal(t, "Ayesha", attending[0].Guest.Name)

	rec = ts.do(http.MethodGet, "/api/admin/guests?state=maybe", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportAndExport(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken()

	csvFile := "Name,Phone,Category\nAyesha,0301 2345678,Family\n,0300 1112223,Friends\n"
	rec := ts.upload("/api/admin/guests/import", token, "guests.csv", "text/csv", []byte(csvFile))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res handler.ImportResult
	decode(t, rec, &res)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 1, res.Errors)

	rec = ts.upload("/api/admin/guests/import", token, "guests.pdf", "application/pdf", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/guests/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "guests.csv")
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Name", records[0][0])

	rec = ts.do(http.MethodGet, "/api/admin/guests/export?format=xlsx", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodGet, "/api/admin/guests/export?format=pdf", token, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(http.MethodPost, "/api/admin/guests/import/sheets", token,
		map[string]string{"spreadsheet_id": "x", "range": "A:D"}).Code)
}

func TestSlideBackgroundUpload(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken()

	rec := ts.do(http.MethodGet, "/api/admin/slides", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slides []models.Slide
	decode(t, rec, &slides)
	require.Len(t, slides, 6)
	id := slides[1].ID

	path := "/api/admin/slides/" + strconv.FormatUint(uint64(id), 10) + "/background"
	rec = ts.upload(path, token, "mehndi.png", "image/png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var slide models.Slide
	decode(t, rec, &slide)
	assert.Equal(t, models.MediaImage, slide.BackgroundType)

	rec = ts.do(http.MethodGet, slide.BackgroundURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = ts.upload(path, token, "clip.mp4", "video/mp4", []byte("mp4"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &slide)
	assert.Equal(t, models.MediaVideo, slide.BackgroundType)

	// Content type falls back to the file extension
	rec = ts.upload(path, token, "poster.png", "", []byte("png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &slide)
	assert.Equal(t, models.MediaImage, slide.BackgroundType)

	rec = ts.upload(path, token, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.upload(path, token, "huge.png", "image/png", bytes.Repeat([]byte("x"), 1<<20+512<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = ts.upload("/api/admin/slides/9999/background", token, "a.png", "image/png", []byte("x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTravelAndSettings(t *testing.T) {
	ts := newTestServer(t)
	token := ts.adminToken()

	rec := ts.do(http.MethodPost, "/api/admin/travel", token, map[string]interface{}{
		"section_type": "flight", "title": "Getting there", "display_order": 1,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/travel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []models.TravelInfo
	decode(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "Getting there", items[0].Title)

	rec = ts.do(http.MethodPut, "/api/admin/settings", token, map[string]string{"key": "wedding_date", "value": "March 1"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/settings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings map[string]string
	decode(t, rec, &settings)
	assert.Equal(t, "March 1", settings["wedding_date"])
}
