package handler

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wedding-site/internal/auth"
	"wedding-site/internal/media"
	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/storage"
	"wedding-site/internal/whatsapp"
)

type fixture struct {
	store     *storage.Storage
	gate      *auth.Gate
	media     *media.DirStore
	mediaDir  string
	admin     *AdminHandler
	rsvp      *RSVPHandler
	itinerary *ItineraryHandler
	guard     *RoleGuard
	messenger *fakeMessenger
	messages  *MessageHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "wedding.db"), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
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

	dir := t.TempDir()
	store, err := media.NewDirStore(dir, "/media")
	require.NoError(t, err)

	messenger := &fakeMessenger{}
	return &fixture{
		store:    s,
		gate:     gate,
		media:    store,
		mediaDir: dir,
		admin: NewAdminHandler(AdminConfig{
			Storage:        s,
			Phones:         phones,
			Gate:           gate,
			Media:          store,
			MaxUploadBytes: 1024,
			Log:            zerolog.Nop(),
		}),
		rsvp:      NewRSVPHandler(s, zerolog.Nop()),
		itinerary: NewItineraryHandler(s),
		guard:     NewRoleGuard(s),
		messenger: messenger,
		messages: NewMessageHandler(messenger, s, phones, whatsapp.Wedding{
			Date: "March 1", BrideName: "Ayesha", GroomName: "Omar",
		}, "https://wedding.example.com/auth", zerolog.Nop()),
	}
}

func (f *fixture) addGuest(t *testing.T, name, rawPhone string, events ...string) *models.Guest {
	t.Helper()
	in := GuestInput{Name: name, Phone: rawPhone}
	if len(events) > 0 {
		in.Events = events
	}
	g, err := f.admin.CreateGuest(context.Background(), in)
	require.NoError(t, err)
	return g
}

func sessionFor(g *models.Guest) *auth.Session {
	return &auth.Session{GuestID: g.ID, GuestName: g.Name, Phone: g.Phone}
}

type sentMessage struct {
	phone, text, link string
}

type fakeMessenger struct {
	mu          sync.Mutex
	invitations []sentMessage
	messages    []sentMessage
}

func (m *fakeMessenger) SendInvitation(_ context.Context, phone, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invitations = append(m.invitations, sentMessage{phone: phone, text: name, link: link})
	return nil
}

func (m *fakeMessenger) SendMessage(_ context.Context, phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{phone: phone, text: message})
	return nil
}
