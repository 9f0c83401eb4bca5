package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-site/internal/phone"
)

var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

// MessageHandler receives incoming text messages. phone is in E.164 form.
type MessageHandler func(ctx context.Context, phone, text string) error

type Config struct {
	DataDir string
	// Wedding details used in invitation messages
	Wedding Wedding
}

type Service struct {
	client *whatsmeow.Client
	phones *phone.Normalizer
	cfg    Config
	log    zerolog.Logger

	mu             sync.RWMutex
	messageHandler MessageHandler
}

// NewService opens the device store and creates the client. Call Connect
// before sending.
func NewService(ctx context.Context, cfg Config, phones *phone.Normalizer, log zerolog.Logger) (*Service, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(cfg.DataDir, "whatsmeow.db"))
	// nil logger: sqlstore and whatsmeow fall back to a no-op logger
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	s := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		phones: phones,
		cfg:    cfg,
		log:    log.With().Str("component", "WhatsApp").Logger(),
	}
	s.client.AddEventHandler(s.eventHandler)
	return s, nil
}

// Connect connects to WhatsApp, printing a pairing QR code on first use
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, _ := s.client.GetQRChannel(ctx)
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		q, err := qrcode.New(evt.Code, qrcode.Medium)
		if err != nil {
			fmt.Printf("QR Code: %s\n", evt.Code)
			fmt.Println("Please scan this QR code with WhatsApp to connect.")
			continue
		}
		fmt.Println("\n" + q.ToSmallString(false))
		fmt.Println("📱 Please scan the QR code above with WhatsApp:")
		fmt.Println("   1. Open WhatsApp on your phone")
		fmt.Println("   2. Go to Settings > Linked Devices")
		fmt.Println("   3. Tap 'Link a Device'")
		fmt.Println("   4. Scan the QR code shown above")
		fmt.Println()
	}
	return nil
}

func (s *Service) Disconnect() {
	s.client.Disconnect()
}

func (s *Service) IsConnected() bool {
	return s.client.IsConnected()
}

// SendAccessCode delivers a one-time login code
func (s *Service) SendAccessCode(ctx context.Context, phoneNumber, code string) error {
	return s.SendMessage(ctx, phoneNumber, AccessCodeText(s.cfg.Wedding, code))
}

// SendInvitation sends the wedding invitation with a link to the site
func (s *Service) SendInvitation(ctx context.Context, phoneNumber, name, link string) error {
	if err := s.SendMessage(ctx, phoneNumber, InvitationText(s.cfg.Wedding, name, link)); err != nil {
		return fmt.Errorf("failed to send invitation: %w", err)
	}
	return nil
}

// SendMessage sends a text message after checking the number is on WhatsApp
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	digits, err := s.phones.Digits(phoneNumber)
	if err != nil {
		return err
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{digits})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%w: %s", ErrNotOnWhatsApp, digits)
	}
	jid := resp[0].JID

	s.log.Debug().Str("jid", jid.String()).Str("phone", digits).Msg("Sending message")
	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid, err)
	}
	s.log.Info().Str("id", sent.ID).Str("jid", jid.String()).Msg("Message sent")
	return nil
}

// SetMessageHandler sets the callback for incoming text messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageHandler = handler
}

func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}

func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Message == nil {
		return
	}
	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(text) == "" {
		return
	}
	// Only phone-number senders can be matched to a guest
	if msg.Info.Sender.Server != types.DefaultUserServer {
		s.log.Debug().Str("sender", msg.Info.Sender.String()).Msg("Ignoring message from non-phone sender")
		return
	}

	s.mu.RLock()
	handler := s.messageHandler
	s.mu.RUnlock()
	if handler == nil {
		s.log.Info().Str("sender", msg.Info.Sender.String()).Msg("Received message")
		return
	}
	if err := handler(context.Background(), "+"+msg.Info.Sender.User, text); err != nil {
		s.log.Error().Err(err).Str("sender", msg.Info.Sender.String()).Msg("Error handling message")
	}
}
