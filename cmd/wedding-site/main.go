package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"wedding-site/internal/auth"
	"wedding-site/internal/config"
	"wedding-site/internal/handler"
	"wedding-site/internal/media"
	"wedding-site/internal/models"
	"wedding-site/internal/phone"
	"wedding-site/internal/server"
	"wedding-site/internal/spreadsheet"
	"wedding-site/internal/storage"
	"wedding-site/internal/whatsapp"
)

func main() {
	console := flag.Bool("console", false, "start the interactive operator console")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.LogLevel)

	if err := run(cfg, log, *console); err != nil {
		log.Fatal().Err(err).Msg("Exiting")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stdout)
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

func run(cfg *config.Config, log zerolog.Logger, console bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.DBDriver, cfg.DBDSN, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}
	if err := store.SeedSlides(ctx, models.DefaultSlides()); err != nil {
		return err
	}
	if err := store.SeedSettings(ctx, map[string]string{
		models.SettingWeddingDate:     cfg.WeddingDate,
		models.SettingWeddingLocation: cfg.WeddingLocation,
		models.SettingBrideName:       cfg.BrideName,
		models.SettingGroomName:       cfg.GroomName,
	}); err != nil {
		return err
	}

	phones := phone.NewNormalizer(cfg.DefaultRegion)

	codes, closeCodes, err := newCodeStore(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer closeCodes()

	mediaStore, mediaDir, err := newMediaStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	wedding := whatsapp.Wedding{
		Date:      cfg.WeddingDate,
		Location:  cfg.WeddingLocation,
		BrideName: cfg.BrideName,
		GroomName: cfg.GroomName,
	}

	var (
		sender   auth.CodeSender = auth.NewLogSender(log)
		wa       *whatsapp.Service
		messages *handler.MessageHandler
	)
	if cfg.WhatsAppEnabled {
		wa, err = whatsapp.NewService(ctx, whatsapp.Config{DataDir: cfg.WhatsAppDataDir, Wedding: wedding}, phones, log)
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp: %w", err)
		}
		defer wa.Disconnect()
		sender = wa
		messages = handler.NewMessageHandler(wa, store, phones, wedding, cfg.SiteURL+"/auth", log)
		wa.SetMessageHandler(messages.HandleReply)

		log.Info().Msg("Connecting to WhatsApp")
		if err := wa.Connect(ctx); err != nil {
			return err
		}
	}

	var sheets *spreadsheet.SheetsSource
	if cfg.GoogleServiceAccountJSON != "" {
		sheets, err = spreadsheet.NewSheetsSource(ctx, cfg.GoogleServiceAccountJSON)
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets: %w", err)
		}
	}

	gate := auth.NewGate(auth.Config{
		Store:   store,
		Phones:  phones,
		Tokens:  auth.NewTokens(cfg.SessionSecret, cfg.SessionTTL),
		Codes:   codes,
		Sender:  sender,
		CodeTTL: cfg.CodeTTL,
		Log:     log,
	})
	admin := handler.NewAdminHandler(handler.AdminConfig{
		Storage:        store,
		Phones:         phones,
		Gate:           gate,
		Media:          mediaStore,
		MaxUploadBytes: cfg.MediaMaxBytes,
		Log:            log,
	})
	itinerary := handler.NewItineraryHandler(store)

	srv := server.New(server.Config{
		Addr:           cfg.HTTPAddr,
		Gate:           gate,
		Guard:          handler.NewRoleGuard(store),
		RSVP:           handler.NewRSVPHandler(store, log),
		Itinerary:      itinerary,
		Admin:          admin,
		Messages:       messages,
		Sheets:         sheets,
		MediaDir:       mediaDir,
		MaxUploadBytes: cfg.MediaMaxBytes,
		Log:            log,
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if console {
		c := &operatorConsole{admin: admin, itinerary: itinerary, messages: messages, in: os.Stdin}
		go func() {
			c.run(ctx)
			stop()
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown")
	}
	fmt.Println("Goodbye! 👋")
	return nil
}

// newCodeStore uses Redis when configured so codes survive restarts and are
// shared between instances
func newCodeStore(ctx context.Context, redisURL string) (auth.CodeStore, func(), error) {
	if redisURL == "" {
		return auth.NewMemoryCodeStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return auth.NewRedisCodeStore(client), func() { client.Close() }, nil
}

// newMediaStore returns the store and, for the local backend, the directory
// the HTTP server exposes
func newMediaStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (media.Store, string, error) {
	if cfg.MediaBackend == "s3" {
		s, err := media.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL, log)
		return s, "", err
	}
	s, err := media.NewDirStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		return nil, "", err
	}
	return s, s.Dir(), nil
}
