package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/hmdqr/FastSM/internal/api"
	"github.com/hmdqr/FastSM/internal/platform"
	"github.com/hmdqr/FastSM/internal/platform/bluesky"
	"github.com/hmdqr/FastSM/internal/platform/mastodon"
	"github.com/hmdqr/FastSM/internal/streaming"
	"github.com/hmdqr/FastSM/internal/usercache"
)

// config is read from FASTSM_-prefixed environment variables.
type config struct {
	Addr    string `envconfig:"ADDR" default:":8080"`
	ConfDir string `envconfig:"CONF_DIR" default:"."`
	Debug   bool   `envconfig:"DEBUG"`

	// StreamURL, when set, enables the live-update listener.
	StreamURL string `envconfig:"STREAM_URL"`

	MastodonServer string `envconfig:"MASTODON_SERVER"`
	MastodonToken  string `envconfig:"MASTODON_TOKEN"`

	BlueskyHost  string `envconfig:"BLUESKY_HOST"`
	BlueskyToken string `envconfig:"BLUESKY_TOKEN"`
	BlueskyDID   string `envconfig:"BLUESKY_DID"`
}

func main() {
	var cfg config
	if err := envconfig.Process("fastsm", &cfg); err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to read configuration")
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	accounts := buildAccounts(cfg, log)
	if len(accounts) == 0 {
		log.Fatal().Msg("no accounts configured; set FASTSM_MASTODON_* or FASTSM_BLUESKY_*")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := openStores(cfg, accounts, log)
	defer saveStores(stores, accounts, log)

	if cfg.StreamURL != "" {
		for name, acct := range accounts {
			merger := streaming.NewMerger(acct.Me(), acct.UserCache())
			listener := streaming.NewListener(cfg.StreamURL, merger, log.With().Str("platform", name).Logger())
			go func() {
				if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("stream listener stopped")
				}
			}()
		}
	}

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewServer(accounts, log).Router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("addr", cfg.Addr).Strs("platforms", platform.Platforms()).Msg("gateway starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func buildAccounts(cfg config, log zerolog.Logger) map[string]platform.Account {
	accounts := make(map[string]platform.Account)

	if cfg.MastodonServer != "" && cfg.MastodonToken != "" {
		acct, err := platform.New(mastodon.PlatformName, platform.Config{
			Server:      cfg.MastodonServer,
			AccessToken: cfg.MastodonToken,
			ConfDir:     cfg.ConfDir,
			Reporter:    platform.NewLogReporter(log.With().Str("platform", mastodon.PlatformName).Logger()),
			Logger:      log,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to set up mastodon account")
		} else {
			accounts[mastodon.PlatformName] = acct
		}
	}

	if cfg.BlueskyDID != "" && cfg.BlueskyToken != "" {
		acct, err := platform.New(bluesky.PlatformName, platform.Config{
			Server:      cfg.BlueskyHost,
			AccessToken: cfg.BlueskyToken,
			Identifier:  cfg.BlueskyDID,
			ConfDir:     cfg.ConfDir,
			Reporter:    platform.NewLogReporter(log.With().Str("platform", bluesky.PlatformName).Logger()),
			Logger:      log,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to set up bluesky account")
		} else {
			accounts[bluesky.PlatformName] = acct
		}
	}

	return accounts
}

// openStores opens each account's user-cache snapshot and seeds the
// live cache from it. Snapshot problems are logged and ignored; the
// cache just starts cold.
func openStores(cfg config, accounts map[string]platform.Account, log zerolog.Logger) map[string]*usercache.Store {
	stores := make(map[string]*usercache.Store)
	for name, acct := range accounts {
		path := filepath.Join(cfg.ConfDir, name+"_users.db")
		store, err := usercache.OpenStore(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("user cache snapshot unavailable")
			continue
		}
		stores[name] = store

		loaded, err := store.Load()
		if err != nil {
			log.Warn().Err(err).Str("platform", name).Msg("failed to load user cache snapshot")
			continue
		}
		users := loaded.Users()
		// Re-add oldest first so the snapshot's recency order survives.
		for i := len(users) - 1; i >= 0; i-- {
			acct.UserCache().AddUser(users[i])
		}
		log.Info().Str("platform", name).Int("users", len(users)).Msg("user cache loaded")
	}
	return stores
}

func saveStores(stores map[string]*usercache.Store, accounts map[string]platform.Account, log zerolog.Logger) {
	for name, store := range stores {
		if acct, ok := accounts[name]; ok {
			if err := store.Save(acct.UserCache()); err != nil {
				log.Warn().Err(err).Str("platform", name).Msg("failed to save user cache snapshot")
			}
		}
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Str("platform", name).Msg("failed to close user cache snapshot")
		}
	}
}
