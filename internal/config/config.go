// Package config provides configuration management for AniPost.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the AniPost server.
type Config struct {
	// ServerAddr is the address the HTTP server listens on (e.g., ":7090").
	ServerAddr string

	// TelegramBotToken is the token from @BotFather.
	TelegramBotToken string

	// ChannelTag is the channel handle appended to every caption.
	ChannelTag string

	// Catalog source: a JSON listing hosted in a GitHub repository.
	CatalogOwner string
	CatalogRepo  string
	CatalogPath  string
	// CatalogTTL is how long a fetched catalog snapshot is reused.
	CatalogTTL time.Duration

	// WatchBaseURL is the site the watch deep link points at.
	// The AID from the catalog is appended as ?aid=<aid>.
	WatchBaseURL string
	// DownloadBaseURL is the search page the download link points at.
	DownloadBaseURL string

	// PlaceholderImage is used when no candidate image URL validates.
	PlaceholderImage string

	// WelcomeImage is sent with the /start reply.
	WelcomeImage string
	// JoinURL is the channel invite offered on /start.
	JoinURL string

	// SessionTTL is the dialog idle expiry.
	SessionTTL time.Duration

	// Slack announcer (optional -- mirrors finalized posts to a channel).
	// SlackBotToken is the Bot User OAuth Token (xoxb-...).
	SlackBotToken string
	// SlackChannel is the channel ID posts are mirrored into.
	SlackChannel string

	// LogLevel is the logrus level name ("debug", "info", ...).
	LogLevel string
}

// Load creates a Config from environment variables with sensible defaults.
// A .env file in the working directory is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:       envOr("ANIPOST_ADDR", ":7090"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ChannelTag:       envOr("ANIPOST_CHANNEL_TAG", "@ANIFLIX_OFFICIAL"),
		CatalogOwner:     envOr("ANIPOST_CATALOG_OWNER", "OtakuFlix"),
		CatalogRepo:      envOr("ANIPOST_CATALOG_REPO", "ADATA"),
		CatalogPath:      envOr("ANIPOST_CATALOG_PATH", "anime_data.txt"),
		CatalogTTL:       envOrDuration("ANIPOST_CATALOG_TTL", 5*time.Minute),
		WatchBaseURL:     envOr("ANIPOST_WATCH_URL", "https://aniflix.in/detail"),
		DownloadBaseURL:  envOr("ANIPOST_DOWNLOAD_URL", "https://hindi.aniflix.in/search"),
		PlaceholderImage: envOr("ANIPOST_PLACEHOLDER_IMAGE", "https://iili.io/39xn6H7.md.jpg"),
		WelcomeImage:     envOr("ANIPOST_WELCOME_IMAGE", "https://iili.io/39xn6H7.md.jpg"),
		JoinURL:          envOr("ANIPOST_JOIN_URL", "https://t.me/ANIFLIX_OFFICIAL"),
		SessionTTL:       envOrDuration("ANIPOST_SESSION_TTL", 10*time.Minute),
		SlackBotToken:    os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:     os.Getenv("SLACK_ANNOUNCE_CHANNEL"),
		LogLevel:         envOr("ANIPOST_LOG_LEVEL", "info"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.CatalogOwner == "" || c.CatalogRepo == "" || c.CatalogPath == "" {
		return fmt.Errorf("catalog source (owner, repo, path) is required")
	}
	return nil
}

// SlackEnabled returns true if the Slack announcer is configured.
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}
