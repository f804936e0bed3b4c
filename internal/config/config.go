package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything the bot needs at startup. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	DiscordToken      string
	GuildID           string
	VoiceChannelID    string
	AnnounceChannelID string // optional; empty disables announcements
	FeedURL           string

	FFmpegPath  string
	OpusBitrate int

	WatchdogWindow    time.Duration
	StaleThreshold    time.Duration
	RetryDelay        time.Duration
	RefreshInterval   time.Duration
	GraceWindow       time.Duration
	RejoinDelay       time.Duration
	KeepAliveInterval time.Duration

	HistoryPath   string // optional; empty disables play history
	CommandPrefix string
}

// LoadConfig reads configuration from the environment. A missing .env file is
// not an error; missing required keys are.
func LoadConfig() (*Config, error) {
	// Best-effort: deployments usually set real env vars instead.
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		GuildID:           os.Getenv("GUILD_ID"),
		VoiceChannelID:    os.Getenv("VOICE_CHANNEL_ID"),
		AnnounceChannelID: os.Getenv("ANNOUNCE_CHANNEL_ID"),
		FeedURL:           os.Getenv("FEED_URL"),

		FFmpegPath:  envString("FFMPEG_PATH", "ffmpeg"),
		OpusBitrate: envInt("OPUS_BITRATE", 128000),

		WatchdogWindow:    envDuration("WATCHDOG_WINDOW", 30*time.Second),
		StaleThreshold:    envDuration("STALE_THRESHOLD", 30*time.Minute),
		RetryDelay:        envDuration("RETRY_DELAY", 5*time.Second),
		RefreshInterval:   envDuration("FEED_REFRESH_INTERVAL", 30*time.Minute),
		GraceWindow:       envDuration("VOICE_GRACE_WINDOW", 15*time.Second),
		RejoinDelay:       envDuration("VOICE_REJOIN_DELAY", 10*time.Second),
		KeepAliveInterval: envDuration("VOICE_KEEPALIVE_INTERVAL", 5*time.Minute),

		HistoryPath:   os.Getenv("HISTORY_DB_PATH"),
		CommandPrefix: envString("COMMAND_PREFIX", "!"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DiscordToken == "":
		return errors.New("DISCORD_TOKEN is not set")
	case c.GuildID == "":
		return errors.New("GUILD_ID is not set")
	case c.VoiceChannelID == "":
		return errors.New("VOICE_CHANNEL_ID is not set")
	case c.FeedURL == "":
		return errors.New("FEED_URL is not set")
	}

	if c.WatchdogWindow <= 0 {
		return errors.New("WATCHDOG_WINDOW must be positive")
	}
	if c.StaleThreshold <= 0 {
		return errors.New("STALE_THRESHOLD must be positive")
	}
	if c.RetryDelay <= 0 {
		return errors.New("RETRY_DELAY must be positive")
	}
	if c.OpusBitrate <= 0 {
		return errors.New("OPUS_BITRATE must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
