package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/miekas/podradio/internal/history"
	"github.com/miekas/podradio/internal/player"
)

// Package-level wiring, set once from main before the session opens.
var (
	ctrl *player.Controller
	hist *history.Store
	log  zerolog.Logger
)

// Configure installs the controller and optional history store the command
// handlers act on.
func Configure(logger zerolog.Logger, c *player.Controller, h *history.Store) {
	log = logger.With().Str("component", "commands").Logger()
	ctrl = c
	hist = h
}

func sendEmbedMessage(s *discordgo.Session, channelID, title, description string, color int) {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Warn().Err(err).Msg("failed to send embed")
	}
}

func sendError(s *discordgo.Session, channelID string, err error) {
	sendEmbedMessage(s, channelID, "❌ Error", err.Error(), 0xff0000)
}

// formatPosition renders a playback position as h/m/s.
func formatPosition(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
