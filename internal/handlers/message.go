package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/miekas/podradio/internal/commands"
)

// Prefix is the command prefix, set from config before the session opens.
var Prefix = "!"

// MessageHandler dispatches prefix commands to the command handlers.
func MessageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore all messages created by the bot itself
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !strings.HasPrefix(m.Content, Prefix) {
		return
	}

	args := strings.Fields(m.Content)
	command := strings.TrimPrefix(args[0], Prefix)

	switch command {
	case "np", "nowplaying":
		commands.NowPlayingCommand(s, m)
	case "skip":
		commands.SkipCommand(s, m)
	case "restart":
		commands.RestartCommand(s, m)
	case "pause":
		commands.PauseCommand(s, m)
	case "resume":
		commands.ResumeCommand(s, m)
	case "recent":
		commands.RecentCommand(s, m)
	case "help":
		commands.HelpCommand(s, m)
	}
}
