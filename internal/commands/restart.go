package commands

import (
	"github.com/bwmarrin/discordgo"
)

// RestartCommand replays the current episode from the beginning.
func RestartCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := ctrl.Restart(); err != nil {
		sendError(s, m.ChannelID, err)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "🔄 Restarted", "Playing the current episode from the top.", 0x00ff00)
}
