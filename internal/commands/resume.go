package commands

import (
	"github.com/bwmarrin/discordgo"
)

// ResumeCommand continues playback from the saved position.
func ResumeCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := ctrl.Resume(); err != nil {
		sendError(s, m.ChannelID, err)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "▶️ Playback Resumed", "Picking up where we left off.", 0x00ff00)
}
