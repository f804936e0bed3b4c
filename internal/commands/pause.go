package commands

import (
	"github.com/bwmarrin/discordgo"
)

// PauseCommand suspends playback, keeping the current position.
func PauseCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := ctrl.Pause(); err != nil {
		sendError(s, m.ChannelID, err)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "⏸️ Playback Paused", "Playback has been paused.", 0xffa500)
}
