package commands

import (
	"github.com/bwmarrin/discordgo"
)

// SkipCommand advances to the next episode in the feed.
func SkipCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := ctrl.Skip(); err != nil {
		sendError(s, m.ChannelID, err)
		return
	}
	sendEmbedMessage(s, m.ChannelID, "⏭️ Skipped", "Moving on to the next episode.", 0x00ff00)
}
