package commands

import (
	"github.com/bwmarrin/discordgo"
)

// HelpCommand lists the available commands.
func HelpCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title: "📻 Radio Commands",
		Color: 0x0099ff,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "!np", Value: "Show the current episode and position", Inline: false},
			{Name: "!skip", Value: "Jump to the next episode", Inline: false},
			{Name: "!restart", Value: "Replay the current episode from the start", Inline: false},
			{Name: "!pause", Value: "Pause playback (position is kept)", Inline: false},
			{Name: "!resume", Value: "Resume playback from the saved position", Inline: false},
			{Name: "!recent", Value: "List recently played episodes", Inline: false},
		},
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}
