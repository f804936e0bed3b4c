package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// RecentCommand lists the last few played episodes from the history store.
func RecentCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	if hist == nil {
		sendEmbedMessage(s, m.ChannelID, "📜 Recently Played", "Play history is not enabled.", 0x808080)
		return
	}

	entries, err := hist.Recent(10)
	if err != nil {
		sendError(s, m.ChannelID, err)
		return
	}
	if len(entries) == 0 {
		sendEmbedMessage(s, m.ChannelID, "📜 Recently Played", "Nothing has played yet.", 0x808080)
		return
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "• **%s** - %s (%s)\n", e.Title, e.Outcome, e.At.Format("Jan 2 15:04"))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📜 Recently Played",
		Description: b.String(),
		Color:       0x0099ff,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}
