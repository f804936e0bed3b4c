package commands

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// NowPlayingCommand reports the current episode and playback position.
func NowPlayingCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	ep, pos, err := ctrl.NowPlaying()
	if err != nil {
		embed := &discordgo.MessageEmbed{
			Title:       "📻 Now Playing",
			Description: "Nothing is currently playing",
			Color:       0x808080,
			Timestamp:   time.Now().Format(time.RFC3339),
		}
		s.ChannelMessageSendEmbed(m.ChannelID, embed)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📻 Now Playing",
		Description: fmt.Sprintf("**%s**", ep.Title),
		Color:       0x00ff00,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Position",
				Value:  formatPosition(pos),
				Inline: true,
			},
			{
				Name:   "Status",
				Value:  ctrl.Status().String(),
				Inline: true,
			},
		},
	}
	if !ep.PublishedAt.IsZero() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Published",
			Value:  ep.PublishedAt.Format("Jan 2, 2006"),
			Inline: true,
		})
	}

	s.ChannelMessageSendEmbed(m.ChannelID, embed)
}
