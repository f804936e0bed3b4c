package presence

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/miekas/podradio/internal/feed"
)

// Activity mirrors playback into the bot's status and, when an announce
// channel is configured, posts an embed on each episode transition.
// Implements player.Notifier.
type Activity struct {
	log               zerolog.Logger
	session           *discordgo.Session
	announceChannelID string
}

// NewActivity creates the announcement sink. announceChannelID may be empty.
func NewActivity(log zerolog.Logger, session *discordgo.Session, announceChannelID string) *Activity {
	return &Activity{
		log:               log.With().Str("component", "activity").Logger(),
		session:           session,
		announceChannelID: announceChannelID,
	}
}

// NowPlaying updates the bot status and announces the episode.
func (a *Activity) NowPlaying(ep feed.Episode, offset time.Duration) {
	status := discordgo.UpdateStatusData{
		Status: "online",
		Activities: []*discordgo.Activity{
			{
				Name:  "to",
				Type:  discordgo.ActivityTypeListening,
				State: ep.Title,
			},
		},
	}
	if err := a.session.UpdateStatusComplex(status); err != nil {
		a.log.Warn().Err(err).Msg("failed to update bot status")
	}

	if a.announceChannelID == "" || offset > 0 {
		// Resumed segments are not re-announced.
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📻 Now Playing",
		Description: fmt.Sprintf("**%s**", ep.Title),
		Color:       0x00ff00,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if !ep.PublishedAt.IsZero() {
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name:   "Published",
				Value:  ep.PublishedAt.Format("Jan 2, 2006"),
				Inline: true,
			},
		}
	}
	if _, err := a.session.ChannelMessageSendEmbed(a.announceChannelID, embed); err != nil {
		a.log.Warn().Err(err).Msg("failed to send now-playing announcement")
	}
}

// Paused clears the listening status.
func (a *Activity) Paused(reason string) {
	status := discordgo.UpdateStatusData{
		Status: "idle",
		Activities: []*discordgo.Activity{
			{
				Name:  "for listeners",
				Type:  discordgo.ActivityTypeWatching,
				State: reason,
			},
		},
	}
	if err := a.session.UpdateStatusComplex(status); err != nil {
		a.log.Warn().Err(err).Msg("failed to update bot status")
	}
}
