package presence

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// PlaybackControls is the slice of the player the gate drives. The gate never
// reads playback state; it only fires these triggers.
type PlaybackControls interface {
	StartOrResume()
	PauseForEmpty()
}

// Gate observes membership of the target voice channel and translates count
// transitions into pause/resume triggers: pause when the last listener
// leaves, start or resume when the first one joins.
type Gate struct {
	log       zerolog.Logger
	guildID   string
	channelID string
	ctrl      PlaybackControls

	mu        sync.Mutex
	listeners int
}

// NewGate creates a presence gate for one voice channel.
func NewGate(log zerolog.Logger, guildID, channelID string, ctrl PlaybackControls) *Gate {
	return &Gate{
		log:       log.With().Str("component", "presence").Logger(),
		guildID:   guildID,
		channelID: channelID,
		ctrl:      ctrl,
	}
}

// HandleVoiceStateUpdate is registered as a discordgo handler. On every
// membership change it recounts non-bot members of the target channel and
// fires the matching trigger on a zero boundary crossing.
func (g *Gate) HandleVoiceStateUpdate(s *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	if e.GuildID != g.guildID {
		return
	}
	// Only updates touching the target channel matter.
	if e.ChannelID != g.channelID && (e.BeforeUpdate == nil || e.BeforeUpdate.ChannelID != g.channelID) {
		return
	}

	g.recount(s)
}

// Sync recounts once at startup so listeners already present when the bot
// joins trigger playback without waiting for a membership change.
func (g *Gate) Sync(s *discordgo.Session) {
	g.recount(s)
}

func (g *Gate) recount(s *discordgo.Session) {
	guild, err := s.State.Guild(g.guildID)
	if err != nil {
		g.log.Warn().Err(err).Msg("guild not in state cache, skipping recount")
		return
	}

	count := CountListeners(guild.VoiceStates, g.channelID, func(userID string) bool {
		return isBot(s, g.guildID, userID)
	})

	g.mu.Lock()
	prev := g.listeners
	g.listeners = count
	g.mu.Unlock()

	if prev == count {
		return
	}
	g.log.Debug().Int("listeners", count).Msg("listener count changed")

	switch {
	case prev == 0 && count > 0:
		g.ctrl.StartOrResume()
	case prev > 0 && count == 0:
		g.ctrl.PauseForEmpty()
	}
}

// CountListeners counts non-bot members of the given channel.
func CountListeners(states []*discordgo.VoiceState, channelID string, bot func(userID string) bool) int {
	count := 0
	for _, vs := range states {
		if vs.ChannelID != channelID {
			continue
		}
		if bot(vs.UserID) {
			continue
		}
		count++
	}
	return count
}

func isBot(s *discordgo.Session, guildID, userID string) bool {
	if s.State.User != nil && s.State.User.ID == userID {
		return true
	}
	member, err := s.State.Member(guildID, userID)
	if err != nil || member.User == nil {
		// Fall back to the REST API; unknown users count as listeners.
		m, err := s.GuildMember(guildID, userID)
		if err != nil || m.User == nil {
			return false
		}
		member = m
	}
	return member.User.Bot
}
