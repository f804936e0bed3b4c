package presence

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func voiceState(userID, channelID string) *discordgo.VoiceState {
	return &discordgo.VoiceState{UserID: userID, ChannelID: channelID}
}

func TestCountListeners(t *testing.T) {
	bots := map[string]bool{"radio-bot": true}
	isBot := func(userID string) bool { return bots[userID] }

	tests := []struct {
		name   string
		states []*discordgo.VoiceState
		want   int
	}{
		{
			name:   "empty channel",
			states: nil,
			want:   0,
		},
		{
			name: "only the bot itself",
			states: []*discordgo.VoiceState{
				voiceState("radio-bot", "vc1"),
			},
			want: 0,
		},
		{
			name: "bot plus two listeners",
			states: []*discordgo.VoiceState{
				voiceState("radio-bot", "vc1"),
				voiceState("alice", "vc1"),
				voiceState("bob", "vc1"),
			},
			want: 2,
		},
		{
			name: "listeners in other channels ignored",
			states: []*discordgo.VoiceState{
				voiceState("alice", "vc2"),
				voiceState("bob", "vc1"),
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountListeners(tt.states, "vc1", isBot)
			assert.Equal(t, tt.want, got)
		})
	}
}
