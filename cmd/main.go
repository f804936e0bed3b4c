package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/miekas/podradio/internal/commands"
	"github.com/miekas/podradio/internal/config"
	"github.com/miekas/podradio/internal/feed"
	"github.com/miekas/podradio/internal/ffmpeg"
	"github.com/miekas/podradio/internal/handlers"
	"github.com/miekas/podradio/internal/history"
	"github.com/miekas/podradio/internal/player"
	"github.com/miekas/podradio/internal/presence"
	"github.com/miekas/podradio/internal/queue"
	"github.com/miekas/podradio/internal/voice"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "podradio").Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// The initial fetch must succeed: a radio with no episodes is a
	// deployment problem, not something to retry forever silently.
	fetcher := feed.NewFetcher(cfg.FeedURL)
	episodes, err := fetcher.Fetch(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("initial feed fetch failed")
	}
	q := queue.New()
	if !q.Replace(episodes) {
		logger.Fatal().Str("feed", cfg.FeedURL).Msg("feed has no playable episodes")
	}
	logger.Info().Int("episodes", q.Len()).Msg("feed loaded")

	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(logger, cfg.HistoryPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open history database")
		}
		defer hist.Close()
	}

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create Discord session")
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	supervisor := voice.NewSupervisor(logger, dg, voice.Config{
		GuildID:           cfg.GuildID,
		ChannelID:         cfg.VoiceChannelID,
		GraceWindow:       cfg.GraceWindow,
		RejoinDelay:       cfg.RejoinDelay,
		KeepAliveInterval: cfg.KeepAliveInterval,
	})

	transcoder := ffmpeg.NewTranscoder(logger, cfg.FFmpegPath, cfg.OpusBitrate, supervisor)

	ctrl := player.New(logger, q, transcoder, player.Config{
		WatchdogWindow: cfg.WatchdogWindow,
		StaleThreshold: cfg.StaleThreshold,
		RetryDelay:     cfg.RetryDelay,
	})
	ctrl.SetNotifier(presence.NewActivity(logger, dg, cfg.AnnounceChannelID))
	if hist != nil {
		ctrl.SetRecorder(hist)
	}

	gate := presence.NewGate(logger, cfg.GuildID, cfg.VoiceChannelID, ctrl)
	dg.AddHandler(gate.HandleVoiceStateUpdate)

	commands.Configure(logger, ctrl, hist)
	handlers.Prefix = cfg.CommandPrefix
	dg.AddHandler(handlers.MessageHandler)

	if err := dg.Open(); err != nil {
		logger.Fatal().Err(err).Msg("failed to open Discord session")
	}

	// Failure to acquire the initial voice session is fatal by design.
	if err := supervisor.Connect(); err != nil {
		dg.Close()
		logger.Fatal().Err(err).Msg("failed to join voice channel")
	}
	go supervisor.Run()

	// Catch listeners who were already in the channel before we joined.
	gate.Sync(dg)

	ctx, cancel := context.WithCancel(context.Background())
	go feed.RunRefresher(ctx, logger, fetcher, q, cfg.RefreshInterval)

	logger.Info().Msg("podradio is running, press CTRL-C to exit")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	// Shutdown order: timers and pipeline first, then the voice session,
	// then the gateway connection.
	cancel()
	ctrl.Shutdown()
	supervisor.Close()
	dg.Close()
}
